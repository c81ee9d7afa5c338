package etherscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultCryptoCompareURL is the CryptoCompare historical price endpoint.
	DefaultCryptoCompareURL = "https://min-api.cryptocompare.com/data/pricehistorical"
	// DefaultDefiLlamaURL is the DefiLlama historical coin price endpoint.
	DefaultDefiLlamaURL = "https://coins.llama.fi/prices/historical"
)

var errNoQuote = errors.New("no quote")

// Oracle prices Ether and ERC-20 tokens per calendar month. CryptoCompare is
// asked first; tokens it does not list are priced in USD by DefiLlama.
// Quotes are cached for the life of the Oracle.
type Oracle struct {
	compareURL string
	llamaURL   string
	apiKey     string
	http       *http.Client
	limiter    ratelimit.Limiter
	metrics    Metrics
	logger     *zap.Logger

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]float64
}

// NewOracle builds an Oracle. An empty llamaURL disables the DefiLlama
// fallback. rps <= 0 disables rate limiting.
func NewOracle(
	compareURL, llamaURL, apiKey string,
	httpClient *http.Client,
	rps int,
	metrics Metrics,
	logger *zap.Logger,
) (*Oracle, error) {
	if compareURL == "" {
		compareURL = DefaultCryptoCompareURL
	}
	if _, err := url.ParseRequestURI(compareURL); err != nil {
		return nil, fmt.Errorf("parse cryptocompare url: %w", err)
	}
	if llamaURL != "" {
		if _, err := url.ParseRequestURI(llamaURL); err != nil {
			return nil, fmt.Errorf("parse defillama url: %w", err)
		}
	}
	if httpClient == nil {
		return nil, errors.New("http client is required")
	}
	if metrics == nil {
		return nil, errors.New("metrics is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	limiter := ratelimit.NewUnlimited()
	if rps > 0 {
		limiter = ratelimit.New(rps)
	}

	return &Oracle{
		compareURL: compareURL,
		llamaURL:   strings.TrimRight(llamaURL, "/"),
		apiKey:     apiKey,
		http:       httpClient,
		limiter:    limiter,
		metrics:    metrics,
		logger:     logger.Named("prices"),
		cache:      make(map[string]float64),
	}, nil
}

// ETHToBTC returns BTC per ETH for the month of at, falling back to a yearly
// average when no quote is available.
func (o *Oracle) ETHToBTC(ctx context.Context, at time.Time) float64 {
	rate, err := o.monthly(ctx, "ETH", "BTC", at)
	if err == nil {
		return rate
	}
	fallback := fallbackETHBTC(at.Year())
	o.logger.Warn("eth/btc quote unavailable, using yearly average",
		zap.Time("at", at), zap.Float64("rate", fallback), zap.Error(err))
	return fallback
}

// TokenToETH returns ETH per whole token for the month of at. Wrapped Ether is
// worth one ETH and the major dollar stablecoins one USD.
func (o *Oracle) TokenToETH(ctx context.Context, token Token, at time.Time) float64 {
	symbol := strings.ToUpper(token.Symbol)
	switch symbol {
	case "WETH":
		return 1
	case "USDT", "USDC", "DAI":
		return o.ethPerUSD(ctx, at)
	}

	if symbol != "" {
		if rate, err := o.monthly(ctx, symbol, "ETH", at); err == nil {
			return rate
		}
	}
	if o.llamaURL != "" && token.Contract != "" {
		usd, err := o.contractUSD(ctx, token.Contract, at)
		if err == nil {
			return usd * o.ethPerUSD(ctx, at)
		}
		o.logger.Debug("token quote unavailable",
			zap.String("contract", token.Contract), zap.String("symbol", symbol), zap.Error(err))
	}
	return 0
}

func (o *Oracle) ethPerUSD(ctx context.Context, at time.Time) float64 {
	usd, err := o.monthly(ctx, "ETH", "USD", at)
	if err != nil {
		return 0
	}
	return 1 / usd
}

// monthly returns the price of from in to on the first day of at's month.
// Only positive quotes are returned and cached.
func (o *Oracle) monthly(ctx context.Context, from, to string, at time.Time) (float64, error) {
	month := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
	key := from + "_" + to + "_" + month.Format("2006-01")
	return o.cached(key, func() (float64, error) {
		return o.historical(ctx, from, to, month)
	})
}

func (o *Oracle) contractUSD(ctx context.Context, contract string, at time.Time) (float64, error) {
	month := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
	key := "llama_" + contract + "_" + month.Format("2006-01")
	return o.cached(key, func() (float64, error) {
		return o.llama(ctx, contract, month)
	})
}

func (o *Oracle) cached(key string, fetch func() (float64, error)) (float64, error) {
	o.mu.Lock()
	price, ok := o.cache[key]
	o.mu.Unlock()
	if ok {
		return price, nil
	}

	v, err, _ := o.group.Do(key, func() (any, error) {
		price, err := fetch()
		if err != nil {
			return 0.0, err
		}
		if price <= 0 {
			return 0.0, errNoQuote
		}
		o.mu.Lock()
		o.cache[key] = price
		o.mu.Unlock()
		return price, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (o *Oracle) historical(ctx context.Context, from, to string, at time.Time) (float64, error) {
	q := url.Values{}
	q.Set("fsym", from)
	q.Set("tsyms", to)
	q.Set("ts", strconv.FormatInt(at.Unix(), 10))
	if o.apiKey != "" {
		q.Set("api_key", o.apiKey)
	}

	var body map[string]json.RawMessage
	if err := o.getJSON(ctx, "cryptocompare_price", o.compareURL+"?"+q.Encode(), &body); err != nil {
		return 0, err
	}
	if raw, ok := body["Response"]; ok && string(raw) == `"Error"` {
		var msg string
		_ = json.Unmarshal(body["Message"], &msg)
		return 0, fmt.Errorf("cryptocompare %s/%s: %s", from, to, msg)
	}

	var quotes map[string]float64
	raw, ok := body[from]
	if !ok {
		return 0, errNoQuote
	}
	if err := json.Unmarshal(raw, &quotes); err != nil {
		return 0, fmt.Errorf("decode cryptocompare %s quote: %w", from, err)
	}
	return quotes[to], nil
}

func (o *Oracle) llama(ctx context.Context, contract string, at time.Time) (float64, error) {
	coin := "ethereum:" + contract
	endpoint := fmt.Sprintf("%s/%d/%s", o.llamaURL, at.Unix(), url.PathEscape(coin))

	var body struct {
		Coins map[string]struct {
			Price float64 `json:"price"`
		} `json:"coins"`
	}
	if err := o.getJSON(ctx, "defillama_price", endpoint, &body); err != nil {
		return 0, err
	}
	return body.Coins[coin].Price, nil
}

func (o *Oracle) getJSON(ctx context.Context, operation, endpoint string, out any) (err error) {
	o.limiter.Take()

	started := time.Now()
	defer func() {
		o.metrics.Observe(operation, err, started)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", operation, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s status %d: %s", operation, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// fallbackETHBTC is a yearly average ETH/BTC ratio.
func fallbackETHBTC(year int) float64 {
	switch {
	case year <= 2016:
		return 0.02
	case year <= 2017:
		return 0.05
	case year <= 2018:
		return 0.08
	case year <= 2020:
		return 0.04
	default:
		return 0.067
	}
}
