// Package etherscan fetches Ethereum account histories from the Etherscan
// API and expresses them as BTC-denominated transactions.
package etherscan

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/model"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the multichain Etherscan API.
	DefaultBaseURL = "https://api.etherscan.io/v2/api"

	mainnetChainID = "1"

	// maxPageSize is the most rows the API returns for one account query.
	maxPageSize = 10000

	actionTxList  = "txlist"
	actionTokenTx = "tokentx"

	noTransactions = "No transactions found"
	maxErrorBody   = 512
)

// Client is a rate-limited API client. It is safe for concurrent use.
type Client struct {
	baseURL  string
	apiKey   string
	pageSize int
	http     *http.Client
	limiter  ratelimit.Limiter
	prices   Prices
	metrics  Metrics
	logger   *zap.Logger
}

// NewClient builds a client. rps <= 0 disables rate limiting.
func NewClient(
	baseURL, apiKey string,
	httpClient *http.Client,
	rps int,
	prices Prices,
	metrics Metrics,
	logger *zap.Logger,
) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse etherscan base url: %w", err)
	}
	if apiKey == "" {
		return nil, errors.New("etherscan api key is required")
	}
	if httpClient == nil {
		return nil, errors.New("http client is required")
	}
	if prices == nil {
		return nil, errors.New("prices is required")
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

	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		pageSize: maxPageSize,
		http:     httpClient,
		limiter:  limiter,
		prices:   prices,
		metrics:  metrics,
		logger:   logger.Named("etherscan"),
	}, nil
}

// Transactions returns up to limit transactions of address, oldest first.
// ERC-20 transfers replace the Ether transaction that carried them and
// inherit its gas. Amounts are BTC equivalents at the transaction's month.
func (c *Client) Transactions(ctx context.Context, address string, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		return nil, nil
	}
	address = strings.ToLower(address)
	logger := c.logger.With(zap.String("address", address))

	native, err := c.fetchAll(ctx, actionTxList, address, limit)
	if err != nil {
		return nil, err
	}
	tokens, err := c.fetchAll(ctx, actionTokenTx, address, limit)
	if err != nil {
		return nil, err
	}

	merged := merge(native, tokens)
	if len(merged) > limit {
		merged = merged[:limit]
	}

	out := make([]model.Transaction, 0, len(merged))
	for _, raw := range merged {
		tx, ok, err := c.convertTx(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("convert address %s transactions: %w", address, err)
		}
		if ok {
			out = append(out, tx)
		}
	}

	logger.Debug("fetched address transactions",
		zap.Int("native", len(native)), zap.Int("token", len(tokens)), zap.Int("count", len(out)))
	return out, nil
}

// fetchAll pages through action by start block until the history ends or
// limit rows are in hand.
func (c *Client) fetchAll(ctx context.Context, action, address string, limit int) ([]apiTx, error) {
	var (
		all        []apiTx
		startBlock int64
	)
	for {
		page, err := c.fetchPage(ctx, action, address, startBlock)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < c.pageSize || len(all) >= limit {
			return all, nil
		}

		last := parseInt(page[len(page)-1].BlockNumber)
		if last < startBlock {
			return all, nil
		}
		startBlock = last + 1
	}
}

func (c *Client) fetchPage(ctx context.Context, action, address string, startBlock int64) (page []apiTx, err error) {
	c.limiter.Take()

	started := time.Now()
	defer func() {
		c.metrics.Observe(action, err, started)
	}()

	q := url.Values{}
	q.Set("chainid", mainnetChainID)
	q.Set("module", "account")
	q.Set("action", action)
	q.Set("address", address)
	q.Set("startblock", strconv.FormatInt(startBlock, 10))
	q.Set("endblock", "latest")
	q.Set("page", "1")
	q.Set("offset", strconv.Itoa(c.pageSize))
	q.Set("sort", "asc")
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", action, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", action, err)
	}
	if envelope.Status != "1" {
		if envelope.Message == noTransactions {
			return nil, nil
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: envelopeMessage(envelope)}
	}
	if err := json.Unmarshal(envelope.Result, &page); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", action, err)
	}
	return page, nil
}

// envelopeMessage prefers the result text, which carries the reason when the
// message is a bare NOTOK.
func envelopeMessage(envelope apiResponse) string {
	var reason string
	if err := json.Unmarshal(envelope.Result, &reason); err == nil && reason != "" {
		return reason
	}
	return envelope.Message
}

// merge lays token transfers over the Ether transactions that carried them
// and orders the result by time.
func merge(native, tokens []apiTx) []apiTx {
	parents := make(map[string]apiTx, len(native))
	for _, tx := range native {
		parents[tx.Hash] = tx
	}

	carried := make(map[string]struct{}, len(tokens))
	out := make([]apiTx, 0, len(native)+len(tokens))
	for _, tx := range tokens {
		tx.token = true
		if parent, ok := parents[tx.Hash]; ok {
			tx.GasUsed, tx.GasPrice = parent.GasUsed, parent.GasPrice
		}
		carried[tx.Hash] = struct{}{}
		out = append(out, tx)
	}
	for _, tx := range native {
		if _, ok := carried[tx.Hash]; !ok {
			out = append(out, tx)
		}
	}

	slices.SortStableFunc(out, func(a, b apiTx) int {
		return cmp.Compare(parseInt(a.TimeStamp), parseInt(b.TimeStamp))
	})
	return out
}

// parseInt reads a decimal field, treating anything unparsable as 0.
func parseInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
