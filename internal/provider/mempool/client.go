// Package mempool fetches address transaction histories from an
// Esplora-compatible REST API such as mempool.space.
package mempool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/model"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the public mempool.space API.
	DefaultBaseURL = "https://mempool.space/api"

	// chainPageSize is the number of confirmed transactions per page returned by the API.
	chainPageSize = 25

	maxErrorBody = 512
)

// Client is a rate-limited API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter ratelimit.Limiter
	metrics Metrics
	logger  *zap.Logger
}

// NewClient builds a client. rps <= 0 disables rate limiting.
func NewClient(baseURL string, httpClient *http.Client, rps int, metrics Metrics, logger *zap.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse mempool base url: %w", err)
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

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		limiter: limiter,
		metrics: metrics,
		logger:  logger.Named("mempool"),
	}, nil
}

// Transactions returns up to limit transactions of address, newest first as
// ordered by the API. Mempool transactions come first on the initial page.
func (c *Client) Transactions(ctx context.Context, address string, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		return nil, nil
	}

	logger := c.logger.With(zap.String("address", address))
	escaped := url.PathEscape(address)

	page, err := c.fetchPage(ctx, "address_txs", fmt.Sprintf("%s/address/%s/txs", c.baseURL, escaped))
	if err != nil {
		return nil, err
	}

	out := make([]model.Transaction, 0, min(limit, len(page)))
	seen := make(map[string]struct{}, len(page))
	for {
		confirmed, lastConfirmed := 0, ""
		for _, raw := range page {
			if len(out) == limit {
				break
			}
			if _, dup := seen[raw.TxID]; dup {
				continue
			}
			tx, err := convertTx(raw)
			if err != nil {
				return nil, fmt.Errorf("convert address %s transactions: %w", address, err)
			}
			seen[raw.TxID] = struct{}{}
			out = append(out, tx)
			if raw.Status.Confirmed {
				confirmed++
				lastConfirmed = raw.TxID
			}
		}

		// A short confirmed page is the end of the chain history.
		if len(out) >= limit || confirmed < chainPageSize {
			break
		}

		page, err = c.fetchPage(ctx, "address_txs_chain",
			fmt.Sprintf("%s/address/%s/txs/chain/%s", c.baseURL, escaped, lastConfirmed))
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("fetched address transactions", zap.Int("count", len(out)))
	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, operation, endpoint string) (page []apiTx, err error) {
	c.limiter.Take()

	started := time.Now()
	defer func() {
		c.metrics.Observe(operation, err, started)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", operation, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", operation, err)
	}
	return page, nil
}
