// Package community reads crowd-sourced reports about addresses from the
// community registry.
package community

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
	"go.uber.org/zap"
)

const (
	reportsPath     = "/v1/reports/"
	maxResponseBody = 1 << 20
)

// TransportError is a failed or throttled registry call. It is the only error
// FetchReport returns, and it is worth retrying.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("community registry: %v", e.Err)
	}
	return fmt.Sprintf("community registry status %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RateLimited reports whether the registry throttled the call.
func (e *TransportError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	metrics Metrics
	logger  *zap.Logger
}

// NewClient builds a client for the registry at baseURL.
func NewClient(baseURL string, httpClient *http.Client, metrics Metrics, logger *zap.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("community base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse community base url: %w", err)
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
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		metrics: metrics,
		logger:  logger.Named("community"),
	}, nil
}

// FetchReport returns the report filed against address, or nil when there is
// none. Malformed reports are logged and treated as absent.
func (c *Client) FetchReport(ctx context.Context, address string) (report *model.CommunityReport, err error) {
	started := time.Now()
	defer func() {
		c.metrics.Observe("fetch_report", err, started)
	}()

	logger := c.logger.With(zap.String("address", address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+reportsPath+url.PathEscape(address), nil)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &TransportError{StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		logger.Warn("unexpected registry status, ignoring report", zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: err}
	}

	var body reportResponse
	if err := json.Unmarshal(payload, &body); err != nil {
		logger.Warn("malformed registry response, ignoring report", zap.Error(err))
		return nil, nil
	}
	if body.Report == nil {
		return nil, nil
	}

	converted, err := convertReport(*body.Report)
	if err != nil {
		logger.Warn("invalid report, ignoring", zap.Error(err))
		return nil, nil
	}
	return &converted, nil
}

func convertReport(src reportPayload) (model.CommunityReport, error) {
	switch {
	case strings.TrimSpace(src.Category) == "":
		return model.CommunityReport{}, errors.New("missing category")
	case src.VotesYes < 0 || src.VotesNo < 0:
		return model.CommunityReport{}, fmt.Errorf("negative votes %d/%d", src.VotesYes, src.VotesNo)
	case src.CreatedAt <= 0:
		return model.CommunityReport{}, errors.New("missing created_at")
	}

	report := model.CommunityReport{
		Category:  src.Category,
		VotesYes:  src.VotesYes,
		VotesNo:   src.VotesNo,
		Evidence:  append([]string(nil), src.Evidence...),
		CreatedAt: time.Unix(src.CreatedAt, 0).UTC(),
	}
	if src.VotingDeadline > 0 {
		report.ExpiresAt = time.Unix(src.VotingDeadline, 0).UTC()
	}
	return report, nil
}
