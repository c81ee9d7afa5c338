// Package classifier submits feature vectors to the remote ransomware
// classification service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/features"
	"github.com/fradiumofficial/fradium-sub002/internal/model"
	"go.uber.org/zap"
)

const (
	classifyPath = "/v1/classify"

	maxResponseBody = 1 << 20
)

// Client talks to the classification service. It never retries.
type Client struct {
	endpoint string
	apiKey   string
	chain    model.ChainKind
	names    []string
	http     *http.Client
	metrics  Metrics
	logger   *zap.Logger
}

// NewClient builds a client for the service at baseURL.
func NewClient(baseURL, apiKey string, httpClient *http.Client, metrics Metrics, logger *zap.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("classifier base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse classifier base url: %w", err)
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
		endpoint: strings.TrimRight(baseURL, "/") + classifyPath,
		apiKey:   apiKey,
		chain:    model.Bitcoin,
		http:     httpClient,
		metrics:  metrics,
		logger:   logger.Named("classifier"),
	}, nil
}

// ForChain returns a client that submits vectors in the layout the service
// expects for chain. Bitcoin vectors carry every canonical feature; Ethereum
// vectors carry EthereumNames alongside their values.
func (c *Client) ForChain(chain model.ChainKind) (*Client, error) {
	out := *c
	out.chain = chain
	switch chain {
	case model.Bitcoin:
		out.names = nil
	case model.Ethereum:
		out.names = features.EthereumNames()
	default:
		return nil, fmt.Errorf("%w: no classifier layout for %s", model.ErrUnsupportedChain, chain)
	}
	out.logger = c.logger.With(zap.String("chain", string(chain)))
	return &out, nil
}

// Classify scores the feature vector of address. Every error is an *Error.
func (c *Client) Classify(ctx context.Context, address string, vector features.Vector) (res model.ClassificationResult, err error) {
	started := time.Now()
	defer func() {
		c.metrics.Observe("classify", err, started)
	}()

	payloadReq := classifyRequest{
		Address:  address,
		Chain:    strings.ToLower(string(c.chain)),
		Features: vector.Slice(),
	}
	if c.names != nil {
		payloadReq.Features = vector.Select(c.names)
		payloadReq.FeatureNames = c.names
	}
	body, err := json.Marshal(payloadReq)
	if err != nil {
		return model.ClassificationResult{}, invalidResponse("encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return model.ClassificationResult{}, networkError("build request", 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return model.ClassificationResult{}, networkError("request failed", 0, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return model.ClassificationResult{}, networkError("read response", resp.StatusCode, err)
	}

	if err := statusError(resp.StatusCode, payload); err != nil {
		c.logger.Warn("classification refused",
			zap.String("address", address), zap.Int("status", resp.StatusCode), zap.Error(err))
		return model.ClassificationResult{}, err
	}

	return decodeResult(address, payload)
}

func statusError(status int, payload []byte) error {
	switch {
	case status >= 200 && status <= 299:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return rejected("unauthorized", status)
	case status == http.StatusTooManyRequests:
		return networkError("rate limited", status, nil)
	case status >= 500:
		return networkError(fmt.Sprintf("service status %d", status), status, nil)
	default:
		msg := strings.TrimSpace(string(payload))
		if msg == "" {
			msg = http.StatusText(status)
		}
		return rejected(msg, status)
	}
}

func decodeResult(address string, payload []byte) (model.ClassificationResult, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return model.ClassificationResult{}, invalidResponse("empty response", nil)
	}

	var resp classifyResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return model.ClassificationResult{}, invalidResponse("decode response", err)
	}

	switch {
	case resp.Err != nil:
		return model.ClassificationResult{}, rejected(*resp.Err, http.StatusOK)
	case resp.Ok == nil:
		return model.ClassificationResult{}, invalidResponse("response has no result", nil)
	}

	ok := resp.Ok
	if ok.Probability < 0 || ok.Probability > 1 {
		return model.ClassificationResult{}, invalidResponse(fmt.Sprintf("probability %v out of range", ok.Probability), nil)
	}
	level := model.ConfidenceLevel(strings.ToUpper(ok.ConfidenceLevel))
	if !level.Valid() {
		return model.ClassificationResult{}, invalidResponse(fmt.Sprintf("unknown confidence level %q", ok.ConfidenceLevel), nil)
	}
	if ok.TransactionsAnalyzed < 0 {
		return model.ClassificationResult{}, invalidResponse("negative transactions analyzed", nil)
	}

	return model.ClassificationResult{
		Address:              address,
		IsRansomware:         ok.IsRansomware,
		Probability:          ok.Probability,
		ConfidenceLevel:      level,
		ThresholdUsed:        ok.ThresholdUsed,
		TransactionsAnalyzed: ok.TransactionsAnalyzed,
	}, nil
}
