package btcnode

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/rpcclient"
	"go.uber.org/ratelimit"
)

// RPCClient wraps btc rpcclient with metrics instrumentation and request pacing.
type RPCClient struct {
	client     *rpcclient.Client
	rpcMetrics RPCMetrics
	limiter    ratelimit.Limiter
}

// NewRPCClient constructs an instrumented RPC client. rps <= 0 disables pacing.
func NewRPCClient(client *rpcclient.Client, rpcMetrics RPCMetrics, rps int) *RPCClient {
	limiter := ratelimit.NewUnlimited()
	if rps > 0 {
		limiter = ratelimit.New(rps)
	}
	return &RPCClient{
		client:     client,
		rpcMetrics: rpcMetrics,
		limiter:    limiter,
	}
}

// Dial opens an HTTP POST mode connection to a node. The node must run with
// the address index enabled for SearchRawTransactions to work.
func Dial(rawURL, user, password string) (*rpcclient.Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("rpc url scheme %q not supported", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("rpc url missing host")
	}

	return rpcclient.New(&rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         user,
		Pass:         password,
		HTTPPostMode: true,
		DisableTLS:   parsed.Scheme == "http",
	}, nil)
}

// GetBlockCount returns the latest block count.
func (r *RPCClient) GetBlockCount() (count int64, err error) {
	r.limiter.Take()
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe("get_block_count", err, started)
	}()
	return r.client.GetBlockCount()
}

// SearchRawTransactionsVerbose returns a page of verbose transactions touching address.
func (r *RPCClient) SearchRawTransactionsVerbose(
	address btcutil.Address,
	skip, count int,
	includePrevOut, reverse bool,
	filterAddrs []string,
) (res []*btcjson.SearchRawTransactionsResult, err error) {
	r.limiter.Take()
	started := time.Now()
	defer func() {
		r.rpcMetrics.Observe("search_raw_transactions", err, started)
	}()
	return r.client.SearchRawTransactionsVerbose(address, skip, count, includePrevOut, reverse, filterAddrs)
}
