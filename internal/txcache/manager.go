// Package txcache serves address transaction histories from the key-value
// store and refreshes them from a provider once they go stale.
package txcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/clock"
	"github.com/fradiumofficial/fradium-sub002/internal/model"
	"github.com/fradiumofficial/fradium-sub002/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Options tunes a Manager. Zero values take the package defaults.
type Options struct {
	TTL             time.Duration
	MaxTransactions int
	FetchTimeout    time.Duration
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.MaxTransactions <= 0 {
		o.MaxTransactions = DefaultMaxTransactions
	}
	o.MaxTransactions = min(o.MaxTransactions, MaxTransactionsLimit)
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	return o
}

// Manager is safe for concurrent use. Concurrent fetches of the same address
// share one provider call.
type Manager struct {
	provider Provider
	kv       store.KV
	metrics  Metrics
	clock    clock.Clock
	opts     Options
	group    singleflight.Group
	logger   *zap.Logger
}

// NewManager validates dependencies and builds a Manager.
func NewManager(provider Provider, kv store.KV, metrics Metrics, clk clock.Clock, opts Options, logger *zap.Logger) (*Manager, error) {
	if provider == nil {
		return nil, errors.New("provider is required")
	}
	if kv == nil {
		return nil, errors.New("store is required")
	}
	if metrics == nil {
		return nil, errors.New("metrics is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Manager{
		provider: provider,
		kv:       kv,
		metrics:  metrics,
		clock:    clk,
		opts:     opts.withDefaults(),
		logger:   logger.Named("txcache"),
	}, nil
}

// Fetch returns the transaction history of address. A fresh cache entry is
// returned without a provider call. On provider failure any cached entry,
// however old, is served instead; without one a *FetchError is returned.
// The returned slice is shared and must not be modified.
func (m *Manager) Fetch(ctx context.Context, address string) (txs []model.Transaction, err error) {
	started := time.Now()
	result := resultError
	defer func() {
		m.metrics.ObserveLookup(result, started)
	}()

	logger := m.logger.With(zap.String("address", address))

	cached, found := m.load(ctx, address, logger)
	if found && cached.record.Fresh(m.clock.Now()) {
		result = resultHit
		return cached.entry.Transactions, nil
	}

	ch := m.group.DoChan(address, func() (any, error) {
		// The shared fetch outlives any single caller's cancellation.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.FetchTimeout)
		defer cancel()
		return m.refresh(fetchCtx, address, logger)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}

	if res.Err != nil {
		if found {
			logger.Warn("provider failed, serving stale transactions",
				zap.Time("fetched_at", cached.entry.FetchedAt), zap.Error(res.Err))
			result = resultStaleFallback
			return cached.entry.Transactions, nil
		}
		return nil, &FetchError{Address: address, Err: res.Err}
	}

	result = resultMiss
	return res.Val.([]model.Transaction), nil
}

// Invalidate drops the cached history of address.
func (m *Manager) Invalidate(ctx context.Context, address string) error {
	if err := m.kv.Delete(ctx, store.NamespaceTxCache, address); err != nil && !store.IsNotFound(err) {
		return fmt.Errorf("invalidate %s: %w", address, err)
	}
	return nil
}

type cachedEntry struct {
	record store.Record
	entry  model.CacheEntry
}

// load reads the cache entry of address. Unreadable entries count as absent.
func (m *Manager) load(ctx context.Context, address string, logger *zap.Logger) (cachedEntry, bool) {
	record, err := m.kv.Get(ctx, store.NamespaceTxCache, address)
	if err != nil {
		if !store.IsNotFound(err) {
			logger.Warn("read transaction cache", zap.Error(err))
		}
		return cachedEntry{}, false
	}

	var entry model.CacheEntry
	if err := json.Unmarshal(record.Value, &entry); err != nil {
		logger.Warn("decode transaction cache entry", zap.Error(err))
		return cachedEntry{}, false
	}
	return cachedEntry{record: record, entry: entry}, true
}

func (m *Manager) refresh(ctx context.Context, address string, logger *zap.Logger) ([]model.Transaction, error) {
	txs, err := m.provider.Transactions(ctx, address, m.opts.MaxTransactions)
	if err != nil {
		return nil, err
	}
	if len(txs) > m.opts.MaxTransactions {
		txs = txs[:m.opts.MaxTransactions]
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	m.metrics.ObserveFetched(len(txs))

	entry := model.CacheEntry{
		Address:      address,
		Transactions: txs,
		FetchedAt:    m.clock.Now(),
	}
	value, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}

	// A failed write keeps the previous entry intact; the fetched list is still usable.
	if err := m.kv.Put(ctx, store.NamespaceTxCache, store.Record{
		Key:      address,
		Value:    value,
		StoredAt: entry.FetchedAt,
		TTL:      m.opts.TTL,
	}); err != nil {
		logger.Warn("write transaction cache", zap.Error(err))
	}

	logger.Debug("refreshed transactions", zap.Int("count", len(txs)))
	return txs, nil
}
