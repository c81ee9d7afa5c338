package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	txCacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tx_cache",
		Name:      "lookups_total",
		Help:      "Count of transaction cache lookups by result.",
	}, []string{"result"})
	txCacheFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "tx_cache",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of transaction history fetches including provider calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"result"})
	txCacheFetchedTransactions = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "tx_cache",
		Name:      "fetched_transactions",
		Help:      "Number of transactions returned by the provider per fetch.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1..512
	})
)

// TxCache tracks transaction cache behavior.
type TxCache struct{}

// NewTxCache creates a TxCache metrics collector.
func NewTxCache() *TxCache {
	return &TxCache{}
}

// ObserveLookup records how a fetch was served: hit, miss, stale_fallback or error.
func (TxCache) ObserveLookup(result string, started time.Time) {
	result = labelOrUnknown(result)
	txCacheLookupsTotal.WithLabelValues(result).Inc()
	txCacheFetchDuration.WithLabelValues(result).Observe(time.Since(started).Seconds())
}

// ObserveFetched records the size of a fresh provider result.
func (TxCache) ObserveFetched(count int) {
	txCacheFetchedTransactions.Observe(float64(count))
}
