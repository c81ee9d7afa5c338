package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	kvStoreOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "kv_store",
		Name:      "operations_total",
		Help:      "Count of key-value store operations.",
	}, []string{"backend", "operation", "status"})
	kvStoreOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "kv_store",
		Name:      "operation_duration_seconds",
		Help:      "Duration of key-value store operations.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"backend", "operation", "status"})
)

// KVStore tracks operations of one store backend.
type KVStore struct {
	backend string
}

// NewKVStore creates a collector for the named backend.
func NewKVStore(backend string) *KVStore {
	return &KVStore{backend: labelOrUnknown(backend)}
}

// Observe records duration and status of a store operation.
func (m KVStore) Observe(operation string, err error, started time.Time) {
	s := status(err)
	kvStoreOperationsTotal.WithLabelValues(m.backend, operation, s).Inc()
	kvStoreOperationDuration.WithLabelValues(m.backend, operation, s).Observe(time.Since(started).Seconds())
}
