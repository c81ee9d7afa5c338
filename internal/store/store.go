// Package store defines the key-value persistence used for the transaction
// cache and the analysis history, together with in-memory and file backends.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent from a namespace.
var ErrNotFound = errors.New("record not found")

const (
	NamespaceTxCache = "tx_cache"
	NamespaceHistory = "analysis_history"
)

// Record is a stored value with its TTL metadata. A zero TTL never expires.
type Record struct {
	Key      string        `json:"key"`
	Value    []byte        `json:"value"`
	StoredAt time.Time     `json:"stored_at"`
	TTL      time.Duration `json:"ttl"`
}

// Fresh reports whether the record is still within its TTL at now.
func (r Record) Fresh(now time.Time) bool {
	return r.TTL <= 0 || now.Sub(r.StoredAt) < r.TTL
}

// KV is a namespaced key-value store. Expired records are kept until
// overwritten or deleted so callers can fall back to stale data.
type KV interface {
	Get(ctx context.Context, namespace, key string) (Record, error)
	Put(ctx context.Context, namespace string, record Record) error
	Delete(ctx context.Context, namespace, key string) error
	List(ctx context.Context, namespace string) ([]Record, error)
}

// IsNotFound reports whether err marks a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
