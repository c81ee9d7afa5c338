package store

import (
	"context"
	"time"
)

type (
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)

// Observed records the outcome and latency of every operation of the wrapped store.
type Observed struct {
	kv      KV
	metrics Metrics
}

// NewObserved wraps kv with metrics.
func NewObserved(kv KV, metrics Metrics) *Observed {
	return &Observed{kv: kv, metrics: metrics}
}

func (o *Observed) Get(ctx context.Context, namespace, key string) (rec Record, err error) {
	started := time.Now()
	defer func() {
		o.metrics.Observe("get", ignoreNotFound(err), started)
	}()
	return o.kv.Get(ctx, namespace, key)
}

func (o *Observed) Put(ctx context.Context, namespace string, record Record) (err error) {
	started := time.Now()
	defer func() {
		o.metrics.Observe("put", err, started)
	}()
	return o.kv.Put(ctx, namespace, record)
}

func (o *Observed) Delete(ctx context.Context, namespace, key string) (err error) {
	started := time.Now()
	defer func() {
		o.metrics.Observe("delete", err, started)
	}()
	return o.kv.Delete(ctx, namespace, key)
}

func (o *Observed) List(ctx context.Context, namespace string) (recs []Record, err error) {
	started := time.Now()
	defer func() {
		o.metrics.Observe("list", err, started)
	}()
	return o.kv.List(ctx, namespace)
}

func ignoreNotFound(err error) error {
	if IsNotFound(err) {
		return nil
	}
	return err
}
