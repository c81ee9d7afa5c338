package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/store"
)

func getRecordQuery() string {
	return `
SELECT key, value, stored_at, ttl_ms
FROM kv_records FINAL
WHERE namespace = ? AND key = ? AND is_deleted = 0
LIMIT 1`
}

// Get returns the latest live version of key.
func (r *Repository) Get(ctx context.Context, namespace, key string) (rec store.Record, err error) {
	start := time.Now()
	defer func() {
		observed := err
		if store.IsNotFound(err) {
			observed = nil
		}
		r.metrics.Observe("get", observed, start)
	}()

	rows, err := r.conn.Query(ctx, getRecordQuery(), namespace, key)
	if err != nil {
		return store.Record{}, fmt.Errorf("query record %s/%s: %w", namespace, key, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return store.Record{}, fmt.Errorf("iterate record %s/%s: %w", namespace, key, err)
		}
		return store.Record{}, fmt.Errorf("get %s/%s: %w", namespace, key, store.ErrNotFound)
	}

	rec, err = scanRecord(rows)
	if err != nil {
		return store.Record{}, fmt.Errorf("scan record %s/%s: %w", namespace, key, err)
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(rows scanner) (store.Record, error) {
	var (
		key      string
		value    string
		storedAt time.Time
		ttlMs    int64
	)
	if err := rows.Scan(&key, &value, &storedAt, &ttlMs); err != nil {
		return store.Record{}, err
	}
	return store.Record{
		Key:      key,
		Value:    []byte(value),
		StoredAt: storedAt.UTC(),
		TTL:      time.Duration(ttlMs) * time.Millisecond,
	}, nil
}
