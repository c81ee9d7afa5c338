package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/store"
)

func insertRecordQuery() string {
	return `
INSERT INTO kv_records (
    namespace,
    key,
    value,
    stored_at,
    ttl_ms,
    version,
    is_deleted
) VALUES (?, ?, ?, ?, ?, ?, ?)`
}

// Put appends a new version of the record.
func (r *Repository) Put(ctx context.Context, namespace string, record store.Record) (err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("put", err, start)
	}()

	if record.Key == "" {
		return errors.New("put record: empty key")
	}

	err = r.conn.Exec(ctx, insertRecordQuery(),
		namespace,
		record.Key,
		string(record.Value),
		record.StoredAt.UTC(),
		record.TTL.Milliseconds(),
		r.nextVersion(),
		uint8(0),
	)
	if err != nil {
		return fmt.Errorf("insert record %s/%s: %w", namespace, record.Key, err)
	}
	return nil
}

// Delete appends a tombstone for key.
func (r *Repository) Delete(ctx context.Context, namespace, key string) (err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("delete", err, start)
	}()

	err = r.conn.Exec(ctx, insertRecordQuery(),
		namespace,
		key,
		"",
		time.Now().UTC(),
		int64(0),
		r.nextVersion(),
		uint8(1),
	)
	if err != nil {
		return fmt.Errorf("insert tombstone %s/%s: %w", namespace, key, err)
	}
	return nil
}
