package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/store"
)

func listRecordsQuery() string {
	return `
SELECT key, value, stored_at, ttl_ms
FROM kv_records FINAL
WHERE namespace = ? AND is_deleted = 0
ORDER BY key`
}

// List returns the live records of a namespace ordered by key.
func (r *Repository) List(ctx context.Context, namespace string) (records []store.Record, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("list", err, start)
	}()

	rows, err := r.conn.Query(ctx, listRecordsQuery(), namespace)
	if err != nil {
		return nil, fmt.Errorf("query records %s: %w", namespace, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		rec, scanErr := scanRecord(rows)
		if scanErr != nil {
			err = fmt.Errorf("scan records %s: %w", namespace, scanErr)
			return nil, err
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records %s: %w", namespace, err)
	}
	return records, nil
}
