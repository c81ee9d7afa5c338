package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory keeps records in process memory.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]Record
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]Record)}
}

func (m *Memory) Get(_ context.Context, namespace, key string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.data[namespace][key]
	if !ok {
		return Record{}, fmt.Errorf("get %s/%s: %w", namespace, key, ErrNotFound)
	}
	return cloneRecord(rec), nil
}

func (m *Memory) Put(_ context.Context, namespace string, record Record) error {
	if record.Key == "" {
		return fmt.Errorf("put %s: empty key", namespace)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.data[namespace]
	if !ok {
		bucket = make(map[string]Record)
		m.data[namespace] = bucket
	}
	bucket[record.Key] = cloneRecord(record)
	return nil
}

func (m *Memory) Delete(_ context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data[namespace], key)
	return nil
}

func (m *Memory) List(_ context.Context, namespace string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortedRecords(m.data[namespace]), nil
}

func cloneRecord(r Record) Record {
	r.Value = append([]byte(nil), r.Value...)
	return r
}

func sortedRecords(bucket map[string]Record) []Record {
	out := make([]Record, 0, len(bucket))
	for _, rec := range bucket {
		out = append(out, cloneRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
