package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	fileFormatVersion = "1"
	defaultFilePerm   = 0o600
	defaultDirPerm    = 0o755
)

type fileSnapshot struct {
	Version    string                       `json:"version"`
	SavedAt    time.Time                    `json:"saved_at"`
	Namespaces map[string]map[string]Record `json:"namespaces"`
}

// File is a store persisted to a single JSON file. Every mutation rewrites the
// file through a temporary file and rename, so a crash never leaves a partial write.
type File struct {
	mu   sync.RWMutex
	path string
	data map[string]map[string]Record
}

// OpenFile loads the store at path, starting empty when the file does not exist.
func OpenFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("store file path is required")
	}

	f := &File{path: path, data: make(map[string]map[string]Record)}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) Get(_ context.Context, namespace, key string) (Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	rec, ok := f.data[namespace][key]
	if !ok {
		return Record{}, fmt.Errorf("get %s/%s: %w", namespace, key, ErrNotFound)
	}
	return cloneRecord(rec), nil
}

func (f *File) Put(_ context.Context, namespace string, record Record) error {
	if record.Key == "" {
		return fmt.Errorf("put %s: empty key", namespace)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, ok := f.data[namespace]
	if !ok {
		bucket = make(map[string]Record)
		f.data[namespace] = bucket
	}
	prev, existed := bucket[record.Key]
	bucket[record.Key] = cloneRecord(record)

	if err := f.save(); err != nil {
		if existed {
			bucket[record.Key] = prev
		} else {
			delete(bucket, record.Key)
		}
		return fmt.Errorf("put %s/%s: %w", namespace, record.Key, err)
	}
	return nil
}

func (f *File) Delete(_ context.Context, namespace, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, ok := f.data[namespace][key]
	if !ok {
		return nil
	}
	delete(f.data[namespace], key)

	if err := f.save(); err != nil {
		f.data[namespace][key] = prev
		return fmt.Errorf("delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (f *File) List(_ context.Context, namespace string) ([]Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return sortedRecords(f.data[namespace]), nil
}

func (f *File) load() error {
	tempPath := f.path + ".tmp"
	if _, err := os.Stat(tempPath); err == nil {
		_ = os.Remove(tempPath)
	}

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read store file: %w", err)
	}

	var snapshot fileSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return fmt.Errorf("decode store file: %w", err)
	}
	if snapshot.Namespaces != nil {
		f.data = snapshot.Namespaces
	}
	return nil
}

// save must be called with the write lock held.
func (f *File) save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), defaultDirPerm); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	raw, err := json.Marshal(fileSnapshot{
		Version:    fileFormatVersion,
		SavedAt:    time.Now().UTC(),
		Namespaces: f.data,
	})
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, raw, defaultFilePerm); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("rename store file: %w", err)
	}
	return nil
}
