// Package history keeps the bounded record of analysis runs in the
// analysis_history namespace of the key-value store.
package history

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/fradiumofficial/fradium-sub002/internal/clock"
	"github.com/fradiumofficial/fradium-sub002/internal/model"
	"github.com/fradiumofficial/fradium-sub002/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound          = errors.New("history item not found")
	ErrAlreadyFinalized  = errors.New("history item already finalized")
	errEmptyAddress      = errors.New("address is required")
	errMissingResult     = errors.New("completed item requires a result")
	errMissingFailReason = errors.New("failure reason is required")
)

// Stats summarizes the stored history.
type Stats struct {
	Total          int `json:"total"`
	Safe           int `json:"safe"`
	Unsafe         int `json:"unsafe"`
	AI             int `json:"ai"`
	Community      int `json:"community"`
	AIAndCommunity int `json:"ai_and_community"`
	Completed      int `json:"completed"`
	InProgress     int `json:"in_progress"`
	Failed         int `json:"failed"`
}

// Store serializes read-modify-write cycles with a mutex so finalization
// happens at most once per item.
type Store struct {
	kv       store.KV
	clock    clock.Clock
	maxItems int
	newID    func() string
	logger   *zap.Logger

	mu sync.Mutex
	// open holds the items begun here and not yet finalized. Eviction never
	// touches them, so the bound can be exceeded while runs are active.
	open map[string]struct{}
}

// New builds a Store. maxItems <= 0 takes DefaultMaxItems.
func New(kv store.KV, clk clock.Clock, maxItems int, logger *zap.Logger) (*Store, error) {
	if kv == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Store{
		kv:       kv,
		clock:    clk,
		maxItems: maxItems,
		newID:    func() string { return idPrefix + uuid.NewString() },
		logger:   logger.Named("history"),
		open:     make(map[string]struct{}),
	}, nil
}

// Begin records a new in-progress run and evicts the oldest items beyond the bound.
func (s *Store) Begin(ctx context.Context, address string, chain model.ChainKind) (model.AnalysisHistoryItem, error) {
	if strings.TrimSpace(address) == "" {
		return model.AnalysisHistoryItem{}, errEmptyAddress
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	item := model.AnalysisHistoryItem{
		ID:        s.newID(),
		Address:   address,
		TokenType: chain,
		Status:    model.StatusInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.put(ctx, item); err != nil {
		return model.AnalysisHistoryItem{}, err
	}
	s.open[item.ID] = struct{}{}
	if err := s.evict(ctx); err != nil {
		s.logger.Warn("evict history items", zap.Error(err))
	}
	return item, nil
}

// Complete moves an in-progress item to completed with its result.
func (s *Store) Complete(ctx context.Context, id string, result model.AnalysisResult) (model.AnalysisHistoryItem, error) {
	return s.finalize(ctx, id, func(item *model.AnalysisHistoryItem) error {
		item.Status = model.StatusCompleted
		item.Result = &result
		return nil
	})
}

// Fail moves an in-progress item to failed. The failure message defaults to
// the category message.
func (s *Store) Fail(ctx context.Context, id string, failure model.Failure) (model.AnalysisHistoryItem, error) {
	if failure.Reason == "" {
		return model.AnalysisHistoryItem{}, errMissingFailReason
	}
	if failure.Message == "" {
		failure.Message = failure.Category.Message()
	}
	return s.finalize(ctx, id, func(item *model.AnalysisHistoryItem) error {
		item.Status = model.StatusFailed
		item.Failure = &failure
		return nil
	})
}

func (s *Store) finalize(ctx context.Context, id string, apply func(*model.AnalysisHistoryItem) error) (model.AnalysisHistoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			delete(s.open, id)
		}
		return model.AnalysisHistoryItem{}, err
	}
	if item.Status.Terminal() {
		delete(s.open, id)
		return item, fmt.Errorf("%w: %s is %s", ErrAlreadyFinalized, id, item.Status)
	}
	if err := apply(&item); err != nil {
		return model.AnalysisHistoryItem{}, err
	}
	if item.Status == model.StatusCompleted && item.Result == nil {
		return model.AnalysisHistoryItem{}, errMissingResult
	}
	item.UpdatedAt = s.clock.Now()
	if err := s.put(ctx, item); err != nil {
		return model.AnalysisHistoryItem{}, err
	}
	delete(s.open, id)
	return item, nil
}

// Get returns one item.
func (s *Store) Get(ctx context.Context, id string) (model.AnalysisHistoryItem, error) {
	return s.get(ctx, id)
}

// List returns all items, newest first.
func (s *Store) List(ctx context.Context) ([]model.AnalysisHistoryItem, error) {
	items, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(items, newestFirst)
	return items, nil
}

// Search returns items whose address or token type contains query, ignoring
// case, newest first. An empty query matches everything.
func (s *Store) Search(ctx context.Context, query string) ([]model.AnalysisHistoryItem, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return items, nil
	}
	return slices.DeleteFunc(items, func(item model.AnalysisHistoryItem) bool {
		return !strings.Contains(strings.ToLower(item.Address), query) &&
			!strings.Contains(strings.ToLower(string(item.TokenType)), query)
	}), nil
}

// Delete removes one item.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Backends differ on deleting a missing key, so look it up first.
	if _, err := s.kv.Get(ctx, store.NamespaceHistory, id); err != nil {
		if store.IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("get history item %s: %w", id, err)
	}
	if err := s.kv.Delete(ctx, store.NamespaceHistory, id); err != nil && !store.IsNotFound(err) {
		return fmt.Errorf("delete history item %s: %w", id, err)
	}
	delete(s.open, id)
	return nil
}

// Clear removes every item.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.all(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := s.kv.Delete(ctx, store.NamespaceHistory, item.ID); err != nil && !store.IsNotFound(err) {
			return fmt.Errorf("clear history item %s: %w", item.ID, err)
		}
		delete(s.open, item.ID)
	}
	return nil
}

// Stats counts items by status, verdict and source.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	items, err := s.all(ctx)
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	for _, item := range items {
		st.Total++
		switch item.Status {
		case model.StatusCompleted:
			st.Completed++
		case model.StatusInProgress:
			st.InProgress++
		case model.StatusFailed:
			st.Failed++
		}
		if item.Result == nil {
			continue
		}
		if item.Result.IsSafe {
			st.Safe++
		} else {
			st.Unsafe++
		}
		switch item.Result.Source {
		case model.SourceAI:
			st.AI++
		case model.SourceCommunity:
			st.Community++
		case model.SourceAIAndCommunity:
			st.AIAndCommunity++
		}
	}
	return st, nil
}

// evict drops the oldest items beyond maxItems, finished ones first. Items of
// runs still open in this process are skipped; in-progress items left behind
// by an earlier process are fair game.
func (s *Store) evict(ctx context.Context) error {
	items, err := s.all(ctx)
	if err != nil {
		return err
	}
	excess := len(items) - s.maxItems
	if excess <= 0 {
		return nil
	}

	items = slices.DeleteFunc(items, func(item model.AnalysisHistoryItem) bool {
		_, running := s.open[item.ID]
		return running
	})
	excess = min(excess, len(items))

	slices.SortStableFunc(items, func(a, b model.AnalysisHistoryItem) int {
		if a.Status.Terminal() != b.Status.Terminal() {
			if a.Status.Terminal() {
				return -1
			}
			return 1
		}
		return -newestFirst(a, b)
	})
	for _, item := range items[:excess] {
		if err := s.kv.Delete(ctx, store.NamespaceHistory, item.ID); err != nil && !store.IsNotFound(err) {
			return fmt.Errorf("delete history item %s: %w", item.ID, err)
		}
		s.logger.Debug("evicted history item", zap.String("id", item.ID))
	}
	return nil
}

func (s *Store) get(ctx context.Context, id string) (model.AnalysisHistoryItem, error) {
	rec, err := s.kv.Get(ctx, store.NamespaceHistory, id)
	if err != nil {
		if store.IsNotFound(err) {
			return model.AnalysisHistoryItem{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return model.AnalysisHistoryItem{}, fmt.Errorf("get history item %s: %w", id, err)
	}
	return decode(rec)
}

func (s *Store) all(ctx context.Context) ([]model.AnalysisHistoryItem, error) {
	recs, err := s.kv.List(ctx, store.NamespaceHistory)
	if err != nil {
		return nil, fmt.Errorf("list history items: %w", err)
	}
	items := make([]model.AnalysisHistoryItem, 0, len(recs))
	for _, rec := range recs {
		item, err := decode(rec)
		if err != nil {
			s.logger.Warn("skip unreadable history item", zap.String("key", rec.Key), zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store) put(ctx context.Context, item model.AnalysisHistoryItem) error {
	value, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode history item %s: %w", item.ID, err)
	}
	if err := s.kv.Put(ctx, store.NamespaceHistory, store.Record{
		Key:      item.ID,
		Value:    value,
		StoredAt: item.UpdatedAt,
	}); err != nil {
		return fmt.Errorf("put history item %s: %w", item.ID, err)
	}
	return nil
}

func decode(rec store.Record) (model.AnalysisHistoryItem, error) {
	var item model.AnalysisHistoryItem
	if err := json.Unmarshal(rec.Value, &item); err != nil {
		return model.AnalysisHistoryItem{}, fmt.Errorf("decode history item %s: %w", rec.Key, err)
	}
	return item, nil
}

func newestFirst(a, b model.AnalysisHistoryItem) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}
