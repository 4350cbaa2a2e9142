package history

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/mikey/site-categorizer/internal/core"
	"github.com/mikey/site-categorizer/internal/utils"
	"go.uber.org/zap"
)

// StatusAll disables the status filter
const StatusAll = "all"

// MemoryStore is an in-memory implementation of the HistoryRepository
// interface. Records are immutable once added.
type MemoryStore struct {
	records []*core.HistoryRecord
	byID    map[string]*core.HistoryRecord
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory history store seeded with records
func NewMemoryStore(logger *zap.Logger, seed ...*core.HistoryRecord) *MemoryStore {
	store := &MemoryStore{
		records: make([]*core.HistoryRecord, 0, len(seed)),
		byID:    make(map[string]*core.HistoryRecord, len(seed)),
		logger:  logger,
	}
	for _, record := range seed {
		store.add(record)
	}
	return store
}

// Add appends a record
func (s *MemoryStore) Add(ctx context.Context, record *core.HistoryRecord) error {
	if record.ID == "" {
		return core.NewValidationError("id", "must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[record.ID]; exists {
		return core.NewValidationError("id", "%q already recorded", record.ID)
	}
	s.add(record)

	s.logger.Debug("Recorded analysis",
		zap.String("id", record.ID),
		zap.String("url", record.URL),
		zap.String("status", string(record.Status)))
	return nil
}

// add stores a private copy so callers cannot change recorded history
func (s *MemoryStore) add(record *core.HistoryRecord) {
	stored := record.Clone()
	s.records = append(s.records, stored)
	s.byID[stored.ID] = stored
}

// Get returns the record with the given id
func (s *MemoryStore) Get(ctx context.Context, id string) (*core.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.byID[id]
	if !ok {
		return nil, &core.NotFoundError{Kind: "history item", ID: id}
	}
	return record.Clone(), nil
}

// List filters, sorts and paginates the records
func (s *MemoryStore) List(ctx context.Context, query core.HistoryQuery) (*core.HistoryPage, error) {
	if query.Page < 1 {
		return nil, core.NewValidationError("page", "must be at least 1, got %d", query.Page)
	}
	if query.Limit < 1 {
		return nil, core.NewValidationError("limit", "must be at least 1, got %d", query.Limit)
	}

	s.mu.RLock()
	filtered := make([]*core.HistoryRecord, 0, len(s.records))
	for _, record := range s.records {
		if matches(record, query) {
			filtered = append(filtered, record)
		}
	}
	s.mu.RUnlock()

	ascending := query.Sort == core.SortTimestampAsc
	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			if ascending {
				return a.Timestamp.Before(b.Timestamp)
			}
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID < b.ID
	})

	total := len(filtered)
	start := min((query.Page-1)*query.Limit, total)
	end := min(start+query.Limit, total)

	items := make([]*core.HistoryRecord, 0, end-start)
	for _, record := range filtered[start:end] {
		items = append(items, record.Clone())
	}

	return &core.HistoryPage{
		Items: items,
		Total: total,
		Page:  query.Page,
		Limit: query.Limit,
		Pages: core.PageCount(total, query.Limit),
	}, nil
}

// Categories returns the sorted distinct main categories
func (s *MemoryStore) Categories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, record := range s.records {
		if record.MainCategory == "" {
			continue
		}
		if _, ok := seen[record.MainCategory]; ok {
			continue
		}
		seen[record.MainCategory] = struct{}{}
		categories = append(categories, record.MainCategory)
	}
	slices.Sort(categories)
	return categories, nil
}

// Len returns the number of stored records
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func matches(record *core.HistoryRecord, query core.HistoryQuery) bool {
	status := strings.TrimSpace(query.Status)
	if status != "" && status != StatusAll && string(record.Status) != status {
		return false
	}
	if query.MainCategory != "" && record.MainCategory != query.MainCategory {
		return false
	}
	if query.URLContains != "" && !utils.ContainsFold(record.URL, query.URLContains) {
		return false
	}
	return true
}
