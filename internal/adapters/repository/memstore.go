package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/vacstat/internal/domain/report"
	"github.com/okian/vacstat/pkg/metrics"
)

// MemoryStore is an in-memory Store bounded by a maximum report count.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]Entry
	order      []string // insertion order, oldest first
	maxReports int
	now        func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		byID:       make(map[string]Entry),
		maxReports: defaultMaxReports,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateReportsStored(0)
	return s
}

// Save stores r under id, evicting the oldest report when full.
func (s *MemoryStore) Save(ctx context.Context, id string, r *report.Report) (Entry, error) {
	if id == "" || r == nil {
		return Entry{}, ErrInvalidID
	}
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; ok {
		return Entry{}, ErrDuplicateID
	}
	for len(s.order) >= s.maxReports {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.byID, oldest)
	}

	e := Entry{ID: id, CreatedAt: s.now().UTC(), Report: r}
	s.byID[id] = e
	s.order = append(s.order, id)
	metrics.UpdateReportsStored(len(s.byID))
	return e, nil
}

// Get returns the report stored under id.
func (s *MemoryStore) Get(ctx context.Context, id string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// Count returns the number of stored reports.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
