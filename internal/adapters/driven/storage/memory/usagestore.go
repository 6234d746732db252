package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure UsageStore implements the interface.
var _ driven.UsageStore = (*UsageStore)(nil)

// UsageStore is an in-memory implementation of driven.UsageStore.
type UsageStore struct {
	mu     sync.RWMutex
	events []domain.UsageEvent
}

// NewUsageStore creates a new in-memory usage store.
func NewUsageStore() *UsageStore {
	return &UsageStore{}
}

// RecordEvent stores one event. A missing ID or timestamp is filled in.
func (s *UsageStore) RecordEvent(_ context.Context, event *domain.UsageEvent) error {
	if event == nil || event.Type == "" {
		return domain.ErrInvalidInput
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

// CountEvents counts events of one type created at or after since.
func (s *UsageStore) CountEvents(_ context.Context, eventType domain.UsageEventType, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.events {
		if e.Type == eventType && !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// CountPerDay groups events since the given time by UTC date, ascending.
func (s *UsageStore) CountPerDay(_ context.Context, since time.Time) ([]domain.DailyCount, error) {
	s.mu.RLock()
	byDay := make(map[string]int)
	for _, e := range s.events {
		if !e.CreatedAt.Before(since) {
			byDay[e.CreatedAt.UTC().Format("2006-01-02")]++
		}
	}
	s.mu.RUnlock()

	counts := make([]domain.DailyCount, 0, len(byDay))
	for day, n := range byDay {
		counts = append(counts, domain.DailyCount{Date: day, Events: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Date < counts[j].Date })
	return counts, nil
}

// Events returns a copy of all recorded events.
func (s *UsageStore) Events() []domain.UsageEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.UsageEvent(nil), s.events...)
}
