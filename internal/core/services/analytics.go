package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure AnalyticsService implements the interface.
var _ driving.AnalyticsService = (*AnalyticsService)(nil)

// recordTimeout bounds a single background write to the usage store.
const recordTimeout = 2 * time.Second

// AnalyticsService records usage events and summarises them.
type AnalyticsService struct {
	store   driven.UsageStore
	now     func() time.Time
	timeout time.Duration
	pending sync.WaitGroup
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(store driven.UsageStore) *AnalyticsService {
	return &AnalyticsService{
		store:   store,
		now:     func() time.Time { return time.Now().UTC() },
		timeout: recordTimeout,
	}
}

// Record stores an event in the background and returns immediately.
// Failures are logged and never reach the caller.
func (s *AnalyticsService) Record(ctx context.Context, eventType domain.UsageEventType, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	event := &domain.UsageEvent{
		Type:      eventType,
		Payload:   payload,
		CreatedAt: s.now(),
	}

	// The write outlives the request; only its own timeout stops it.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		if err := s.store.RecordEvent(recordCtx, event); err != nil {
			logger.Warn("Failed to record %s event: %v", eventType, err)
		}
	}()
}

// Flush waits for in-flight Record writes to finish.
func (s *AnalyticsService) Flush() {
	s.pending.Wait()
}

// Summary aggregates events over the last days. Zero days means the default window.
func (s *AnalyticsService) Summary(ctx context.Context, days int) (*domain.UsageSummary, error) {
	if days == 0 {
		days = domain.DefaultSummaryDays
	}
	if !domain.ValidSummaryDays(days) {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", domain.ErrInvalidInput, domain.MaxSummaryDays)
	}

	since := s.now().AddDate(0, 0, -days)

	uploads, err := s.store.CountEvents(ctx, domain.UsageDocumentUploaded, since)
	if err != nil {
		return nil, fmt.Errorf("count uploads: %w", err)
	}
	questions, err := s.store.CountEvents(ctx, domain.UsageQuestionAsked, since)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	perDay, err := s.store.CountPerDay(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count per day: %w", err)
	}
	if perDay == nil {
		perDay = []domain.DailyCount{}
	}

	return &domain.UsageSummary{
		Since:     since,
		Uploads:   uploads,
		Questions: questions,
		PerDay:    perDay,
	}, nil
}
