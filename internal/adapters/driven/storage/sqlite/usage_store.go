package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// usageStore implements driven.UsageStore.
type usageStore struct {
	store *Store
}

var _ driven.UsageStore = (*usageStore)(nil)

// RecordEvent stores one event. A missing ID or timestamp is filled in.
func (s *usageStore) RecordEvent(ctx context.Context, event *domain.UsageEvent) error {
	if event == nil || event.Type == "" {
		return domain.ErrInvalidInput
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	payload := event.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling payload: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO usage_events (id, type, user_id, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, event.ID, string(event.Type), event.UserID, string(payloadJSON), formatTime(event.CreatedAt))
	if err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	return nil
}

// CountEvents counts events of one type created at or after since.
func (s *usageStore) CountEvents(ctx context.Context, eventType domain.UsageEventType, since time.Time) (int, error) {
	var n int
	err := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM usage_events WHERE type = ? AND created_at >= ?
	`, string(eventType), formatTime(since)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}

// CountPerDay groups events since the given time by UTC date.
func (s *usageStore) CountPerDay(ctx context.Context, since time.Time) ([]domain.DailyCount, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT substr(created_at, 1, 10) AS day, COUNT(*)
		FROM usage_events
		WHERE created_at >= ?
		GROUP BY day
		ORDER BY day
	`, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("querying daily counts: %w", err)
	}
	defer rows.Close()

	counts := []domain.DailyCount{}
	for rows.Next() {
		var c domain.DailyCount
		if err := rows.Scan(&c.Date, &c.Events); err != nil {
			return nil, fmt.Errorf("scanning daily count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating daily counts: %w", err)
	}
	return counts, nil
}
