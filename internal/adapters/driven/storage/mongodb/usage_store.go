package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

type eventRecord struct {
	ID        string         `bson:"_id"`
	Type      string         `bson:"type"`
	UserID    string         `bson:"user_id,omitempty"`
	Payload   map[string]any `bson:"payload"`
	CreatedAt time.Time      `bson:"created_at"`
}

// usageStore implements driven.UsageStore.
type usageStore struct {
	coll *mongo.Collection
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

	_, err := s.coll.InsertOne(ctx, eventRecord{
		ID:        event.ID,
		Type:      string(event.Type),
		UserID:    event.UserID,
		Payload:   payload,
		CreatedAt: event.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	return nil
}

// CountEvents counts events of one type created at or after since.
func (s *usageStore) CountEvents(ctx context.Context, eventType domain.UsageEventType, since time.Time) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{
		{Key: "type", Value: string(eventType)},
		{Key: "created_at", Value: bson.D{{Key: "$gte", Value: since.UTC()}}},
	})
	if err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return int(n), nil
}

// CountPerDay groups events since the given time by UTC date, ascending.
func (s *usageStore) CountPerDay(ctx context.Context, since time.Time) ([]domain.DailyCount, error) {
	cursor, err := s.coll.Aggregate(ctx, perDayPipeline(since))
	if err != nil {
		return nil, fmt.Errorf("aggregating events: %w", err)
	}

	var rows []struct {
		Date   string `bson:"_id"`
		Events int    `bson:"events"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decoding daily counts: %w", err)
	}

	counts := make([]domain.DailyCount, 0, len(rows))
	for _, r := range rows {
		counts = append(counts, domain.DailyCount{Date: r.Date, Events: r.Events})
	}
	return counts, nil
}

func perDayPipeline(since time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "created_at", Value: bson.D{{Key: "$gte", Value: since.UTC()}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m-%d"},
				{Key: "date", Value: "$created_at"},
			}}}},
			{Key: "events", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}
