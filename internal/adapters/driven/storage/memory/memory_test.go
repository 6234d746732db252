package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func TestDocumentStore_CRUD(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := &domain.Document{ID: "d1", Filename: "a.txt", Ext: "txt", UploadedAt: time.Now()}
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", got.Filename)

	got.Filename = "mutated"
	again, err := store.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", again.Filename, "returned documents are copies")

	require.NoError(t, store.DeleteDocument(ctx, "d1"))
	_, err = store.GetDocument(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.DeleteDocument(ctx, "d1"), domain.ErrNotFound)
}

func TestDocumentStore_SaveRejectsEmptyID(t *testing.T) {
	err := NewDocumentStore().SaveDocument(context.Background(), &domain.Document{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentStore_List(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"Alpha.pdf", "beta.md", "alphabet.txt"} {
		require.NoError(t, store.SaveDocument(ctx, &domain.Document{
			ID:         name,
			Filename:   name,
			Ext:        domain.ExtFromFilename(name),
			UploadedAt: base.AddDate(0, 0, i),
		}))
	}

	items, total, err := store.ListDocuments(ctx, domain.DocumentQuery{Search: "ALPHA"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "alphabet.txt", items[0].ID)

	items, total, err = store.ListDocuments(ctx, domain.DocumentQuery{Ext: ".md"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "beta.md", items[0].ID)

	to := base.AddDate(0, 0, 1)
	_, total, err = store.ListDocuments(ctx, domain.DocumentQuery{DateTo: &to})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	items, total, err = store.ListDocuments(ctx, domain.DocumentQuery{Page: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Alpha.pdf", items[0].ID)

	items, _, err = store.ListDocuments(ctx, domain.DocumentQuery{Page: 5, Size: 2})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUsageStore(t *testing.T) {
	store := NewUsageStore()
	ctx := context.Background()
	day := time.Date(2025, 8, 10, 23, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordEvent(ctx, &domain.UsageEvent{Type: domain.UsageQuestionAsked, CreatedAt: day}))
	require.NoError(t, store.RecordEvent(ctx, &domain.UsageEvent{Type: domain.UsageQuestionAsked, CreatedAt: day.Add(2 * time.Hour)}))
	require.NoError(t, store.RecordEvent(ctx, &domain.UsageEvent{Type: domain.UsageDocumentUploaded, CreatedAt: day.AddDate(0, 0, -10)}))
	assert.ErrorIs(t, store.RecordEvent(ctx, &domain.UsageEvent{}), domain.ErrInvalidInput)

	since := day.AddDate(0, 0, -1)
	n, err := store.CountEvents(ctx, domain.UsageQuestionAsked, since)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = store.CountEvents(ctx, domain.UsageDocumentUploaded, since)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	perDay, err := store.CountPerDay(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, []domain.DailyCount{{Date: "2025-08-10", Events: 1}, {Date: "2025-08-11", Events: 1}}, perDay)

	assert.Len(t, store.Events(), 3)
}
