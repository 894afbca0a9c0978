package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sifan077/PowerRead/internal/app/model"
	"github.com/sifan077/PowerRead/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryAuditConsumer_Handle(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewAuditRepository(db)
	consumer := NewEntryAuditConsumer(nil, nil, repo)
	ctx := context.Background()

	entry := &model.Entry{ID: 7, UserID: 3, URL: "https://example.com", Title: "T"}
	data, err := json.Marshal(newEntryEvent(model.EventEntrySaved, entry))
	require.NoError(t, err)

	require.NoError(t, consumer.handle(ctx, data))
	// redelivery is absorbed
	require.NoError(t, consumer.handle(ctx, data))

	audits, err := repo.ListForEntry(ctx, 7)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, model.EventEntrySaved, audits[0].Event)
	assert.EqualValues(t, 3, audits[0].UserID)

	assert.Error(t, consumer.handle(ctx, []byte("{")))
	assert.Error(t, consumer.handle(ctx, []byte(`{"entry_id":1}`)))
}

func TestAuditPruner_Prune(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewAuditRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &model.EntryAudit{ID: "old", Event: model.EventEntrySaved, EntryID: 1, OccurredAt: now.Add(-72 * time.Hour)}))
	require.NoError(t, repo.Create(ctx, &model.EntryAudit{ID: "new", Event: model.EventEntrySaved, EntryID: 1, OccurredAt: now.Add(-time.Hour)}))

	pruner := NewAuditPruner(nil, repo, 48*time.Hour, 0)
	pruner.now = func() time.Time { return now }

	assert.EqualValues(t, 1, pruner.prune(ctx))
	assert.Zero(t, pruner.prune(ctx))
}
