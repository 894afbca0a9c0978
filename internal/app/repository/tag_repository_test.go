package repository

import (
	"context"
	"testing"
	"time"

	"github.com/sifan077/PowerRead/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagRepositoryFindOrCreateReusesLabels(t *testing.T) {
	db := newTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	first, err := repo.FindOrCreate(ctx, []string{"go", " go ", "", "db"})
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := repo.FindOrCreate(ctx, []string{"db"})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[1].ID, second[0].ID)

	var count int64
	require.NoError(t, db.Model(&model.Tag{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestTagRepositoryFindMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	_, err := repo.FindByLabel(ctx, "nope")
	assert.ErrorIs(t, err, ErrTagNotFound)
	_, err = repo.FindByID(ctx, 7)
	assert.ErrorIs(t, err, ErrTagNotFound)
}

func TestTagRepositorySweepOnlyRemovesOrphans(t *testing.T) {
	db := newTestDB(t)
	tags := NewTagRepository(db)
	entries := NewEntryRepository(db)
	ctx := context.Background()

	a := seedEntry(t, db, model.NewEntry(1, "https://a.test/1"))
	b := seedEntry(t, db, model.NewEntry(1, "https://a.test/2"))
	seedTagged(t, db, a, "shared", "solo")
	seedTagged(t, db, b, "shared")

	shared, err := tags.FindByLabel(ctx, "shared")
	require.NoError(t, err)
	solo, err := tags.FindByLabel(ctx, "solo")
	require.NoError(t, err)

	require.NoError(t, entries.Delete(ctx, a))

	removed, err := tags.Sweep(ctx, []uint{shared.ID, solo.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	_, err = tags.FindByID(ctx, solo.ID)
	assert.ErrorIs(t, err, ErrTagNotFound)
	_, err = tags.FindByID(ctx, shared.ID)
	assert.NoError(t, err)

	removed, err = tags.Sweep(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestTagRepositoryListForUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	a := seedEntry(t, db, model.NewEntry(1, "https://a.test/1"))
	b := seedEntry(t, db, model.NewEntry(1, "https://a.test/2"))
	c := seedEntry(t, db, model.NewEntry(2, "https://a.test/3"))
	seedTagged(t, db, a, "go", "db")
	seedTagged(t, db, b, "go")
	seedTagged(t, db, c, "go", "other")

	usage, err := repo.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, "db", usage[0].Label)
	assert.EqualValues(t, 1, usage[0].EntryCount)
	assert.Equal(t, "go", usage[1].Label)
	assert.EqualValues(t, 2, usage[1].EntryCount)
}

func TestGroupRepositoryMembership(t *testing.T) {
	db := newTestDB(t)
	repo := NewGroupRepository(db)
	ctx := context.Background()

	g := model.Group{Name: "team"}
	require.NoError(t, db.Create(&g).Error)
	require.NoError(t, db.Create(&model.GroupMembership{GroupID: g.ID, UserID: 3}).Error)

	ok, err := repo.IsMember(ctx, 3, g.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsMember(ctx, 4, g.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	groups, err := repo.ListForUser(ctx, 3)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "team", groups[0].Name)
}

func TestAuditRepositoryPrune(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	old := &model.EntryAudit{ID: "a", Event: model.EventEntrySaved, EntryID: 1, UserID: 1, OccurredAt: now.Add(-48 * time.Hour)}
	fresh := &model.EntryAudit{ID: "b", Event: model.EventEntryDeleted, EntryID: 1, UserID: 1, OccurredAt: now}
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.Create(ctx, fresh))

	removed, err := repo.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	left, err := repo.ListForEntry(ctx, 1)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "b", left[0].ID)
}
