package repository

import (
	"context"
	"testing"

	"github.com/sifan077/PowerRead/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryRepositoryFindByURLAndUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()

	saved := seedEntry(t, db, model.NewEntry(1, "https://example.com/a"))

	found, err := repo.FindByURLAndUser(ctx, "https://example.com/a", 1)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, saved.ID, found.ID)

	other, err := repo.FindByURLAndUser(ctx, "https://example.com/a", 2)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestEntryRepositoryGetByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := NewEntryRepository(db).GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestEntryRepositorySaveContentKeepsFlags(t *testing.T) {
	db := newTestDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()

	entry := seedEntry(t, db, model.NewEntry(1, "https://example.com/a"))
	require.NoError(t, repo.SetStarred(ctx, entry.ID, true))

	entry.Title = "Fetched"
	entry.Content = "<p>body</p>"
	entry.ReadingTime = 3
	require.NoError(t, repo.SaveContent(ctx, entry))

	got, err := repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fetched", got.Title)
	assert.Equal(t, 3, got.ReadingTime)
	assert.True(t, got.IsStarred)

	assert.ErrorIs(t, repo.SaveContent(ctx, &model.Entry{ID: 999}), ErrEntryNotFound)
}

func TestEntryRepositoryDeleteRemovesJoinRows(t *testing.T) {
	db := newTestDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()

	entry := seedEntry(t, db, model.NewEntry(1, "https://example.com/a"))
	seedTagged(t, db, entry, "go", "db")

	require.NoError(t, repo.Delete(ctx, entry))

	var joins int64
	require.NoError(t, db.Table("entry_tags").Where("entry_id = ?", entry.ID).Count(&joins).Error)
	assert.Zero(t, joins)
	assert.ErrorIs(t, repo.Delete(ctx, entry), ErrEntryNotFound)
}

func TestEntryRepositoryDetachTagsForUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()

	mine := seedEntry(t, db, model.NewEntry(1, "https://example.com/a"))
	theirs := seedEntry(t, db, model.NewEntry(2, "https://example.com/b"))
	seedTagged(t, db, mine, "go")
	seedTagged(t, db, theirs, "go")

	tag, err := NewTagRepository(db).FindByLabel(ctx, "go")
	require.NoError(t, err)

	removed, err := repo.DetachTagsForUser(ctx, 1, []uint{tag.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	refs, err := NewTagRepository(db).CountReferences(ctx, tag.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, refs)
}

func TestEntryRepositoryReplaceGroups(t *testing.T) {
	db := newTestDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()

	g1 := model.Group{Name: "one"}
	g2 := model.Group{Name: "two"}
	require.NoError(t, db.Create(&g1).Error)
	require.NoError(t, db.Create(&g2).Error)

	entry := seedEntry(t, db, model.NewEntry(1, "https://example.com/a"))
	require.NoError(t, repo.ReplaceGroups(ctx, entry, []model.Group{g1, g2}))
	require.NoError(t, repo.ReplaceGroups(ctx, entry, []model.Group{g2}))

	got, err := repo.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, got.Groups, 1)
	assert.Equal(t, g2.ID, got.Groups[0].ID)
}

func TestTransactorRollsBack(t *testing.T) {
	db := newTestDB(t)
	repo := NewEntryRepository(db)
	tx := NewTransactor(db)
	ctx := context.Background()

	err := tx.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Create(ctx, model.NewEntry(1, "https://example.com/a")))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	count, err := repo.CountByUser(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEntryRepositoryGetByUID(t *testing.T) {
	db := newTestDB(t)
	repo := NewEntryRepository(db)
	ctx := context.Background()

	entry := seedEntry(t, db, model.NewEntry(1, "https://example.com/a"))
	uid := "0b8a8f0e-1d5c-4f43-9b5e-2f6b4a0c7d11"
	require.NoError(t, repo.SetUID(ctx, entry.ID, &uid))

	got, err := repo.GetByUID(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)

	require.NoError(t, repo.SetUID(ctx, entry.ID, nil))
	_, err = repo.GetByUID(ctx, uid)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}
