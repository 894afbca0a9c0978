package service

import (
	"context"
	"testing"

	"github.com/sifan077/PowerRead/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagService_RemoveByLabelsIsAllOrNothing(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	entry := h.create(t, 1, "https://example.com/a", "go", "db")

	_, err := h.tagSvc.RemoveTagsByLabels(ctx, 1, []string{"go", "missing"})
	assert.ErrorIs(t, err, repository.ErrTagNotFound)

	got, err := h.entries.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Len(t, got.Tags, 2)
	assert.EqualValues(t, 2, h.tagCount(t))
}

func TestTagService_RemoveByLabelsSweepsOrphans(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	mine := h.create(t, 1, "https://example.com/a", "go", "db", "keep")
	h.create(t, 2, "https://example.com/b", "go")

	removed, err := h.tagSvc.RemoveTagsByLabels(ctx, 1, []string{"go", " db ", "go"})
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	got, err := h.entries.GetByID(ctx, mine.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "keep", got.Tags[0].Label)

	// "go" is still used by user 2, "db" is gone
	_, err = h.tags.FindByLabel(ctx, "go")
	assert.NoError(t, err)
	_, err = h.tags.FindByLabel(ctx, "db")
	assert.ErrorIs(t, err, repository.ErrTagNotFound)
	assert.EqualValues(t, 1, h.recorder.swept)
}

func TestTagService_RemoveByLabelAndID(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	h.create(t, 1, "https://example.com/a", "go", "db")

	tag, err := h.tagSvc.RemoveTagByLabel(ctx, 1, "go")
	require.NoError(t, err)
	assert.Equal(t, "go", tag.Label)

	db, err := h.tags.FindByLabel(ctx, "db")
	require.NoError(t, err)
	_, err = h.tagSvc.RemoveTagByID(ctx, 1, db.ID)
	require.NoError(t, err)
	assert.Zero(t, h.tagCount(t))

	_, err = h.tagSvc.RemoveTagByID(ctx, 1, db.ID)
	assert.ErrorIs(t, err, repository.ErrTagNotFound)
	_, err = h.tagSvc.RemoveTagByLabel(ctx, 1, "go")
	assert.ErrorIs(t, err, repository.ErrTagNotFound)
	_, err = h.tagSvc.RemoveTagsByLabels(ctx, 1, []string{" "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTagService_ListTags(t *testing.T) {
	h := newHarness(t, false)
	h.create(t, 1, "https://example.com/a", "go")
	h.create(t, 1, "https://example.com/b", "go", "db")

	usage, err := h.tagSvc.ListTags(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, usage, 2)
	assert.Equal(t, "go", usage[1].Label)
	assert.EqualValues(t, 2, usage[1].EntryCount)
}
