package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/sifan077/PowerRead/internal/app/model"
	"github.com/sifan077/PowerRead/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingService_RedirectsPastLastPage(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		h.create(t, 1, fmt.Sprintf("https://example.com/%d", i))
	}

	res, err := h.listing.List(ctx, 1, ListInput{View: repository.ViewUnread, Page: 2})
	require.NoError(t, err)
	require.NotNil(t, res.Page)
	assert.Len(t, res.Page.Entries, 1)
	assert.Equal(t, 2, res.Page.TotalPages)

	res, err = h.listing.List(ctx, 1, ListInput{View: repository.ViewUnread, Page: 7})
	require.NoError(t, err)
	assert.Nil(t, res.Page)
	assert.Equal(t, 2, res.RedirectPage)
}

func TestListingService_EmptyFirstPage(t *testing.T) {
	h := newHarness(t, false)

	res, err := h.listing.List(context.Background(), 1, ListInput{View: repository.ViewStarred, Page: 1})
	require.NoError(t, err)
	require.NotNil(t, res.Page)
	assert.Empty(t, res.Page.Entries)
	assert.Zero(t, res.Page.TotalPages)
	assert.Zero(t, res.RedirectPage)

	res, err = h.listing.List(context.Background(), 1, ListInput{View: repository.ViewStarred, Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RedirectPage)
}

func TestListingService_RejectsBadInput(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	_, err := h.listing.List(ctx, 1, ListInput{View: "trash", Page: 1})
	assert.ErrorIs(t, err, repository.ErrUnknownView)

	_, err = h.listing.List(ctx, 1, ListInput{View: repository.ViewAll, Page: 0})
	assert.ErrorIs(t, err, repository.ErrInvalidPage)
}

func TestListingService_GroupViewRequiresMembership(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	group := model.Group{Name: "club"}
	require.NoError(t, h.db.Create(&group).Error)
	require.NoError(t, h.db.Create(&model.GroupMembership{GroupID: group.ID, UserID: 1}).Error)
	require.NoError(t, h.db.Create(&model.GroupMembership{GroupID: group.ID, UserID: 2}).Error)

	a := h.create(t, 1, "https://example.com/a")
	b := h.create(t, 1, "https://example.com/b")
	_, err := h.entrySvc.SetGroupVisibility(ctx, 1, a.ID, []uint{group.ID})
	require.NoError(t, err)
	_, err = h.entrySvc.SetGroupVisibility(ctx, 1, b.ID, []uint{group.ID})
	require.NoError(t, err)

	_, err = h.listing.List(ctx, 3, ListInput{View: repository.ViewGroup, GroupID: group.ID, Page: 1})
	assert.ErrorIs(t, err, ErrAccessDenied)

	res, err := h.listing.List(ctx, 2, ListInput{View: repository.ViewGroup, GroupID: group.ID, Page: 1})
	require.NoError(t, err)
	assert.Len(t, res.Page.Entries, 1)
	assert.Equal(t, 2, res.Page.TotalPages)
}

func TestListingService_SearchWithFilter(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	h.create(t, 1, "https://example.com/a")
	h.create(t, 1, "https://other.org/b")

	res, err := h.listing.List(ctx, 1, ListInput{
		View:       repository.ViewSearch,
		SearchTerm: "fetched",
		Page:       1,
		Filter:     repository.EntryFilter{Domain: "other.org"},
	})
	require.NoError(t, err)
	require.Len(t, res.Page.Entries, 1)
	assert.Equal(t, "https://other.org/b", res.Page.Entries[0].URL)
}
