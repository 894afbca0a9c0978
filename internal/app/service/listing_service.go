package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sifan077/PowerRead/internal/app/repository"
)

const (
	DefaultItemsPerPage      = 12
	DefaultGroupItemsPerPage = 9
)

// ListingService lists a view of entries one page at a time.
type ListingService interface {
	List(ctx context.Context, userID uint, input ListInput) (*ListResult, error)
}

// ListInput selects the view, page and optional filters.
type ListInput struct {
	View        repository.View
	Page        int
	SearchTerm  string
	SearchScope repository.View
	GroupID     uint
	Filter      repository.EntryFilter
}

// ListResult holds either a page or, when the requested page is past the last
// one, the page the caller should be sent to instead.
type ListResult struct {
	Page         *repository.Page
	RedirectPage int
}

type listingService struct {
	entries           repository.EntryRepository
	groups            repository.GroupRepository
	itemsPerPage      int
	groupItemsPerPage int
}

// NewListingService returns a ListingService. Non-positive sizes use the defaults.
func NewListingService(entries repository.EntryRepository, groups repository.GroupRepository, itemsPerPage, groupItemsPerPage int) ListingService {
	if itemsPerPage <= 0 {
		itemsPerPage = DefaultItemsPerPage
	}
	if groupItemsPerPage <= 0 {
		groupItemsPerPage = DefaultGroupItemsPerPage
	}
	return &listingService{
		entries:           entries,
		groups:            groups,
		itemsPerPage:      itemsPerPage,
		groupItemsPerPage: groupItemsPerPage,
	}
}

func (s *listingService) List(ctx context.Context, userID uint, input ListInput) (*ListResult, error) {
	perPage := s.itemsPerPage
	if input.View == repository.ViewGroup {
		member, err := s.groups.IsMember(ctx, userID, input.GroupID)
		if err != nil {
			return nil, fmt.Errorf("check group membership: %w", err)
		}
		if !member {
			return nil, fmt.Errorf("group %d: %w", input.GroupID, ErrAccessDenied)
		}
		perPage = s.groupItemsPerPage
	}

	spec, err := repository.BuilderFor(input.View, userID, repository.QueryExtra{
		SearchTerm:  input.SearchTerm,
		SearchScope: input.SearchScope,
		GroupID:     input.GroupID,
	})
	if err != nil {
		return nil, err
	}

	page, err := s.entries.Paginate(ctx, spec.Filter(input.Filter), input.Page, perPage)
	if err != nil {
		var oor *repository.OutOfRangeError
		if errors.As(err, &oor) && input.Page > 1 {
			return &ListResult{RedirectPage: oor.LastPage}, nil
		}
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return &ListResult{Page: page}, nil
}
