package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/sifan077/PowerRead/internal/app/model"
)

// ErrInvalidPage is returned for page numbers below 1 or non-positive page sizes.
var ErrInvalidPage = errors.New("invalid page")

// OutOfRangeError reports a page past the last one. LastPage is never below 1.
type OutOfRangeError struct {
	Requested int
	LastPage  int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("page %d is out of range (last page is %d)", e.Requested, e.LastPage)
}

// Page is one slice of a paginated listing.
type Page struct {
	Entries    []model.Entry
	Number     int
	PerPage    int
	TotalItems int64
	TotalPages int
}

// TotalPages returns how many pages of perPage items total spans.
func TotalPages(total int64, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Paginate counts the spec, then loads the requested page newest first. Page 1
// is always valid, even for an empty listing.
func (r *entryRepository) Paginate(ctx context.Context, spec QuerySpec, page, perPage int) (*Page, error) {
	if page < 1 || perPage < 1 {
		return nil, fmt.Errorf("%w: page=%d per_page=%d", ErrInvalidPage, page, perPage)
	}

	var total int64
	if err := spec.apply(conn(ctx, r.db).Model(&model.Entry{})).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}

	pages := TotalPages(total, perPage)
	if page > 1 && page > pages {
		last := pages
		if last < 1 {
			last = 1
		}
		return nil, &OutOfRangeError{Requested: page, LastPage: last}
	}

	entries := make([]model.Entry, 0, perPage)
	if total > 0 {
		err := spec.apply(conn(ctx, r.db).Model(&model.Entry{})).
			Preload("Tags").
			Order("entries.created_at DESC").
			Order("entries.id DESC").
			Limit(perPage).
			Offset((page - 1) * perPage).
			Find(&entries).Error
		if err != nil {
			return nil, fmt.Errorf("list entries: %w", err)
		}
	}

	return &Page{
		Entries:    entries,
		Number:     page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: pages,
	}, nil
}
