package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// View names one listing of a user's entries.
type View string

const (
	ViewUnread   View = "unread"
	ViewArchive  View = "archive"
	ViewStarred  View = "starred"
	ViewUntagged View = "untagged"
	ViewAll      View = "all"
	ViewSearch   View = "search"
	ViewGroup    View = "group"
)

// ErrUnknownView is returned by BuilderFor for a view it cannot build.
var ErrUnknownView = errors.New("unknown entry view")

// Scope is a composable predicate applied to an entries query.
type Scope func(db *gorm.DB) *gorm.DB

// QuerySpec describes one listing before pagination. It is immutable: And and
// Filter return a new spec with the extra predicates appended.
type QuerySpec struct {
	view   View
	scopes []Scope
}

// QueryExtra carries the view-specific arguments of BuilderFor.
type QueryExtra struct {
	SearchTerm string
	// SearchScope narrows a search to the view it was launched from.
	SearchScope View
	GroupID     uint
}

// BuilderFor returns the base QuerySpec for view. Every view except ViewGroup is
// restricted to entries owned by userID; group membership must be checked by the caller.
func BuilderFor(view View, userID uint, extra QueryExtra) (QuerySpec, error) {
	owned := QuerySpec{view: view, scopes: []Scope{byUser(userID)}}

	switch view {
	case ViewAll:
		return owned, nil
	case ViewUnread:
		return owned.And(archived(false)), nil
	case ViewArchive:
		return owned.And(archived(true)), nil
	case ViewStarred:
		return owned.And(starred(true)), nil
	case ViewUntagged:
		return owned.And(untagged()), nil
	case ViewSearch:
		spec := owned.And(matching(extra.SearchTerm))
		switch extra.SearchScope {
		case ViewUnread:
			spec = spec.And(archived(false))
		case ViewArchive:
			spec = spec.And(archived(true))
		case ViewStarred:
			spec = spec.And(starred(true))
		}
		return spec, nil
	case ViewGroup:
		return QuerySpec{view: view, scopes: []Scope{visibleToGroup(extra.GroupID)}}, nil
	default:
		return QuerySpec{}, fmt.Errorf("%w: %q", ErrUnknownView, view)
	}
}

// View returns the view the spec was built for.
func (q QuerySpec) View() View {
	return q.view
}

// And returns a copy of q with scopes added conjunctively.
func (q QuerySpec) And(scopes ...Scope) QuerySpec {
	merged := make([]Scope, 0, len(q.scopes)+len(scopes))
	merged = append(merged, q.scopes...)
	merged = append(merged, scopes...)
	return QuerySpec{view: q.view, scopes: merged}
}

// Filter returns a copy of q narrowed by the non-empty criteria of f.
func (q QuerySpec) Filter(f EntryFilter) QuerySpec {
	return q.And(f.Scopes()...)
}

func (q QuerySpec) apply(db *gorm.DB) *gorm.DB {
	for _, s := range q.scopes {
		db = s(db)
	}
	return db
}

// EntryFilter holds the optional criteria a caller can layer onto any view.
type EntryFilter struct {
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	ReadingTimeMin *int
	ReadingTimeMax *int
	Domain         string
	Archived       *bool
	Starred        *bool
	Public         *bool
	Language       string
}

// Scopes converts the filter into predicates; empty criteria produce nothing.
func (f EntryFilter) Scopes() []Scope {
	var scopes []Scope
	if f.CreatedFrom != nil {
		from := *f.CreatedFrom
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("entries.created_at >= ?", from) })
	}
	if f.CreatedTo != nil {
		to := *f.CreatedTo
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("entries.created_at <= ?", to) })
	}
	if f.ReadingTimeMin != nil {
		lo := *f.ReadingTimeMin
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("entries.reading_time >= ?", lo) })
	}
	if f.ReadingTimeMax != nil {
		hi := *f.ReadingTimeMax
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("entries.reading_time <= ?", hi) })
	}
	if domain := strings.TrimSpace(f.Domain); domain != "" {
		pattern := containsPattern(domain)
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where(`LOWER(entries.domain_name) LIKE ? ESCAPE '\'`, pattern)
		})
	}
	if f.Archived != nil {
		scopes = append(scopes, archived(*f.Archived))
	}
	if f.Starred != nil {
		scopes = append(scopes, starred(*f.Starred))
	}
	if f.Public != nil {
		public := *f.Public
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			if public {
				return db.Where("entries.uid IS NOT NULL")
			}
			return db.Where("entries.uid IS NULL")
		})
	}
	if lang := strings.TrimSpace(f.Language); lang != "" {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("entries.language = ?", lang) })
	}
	return scopes
}

func byUser(userID uint) Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Where("entries.user_id = ?", userID) }
}

func archived(v bool) Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Where("entries.is_archived = ?", v) }
}

func starred(v bool) Scope {
	return func(db *gorm.DB) *gorm.DB { return db.Where("entries.is_starred = ?", v) }
}

func untagged() Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("NOT EXISTS (SELECT 1 FROM entry_tags et WHERE et.entry_id = entries.id)")
	}
}

func matching(term string) Scope {
	pattern := containsPattern(term)
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(`(LOWER(entries.title) LIKE ? ESCAPE '\' OR LOWER(entries.content) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern builds a case-insensitive substring LIKE pattern in which
// the term's own wildcards match literally.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

func visibleToGroup(groupID uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("EXISTS (SELECT 1 FROM entry_groups eg WHERE eg.entry_id = entries.id AND eg.group_id = ?)", groupID)
	}
}
