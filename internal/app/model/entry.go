package model

import (
	"time"

	"gorm.io/datatypes"
)

// DefaultEntryTitle is kept on an entry until a fetch produces a real title.
const DefaultEntryTitle = "No title found"

// Entry is a saved article owned by exactly one user.
type Entry struct {
	ID             uint              `json:"id" gorm:"primaryKey"`
	UserID         uint              `json:"user_id" gorm:"not null;index:idx_entries_user_url,priority:1"`
	URL            string            `json:"url" gorm:"type:text;not null;index:idx_entries_user_url,priority:2"`
	Title          string            `json:"title" gorm:"type:text"`
	Content        string            `json:"content" gorm:"type:text"`
	DomainName     string            `json:"domain_name" gorm:"size:255;index"`
	Language       string            `json:"language" gorm:"size:20"`
	MimeType       string            `json:"mime_type" gorm:"size:100"`
	PreviewPicture string            `json:"preview_picture" gorm:"type:text"`
	ReadingTime    int               `json:"reading_time" gorm:"not null;default:0"`
	Metadata       datatypes.JSONMap `json:"metadata,omitempty"`
	IsArchived     bool              `json:"is_archived" gorm:"not null;default:false;index"`
	IsStarred      bool              `json:"is_starred" gorm:"not null;default:false;index"`
	UID            *string           `json:"uid,omitempty" gorm:"size:36;uniqueIndex"`
	CreatedAt      time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `json:"updated_at" gorm:"autoUpdateTime"`

	Tags   []Tag   `json:"tags,omitempty" gorm:"many2many:entry_tags;"`
	Groups []Group `json:"groups,omitempty" gorm:"many2many:entry_groups;"`
}

// NewEntry builds an unsaved entry for the given owner and URL.
func NewEntry(userID uint, url string) *Entry {
	return &Entry{
		UserID: userID,
		URL:    url,
		Title:  DefaultEntryTitle,
	}
}

// IsShared reports whether a public share UID has been issued.
func (e *Entry) IsShared() bool {
	return e.UID != nil
}

// TagIDs returns the ids of the tags currently loaded on the entry.
func (e *Entry) TagIDs() []uint {
	ids := make([]uint, 0, len(e.Tags))
	for _, t := range e.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}
