package model

import "time"

// EntryEvent is the payload published on the event bus for entry lifecycle changes.
type EntryEvent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	EntryID   uint      `json:"entry_id"`
	UserID    uint      `json:"user_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// EntryAudit is the stored form of a consumed EntryEvent.
type EntryAudit struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	Event      string    `json:"event" gorm:"size:32;not null;index"`
	EntryID    uint      `json:"entry_id" gorm:"not null;index"`
	UserID     uint      `json:"user_id" gorm:"not null;index"`
	URL        string    `json:"url" gorm:"type:text"`
	Title      string    `json:"title" gorm:"type:text"`
	OccurredAt time.Time `json:"occurred_at" gorm:"not null;index"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

const (
	EventEntrySaved   = "entry.saved"
	EventEntryDeleted = "entry.deleted"

	EntryStreamName     = "ENTRIES"
	EntryStreamSubjects = "entry.>"
	EntryAuditConsumer  = "entry-audit"
	EntryStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
