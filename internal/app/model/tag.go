package model

// Tag is a label shared across entries. Its label is the natural key; a tag
// only exists while at least one entry references it.
type Tag struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Label string `json:"label" gorm:"size:255;not null;uniqueIndex"`
}

// TagUsage pairs a tag with how many of a user's entries carry it.
type TagUsage struct {
	Tag
	EntryCount int64 `json:"entry_count"`
}
