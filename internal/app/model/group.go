package model

import "time"

// Group is a set of users entries can be made visible to.
type Group struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// GroupMembership links a user to a group.
type GroupMembership struct {
	GroupID   uint      `json:"group_id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"primaryKey;index"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
