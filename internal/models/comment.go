package models

import "time"

// Comment is an append-only remark on an event
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	EventID   string    `json:"event_id" gorm:"index"`
	ProfileID uint      `json:"profile_id" gorm:"index"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCommentRequest defines the comment form
type CreateCommentRequest struct {
	Content string `form:"content" validate:"required,min=1,max=500"`
}
