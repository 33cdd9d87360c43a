package models

import "time"

// Message is a directed note between two profiles. There are no threads.
type Message struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	FromProfileID uint      `json:"from_profile_id" gorm:"index"`
	ToProfileID   uint      `json:"to_profile_id" gorm:"index"`
	Body          string    `json:"body"`
	CreatedAt     time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	Body string `form:"body" validate:"required,min=1,max=1000"`
}
