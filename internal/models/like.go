package models

import "time"

// Like records that a profile saved an event.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProfileID uint      `json:"profile_id" gorm:"index"`
	EventID   string    `json:"event_id" gorm:"index"` // MongoDB ObjectID hex
	CreatedAt time.Time `json:"created_at"`
}
