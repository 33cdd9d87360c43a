package models

import "time"

const NotificationFollowed = "followed"

// Notification represents a profile notification (PostgreSQL)
type Notification struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	Kind               string    `json:"kind" gorm:"size:30;index"`
	RecipientProfileID uint      `json:"recipient_profile_id" gorm:"index"`
	ActorProfileID     uint      `json:"actor_profile_id" gorm:"index"`
	EventID            *string   `json:"event_id"` // nil when not event scoped
	IsRead             bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt          time.Time `json:"created_at" gorm:"index"`
}
