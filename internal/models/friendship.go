package models

import "time"

// Friendship is a directed edge From -> To. A mutual friendship is two rows.
// At most one row per ordered pair; the friendship service enforces that.
type Friendship struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	FromProfileID uint      `json:"from_profile_id" gorm:"index:idx_friendship_pair"`
	ToProfileID   uint      `json:"to_profile_id" gorm:"index:idx_friendship_pair"`
	CreatedAt     time.Time `json:"created_at"`
}
