package models

import (
	"strings"
	"time"
)

// Profile is the application-level record owned by exactly one User.
type Profile struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserID          uint      `json:"user_id" gorm:"uniqueIndex"`
	Preferences     string    `json:"preferences"` // comma separated tags
	GraduationYear  int       `json:"graduation_year"`
	AffiliationType string    `json:"affiliation_type" gorm:"size:50"`
	AffiliationMsg  string    `json:"affiliation_msg" gorm:"size:200"`
	Bio             string    `json:"bio"`
	AvatarKey       string    `json:"avatar_key,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ProfileFields are the optional fields supplied at registration.
type ProfileFields struct {
	GraduationYear  int      `form:"grad_year" validate:"omitempty,min=1970"`
	Bio             string   `form:"bio" validate:"max=1000"`
	AffiliationType string   `form:"aff" validate:"max=50"`
	AffiliationMsg  string   `form:"affmsg" validate:"max=200"`
	Preferences     []string `form:"preferences" validate:"dive,max=50,excludesall=0x2C"`
}

// PreferenceTags splits the stored preference string. Empty segments are
// dropped; order is kept and repeats are not removed.
func (p *Profile) PreferenceTags() []string {
	return SplitTags(p.Preferences)
}

// SplitTags splits a comma separated tag list, skipping empty entries.
func SplitTags(s string) []string {
	var tags []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tags = append(tags, part)
	}
	return tags
}

// JoinTags is the inverse of SplitTags.
func JoinTags(tags []string) string {
	return strings.Join(SplitTags(strings.Join(tags, ",")), ",")
}
