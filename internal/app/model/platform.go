package model

import "time"

// Platform is a user-owned sending platform (ESP, CRM...). Name and slug are
// unique per owner.
type Platform struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OwnerID   string    `json:"owner_id" gorm:"size:64;not null;uniqueIndex:uk_platforms_owner_name,priority:1;uniqueIndex:uk_platforms_owner_slug,priority:1"`
	Name      string    `json:"name" gorm:"size:80;not null;uniqueIndex:uk_platforms_owner_name,priority:2"`
	Slug      string    `json:"slug" gorm:"size:100;not null;uniqueIndex:uk_platforms_owner_slug,priority:2"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TrackingParamSet holds the query parameters appended to CTA URLs sent
// through a platform.
type TrackingParamSet struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	PlatformID uint        `json:"platform_id" gorm:"not null;index"`
	OwnerID    string      `json:"owner_id" gorm:"size:64;not null;index"`
	Params     QueryParams `json:"params" gorm:"type:jsonb;serializer:json;not null"`
	IsActive   bool        `json:"is_active" gorm:"not null"`
	CreatedAt  time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

// PersonalizedTag maps the fixed personalization keys to the merge tags a
// user's platform understands. One per (user, platform).
type PersonalizedTag struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"size:64;not null;uniqueIndex:uk_tags_user_platform,priority:1"`
	PlatformID   uint      `json:"platform_id" gorm:"not null;uniqueIndex:uk_tags_user_platform,priority:2"`
	FirstNameTag string    `json:"first_name_tag" gorm:"size:100"`
	LastNameTag  string    `json:"last_name_tag" gorm:"size:100"`
	DateTag      string    `json:"date_tag" gorm:"size:100"`
	EmailTag     string    `json:"email_tag" gorm:"size:100"`
	Footer1      string    `json:"footer1" gorm:"type:text"`
	Footer2      string    `json:"footer2" gorm:"type:text"`
	IsActive     bool      `json:"is_active" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
