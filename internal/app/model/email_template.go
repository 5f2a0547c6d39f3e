package model

import "time"

// TemplateCodeLength is the length of the public template code.
const TemplateCodeLength = 8

// EmailTemplate is a stored email body containing {{placeholders}}.
type EmailTemplate struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	OwnerID     string    `json:"owner_id" gorm:"size:64;not null;index"`
	Code        string    `json:"code" gorm:"size:12;not null;uniqueIndex"`
	Title       string    `json:"title" gorm:"size:200;not null"`
	Subject     string    `json:"subject" gorm:"size:200"`
	FromName    string    `json:"from_name" gorm:"size:100"`
	BodyHTML    string    `json:"body_html" gorm:"type:text;not null"`
	BodyText    string    `json:"body_text" gorm:"type:text"`
	IsPublic    bool      `json:"is_public" gorm:"not null;default:false;index"`
	PreviewPath string    `json:"preview_path,omitempty" gorm:"size:255"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime;index"`
}

// TemplateUsage counts how often a user personalized a template.
type TemplateUsage struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"size:64;not null;uniqueIndex:uk_usages_user_template,priority:1"`
	TemplateID uint      `json:"template_id" gorm:"not null;uniqueIndex:uk_usages_user_template,priority:2"`
	UsedCount  int64     `json:"used_count" gorm:"not null;default:0"`
	LastUsedAt time.Time `json:"last_used_at" gorm:"not null"`
}
