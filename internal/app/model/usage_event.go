package model

import "time"

// TemplateUsedEvent is published after every successful personalization.
type TemplateUsedEvent struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	TemplateID   uint      `json:"template_id"`
	TemplateCode string    `json:"template_code"`
	PlatformID   *uint     `json:"platform_id,omitempty"`
	UsedCount    int64     `json:"used_count"`
	Timestamp    time.Time `json:"timestamp"`
}

const (
	UsageStreamName     = "TEMPLATE_USAGE"
	UsageStreamSubject  = "templates.used"
	UsageConsumerName   = "usage-ranker"
	UsageStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
