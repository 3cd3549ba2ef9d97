package models

import "time"

// UsageEvent is the audit row the worker writes for every completed turn.
// The session publishes these to the queue; it never writes this table.
type UsageEvent struct {
	ID         string    `gorm:"primaryKey;size:26" json:"id"` // ULID
	CustomerID uint64    `gorm:"index;not null" json:"customer_id"`
	ChatSlug   string    `gorm:"type:varchar(36);index;not null" json:"chat_slug"`
	MessageID  uint64    `gorm:"not null" json:"message_id"`
	OccurredAt time.Time `gorm:"index;not null" json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (UsageEvent) TableName() string { return "usage_events" }
