package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Plan carries the numeric limits and the category allow-list a
// subscription entitles a customer to.
type Plan struct {
	ID             uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string         `gorm:"type:varchar(64);not null" json:"name"`
	MessagesPerDay int            `gorm:"not null;default:0" json:"messages_per_day"`
	ProjectsLimit  int            `gorm:"not null;default:0" json:"projects_limit"`
	BookmarksLimit int            `gorm:"not null;default:0" json:"bookmarks_limit"`
	Categories     datatypes.JSON `gorm:"not null;default:'[]'" json:"categories"` // allowed EngineCategory ids
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (Plan) TableName() string { return "plans" }

// AllowedCategoryIDs decodes the category allow-list. A malformed column
// decodes as empty, which denies every category.
func (p *Plan) AllowedCategoryIDs() []uint64 {
	var ids []uint64
	if err := json.Unmarshal(p.Categories, &ids); err != nil {
		return nil
	}
	return ids
}

func (p *Plan) AllowsCategory(id uint64) bool {
	for _, allowed := range p.AllowedCategoryIDs() {
		if allowed == id {
			return true
		}
	}
	return false
}

// Customer is 1:1 with a user and carries the daily/total usage counters.
// Counters only grow during the day; the worker resets them on schedule.
type Customer struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            uint64    `gorm:"uniqueIndex;not null" json:"-"`
	MessagesSentToday int       `gorm:"not null;default:0" json:"messages_sent_today"`
	ProjectsCreated   int       `gorm:"not null;default:0" json:"projects_created"`
	BookmarksCreated  int       `gorm:"not null;default:0" json:"bookmarks_created"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Subscription *Subscription `gorm:"foreignKey:CustomerID;references:ID" json:"subscription,omitempty"`
}

func (Customer) TableName() string { return "customers" }

// Entitled reports whether the customer holds a subscription in a state
// that grants access.
func (c *Customer) Entitled() bool {
	if c.Subscription == nil {
		return false
	}
	s := c.Subscription.Status
	return s == SubscriptionActive || s == SubscriptionTrialing
}

type Subscription struct {
	ID         uint64             `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID uint64             `gorm:"uniqueIndex;not null" json:"-"`
	PlanID     uint64             `gorm:"index;not null" json:"plan_id"`
	Status     SubscriptionStatus `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`

	Plan Plan `gorm:"foreignKey:PlanID;references:ID" json:"plan"`
}

func (Subscription) TableName() string { return "subscriptions" }
