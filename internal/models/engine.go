package models

import "time"

// ExternalService identifies the search provider backing an engine.
// Empty means the engine only contributes its static prompt.
type ExternalService string

const (
	ServiceNone         ExternalService = ""
	ServicePatents      ExternalService = "patents"
	ServiceShopping     ExternalService = "shopping"
	ServiceScholar      ExternalService = "scholar"
	ServiceAutocomplete ExternalService = "autocomplete"
)

// EngineCategory groups engines under one top-level system prompt.
// At most one category is marked default (partial unique index over
// is_default = true).
type EngineCategory struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	SystemPrompt string    `gorm:"type:text;not null" json:"system_prompt"`
	IsDefault    bool      `gorm:"not null;default:false;index:idx_category_default,unique,where:is_default" json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (EngineCategory) TableName() string { return "engine_categories" }

type Engine struct {
	ID              uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID      uint64          `gorm:"index;not null" json:"category_id"`
	Name            string          `gorm:"type:varchar(64);not null" json:"name"`
	Prompt          string          `gorm:"type:text;not null" json:"prompt"`
	ExternalService ExternalService `gorm:"type:varchar(32);not null;default:''" json:"external_service,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Category EngineCategory `gorm:"foreignKey:CategoryID;references:ID" json:"category,omitempty"`
}

func (Engine) TableName() string { return "engines" }
