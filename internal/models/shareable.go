package models

import "time"

// Shareable is embedded by Chat, Project and Bookmark. The key is nil until
// the owner first requests a share link; once generated it never changes.
type Shareable struct {
	ShareKey *string `gorm:"type:varchar(36);uniqueIndex" json:"share_key,omitempty"`
}

type Project struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64 `gorm:"index;not null" json:"-"`
	Name      string `gorm:"type:varchar(255);not null" json:"name"`
	Shareable `gorm:"embedded"`
	Viewers   []User    `gorm:"many2many:project_viewers" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

type Bookmark struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64  `gorm:"index;not null" json:"-"`
	ProjectID *uint64 `gorm:"index" json:"project_id,omitempty"`
	Name      string  `gorm:"type:varchar(255);not null" json:"name"`
	Shareable `gorm:"embedded"`
	Viewers   []User    `gorm:"many2many:bookmark_viewers" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Bookmark) TableName() string { return "bookmarks" }
