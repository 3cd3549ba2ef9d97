package models

import "time"

type Role string

const (
	RoleUser   Role = "user"
	RoleEngine Role = "engine"
)

// Chat is a conversation owned by one user. It is created lazily on the
// first message of a session and never exists empty.
type Chat struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	Slug      string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"slug"`
	UserID    uint64    `gorm:"index;not null" json:"-"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Shareable `gorm:"embedded"`
	Viewers   []User    `gorm:"many2many:chat_viewers" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Chat) TableName() string { return "chats" }

// Message belongs to exactly one chat. ReplyToID is a nullable
// self-reference; ownership of the referenced message is enforced at lookup
// time, not by a database constraint.
type Message struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID     uint64    `gorm:"index;not null" json:"-"`
	Role       Role      `gorm:"type:varchar(16);not null" json:"role"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	ReplyToID  *uint64   `gorm:"index" json:"reply_to,omitempty"`
	BookmarkID *uint64   `gorm:"index" json:"bookmark_id,omitempty"`
	Engines    []Engine  `gorm:"many2many:message_engines" json:"engines,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`

	Chat Chat `gorm:"foreignKey:ChatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Message) TableName() string { return "messages" }
