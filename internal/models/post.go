package models

import (
	"time"
)

type Post struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	UnionID uint  `gorm:"not null;index" json:"union_id"`
	Union   Union `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	// ChannelID is the home channel; membership there is implicit and
	// never represented as a PostChannel row.
	ChannelID uint    `gorm:"not null;index" json:"channel_id"`
	Channel   Channel `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	UserID    uint    `gorm:"not null;index" json:"user_id"`
	User      User    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Title     string  `gorm:"not null" json:"title"`
	Content   string  `gorm:"type:text" json:"content"`

	// Derived counters, maintained transactionally alongside the vote
	// and comment rows they summarize.
	Upvotes      int `gorm:"not null;default:0" json:"upvotes"`
	Downvotes    int `gorm:"not null;default:0" json:"downvotes"`
	CommentCount int `gorm:"not null;default:0" json:"comment_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostChannel cross-tags a post into an extra channel of the same union.
type PostChannel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_post_channel" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ChannelID uint      `gorm:"not null;index;uniqueIndex:idx_post_channel" json:"channel_id"`
	Channel   Channel   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
