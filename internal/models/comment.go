package models

import (
	"time"
)

type Comment struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	PostID   uint     `gorm:"not null;index" json:"post_id"`
	Post     Post     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID   uint     `gorm:"not null;index" json:"user_id"`
	User     User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	ParentID *uint    `gorm:"index" json:"parent_id"` // Nullable for top-level comments
	Parent   *Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	// Depth is the parent's depth + 1, 0 for top-level. The comment set
	// under a post forms a forest rooted at nil.
	Depth   int    `gorm:"not null;default:0" json:"depth"`
	Content string `gorm:"type:text;not null" json:"content"`

	Upvotes   int `gorm:"not null;default:0" json:"upvotes"`
	Downvotes int `gorm:"not null;default:0" json:"downvotes"`

	// Deleted comments stay as tombstones so reply subtrees keep their
	// parent pointers; content is withheld when serving them.
	IsDeleted bool `gorm:"not null;default:false" json:"is_deleted"`

	CreatedAt time.Time `json:"created_at"`
}
