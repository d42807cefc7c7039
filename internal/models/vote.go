package models

import (
	"time"
)

type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

func (t VoteType) Valid() bool {
	return t == VoteUp || t == VoteDown
}

// Vote records one user's stance on exactly one target: PostID and
// CommentID are mutually exclusive, never both set. The partial unique
// indexes hold one live vote per (user, target); Postgres treats NULLs
// as distinct so the two indexes never collide.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_user_post_vote;uniqueIndex:idx_user_comment_vote" json:"user_id"`
	PostID    *uint     `gorm:"index;uniqueIndex:idx_user_post_vote" json:"post_id"`
	CommentID *uint     `gorm:"index;uniqueIndex:idx_user_comment_vote" json:"comment_id"`
	Type      VoteType  `gorm:"type:varchar(10);not null" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}
