package models

import (
	"time"
)

// ChannelSession is one active call on a voice/video channel, backed by
// an externally allocated room. The partial unique index keeps the
// "at most one active session per channel" invariant enforced by the
// database rather than assumed by application logic.
type ChannelSession struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ChannelID uint    `gorm:"not null;index;uniqueIndex:idx_channel_active_session,where:is_active" json:"channel_id"`
	Channel   Channel `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string  `gorm:"uniqueIndex;size:36;not null" json:"token"`
	RoomName  string  `gorm:"not null" json:"room_name"`
	RoomURL   string  `gorm:"not null" json:"room_url"`
	CreatedBy uint    `gorm:"not null;index" json:"created_by"`
	Creator   User    `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	StartedAt time.Time  `gorm:"not null" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

// SessionParticipant is a user's presence record within a session. One
// row per (session, user); rejoining after a leave reactivates the row
// so the participant keeps a stable identity across reconnects.
// Mute/video flags are client-reported, not authoritative.
type SessionParticipant struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	SessionID uint           `gorm:"not null;index;uniqueIndex:idx_session_user" json:"session_id"`
	Session   ChannelSession `gorm:"foreignKey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint           `gorm:"not null;index;uniqueIndex:idx_session_user" json:"user_id"`
	User      User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`

	IsActive bool       `gorm:"not null;default:true" json:"is_active"`
	JoinedAt time.Time  `gorm:"not null" json:"joined_at"`
	LeftAt   *time.Time `json:"left_at"`

	IsMuted      bool `gorm:"not null;default:true" json:"is_muted"`
	VideoEnabled bool `gorm:"not null;default:false" json:"video_enabled"`
}
