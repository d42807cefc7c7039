package models

import (
	"time"
)

type ChannelType string

const (
	ChannelTypeText  ChannelType = "text"
	ChannelTypeVoice ChannelType = "voice"
	ChannelTypeVideo ChannelType = "video"
)

// IsCall reports whether the channel type can host a live session.
func (t ChannelType) IsCall() bool {
	return t == ChannelTypeVoice || t == ChannelTypeVideo
}

// Valid reports whether the type is one of the fixed channel kinds.
// The type is set at creation and never changes afterwards.
func (t ChannelType) Valid() bool {
	return t == ChannelTypeText || t == ChannelTypeVoice || t == ChannelTypeVideo
}

type Channel struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UnionID     uint        `gorm:"not null;index" json:"union_id"`
	Union       Union       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Name        string      `gorm:"not null" json:"name"`
	Description string      `json:"description"`
	Type        ChannelType `gorm:"type:varchar(10);not null;default:'text'" json:"type"`
	CreatedBy   uint        `gorm:"not null;index" json:"created_by"`
	Creator     User        `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
