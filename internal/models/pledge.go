package models

import (
	"time"
)

// Candidate is someone a union's members can pledge votes to.
type Candidate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UnionID   uint      `gorm:"not null;index" json:"union_id"`
	Union     Union     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Name      string    `gorm:"not null" json:"name"`
	Office    string    `gorm:"size:100" json:"office"`
	Platform  string    `gorm:"type:text" json:"platform"`
	CreatedBy uint      `gorm:"not null;index" json:"created_by"`
	Creator   User      `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Pledge is one user's conditional commitment of support to a candidate.
type Pledge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CandidateID uint      `gorm:"not null;index;uniqueIndex:idx_user_candidate" json:"candidate_id"`
	Candidate   Candidate `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID      uint      `gorm:"not null;index;uniqueIndex:idx_user_candidate" json:"user_id"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Note        string    `gorm:"size:500" json:"note"`
	CreatedAt   time.Time `json:"created_at"`
}
