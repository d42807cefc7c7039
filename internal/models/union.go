package models

import (
	"time"
)

type Union struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;unique" json:"name"`
	Description string    `json:"description"`
	CreatedBy   uint      `gorm:"not null;index" json:"created_by"`
	Creator     User      `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Membership links a user to a union. The unique index makes a
// duplicate join surface as a constraint violation.
type Membership struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UnionID   uint      `gorm:"not null;index;uniqueIndex:idx_union_member" json:"union_id"`
	Union     Union     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_union_member" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
