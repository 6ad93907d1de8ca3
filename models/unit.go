package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Unit represents a taught class whose roster students register into. Each
// unit carries a registration token that enrollment links embed; rotating the
// token invalidates outstanding links.
type Unit struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	Name       string `json:"name" gorm:"not null"`
	Code       string `json:"code" gorm:"not null;index"`
	LecturerID uint   `json:"lecturer_id" gorm:"index;not null"`

	RegistrationToken string `json:"registration_token" gorm:"uniqueIndex;not null"`

	Lecturer *Lecturer `json:"-" gorm:"foreignKey:LecturerID"`
	Students []Student `json:"students,omitempty" gorm:"foreignKey:UnitID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (Unit) TableName() string {
	return "units"
}

// BeforeCreate generates a registration token if not provided.
func (u *Unit) BeforeCreate(tx *gorm.DB) (err error) {
	if u.RegistrationToken == "" {
		u.RegistrationToken = uuid.New().String()
	}
	return
}

// RotateToken replaces the registration token, invalidating old links.
func (u *Unit) RotateToken() {
	u.RegistrationToken = uuid.New().String()
}
