package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Lecturer represents a staff account that owns units and runs attendance
// sessions.
type Lecturer struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	FullName     string `json:"full_name" gorm:"not null"`
	PasswordHash string `json:"-" gorm:"not null"` // "-" means don't include in JSON responses

	Units []Unit `json:"units,omitempty" gorm:"foreignKey:LecturerID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (Lecturer) TableName() string {
	return "lecturers"
}

// SetPassword hashes the given password and sets it on the lecturer.
func (l *Lecturer) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	l.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the given password matches the stored hash.
func (l *Lecturer) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(l.PasswordHash), []byte(password))
	return err == nil
}
