package repository

import (
	"errors"
	"fmt"

	"github.com/classattend/attendancebackend/models"
	"gorm.io/gorm"
)

// LecturerRepository handles database operations for Lecturer accounts
type LecturerRepository struct {
	DB *gorm.DB
}

// Ensure LecturerRepository implements LecturerRepositoryInterface
var _ LecturerRepositoryInterface = (*LecturerRepository)(nil)

// NewLecturerRepository creates a new instance of LecturerRepository
func NewLecturerRepository(db *gorm.DB) *LecturerRepository {
	return &LecturerRepository{DB: db}
}

// Create creates a new lecturer account
func (r *LecturerRepository) Create(lecturer *models.Lecturer) error {
	if err := r.DB.Create(lecturer).Error; err != nil {
		return fmt.Errorf("failed to create lecturer '%s': %w", lecturer.Email, err)
	}
	return nil
}

// GetByID retrieves a lecturer by ID
func (r *LecturerRepository) GetByID(id uint) (*models.Lecturer, error) {
	var lecturer models.Lecturer
	err := r.DB.First(&lecturer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get lecturer by ID %d: %w", id, err)
	}
	return &lecturer, nil
}

// GetByEmail retrieves a lecturer by email
func (r *LecturerRepository) GetByEmail(email string) (*models.Lecturer, error) {
	var lecturer models.Lecturer
	err := r.DB.Where("email = ?", email).First(&lecturer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get lecturer by email: %w", err)
	}
	return &lecturer, nil
}
