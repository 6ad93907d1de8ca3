package repository

import (
	"errors"
	"fmt"

	"github.com/classattend/attendancebackend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UnitRepository handles database operations for Unit entities
type UnitRepository struct {
	DB *gorm.DB
}

// Ensure UnitRepository implements UnitRepositoryInterface
var _ UnitRepositoryInterface = (*UnitRepository)(nil)

// NewUnitRepository creates a new instance of UnitRepository
func NewUnitRepository(db *gorm.DB) *UnitRepository {
	return &UnitRepository{DB: db}
}

// Create creates a new unit; the registration token is generated in the
// model's BeforeCreate hook when absent
func (r *UnitRepository) Create(unit *models.Unit) error {
	if err := r.DB.Create(unit).Error; err != nil {
		return fmt.Errorf("failed to create unit '%s': %w", unit.Code, err)
	}
	return nil
}

// GetByID retrieves a unit by its ID
func (r *UnitRepository) GetByID(id uint) (*models.Unit, error) {
	var unit models.Unit
	err := r.DB.First(&unit, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get unit by ID %d: %w", id, err)
	}
	return &unit, nil
}

// GetByRegistrationToken resolves an enrollment token to its unit
func (r *UnitRepository) GetByRegistrationToken(token string) (*models.Unit, error) {
	var unit models.Unit
	err := r.DB.Where("registration_token = ?", token).First(&unit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve registration token: %w", err)
	}
	return &unit, nil
}

// ListByLecturerID returns every unit owned by a lecturer
func (r *UnitRepository) ListByLecturerID(lecturerID uint) ([]models.Unit, error) {
	var units []models.Unit
	err := r.DB.Where("lecturer_id = ?", lecturerID).Order("code asc").Find(&units).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list units for lecturer %d: %w", lecturerID, err)
	}
	return units, nil
}

// RotateRegistrationToken replaces a unit's registration token and returns
// the new value, invalidating previously issued enrollment links
func (r *UnitRepository) RotateRegistrationToken(unitID uint) (string, error) {
	newToken := uuid.New().String()
	result := r.DB.Model(&models.Unit{}).Where("id = ?", unitID).Update("registration_token", newToken)
	if result.Error != nil {
		return "", fmt.Errorf("failed to rotate registration token for unit %d: %w", unitID, result.Error)
	}
	if result.RowsAffected == 0 {
		return "", gorm.ErrRecordNotFound
	}
	return newToken, nil
}
