package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/classattend/attendancebackend/models"
	"gorm.io/gorm"
)

// StudentRepository handles database operations for Student entities
type StudentRepository struct {
	DB *gorm.DB
}

// Ensure StudentRepository implements StudentRepositoryInterface
var _ StudentRepositoryInterface = (*StudentRepository)(nil)

// NewStudentRepository creates a new instance of StudentRepository
func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{DB: db}
}

// Create creates a new student record
func (r *StudentRepository) Create(student *models.Student) error {
	now := time.Now().Unix()
	if student.CreatedAt == 0 {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	if err := r.DB.Create(student).Error; err != nil {
		return fmt.Errorf("failed to create student '%s' in unit %d: %w", student.AdmissionNumber, student.UnitID, err)
	}
	return nil
}

// CreateWithEmbeddings enrolls a student together with their reference
// embeddings in one transaction. A failure on either write leaves no rows
// behind; a student row without at least one embedding would count as absent
// in every session while being unmatchable.
func (r *StudentRepository) CreateWithEmbeddings(student *models.Student, embeddings []models.StudentEmbedding) error {
	if len(embeddings) == 0 {
		return fmt.Errorf("no embeddings supplied for student '%s'", student.AdmissionNumber)
	}

	now := time.Now().Unix()
	if student.CreatedAt == 0 {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(student).Error; err != nil {
			return fmt.Errorf("failed to create student '%s' in unit %d: %w", student.AdmissionNumber, student.UnitID, err)
		}
		for i := range embeddings {
			embeddings[i].StudentID = student.ID
			if embeddings[i].CreatedAt == 0 {
				embeddings[i].CreatedAt = now
			}
		}
		if err := tx.Create(&embeddings).Error; err != nil {
			return fmt.Errorf("failed to store %d reference embeddings for student '%s': %w", len(embeddings), student.AdmissionNumber, err)
		}
		return nil
	})
}

// GetByID retrieves a student with stored embeddings preloaded
func (r *StudentRepository) GetByID(id uint) (*models.Student, error) {
	var student models.Student
	err := r.DB.Preload("Embeddings").First(&student, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get student by ID %d: %w", id, err)
	}
	return &student, nil
}

// GetByAdmissionNumber retrieves a student by unit and admission number
func (r *StudentRepository) GetByAdmissionNumber(unitID uint, admissionNumber string) (*models.Student, error) {
	var student models.Student
	err := r.DB.Where("unit_id = ? AND admission_number = ?", unitID, admissionNumber).
		Preload("Embeddings").First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get student %s in unit %d: %w", admissionNumber, unitID, err)
	}
	return &student, nil
}

// ListActiveByUnitID returns the roster snapshot for one unit: every active
// student with their stored embeddings. Read once per attendance session.
func (r *StudentRepository) ListActiveByUnitID(unitID uint) ([]models.Student, error) {
	var students []models.Student
	err := r.DB.Where("unit_id = ? AND is_active = ?", unitID, true).
		Preload("Embeddings").
		Order("admission_number asc").
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active students for unit %d: %w", unitID, err)
	}
	return students, nil
}
