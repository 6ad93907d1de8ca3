package repository

import (
	"fmt"
	"time"

	"github.com/classattend/attendancebackend/models"
	"gorm.io/gorm"
)

// UnknownFaceRepository handles database operations for UnknownFace entities
type UnknownFaceRepository struct {
	DB *gorm.DB
}

// Ensure UnknownFaceRepository implements UnknownFaceRepositoryInterface
var _ UnknownFaceRepositoryInterface = (*UnknownFaceRepository)(nil)

// NewUnknownFaceRepository creates a new instance of UnknownFaceRepository
func NewUnknownFaceRepository(db *gorm.DB) *UnknownFaceRepository {
	return &UnknownFaceRepository{DB: db}
}

// Create persists a single unknown face crop record
func (r *UnknownFaceRepository) Create(face *models.UnknownFace) error {
	if face.CreatedAt == 0 {
		face.CreatedAt = time.Now().Unix()
	}
	if err := r.DB.Create(face).Error; err != nil {
		return fmt.Errorf("failed to create unknown face for session %s: %w", face.SessionID, err)
	}
	return nil
}

// ListBySessionID returns the unknown faces captured during a session,
// ordered by photo index then detection score descending
func (r *UnknownFaceRepository) ListBySessionID(sessionID string) ([]models.UnknownFace, error) {
	var faces []models.UnknownFace
	err := r.DB.Where("session_id = ?", sessionID).
		Order("photo_index asc, detection_score desc").
		Find(&faces).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unknown faces for session %s: %w", sessionID, err)
	}
	return faces, nil
}
