package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/classattend/attendancebackend/models"
	"gorm.io/gorm"
)

// SessionRepository handles database operations for AttendanceSession
// entities. Status writes enforce the monotonic transition order; a write
// that would move a session backwards affects zero rows and surfaces as
// ErrRecordNotFound.
type SessionRepository struct {
	DB *gorm.DB
}

// Ensure SessionRepository implements SessionRepositoryInterface
var _ SessionRepositoryInterface = (*SessionRepository)(nil)

// NewSessionRepository creates a new instance of SessionRepository
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

// Create creates a new session in pending state
func (r *SessionRepository) Create(session *models.AttendanceSession) error {
	now := time.Now().Unix()
	if session.CreatedAt == 0 {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.Status == "" {
		session.Status = models.SessionStatusPending
	}

	if err := r.DB.Create(session).Error; err != nil {
		return fmt.Errorf("failed to create attendance session %s: %w", session.ID, err)
	}
	return nil
}

// GetByID retrieves a session with its records preloaded
func (r *SessionRepository) GetByID(id string) (*models.AttendanceSession, error) {
	var session models.AttendanceSession
	err := r.DB.Preload("Records").Preload("Records.Student").First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	return &session, nil
}

// ListByUnitID returns sessions for a unit, newest first
func (r *SessionRepository) ListByUnitID(unitID uint) ([]models.AttendanceSession, error) {
	var sessions []models.AttendanceSession
	err := r.DB.Where("unit_id = ?", unitID).Order("created_at desc").Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for unit %d: %w", unitID, err)
	}
	return sessions, nil
}

// MarkProcessing moves a pending session to processing
func (r *SessionRepository) MarkProcessing(id string) error {
	result := r.DB.Model(&models.AttendanceSession{}).
		Where("id = ? AND status = ?", id, models.SessionStatusPending).
		Updates(map[string]interface{}{
			"status":     models.SessionStatusProcessing,
			"updated_at": time.Now().Unix(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark session %s processing: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetCompleted publishes the final counts and per-student records in one
// transaction, moving the session to completed
func (r *SessionRepository) SetCompleted(session *models.AttendanceSession, records []models.AttendanceRecord) error {
	now := time.Now().Unix()
	return r.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.AttendanceSession{}).
			Where("id = ? AND status = ?", session.ID, models.SessionStatusProcessing).
			Updates(map[string]interface{}{
				"status":           models.SessionStatusCompleted,
				"total_registered": session.TotalRegistered,
				"present_count":    session.PresentCount,
				"absent_count":     session.AbsentCount,
				"unknown_count":    session.UnknownCount,
				"photo_taken_at":   session.PhotoTakenAt,
				"camera_make":      session.CameraMake,
				"camera_model":     session.CameraModel,
				"updated_at":       now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to complete session %s: %w", session.ID, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if len(records) > 0 {
			for i := range records {
				records[i].SessionID = session.ID
				if records[i].CreatedAt == 0 {
					records[i].CreatedAt = now
				}
			}
			if err := tx.Create(&records).Error; err != nil {
				return fmt.Errorf("failed to write %d attendance records for session %s: %w", len(records), session.ID, err)
			}
		}
		return nil
	})
}

// SetFailed marks a session failed with the task error. Failed is terminal;
// no counts are published.
func (r *SessionRepository) SetFailed(id string, taskErr error) error {
	msg := "unknown error"
	if taskErr != nil {
		msg = taskErr.Error()
	}
	result := r.DB.Model(&models.AttendanceSession{}).
		Where("id = ? AND status IN ?", id, []string{models.SessionStatusPending, models.SessionStatusProcessing}).
		Updates(map[string]interface{}{
			"status":        models.SessionStatusFailed,
			"error_message": msg,
			"updated_at":    time.Now().Unix(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark session %s failed: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
