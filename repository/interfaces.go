package repository

import (
	"github.com/classattend/attendancebackend/models"
)

// LecturerRepositoryInterface defines the methods for lecturer account data
type LecturerRepositoryInterface interface {
	Create(lecturer *models.Lecturer) error
	GetByID(id uint) (*models.Lecturer, error)
	GetByEmail(email string) (*models.Lecturer, error)
}

// UnitRepositoryInterface defines the methods for unit data operations
type UnitRepositoryInterface interface {
	Create(unit *models.Unit) error
	GetByID(id uint) (*models.Unit, error)
	GetByRegistrationToken(token string) (*models.Unit, error)
	ListByLecturerID(lecturerID uint) ([]models.Unit, error)
	RotateRegistrationToken(unitID uint) (string, error)
}

// StudentRepositoryInterface defines the roster read and registration write
// paths. ListActiveByUnitID preloads stored embeddings and is the roster
// snapshot the matcher consumes.
type StudentRepositoryInterface interface {
	Create(student *models.Student) error
	CreateWithEmbeddings(student *models.Student, embeddings []models.StudentEmbedding) error
	GetByID(id uint) (*models.Student, error)
	GetByAdmissionNumber(unitID uint, admissionNumber string) (*models.Student, error)
	ListActiveByUnitID(unitID uint) ([]models.Student, error)
}

// SessionRepositoryInterface defines the attendance session write path. The
// status transitions it performs are monotonic; only the worker calls the
// mutating methods after creation.
type SessionRepositoryInterface interface {
	Create(session *models.AttendanceSession) error
	GetByID(id string) (*models.AttendanceSession, error)
	ListByUnitID(unitID uint) ([]models.AttendanceSession, error)
	MarkProcessing(id string) error
	SetCompleted(session *models.AttendanceSession, records []models.AttendanceRecord) error
	SetFailed(id string, taskErr error) error
}

// UnknownFaceRepositoryInterface defines storage of unmatched face artifacts
type UnknownFaceRepositoryInterface interface {
	Create(face *models.UnknownFace) error
	ListBySessionID(sessionID string) ([]models.UnknownFace, error)
}
