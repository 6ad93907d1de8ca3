package services

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/classattend/attendancebackend/models"
	"github.com/classattend/attendancebackend/repository"
)

var (
	// ErrInvalidToken means no unit owns the presented registration token
	ErrInvalidToken = errors.New("invalid registration token")
	// ErrDuplicateAdmission means the admission number is already registered
	// in the unit
	ErrDuplicateAdmission = errors.New("admission number already registered in this unit")
	// ErrNotLive means the capture session did not pass liveness validation
	ErrNotLive = errors.New("liveness validation failed")
)

// PoseInstruction tells the capture client what to prompt for one pose
type PoseInstruction struct {
	Pose      string `json:"pose"`
	Prompt    string `json:"prompt"`
	MinFrames int    `json:"min_frames"`
}

// RegistrationService handles the student self-registration lifecycle:
// token verification, capture instructions, liveness validation, and the
// final enrollment write.
type RegistrationService struct {
	unitRepo    repository.UnitRepositoryInterface
	studentRepo repository.StudentRepositoryInterface
	validator   *LivenessValidator
	minFrames   int
	modelName   string
}

// NewRegistrationService creates a registration service
func NewRegistrationService(
	unitRepo repository.UnitRepositoryInterface,
	studentRepo repository.StudentRepositoryInterface,
	validator *LivenessValidator,
	minFrames int,
	modelName string,
) *RegistrationService {
	return &RegistrationService{
		unitRepo:    unitRepo,
		studentRepo: studentRepo,
		validator:   validator,
		minFrames:   minFrames,
		modelName:   modelName,
	}
}

// VerifyToken resolves a registration token to its unit
func (s *RegistrationService) VerifyToken(token string) (*models.Unit, error) {
	unit, err := s.unitRepo.GetByRegistrationToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("token lookup failed: %w", err)
	}
	return unit, nil
}

// CaptureInstructions returns the pose prompts the capture client should
// walk the student through, in presentation order
func (s *RegistrationService) CaptureInstructions() []PoseInstruction {
	prompts := map[string]string{
		PoseCenter:    "Look straight at the camera",
		PoseTiltDown:  "Tilt your head down slightly",
		PoseTurnRight: "Turn your head to the right",
		PoseTurnLeft:  "Turn your head to the left",
	}
	instructions := make([]PoseInstruction, 0, len(RequiredPoses))
	for _, pose := range RequiredPoses {
		instructions = append(instructions, PoseInstruction{
			Pose:      pose,
			Prompt:    prompts[pose],
			MinFrames: s.minFrames,
		})
	}
	return instructions
}

// Start verifies the token and checks the admission number is free,
// before the client begins its capture session
func (s *RegistrationService) Start(token, admissionNumber string) (*models.Unit, error) {
	unit, err := s.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	existing, err := s.studentRepo.GetByAdmissionNumber(unit.ID, admissionNumber)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("admission number check failed: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateAdmission
	}
	return unit, nil
}

// CheckLiveness validates a capture session without enrolling anyone; the
// client uses it for mid-capture feedback
func (s *RegistrationService) CheckLiveness(framesByPose map[string][][]byte) LivenessOutcome {
	return s.validator.Validate(framesByPose)
}

// Complete runs the final liveness validation and, when the subject is
// live, enrolls the student with their per-pose reference embeddings
func (s *RegistrationService) Complete(token, admissionNumber, fullName string, framesByPose map[string][][]byte) (*models.Student, LivenessOutcome, error) {
	unit, err := s.Start(token, admissionNumber)
	if err != nil {
		return nil, LivenessOutcome{}, err
	}

	outcome := s.validator.Validate(framesByPose)
	if !outcome.IsLive {
		return nil, outcome, ErrNotLive
	}

	student := &models.Student{
		UnitID:          unit.ID,
		AdmissionNumber: admissionNumber,
		FullName:        fullName,
		IsActive:        true,
	}
	embeddings := make([]models.StudentEmbedding, 0, len(outcome.Embeddings))
	for _, pe := range outcome.Embeddings {
		record := models.StudentEmbedding{
			EmbeddingModel: s.modelName,
			PoseLabel:      pe.PoseLabel,
		}
		record.SetEmbedding(pe.Embedding)
		embeddings = append(embeddings, record)
	}

	// one transaction: a half-enrolled student would block every retry on
	// the duplicate admission check while never matching in a session
	if err := s.studentRepo.CreateWithEmbeddings(student, embeddings); err != nil {
		return nil, outcome, fmt.Errorf("failed to enroll student: %w", err)
	}

	log.Printf("registration: enrolled %s (%s) in unit %d with %d reference embeddings",
		fullName, admissionNumber, unit.ID, len(embeddings))
	return student, outcome, nil
}
