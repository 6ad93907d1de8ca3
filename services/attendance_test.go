package services

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/classattend/attendancebackend/models"
)

// fakeSessionRepo records the status transitions the service performs
type fakeSessionRepo struct {
	session        *models.AttendanceSession
	processingFrom string
	completed      *models.AttendanceSession
	records        []models.AttendanceRecord
	failedWith     error
}

func (f *fakeSessionRepo) Create(s *models.AttendanceSession) error { return nil }
func (f *fakeSessionRepo) GetByID(id string) (*models.AttendanceSession, error) {
	if f.session == nil || f.session.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.session, nil
}
func (f *fakeSessionRepo) ListByUnitID(unitID uint) ([]models.AttendanceSession, error) {
	return nil, nil
}
func (f *fakeSessionRepo) MarkProcessing(id string) error {
	if f.session == nil || f.session.Status != models.SessionStatusPending {
		return gorm.ErrRecordNotFound
	}
	f.processingFrom = f.session.Status
	f.session.Status = models.SessionStatusProcessing
	return nil
}
func (f *fakeSessionRepo) SetCompleted(s *models.AttendanceSession, records []models.AttendanceRecord) error {
	f.completed = s
	f.records = records
	f.session.Status = models.SessionStatusCompleted
	return nil
}
func (f *fakeSessionRepo) SetFailed(id string, taskErr error) error {
	f.failedWith = taskErr
	f.session.Status = models.SessionStatusFailed
	return nil
}

type fakeStudentRepo struct {
	students []models.Student
	err      error
}

func (f *fakeStudentRepo) Create(s *models.Student) error { return nil }
func (f *fakeStudentRepo) CreateWithEmbeddings(s *models.Student, embeddings []models.StudentEmbedding) error {
	return nil
}
func (f *fakeStudentRepo) GetByID(id uint) (*models.Student, error) { return nil, gorm.ErrRecordNotFound }
func (f *fakeStudentRepo) GetByAdmissionNumber(unitID uint, admissionNumber string) (*models.Student, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeStudentRepo) ListActiveByUnitID(unitID uint) ([]models.Student, error) {
	return f.students, f.err
}

type fakeUnknownFaceRepo struct {
	created []*models.UnknownFace
}

func (f *fakeUnknownFaceRepo) Create(face *models.UnknownFace) error {
	f.created = append(f.created, face)
	return nil
}
func (f *fakeUnknownFaceRepo) ListBySessionID(sessionID string) ([]models.UnknownFace, error) {
	return nil, nil
}

func newTestService(sessions *fakeSessionRepo, students *fakeStudentRepo, unknowns *fakeUnknownFaceRepo) *AttendanceService {
	// the vision components stay nil: sessions with no decodable photos
	// never reach the detection path
	return NewAttendanceService(
		sessions, students, unknowns,
		nil, nil, nil, nil, nil, nil, nil,
		NewMatcher(0.5),
	)
}

func TestProcessSessionZeroPhotos(t *testing.T) {
	sessions := &fakeSessionRepo{session: &models.AttendanceSession{
		ID: "s1", UnitID: 7, Status: models.SessionStatusPending,
	}}
	students := &fakeStudentRepo{students: []models.Student{
		{ID: 1, FullName: "A"}, {ID: 2, FullName: "B"},
	}}
	unknowns := &fakeUnknownFaceRepo{}

	svc := newTestService(sessions, students, unknowns)
	svc.ProcessSession("s1", nil)

	if sessions.session.Status != models.SessionStatusCompleted {
		t.Fatalf("status = %s, want completed", sessions.session.Status)
	}
	if sessions.completed.TotalRegistered != 2 || sessions.completed.AbsentCount != 2 {
		t.Errorf("zero photos should mark the whole roster absent: %+v", sessions.completed)
	}
	if sessions.completed.PresentCount != 0 || sessions.completed.UnknownCount != 0 {
		t.Errorf("zero photos should yield no present or unknown: %+v", sessions.completed)
	}
	if len(sessions.records) != 2 {
		t.Fatalf("expected 2 absent records, got %d", len(sessions.records))
	}
	for _, r := range sessions.records {
		if r.Present {
			t.Errorf("student %d marked present in an empty session", r.StudentID)
		}
	}
}

func TestProcessSessionUndecodablePhotosSkipped(t *testing.T) {
	sessions := &fakeSessionRepo{session: &models.AttendanceSession{
		ID: "s2", UnitID: 7, Status: models.SessionStatusPending,
	}}
	students := &fakeStudentRepo{}
	unknowns := &fakeUnknownFaceRepo{}

	svc := newTestService(sessions, students, unknowns)
	svc.ProcessSession("s2", []string{"not base64 at all!!!"})

	// the bad photo is absorbed, the session still completes
	if sessions.session.Status != models.SessionStatusCompleted {
		t.Fatalf("status = %s, want completed", sessions.session.Status)
	}
	if sessions.failedWith != nil {
		t.Errorf("per-item failure escalated to session-fatal: %v", sessions.failedWith)
	}
}

func TestProcessSessionNotPending(t *testing.T) {
	sessions := &fakeSessionRepo{session: &models.AttendanceSession{
		ID: "s3", Status: models.SessionStatusCompleted,
	}}
	svc := newTestService(sessions, &fakeStudentRepo{}, &fakeUnknownFaceRepo{})

	svc.ProcessSession("s3", nil)

	if sessions.completed != nil {
		t.Error("a non-pending session must not be reprocessed")
	}
	if sessions.session.Status != models.SessionStatusCompleted {
		t.Errorf("status changed to %s", sessions.session.Status)
	}
}

func TestProcessSessionRosterFailure(t *testing.T) {
	sessions := &fakeSessionRepo{session: &models.AttendanceSession{
		ID: "s4", UnitID: 7, Status: models.SessionStatusPending,
	}}
	students := &fakeStudentRepo{err: errors.New("database unreachable")}
	svc := newTestService(sessions, students, &fakeUnknownFaceRepo{})

	svc.ProcessSession("s4", nil)

	if sessions.session.Status != models.SessionStatusFailed {
		t.Fatalf("status = %s, want failed", sessions.session.Status)
	}
	if sessions.failedWith == nil {
		t.Error("failure cause was not recorded")
	}
	if sessions.completed != nil {
		t.Error("a failed session must not publish counts")
	}
}
