package services

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/classattend/attendancebackend/models"
	"github.com/classattend/attendancebackend/repository"
)

// fakeUnitRepo resolves exactly one registration token
type fakeUnitRepo struct {
	unit models.Unit
}

func (f *fakeUnitRepo) Create(u *models.Unit) error           { return nil }
func (f *fakeUnitRepo) GetByID(id uint) (*models.Unit, error) { return &f.unit, nil }
func (f *fakeUnitRepo) GetByRegistrationToken(token string) (*models.Unit, error) {
	if token != f.unit.RegistrationToken {
		return nil, gorm.ErrRecordNotFound
	}
	unit := f.unit
	return &unit, nil
}
func (f *fakeUnitRepo) ListByLecturerID(lecturerID uint) ([]models.Unit, error) { return nil, nil }
func (f *fakeUnitRepo) RotateRegistrationToken(unitID uint) (string, error)     { return "", nil }

// enrollStudentRepo persists students only through the combined enrollment
// write, mirroring the all-or-nothing transaction of the real repository
type enrollStudentRepo struct {
	enrollErr  error
	students   []models.Student
	embeddings []models.StudentEmbedding
}

var _ repository.StudentRepositoryInterface = (*enrollStudentRepo)(nil)

func (f *enrollStudentRepo) Create(s *models.Student) error { return nil }
func (f *enrollStudentRepo) CreateWithEmbeddings(student *models.Student, embeddings []models.StudentEmbedding) error {
	if f.enrollErr != nil {
		return f.enrollErr
	}
	student.ID = uint(len(f.students) + 1)
	f.students = append(f.students, *student)
	for i := range embeddings {
		embeddings[i].StudentID = student.ID
	}
	f.embeddings = append(f.embeddings, embeddings...)
	return nil
}
func (f *enrollStudentRepo) GetByID(id uint) (*models.Student, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *enrollStudentRepo) GetByAdmissionNumber(unitID uint, admissionNumber string) (*models.Student, error) {
	for i := range f.students {
		if f.students[i].UnitID == unitID && f.students[i].AdmissionNumber == admissionNumber {
			return &f.students[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *enrollStudentRepo) ListActiveByUnitID(unitID uint) ([]models.Student, error) {
	return f.students, nil
}

// newEnrollService wires a registration service over stubbed liveness
// analysis and the given student repository
func newEnrollService(students repository.StudentRepositoryInterface) (*RegistrationService, map[string][][]byte) {
	analyzer, frames := buildSession(allPoses(3))
	validator := NewLivenessValidator(analyzer, &stubEmbedder{}, 0.5, 2, 2)
	units := &fakeUnitRepo{unit: models.Unit{ID: 7, RegistrationToken: "tok"}}
	return NewRegistrationService(units, students, validator, 2, "arcface"), frames
}

func TestCompleteEnrollsWithEmbeddings(t *testing.T) {
	students := &enrollStudentRepo{}
	service, frames := newEnrollService(students)

	student, outcome, err := service.Complete("tok", "CS-001", "Jane Roe", frames)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if !outcome.IsLive {
		t.Fatalf("expected live outcome, got reason %q", outcome.Reason)
	}
	if student.UnitID != 7 || student.AdmissionNumber != "CS-001" {
		t.Errorf("enrolled student = %+v", student)
	}
	// top 2 frames per pose, 4 poses
	if len(students.embeddings) != 8 {
		t.Fatalf("stored %d embeddings, want 8", len(students.embeddings))
	}
	for _, e := range students.embeddings {
		if e.StudentID != student.ID {
			t.Errorf("embedding bound to student %d, want %d", e.StudentID, student.ID)
		}
		if e.PoseLabel == "" || e.EmbeddingModel != "arcface" {
			t.Errorf("embedding missing pose or model: %+v", e)
		}
	}

	if _, err := service.Start("tok", "CS-001"); !errors.Is(err, ErrDuplicateAdmission) {
		t.Errorf("re-registering an enrolled admission number: err = %v, want ErrDuplicateAdmission", err)
	}
}

func TestCompleteFailedWriteLeavesNothingBehind(t *testing.T) {
	students := &enrollStudentRepo{enrollErr: errors.New("disk full")}
	service, frames := newEnrollService(students)

	if _, _, err := service.Complete("tok", "CS-002", "John Roe", frames); err == nil {
		t.Fatal("expected enrollment failure")
	}
	if len(students.students) != 0 || len(students.embeddings) != 0 {
		t.Fatalf("failed enrollment persisted rows: %d students, %d embeddings",
			len(students.students), len(students.embeddings))
	}

	// the admission number must still be free for a retry
	students.enrollErr = nil
	if _, err := service.Start("tok", "CS-002"); err != nil {
		t.Errorf("retry after failed enrollment blocked: %v", err)
	}
	if _, _, err := service.Complete("tok", "CS-002", "John Roe", frames); err != nil {
		t.Errorf("retry after failed enrollment failed: %v", err)
	}
}

func TestCompleteNotLiveCreatesNoStudent(t *testing.T) {
	students := &enrollStudentRepo{}
	analyzer, frames := buildSession(map[string]int{PoseCenter: 3})
	validator := NewLivenessValidator(analyzer, &stubEmbedder{}, 0.5, 2, 2)
	units := &fakeUnitRepo{unit: models.Unit{ID: 7, RegistrationToken: "tok"}}
	service := NewRegistrationService(units, students, validator, 2, "arcface")

	_, outcome, err := service.Complete("tok", "CS-003", "No Show", frames)
	if !errors.Is(err, ErrNotLive) {
		t.Fatalf("err = %v, want ErrNotLive", err)
	}
	if outcome.IsLive {
		t.Error("incomplete pose coverage reported as live")
	}
	if len(students.students) != 0 {
		t.Errorf("non-live capture enrolled %d students", len(students.students))
	}
}
