package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/classattend/attendancebackend/database"
	"github.com/classattend/attendancebackend/models"
	"github.com/classattend/attendancebackend/repository"
)

// UnitHandler manages a lecturer's units, their rosters and reports
type UnitHandler struct {
	UnitRepo    repository.UnitRepositoryInterface
	StudentRepo repository.StudentRepositoryInterface
	SQLDB       *sql.DB
}

func NewUnitHandler(unitRepo repository.UnitRepositoryInterface, studentRepo repository.StudentRepositoryInterface, sqlDB *sql.DB) *UnitHandler {
	return &UnitHandler{UnitRepo: unitRepo, StudentRepo: studentRepo, SQLDB: sqlDB}
}

// ownedUnit resolves the {unitID} URL parameter and checks the
// authenticated lecturer owns it
func (h *UnitHandler) ownedUnit(w http.ResponseWriter, r *http.Request) *models.Unit {
	unitID, err := strconv.ParseUint(chi.URLParam(r, "unitID"), 10, 32)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_unit_id", "Invalid unit ID")
		return nil
	}

	unit, err := h.UnitRepo.GetByID(uint(unitID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "unit_not_found", "Unit not found")
		} else {
			WriteAPIError(w, http.StatusInternalServerError, "lookup_failed", "Failed to fetch unit")
		}
		return nil
	}

	lecturer := LecturerFromContext(r.Context())
	if lecturer == nil || unit.LecturerID != lecturer.ID {
		WriteAPIError(w, http.StatusForbidden, "not_owner", "Unit belongs to another lecturer")
		return nil
	}
	return unit
}

type CreateUnitPayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (h *UnitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateUnitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}
	if payload.Code == "" || payload.Name == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_fields", "Code and name are required")
		return
	}

	lecturer := LecturerFromContext(r.Context())
	if lecturer == nil {
		WriteAPIError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	unit := &models.Unit{
		Code:       payload.Code,
		Name:       payload.Name,
		LecturerID: lecturer.ID,
	}
	if err := h.UnitRepo.Create(unit); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "create_failed", "Failed to create unit")
		return
	}
	writeJSON(w, http.StatusCreated, unit)
}

func (h *UnitHandler) List(w http.ResponseWriter, r *http.Request) {
	lecturer := LecturerFromContext(r.Context())
	if lecturer == nil {
		WriteAPIError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	units, err := h.UnitRepo.ListByLecturerID(lecturer.ID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "list_failed", "Failed to retrieve units")
		return
	}
	writeJSON(w, http.StatusOK, units)
}

func (h *UnitHandler) Get(w http.ResponseWriter, r *http.Request) {
	unit := h.ownedUnit(w, r)
	if unit == nil {
		return
	}
	writeJSON(w, http.StatusOK, unit)
}

// RotateToken invalidates the current registration token and returns the
// replacement
func (h *UnitHandler) RotateToken(w http.ResponseWriter, r *http.Request) {
	unit := h.ownedUnit(w, r)
	if unit == nil {
		return
	}

	token, err := h.UnitRepo.RotateRegistrationToken(unit.ID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "rotate_failed", "Failed to rotate registration token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"registration_token": token})
}

// ListStudents returns the active roster of a unit
func (h *UnitHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	unit := h.ownedUnit(w, r)
	if unit == nil {
		return
	}

	students, err := h.StudentRepo.ListActiveByUnitID(unit.ID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "list_failed", "Failed to retrieve roster")
		return
	}
	writeJSON(w, http.StatusOK, students)
}

// UnitReport is the aggregated attendance report for one unit
type UnitReport struct {
	Summary  database.UnitReportSummary      `json:"summary"`
	Students []database.StudentAttendanceRate `json:"students"`
}

// Report aggregates attendance across the unit's completed sessions
func (h *UnitHandler) Report(w http.ResponseWriter, r *http.Request) {
	unit := h.ownedUnit(w, r)
	if unit == nil {
		return
	}

	summary, err := database.GetUnitReportSummary(h.SQLDB, unit.ID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "report_failed", "Failed to compute unit report")
		return
	}

	rates, err := database.GetStudentAttendanceRates(h.SQLDB, unit.ID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "report_failed", "Failed to compute student attendance rates")
		return
	}

	writeJSON(w, http.StatusOK, UnitReport{Summary: summary, Students: rates})
}
