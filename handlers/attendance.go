package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classattend/attendancebackend/models"
	"github.com/classattend/attendancebackend/repository"
	"github.com/classattend/attendancebackend/workers"
)

// AttendanceHandler accepts classroom photo uploads and exposes session
// results. Processing is deferred to the worker queue; clients observe
// progress by polling the status endpoint.
type AttendanceHandler struct {
	SessionRepo     repository.SessionRepositoryInterface
	UnitRepo        repository.UnitRepositoryInterface
	UnknownFaceRepo repository.UnknownFaceRepositoryInterface
	Processor       *workers.AttendanceProcessor
}

func NewAttendanceHandler(
	sessionRepo repository.SessionRepositoryInterface,
	unitRepo repository.UnitRepositoryInterface,
	unknownFaceRepo repository.UnknownFaceRepositoryInterface,
	processor *workers.AttendanceProcessor,
) *AttendanceHandler {
	return &AttendanceHandler{
		SessionRepo:     sessionRepo,
		UnitRepo:        unitRepo,
		UnknownFaceRepo: unknownFaceRepo,
		Processor:       processor,
	}
}

type CreateSessionPayload struct {
	UnitID uint     `json:"unit_id"`
	Photos []string `json:"photos"`
}

// Create accepts a batch of classroom photos, creates a pending session and
// enqueues it. Returns immediately with the session ID for polling.
func (h *AttendanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateSessionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}
	if len(payload.Photos) == 0 {
		WriteAPIError(w, http.StatusBadRequest, "no_photos", "At least one photo is required")
		return
	}

	lecturer := LecturerFromContext(r.Context())
	if lecturer == nil {
		WriteAPIError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	unit, err := h.UnitRepo.GetByID(payload.UnitID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "unit_not_found", "Unit not found")
		} else {
			WriteAPIError(w, http.StatusInternalServerError, "lookup_failed", "Failed to fetch unit")
		}
		return
	}
	if unit.LecturerID != lecturer.ID {
		WriteAPIError(w, http.StatusForbidden, "not_owner", "Unit belongs to another lecturer")
		return
	}

	session := &models.AttendanceSession{
		ID:         uuid.New().String(),
		UnitID:     unit.ID,
		LecturerID: lecturer.ID,
		Status:     models.SessionStatusPending,
		PhotoCount: len(payload.Photos),
	}
	if err := h.SessionRepo.Create(session); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "create_failed", "Failed to create session")
		return
	}

	if !h.Processor.QueueJob(workers.SessionJob{SessionID: session.ID, Photos: payload.Photos}) {
		_ = h.SessionRepo.SetFailed(session.ID, errors.New("processing queue full"))
		WriteAPIError(w, http.StatusServiceUnavailable, "queue_full", "Processing queue is full, try again shortly")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"session_id": session.ID,
		"status":     session.Status,
	})
}

// ListByUnit returns the sessions recorded for a unit, newest first
func (h *AttendanceHandler) ListByUnit(w http.ResponseWriter, r *http.Request) {
	lecturer := LecturerFromContext(r.Context())
	if lecturer == nil {
		WriteAPIError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	unitHandler := &UnitHandler{UnitRepo: h.UnitRepo}
	unit := unitHandler.ownedUnit(w, r)
	if unit == nil {
		return
	}

	sessions, err := h.SessionRepo.ListByUnitID(unit.ID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "list_failed", "Failed to retrieve sessions")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// sessionForLecturer loads a session and checks ownership
func (h *AttendanceHandler) sessionForLecturer(w http.ResponseWriter, r *http.Request) *models.AttendanceSession {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.SessionRepo.GetByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "session_not_found", "Session not found")
		} else {
			WriteAPIError(w, http.StatusInternalServerError, "lookup_failed", "Failed to fetch session")
		}
		return nil
	}

	lecturer := LecturerFromContext(r.Context())
	if lecturer == nil || session.LecturerID != lecturer.ID {
		WriteAPIError(w, http.StatusForbidden, "not_owner", "Session belongs to another lecturer")
		return nil
	}
	return session
}

// Get returns the full session including per-student records and unknown
// faces once processing has completed
func (h *AttendanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := h.sessionForLecturer(w, r)
	if session == nil {
		return
	}

	unknowns, err := h.UnknownFaceRepo.ListBySessionID(session.ID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "lookup_failed", "Failed to fetch unknown faces")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session":       session,
		"unknown_faces": unknowns,
	})
}

// Status is the polling endpoint; it reads only the status field
func (h *AttendanceHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessionForLecturer(w, r)
	if session == nil {
		return
	}

	resp := map[string]interface{}{
		"session_id": session.ID,
		"status":     session.Status,
	}
	if session.Status == models.SessionStatusCompleted {
		resp["present_count"] = session.PresentCount
		resp["absent_count"] = session.AbsentCount
		resp["unknown_count"] = session.UnknownCount
	}
	if session.Status == models.SessionStatusFailed {
		resp["error"] = session.ErrorMessage
	}
	writeJSON(w, http.StatusOK, resp)
}
