package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/classattend/attendancebackend/services"
	"github.com/classattend/attendancebackend/vision"
)

// RegistrationHandler exposes the student self-registration flow. All of
// its endpoints are token-gated rather than session-authenticated, since
// students do not hold accounts.
type RegistrationHandler struct {
	Service *services.RegistrationService
}

func NewRegistrationHandler(service *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{Service: service}
}

// decodeFrames converts base64 frame payloads (optionally data-URL
// prefixed) into raw bytes, grouped by pose label. Undecodable frames are
// dropped; the liveness validator treats them the same as unusable ones.
func decodeFrames(encoded map[string][]string) map[string][][]byte {
	frames := make(map[string][][]byte, len(encoded))
	for pose, list := range encoded {
		for i, item := range list {
			raw, err := vision.DecodeBase64Bytes(item)
			if err != nil {
				log.Printf("registration: dropping undecodable frame %d for pose %s: %v", i, pose, err)
				continue
			}
			frames[pose] = append(frames[pose], raw)
		}
	}
	return frames
}

type VerifyTokenPayload struct {
	Token string `json:"token"`
}

// VerifyToken checks a registration token and returns the unit it opens
func (h *RegistrationHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var payload VerifyTokenPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}

	unit, err := h.Service.VerifyToken(payload.Token)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			WriteAPIError(w, http.StatusNotFound, "invalid_token", "Registration token is not valid")
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, "lookup_failed", "Failed to verify token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"unit_code": unit.Code,
		"unit_name": unit.Name,
	})
}

// Instructions returns the pose prompts for the capture client
func (h *RegistrationHandler) Instructions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"poses": h.Service.CaptureInstructions(),
	})
}

type StartPayload struct {
	Token           string `json:"token"`
	AdmissionNumber string `json:"admission_number"`
	FullName        string `json:"full_name"`
}

// Start validates the token and admission number before capture begins
func (h *RegistrationHandler) Start(w http.ResponseWriter, r *http.Request) {
	var payload StartPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}
	if payload.AdmissionNumber == "" || payload.FullName == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_fields", "Admission number and full name are required")
		return
	}

	unit, err := h.Service.Start(payload.Token, payload.AdmissionNumber)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidToken):
			WriteAPIError(w, http.StatusNotFound, "invalid_token", "Registration token is not valid")
		case errors.Is(err, services.ErrDuplicateAdmission):
			WriteAPIError(w, http.StatusConflict, "duplicate_admission", "Admission number already registered in this unit")
		default:
			WriteAPIError(w, http.StatusInternalServerError, "start_failed", "Failed to start registration")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"unit_code": unit.Code,
		"unit_name": unit.Name,
		"poses":     h.Service.CaptureInstructions(),
	})
}

type LivenessPayload struct {
	Frames map[string][]string `json:"frames"`
}

// LivenessCheck validates a capture session without enrolling; clients use
// it for feedback before committing
func (h *RegistrationHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	var payload LivenessPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}

	outcome := h.Service.CheckLiveness(decodeFrames(payload.Frames))
	writeJSON(w, http.StatusOK, outcome)
}

type CompletePayload struct {
	Token           string              `json:"token"`
	AdmissionNumber string              `json:"admission_number"`
	FullName        string              `json:"full_name"`
	Frames          map[string][]string `json:"frames"`
}

// Complete runs the final liveness validation and enrolls the student
func (h *RegistrationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var payload CompletePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}
	if payload.AdmissionNumber == "" || payload.FullName == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_fields", "Admission number and full name are required")
		return
	}

	student, outcome, err := h.Service.Complete(payload.Token, payload.AdmissionNumber, payload.FullName, decodeFrames(payload.Frames))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidToken):
			WriteAPIError(w, http.StatusNotFound, "invalid_token", "Registration token is not valid")
		case errors.Is(err, services.ErrDuplicateAdmission):
			WriteAPIError(w, http.StatusConflict, "duplicate_admission", "Admission number already registered in this unit")
		case errors.Is(err, services.ErrNotLive):
			writeJSON(w, http.StatusUnprocessableEntity, outcome)
		default:
			WriteAPIError(w, http.StatusInternalServerError, "registration_failed", "Failed to complete registration")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"student_id":       student.ID,
		"admission_number": student.AdmissionNumber,
		"full_name":        student.FullName,
		"embeddings":       len(outcome.Embeddings),
	})
}
