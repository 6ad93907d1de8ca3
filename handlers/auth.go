package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/classattend/attendancebackend/models"
	"github.com/classattend/attendancebackend/repository"
)

// AuthHandler issues and validates lecturer session tokens
type AuthHandler struct {
	LecturerRepo repository.LecturerRepositoryInterface
	JWTSecret    []byte
	TokenExpiry  time.Duration
}

func NewAuthHandler(lecturerRepo repository.LecturerRepositoryInterface, jwtSecret string, tokenExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		LecturerRepo: lecturerRepo,
		JWTSecret:    []byte(jwtSecret),
		TokenExpiry:  tokenExpiry,
	}
}

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string          `json:"token"`
	Lecturer  models.Lecturer `json:"lecturer"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}

	lecturer, err := h.LecturerRepo.GetByEmail(payload.Email)
	if err != nil {
		WriteAPIError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}

	if !lecturer.CheckPassword(payload.Password) {
		WriteAPIError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}

	expirationTime := time.Now().Add(h.TokenExpiry)
	claims := &jwt.RegisteredClaims{
		Subject:   fmt.Sprint(lecturer.ID),
		ExpiresAt: jwt.NewNumericDate(expirationTime),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    "attendancebackend",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.JWTSecret)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "token_generation_failed", "Failed to generate token")
		return
	}

	lecturerForResponse := *lecturer
	lecturerForResponse.PasswordHash = ""

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     tokenString,
		Lecturer:  lecturerForResponse,
		ExpiresAt: expirationTime,
	})
}

type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new lecturer account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "Invalid request payload")
		return
	}

	if payload.Name == "" || payload.Email == "" || payload.Password == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_fields", "Name, email, and password are required")
		return
	}

	if existing, _ := h.LecturerRepo.GetByEmail(payload.Email); existing != nil {
		WriteAPIError(w, http.StatusConflict, "email_taken", "An account with that email already exists")
		return
	}

	lecturer := &models.Lecturer{
		FullName: payload.Name,
		Email:    payload.Email,
	}
	if err := lecturer.SetPassword(payload.Password); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "password_hash_failed", "Failed to process password")
		return
	}

	if err := h.LecturerRepo.Create(lecturer); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "create_failed", "Failed to create account")
		return
	}

	lecturer.PasswordHash = ""
	writeJSON(w, http.StatusCreated, lecturer)
}
