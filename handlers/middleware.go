package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/classattend/attendancebackend/models"
	"github.com/classattend/attendancebackend/repository"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// LecturerContextKey is the key used to store the authenticated lecturer
	// in the request context.
	LecturerContextKey ContextKey = "lecturer"
)

// AuthMiddleware verifies the bearer token and, if valid, fetches the
// lecturer and adds them to the request context.
func AuthMiddleware(lecturerRepo repository.LecturerRepositoryInterface, jwtSecret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				WriteAPIError(w, http.StatusUnauthorized, "missing_token", "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				WriteAPIError(w, http.StatusUnauthorized, "malformed_header", "Authorization header format must be Bearer {token}")
				return
			}
			tokenString := parts[1]

			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return jwtSecret, nil
			})

			if err != nil {
				if errors.Is(err, jwt.ErrSignatureInvalid) {
					WriteAPIError(w, http.StatusUnauthorized, "invalid_signature", "Invalid token signature")
					return
				}
				WriteAPIError(w, http.StatusUnauthorized, "invalid_token", "Invalid token")
				return
			}
			if !token.Valid {
				WriteAPIError(w, http.StatusUnauthorized, "invalid_token", "Invalid token")
				return
			}

			var lecturerID uint
			if _, err := fmt.Sscan(claims.Subject, &lecturerID); err != nil {
				WriteAPIError(w, http.StatusUnauthorized, "invalid_subject", "Invalid account ID in token")
				return
			}

			lecturer, err := lecturerRepo.GetByID(lecturerID)
			if err != nil {
				WriteAPIError(w, http.StatusUnauthorized, "account_not_found", "Account not found")
				return
			}

			ctx := context.WithValue(r.Context(), LecturerContextKey, lecturer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LecturerFromContext extracts the authenticated lecturer placed by
// AuthMiddleware; nil when the request is unauthenticated
func LecturerFromContext(ctx context.Context) *models.Lecturer {
	lecturer, _ := ctx.Value(LecturerContextKey).(*models.Lecturer)
	return lecturer
}
