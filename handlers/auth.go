package handlers

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/adamkcs/TaskPlannerAPI/services"
)

// AuthHandler handles registration, login and token checks
type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a user account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": []string{"Invalid request format"}})
		return
	}

	var problems []string
	if req.Username == "" {
		problems = append(problems, "Username is required")
	}
	if req.Password == "" {
		problems = append(problems, "Password is required")
	}
	if len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": problems})
		return
	}

	_, err := h.authService.Register(r.Context(), req.Username, req.Email, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "User registered successfully"})
	case errors.Is(err, services.ErrDuplicateUsername),
		errors.Is(err, services.ErrInvalidUsername),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrWeakPassword):
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": []string{err.Error()}})
	default:
		log.WithError(err).Error("Registration failed")
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

// Login exchanges a username and password for a bearer token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	token, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}
	if err != nil {
		log.WithError(err).Error("Login failed")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// VerifyToken reports the identity behind the caller's token
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "valid",
		"userId":   identity.UserID,
		"username": identity.Username,
	})
}
