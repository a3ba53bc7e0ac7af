package http

import (
	"errors"
	"log/slog"
	"net/http"

	"spendtrack/internal/auth"
	"spendtrack/internal/core"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, token, err := s.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
	case err != nil:
		slog.ErrorContext(r.Context(), "Registration failed", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
	default:
		writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrWrongPassword):
		// Same answer for both, to avoid leaking which emails exist.
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case err != nil:
		slog.ErrorContext(r.Context(), "Login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
	default:
		writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
	}
}
