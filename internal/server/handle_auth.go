package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/mafianight/internal/mafia"
)

// RegisterRequest is the request body for POST /api/auth/register.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries a bearer token and the signed-in user.
type AuthResponse struct {
	Token string         `json:"token"`
	User  mafia.Identity `json:"user"`
}

func handleRegister(auth Authenticator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		token, acc, err := auth.Register(r.Context(), req.Email, req.Password, req.DisplayName)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		logger.Info("account registered", "user_id", acc.ID)
		writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: acc.Identity()})
	}
}

func handleLogin(auth Authenticator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		token, acc, err := auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: acc.Identity()})
	}
}

func handleLogout(auth Authenticator, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := auth.Logout(r.Context(), tokenFrom(r)); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, identityFrom(r))
	}
}
