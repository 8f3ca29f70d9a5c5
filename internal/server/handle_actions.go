package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/mafianight/internal/game"
	"github.com/playperu/mafianight/internal/mafia"
)

// VoteRequest is the request body for POST /api/sessions/{code}/votes.
type VoteRequest struct {
	TargetID string         `json:"targetId"`
	Pool     mafia.VotePool `json:"pool"`
}

// TargetRequest is the request body for investigations and protections.
type TargetRequest struct {
	TargetID string `json:"targetId"`
}

type InvestigateResponse struct {
	IsMafia bool `json:"isMafia"`
}

// EliminateRequest is the request body for POST /api/sessions/{code}/eliminations.
type EliminateRequest struct {
	PlayerID string `json:"playerId"`
}

func handleSubmitVote(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VoteRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		err := games.SubmitVote(r.Context(), chi.URLParam(r, "code"), identityFrom(r), req.TargetID, req.Pool)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleInvestigate(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TargetRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		isMafia, err := games.Investigate(r.Context(), chi.URLParam(r, "code"), identityFrom(r), req.TargetID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, InvestigateResponse{IsMafia: isMafia})
	}
}

func handleProtect(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TargetRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := games.Protect(r.Context(), chi.URLParam(r, "code"), identityFrom(r), req.TargetID); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleEliminate(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EliminateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess, err := games.EliminatePlayer(r.Context(), chi.URLParam(r, "code"), identityFrom(r), req.PlayerID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeSession(w, r, http.StatusOK, sess)
	}
}
