package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/mafianight/internal/game"
	"github.com/playperu/mafianight/internal/mafia"
)

// PhaseRequest names a phase: the target for PUT /phase, or the phase whose
// countdown ran out for POST /phase/expire.
type PhaseRequest struct {
	Phase mafia.Phase `json:"phase"`
}

func handleSetPhase(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PhaseRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess, err := games.SetPhase(r.Context(), chi.URLParam(r, "code"), identityFrom(r), req.Phase)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeSession(w, r, http.StatusOK, sess)
	}
}

func handleAdvancePhase(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := games.AdvancePhase(r.Context(), chi.URLParam(r, "code"), identityFrom(r))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeSession(w, r, http.StatusOK, sess)
	}
}

func handleExpirePhase(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PhaseRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sess, err := games.ExpirePhase(r.Context(), chi.URLParam(r, "code"), identityFrom(r), req.Phase)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeSession(w, r, http.StatusOK, sess)
	}
}
