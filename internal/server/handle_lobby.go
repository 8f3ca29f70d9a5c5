package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/mafianight/internal/game"
	"github.com/playperu/mafianight/internal/mafia"
)

func handleJoinSession(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := games.JoinSession(r.Context(), chi.URLParam(r, "code"), identityFrom(r))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeSession(w, r, http.StatusOK, sess)
	}
}

func handleLeaveSession(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := games.LeaveSession(r.Context(), chi.URLParam(r, "code"), identityFrom(r)); err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleRemovePlayer(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := games.RemovePlayer(r.Context(), chi.URLParam(r, "code"), identityFrom(r), chi.URLParam(r, "playerID"))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleStartSession(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := games.StartSession(r.Context(), chi.URLParam(r, "code"), identityFrom(r))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeSession(w, r, http.StatusOK, sess)
	}
}

func handleEndSession(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := games.EndSession(r.Context(), chi.URLParam(r, "code"), identityFrom(r), mafia.EndReasonHostEnded)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeSession(w, r, http.StatusOK, sess)
	}
}
