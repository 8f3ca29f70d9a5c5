package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/mafianight/internal/game"
	"github.com/playperu/mafianight/internal/mafia"
)

// CreateSessionRequest is the request body for POST /api/sessions.
type CreateSessionRequest struct {
	TotalPlayers   int `json:"totalPlayers"`
	MafiaCount     int `json:"mafiaCount"`
	DetectiveCount int `json:"detectiveCount"`
	DoctorCount    int `json:"doctorCount"`
}

type CreateSessionResponse struct {
	Code string `json:"code"`
}

func handleCreateSession(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		code, err := games.CreateSession(r.Context(), identityFrom(r), mafia.Settings{
			TotalPlayers:   req.TotalPlayers,
			MafiaCount:     req.MafiaCount,
			DetectiveCount: req.DetectiveCount,
			DoctorCount:    req.DoctorCount,
		})
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, CreateSessionResponse{Code: code})
	}
}

func handleListSessions(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := identityFrom(r)
		sessions, err := games.ListSessionsForUser(r.Context(), caller.ID)
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}

		out := make([]*mafia.Session, 0, len(sessions))
		for _, s := range sessions {
			out = append(out, s.ViewFor(caller.ID))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleGetSession(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := games.GetSession(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeSession(w, r, http.StatusOK, sess)
	}
}

// writeSession writes the caller's view of sess.
func writeSession(w http.ResponseWriter, r *http.Request, status int, sess *mafia.Session) {
	writeJSON(w, status, sess.ViewFor(identityFrom(r).ID))
}
