package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/mafianight/internal/identity"
	"github.com/playperu/mafianight/internal/mafia"
	"github.com/playperu/mafianight/internal/store"
)

var errorStatus = []struct {
	err    error
	status int
	msg    string
}{
	{mafia.ErrAuthRequired, http.StatusUnauthorized, ""},
	{identity.ErrInvalidCredentials, http.StatusUnauthorized, ""},

	{mafia.ErrNotHost, http.StatusForbidden, ""},
	{mafia.ErrPermissionDenied, http.StatusForbidden, ""},
	{mafia.ErrNotAPlayer, http.StatusForbidden, ""},
	{mafia.ErrWrongRole, http.StatusForbidden, ""},

	{mafia.ErrSessionNotFound, http.StatusNotFound, ""},

	{mafia.ErrAlreadyStarted, http.StatusConflict, ""},
	{mafia.ErrAlreadyJoined, http.StatusConflict, ""},
	{mafia.ErrSessionFull, http.StatusConflict, ""},
	{mafia.ErrInsufficientPlayers, http.StatusConflict, ""},
	{mafia.ErrCannotJoinOwnSession, http.StatusConflict, ""},
	{mafia.ErrSessionEnded, http.StatusConflict, ""},
	{mafia.ErrNotStarted, http.StatusConflict, ""},
	{mafia.ErrInvalidPhase, http.StatusConflict, ""},
	{mafia.ErrPlayerEliminated, http.StatusConflict, ""},
	{identity.ErrEmailTaken, http.StatusConflict, ""},

	{mafia.ErrInvalidSettings, http.StatusUnprocessableEntity, ""},
	{mafia.ErrInvalidTarget, http.StatusUnprocessableEntity, ""},
	{mafia.ErrInvalidVotePool, http.StatusUnprocessableEntity, ""},
	{mafia.ErrInvalidEndReason, http.StatusUnprocessableEntity, ""},
	{identity.ErrInvalidAccount, http.StatusUnprocessableEntity, ""},

	{mafia.ErrCodeGenerationExhausted, http.StatusServiceUnavailable, ""},
	{store.ErrConflict, http.StatusServiceUnavailable, "session is busy, please try again"},
}

// writeServiceError maps err to a status and a message safe to show users.
// Validation errors keep their detail; anything unknown is a logged 500.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	for _, e := range errorStatus {
		if !errors.Is(err, e.err) {
			continue
		}
		msg := e.err.Error()
		switch {
		case e.msg != "":
			msg = e.msg
		case e.status == http.StatusUnprocessableEntity:
			msg = err.Error()
		}
		writeError(w, e.status, msg)
		return
	}

	logger.Error("internal error", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
