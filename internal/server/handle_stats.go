package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/mafianight/internal/stats"
)

type StatsReader interface {
	Get(ctx context.Context, userID string) (stats.PlayerStats, error)
}

func handleUserStats(st StatsReader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := st.Get(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			writeServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ps)
	}
}
