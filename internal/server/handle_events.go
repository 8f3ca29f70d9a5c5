package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/mafianight/internal/game"
	"github.com/playperu/mafianight/internal/mafia"
)

const pingInterval = 30 * time.Second

func handleEvents(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		caller := identityFrom(r)

		if _, err := games.GetSession(r.Context(), code); err != nil {
			writeServiceError(w, logger, err)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		updates, stop := watch(r.Context(), games, code)
		defer stop()

		ping := time.NewTicker(pingInterval)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case sess := <-updates:
				if sess == nil {
					fmt.Fprintf(w, "event: deleted\ndata: {\"code\":%q}\n\n", code)
					flusher.Flush()
					return
				}
				data, err := json.Marshal(sess.ViewFor(caller.ID))
				if err != nil {
					logger.Error("encoding session", "code", code, "error", err)
					return
				}
				fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}

// watch subscribes to the session and hands snapshots to the caller's
// goroutine. A nil snapshot means the session was deleted.
func watch(ctx context.Context, games *game.Service, code string) (<-chan *mafia.Session, func()) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan *mafia.Session, 8)

	unsubscribe := games.Subscribe(ctx, code, func(sess *mafia.Session) {
		select {
		case ch <- sess:
		case <-ctx.Done():
		}
	})

	return ch, func() {
		cancel()
		unsubscribe()
	}
}
