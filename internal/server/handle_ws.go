package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/playperu/mafianight/internal/game"
	"github.com/playperu/mafianight/internal/mafia"
)

// Frame is one websocket message: a "state" snapshot or "deleted".
type Frame struct {
	Type    string         `json:"type"`
	Session *mafia.Session `json:"session,omitempty"`
}

func handleWS(games *game.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		caller := identityFrom(r)

		if _, err := games.GetSession(r.Context(), code); err != nil {
			writeServiceError(w, logger, err)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		// Clients only listen; CloseRead handles their control frames.
		ctx := conn.CloseRead(r.Context())

		updates, stop := watch(ctx, games, code)
		defer stop()

		ping := time.NewTicker(pingInterval)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case sess := <-updates:
				if sess == nil {
					if err := wsjson.Write(ctx, conn, Frame{Type: "deleted"}); err != nil {
						logger.Debug("websocket write failed", "error", err)
						return
					}
					conn.Close(websocket.StatusNormalClosure, "session deleted")
					return
				}
				if err := wsjson.Write(ctx, conn, Frame{Type: "state", Session: sess.ViewFor(caller.ID)}); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			case <-ping.C:
				if err := conn.Ping(ctx); err != nil {
					logger.Debug("websocket ping failed", "error", err)
					return
				}
			}
		}
	}
}
