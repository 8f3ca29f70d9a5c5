package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/playperu/mafianight/internal/mafia"
)

type ctxKey int

const (
	ctxKeyIdentity ctxKey = iota
	ctxKeyToken
)

func authMiddleware(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			id, err := auth.Identify(r.Context(), token)
			if err != nil {
				writeServiceError(w, logger, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyIdentity, id)
			ctx = context.WithValue(ctx, ctxKeyToken, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identityFrom(r *http.Request) mafia.Identity {
	id, _ := r.Context().Value(ctxKeyIdentity).(mafia.Identity)
	return id
}

func tokenFrom(r *http.Request) string {
	token, _ := r.Context().Value(ctxKeyToken).(string)
	return token
}
