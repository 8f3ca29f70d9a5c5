package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	games := deps.Games

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", handleSwaggerUI())

	// Account routes need no token.
	r.Post("/api/auth/register", handleRegister(deps.Auth, logger))
	r.Post("/api/auth/login", handleLogin(deps.Auth, logger))

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(deps.Auth, logger))

		r.Post("/api/auth/logout", handleLogout(deps.Auth, logger))
		r.Get("/api/me", handleMe())
		r.Get("/api/users/{userID}/stats", handleUserStats(deps.Stats, logger))

		r.Route("/api/sessions", func(r chi.Router) {
			r.Post("/", handleCreateSession(games, logger))
			r.Get("/", handleListSessions(games, logger))

			r.Route("/{code}", func(r chi.Router) {
				r.Get("/", handleGetSession(games, logger))
				r.Post("/join", handleJoinSession(games, logger))
				r.Post("/leave", handleLeaveSession(games, logger))
				r.Delete("/players/{playerID}", handleRemovePlayer(games, logger))
				r.Post("/start", handleStartSession(games, logger))
				r.Post("/end", handleEndSession(games, logger))

				r.Put("/phase", handleSetPhase(games, logger))
				r.Post("/phase/advance", handleAdvancePhase(games, logger))
				r.Post("/phase/expire", handleExpirePhase(games, logger))

				r.Post("/votes", handleSubmitVote(games, logger))
				r.Post("/investigations", handleInvestigate(games, logger))
				r.Post("/protections", handleProtect(games, logger))
				r.Post("/eliminations", handleEliminate(games, logger))

				r.Get("/events", handleEvents(games, logger))
				r.Get("/ws", handleWS(games, logger))
			})
		})
	})
}
