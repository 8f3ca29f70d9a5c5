// Package health serves the /healthz endpoint: one named check per
// backing service, 503 when any of them fails.
package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

const checkTimeout = 3 * time.Second

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// SQL checks the session and account database.
func SQL(db *sql.DB) Checker {
	return CheckerFunc(db.PingContext)
}

// Redis checks the redis server that fans out session changes.
func Redis(client *redis.Client) Checker {
	return CheckerFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
}

type Handler struct {
	checks map[string]Checker
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger, checks map[string]Checker) *Handler {
	return &Handler{checks: checks, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

type result struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latencyMs"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]result, len(names))
	status := http.StatusOK

	for _, name := range names {
		start := time.Now()
		err := h.checks[name].Check(ctx)
		res := result{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
		if err != nil {
			h.logger.Error("health check failed", "name", name, "error", err)
			res.Status = "error"
			status = http.StatusServiceUnavailable
		}
		results[name] = res
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(results)
}
