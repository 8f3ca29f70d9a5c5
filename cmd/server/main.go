package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/mafianight/internal/config"
	"github.com/playperu/mafianight/internal/database"
	"github.com/playperu/mafianight/internal/game"
	"github.com/playperu/mafianight/internal/handler/health"
	"github.com/playperu/mafianight/internal/identity"
	"github.com/playperu/mafianight/internal/migrations"
	"github.com/playperu/mafianight/internal/server"
	"github.com/playperu/mafianight/internal/stats"
	"github.com/playperu/mafianight/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	if cfg.DBPath != database.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db, logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	checks := map[string]health.Checker{"sqlite": health.SQL(db)}
	g, gctx := errgroup.WithContext(ctx)

	// --- Change notifications ---
	var notifier store.Notifier = store.NewBroker()
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		rn := store.NewRedisNotifier(rdb, logger)
		g.Go(func() error { return rn.Run(gctx) })
		notifier = rn
		checks["redis"] = health.Redis(rdb)
	}

	// --- Services ---
	statsStore := stats.NewStore(db)
	games := game.New(store.NewDocStore(db, notifier), statsStore, logger,
		game.WithSessionTTL(cfg.SessionTTL),
		game.WithCodeAttempts(cfg.CodeAttempts),
		game.WithPhaseDurations(cfg.Phases.Durations()),
		game.WithAutoEndOnWin(cfg.AutoEndOnWin),
		game.WithStatsTimeout(cfg.StatsTimeout),
	)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Games: games,
		Auth:  identity.NewProvider(db, cfg.TokenTTL),
		Stats: statsStore,
	}, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
	})

	// --- Run ---
	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
