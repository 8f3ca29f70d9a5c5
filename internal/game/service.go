// Package game runs the lifecycle of Mafia sessions: creation, joining and
// leaving, role assignment, phases, night and day actions, and expiry.
//
// Every mutation reads the current session and writes it back through a
// single conditional store update, so checks such as "the game is not full"
// and the write that depends on them cannot interleave with another caller.
package game

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/playperu/mafianight/internal/mafia"
	"github.com/playperu/mafianight/internal/store"
)

const (
	DefaultSessionTTL   = 2 * time.Hour
	DefaultCodeAttempts = 5
	DefaultStatsTimeout = 5 * time.Second
)

// StatsSink receives one result per player when a game ends.
type StatsSink interface {
	RecordGameResult(ctx context.Context, userID string, role mafia.Role, won, hosted bool) error
}

type Service struct {
	store  store.Store
	stats  StatsSink
	logger *slog.Logger

	now          func() time.Time
	newCode      func() string
	shuffle      mafia.ShuffleFunc
	durations    mafia.PhaseDurations
	ttl          time.Duration
	codeAttempts int
	autoEnd      bool
	statsTimeout time.Duration
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithCodeGenerator(gen func() string) Option {
	return func(s *Service) { s.newCode = gen }
}

func WithShuffle(shuffle mafia.ShuffleFunc) Option {
	return func(s *Service) { s.shuffle = shuffle }
}

// WithPhaseDurations overrides the countdown of the given phases.
func WithPhaseDurations(d mafia.PhaseDurations) Option {
	return func(s *Service) {
		for p, dur := range d {
			s.durations[p] = dur
		}
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

func WithCodeAttempts(n int) Option {
	return func(s *Service) { s.codeAttempts = n }
}

// WithAutoEndOnWin ends a game as soon as an elimination decides it.
func WithAutoEndOnWin(on bool) Option {
	return func(s *Service) { s.autoEnd = on }
}

func WithStatsTimeout(d time.Duration) Option {
	return func(s *Service) { s.statsTimeout = d }
}

// New returns a Service. A nil stats sink disables statistics.
func New(st store.Store, stats StatsSink, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:        st,
		stats:        stats,
		logger:       logger,
		now:          time.Now,
		newCode:      mafia.GenerateCode,
		durations:    mafia.DefaultPhaseDurations(),
		ttl:          DefaultSessionTTL,
		codeAttempts: DefaultCodeAttempts,
		statsTimeout: DefaultStatsTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// mutate applies fn to the freshly read session inside one conditional
// write. Ended sessions reject every mutation, and a session found past its
// ttl is ended with reason timeout instead of being mutated.
func (s *Service) mutate(ctx context.Context, code string, fn func(*mafia.Session) error) (*mafia.Session, error) {
	now := s.now()
	expired := false
	sess, err := s.store.Update(ctx, code, func(sess *mafia.Session) error {
		expired = false
		if sess.Status == mafia.StatusEnded {
			return mafia.ErrSessionEnded
		}
		if sess.Expired(now, s.ttl) {
			expired = true
			return mafia.ErrSessionEnded
		}
		return fn(sess)
	})
	if expired {
		if _, _, err := s.expire(ctx, code); err != nil {
			s.logger.Error("expiring session", "code", code, "error", err)
		}
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, mafia.ErrSessionNotFound
	}
	return sess, err
}

func requireIdentity(caller mafia.Identity) error {
	if caller.ID == "" {
		return mafia.ErrAuthRequired
	}
	return nil
}

// recordResults reports the outcome of an ended session to the stats sink.
// Failures are logged and never undo the end of the game.
func (s *Service) recordResults(ctx context.Context, sess *mafia.Session) {
	if s.stats == nil || sess == nil {
		return
	}
	for _, p := range sess.Players {
		s.recordResult(ctx, sess.Code, p, sess.Winner)
	}
}

func (s *Service) recordResult(ctx context.Context, code string, p mafia.Player, winner mafia.Faction) {
	if s.stats == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.statsTimeout)
	defer cancel()

	won := !p.IsHost && winner != "" && p.Role != "" && mafia.FactionOf(p.Role) == winner
	if err := s.stats.RecordGameResult(ctx, p.ID, p.Role, won, p.IsHost); err != nil {
		s.logger.Error("recording game result",
			"code", code,
			"user_id", p.ID,
			"error", err,
		)
	}
}

func (s *Service) phaseDuration(p mafia.Phase) time.Duration {
	if d, ok := s.durations[p]; ok {
		return d
	}
	return mafia.DefaultPhaseDurations()[p]
}
