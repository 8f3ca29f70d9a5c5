package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/playperu/mafianight/internal/mafia"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/mafianight.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// RedisURL enables cross-instance session updates when set.
	RedisURL string `env:"REDIS_URL"`

	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	CodeAttempts int           `env:"CODE_ATTEMPTS" envDefault:"5"`
	AutoEndOnWin bool          `env:"AUTO_END_ON_WIN" envDefault:"false"`
	StatsTimeout time.Duration `env:"STATS_TIMEOUT" envDefault:"5s"`
	TokenTTL     time.Duration `env:"TOKEN_TTL" envDefault:"720h"`

	Phases Phases
}

// Phases holds the countdown of each game phase.
type Phases struct {
	Preparation time.Duration `env:"PHASE_PREPARATION" envDefault:"60s"`
	Day         time.Duration `env:"PHASE_DAY" envDefault:"180s"`
	Voting      time.Duration `env:"PHASE_VOTING" envDefault:"60s"`
	Night       time.Duration `env:"PHASE_NIGHT" envDefault:"120s"`
	Results     time.Duration `env:"PHASE_RESULTS" envDefault:"60s"`
}

func (p Phases) Durations() mafia.PhaseDurations {
	return mafia.PhaseDurations{
		mafia.PhasePreparation: p.Preparation,
		mafia.PhaseDay:         p.Day,
		mafia.PhaseVoting:      p.Voting,
		mafia.PhaseNight:       p.Night,
		mafia.PhaseResults:     p.Results,
	}
}

// Load reads the environment. Variables from the given dotenv files (.env
// when none are given) fill in whatever the environment leaves unset; a
// missing file is skipped.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) validate() error {
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.CodeAttempts < 1 {
		return fmt.Errorf("CODE_ATTEMPTS must be at least 1, got %d", c.CodeAttempts)
	}
	for phase, d := range c.Phases.Durations() {
		if d <= 0 {
			return fmt.Errorf("duration of phase %s must be positive, got %s", phase, d)
		}
	}
	return nil
}
