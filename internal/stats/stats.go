// Package stats keeps per-user game statistics as JSONB documents in the
// player_stats table.
package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playperu/mafianight/internal/mafia"
)

// PlayerStats is the statistics document of one user.
type PlayerStats struct {
	UserID      string             `json:"userId"`
	GamesPlayed int                `json:"gamesPlayed"`
	GamesWon    int                `json:"gamesWon"`
	GamesHosted int                `json:"gamesHosted"`
	Roles       map[mafia.Role]int `json:"roles"`
	UpdatedAt   string             `json:"updatedAt,omitempty"`
}

func empty(userID string) PlayerStats {
	roles := make(map[mafia.Role]int, len(mafia.Roles))
	for _, r := range mafia.Roles {
		roles[r] = 0
	}
	return PlayerStats{UserID: userID, Roles: roles}
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Get returns the statistics of userID. A user with no recorded games gets
// zeroed statistics.
func (s *Store) Get(ctx context.Context, userID string) (PlayerStats, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM player_stats WHERE user_id = ?`, userID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return empty(userID), nil
	}
	if err != nil {
		return PlayerStats{}, fmt.Errorf("reading stats for %s: %w", userID, err)
	}

	st := empty(userID)
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return PlayerStats{}, fmt.Errorf("decoding stats for %s: %w", userID, err)
	}
	return st, nil
}

// RecordGameResult adds one finished game to userID's statistics. A hosted
// game only counts towards gamesHosted.
func (s *Store) RecordGameResult(ctx context.Context, userID string, role mafia.Role, won, hosted bool) error {
	return s.modify(ctx, userID, func(st *PlayerStats) {
		if hosted {
			st.GamesHosted++
			return
		}
		st.GamesPlayed++
		if role != "" {
			st.Roles[role]++
		}
		if won {
			st.GamesWon++
		}
	})
}

// modify loads the stats document, applies fn, and saves it in a transaction.
func (s *Store) modify(ctx context.Context, userID string, fn func(*PlayerStats)) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	st := empty(userID)
	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT json(data) FROM player_stats WHERE user_id = ?`, userID,
	).Scan(&data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("reading stats for %s: %w", userID, err)
	default:
		if err := json.Unmarshal([]byte(data), &st); err != nil {
			return fmt.Errorf("decoding stats for %s: %w", userID, err)
		}
	}

	fn(&st)
	st.UpdatedAt = s.now().UTC().Format("2006-01-02T15:04:05.000Z")

	jsonData, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO player_stats (user_id, data) VALUES (?, jsonb(?))
		 ON CONFLICT(user_id) DO UPDATE SET data = excluded.data`,
		userID, string(jsonData),
	)
	if err != nil {
		return fmt.Errorf("writing stats for %s: %w", userID, err)
	}

	return tx.Commit()
}
