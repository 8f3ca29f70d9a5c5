package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playperu/mafianight/internal/mafia"
)

// DocStore implements Store on the sessions table: one JSONB document per
// session plus a version column used for conditional writes.
type DocStore struct {
	db       *sql.DB
	notifier Notifier
}

// NewDocStore expects the sessions table to exist (see migrations). A nil
// notifier uses a new Broker.
func NewDocStore(db *sql.DB, n Notifier) *DocStore {
	if n == nil {
		n = NewBroker()
	}
	return &DocStore{db: db, notifier: n}
}

func (s *DocStore) Get(ctx context.Context, code string) (*mafia.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM sessions WHERE code = ?`, code,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", code, err)
	}

	var sess mafia.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", code, err)
	}
	return &sess, nil
}

func (s *DocStore) Create(ctx context.Context, sess *mafia.Session) error {
	sess.Version = 1
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (code, version, status, host_id, created_at, data)
		 VALUES (?, ?, ?, ?, ?, jsonb(?))
		 ON CONFLICT(code) DO NOTHING`,
		sess.Code, sess.Version, string(sess.Status), sess.HostID, formatTime(sess.CreatedAt), string(data),
	)
	if err != nil {
		return fmt.Errorf("inserting session %s: %w", sess.Code, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrExists
	}

	s.notifier.Notify(ctx, sess.Code)
	return nil
}

func (s *DocStore) Put(ctx context.Context, sess *mafia.Session) error {
	for range maxUpdateAttempts {
		cur, err := s.Get(ctx, sess.Code)
		if errors.Is(err, ErrNotFound) {
			err = s.Create(ctx, sess)
			if errors.Is(err, ErrExists) {
				continue
			}
			return err
		}
		if err != nil {
			return err
		}

		ok, err := s.swap(ctx, cur.Version, sess)
		if err != nil {
			return err
		}
		if ok {
			s.notifier.Notify(ctx, sess.Code)
			return nil
		}
	}
	return ErrConflict
}

func (s *DocStore) Update(ctx context.Context, code string, fn func(*mafia.Session) error) (*mafia.Session, error) {
	for range maxUpdateAttempts {
		cur, err := s.Get(ctx, code)
		if err != nil {
			return nil, err
		}

		next := cur.Clone()
		err = fn(next)
		switch {
		case errors.Is(err, ErrUnchanged):
			return cur, nil
		case errors.Is(err, ErrRemove):
			ok, err := s.removeVersion(ctx, code, cur.Version)
			if err != nil {
				return nil, err
			}
			if ok {
				s.notifier.Notify(ctx, code)
				return nil, nil
			}
			continue
		case err != nil:
			return nil, err
		}

		ok, err := s.swap(ctx, cur.Version, next)
		if err != nil {
			return nil, err
		}
		if ok {
			s.notifier.Notify(ctx, code)
			return next, nil
		}
	}
	return nil, ErrConflict
}

// swap writes sess only if the stored version is still prev.
func (s *DocStore) swap(ctx context.Context, prev int64, sess *mafia.Session) (bool, error) {
	sess.Version = prev + 1
	data, err := json.Marshal(sess)
	if err != nil {
		return false, err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET version = ?, status = ?, data = jsonb(?)
		 WHERE code = ? AND version = ?`,
		sess.Version, string(sess.Status), string(data), sess.Code, prev,
	)
	if err != nil {
		return false, fmt.Errorf("updating session %s: %w", sess.Code, err)
	}
	n, _ := result.RowsAffected()
	return n == 1, nil
}

func (s *DocStore) removeVersion(ctx context.Context, code string, version int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE code = ? AND version = ?`, code, version,
	)
	if err != nil {
		return false, fmt.Errorf("deleting session %s: %w", code, err)
	}
	n, _ := result.RowsAffected()
	return n == 1, nil
}

func (s *DocStore) Remove(ctx context.Context, code string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE code = ?`, code)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", code, err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		s.notifier.Notify(ctx, code)
	}
	return nil
}

// List loads every session document into memory, newest first.
func (s *DocStore) List(ctx context.Context) ([]*mafia.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json(data) FROM sessions ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*mafia.Session
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var sess mafia.Session
		if err := json.Unmarshal([]byte(data), &sess); err != nil {
			return nil, err
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

func (s *DocStore) Subscribe(ctx context.Context, code string, fn func(*mafia.Session)) func() {
	return subscribe(ctx, s.notifier, s.Get, code, fn)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

var _ Store = (*DocStore)(nil)
