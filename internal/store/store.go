// Package store persists session documents and fans out change
// notifications to subscribers.
package store

import (
	"context"
	"errors"

	"github.com/playperu/mafianight/internal/mafia"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
	ErrConflict = errors.New("too many concurrent updates")
)

// Sentinels an Update callback returns to change what gets written.
var (
	// ErrRemove deletes the session in the same conditional write.
	ErrRemove = errors.New("remove session")
	// ErrUnchanged skips the write and returns the current session.
	ErrUnchanged = errors.New("session unchanged")
)

// maxUpdateAttempts bounds the compare-and-swap retries of a single Update.
const maxUpdateAttempts = 10

// Store is the session store adapter. Every write bumps Session.Version and
// notifies subscribers after it commits.
type Store interface {
	Get(ctx context.Context, code string) (*mafia.Session, error)
	// Create writes a new session and fails with ErrExists if the code is taken.
	Create(ctx context.Context, s *mafia.Session) error
	// Put overwrites the whole session.
	Put(ctx context.Context, s *mafia.Session) error
	// Update applies fn to a private copy of the current session and commits
	// it only if nobody else wrote in between, retrying on conflict. It
	// returns the committed session, or nil when fn returned ErrRemove.
	Update(ctx context.Context, code string, fn func(*mafia.Session) error) (*mafia.Session, error)
	// Remove deletes the session. Removing a missing session is not an error.
	Remove(ctx context.Context, code string) error
	List(ctx context.Context) ([]*mafia.Session, error)
	// Subscribe calls fn with the current session and again after every
	// committed change, in commit order. fn receives nil once the session no
	// longer exists, after which the subscription ends. The returned func
	// unsubscribes and is safe to call more than once.
	Subscribe(ctx context.Context, code string, fn func(*mafia.Session)) func()
}

// Notifier signals that a session changed. Listeners re-read the session, so
// signals for the same code may be coalesced.
type Notifier interface {
	Notify(ctx context.Context, code string)
	Listen(code string) (<-chan struct{}, func())
}
