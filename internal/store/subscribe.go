package store

import (
	"context"
	"errors"
	"sync"

	"github.com/playperu/mafianight/internal/mafia"
)

type getFunc func(ctx context.Context, code string) (*mafia.Session, error)

// subscribe wires a Notifier to a session reader. Each signal re-reads the
// session; versions already delivered are skipped so fn only ever sees
// newer commits.
func subscribe(ctx context.Context, n Notifier, get getFunc, code string, fn func(*mafia.Session)) func() {
	signals, stop := n.Listen(code)
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		defer stop()

		last := int64(-1)
		deliver := func() bool {
			s, err := get(ctx, code)
			if ctx.Err() != nil {
				return false
			}
			if errors.Is(err, ErrNotFound) {
				fn(nil)
				return false
			}
			if err != nil {
				// Try again on the next signal.
				return true
			}
			if s.Version > last {
				last = s.Version
				fn(s)
			}
			return true
		}

		if !deliver() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-signals:
				if !deliver() {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(cancel) }
}
