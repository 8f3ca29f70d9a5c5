package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/playperu/mafianight/internal/mafia"
)

// MemoryStore keeps sessions in a map. Update runs under the store lock, so
// every write is serialized.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*mafia.Session
	notifier Notifier
}

// NewMemoryStore returns an empty store. A nil notifier uses a new Broker.
func NewMemoryStore(n Notifier) *MemoryStore {
	if n == nil {
		n = NewBroker()
	}
	return &MemoryStore{
		sessions: make(map[string]*mafia.Session),
		notifier: n,
	}
}

func (m *MemoryStore) Get(_ context.Context, code string) (*mafia.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[code]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Create(ctx context.Context, s *mafia.Session) error {
	m.mu.Lock()
	if _, ok := m.sessions[s.Code]; ok {
		m.mu.Unlock()
		return ErrExists
	}
	s.Version = 1
	m.sessions[s.Code] = s.Clone()
	m.mu.Unlock()

	m.notifier.Notify(ctx, s.Code)
	return nil
}

func (m *MemoryStore) Put(ctx context.Context, s *mafia.Session) error {
	m.mu.Lock()
	s.Version = 1
	if cur, ok := m.sessions[s.Code]; ok {
		s.Version = cur.Version + 1
	}
	m.sessions[s.Code] = s.Clone()
	m.mu.Unlock()

	m.notifier.Notify(ctx, s.Code)
	return nil
}

func (m *MemoryStore) Update(ctx context.Context, code string, fn func(*mafia.Session) error) (*mafia.Session, error) {
	m.mu.Lock()
	cur, ok := m.sessions[code]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	next := cur.Clone()
	err := fn(next)
	switch {
	case errors.Is(err, ErrUnchanged):
		m.mu.Unlock()
		return cur.Clone(), nil
	case errors.Is(err, ErrRemove):
		delete(m.sessions, code)
		m.mu.Unlock()
		m.notifier.Notify(ctx, code)
		return nil, nil
	case err != nil:
		m.mu.Unlock()
		return nil, err
	}

	next.Version = cur.Version + 1
	m.sessions[code] = next
	m.mu.Unlock()

	m.notifier.Notify(ctx, code)
	return next.Clone(), nil
}

func (m *MemoryStore) Remove(ctx context.Context, code string) error {
	m.mu.Lock()
	_, ok := m.sessions[code]
	delete(m.sessions, code)
	m.mu.Unlock()

	if ok {
		m.notifier.Notify(ctx, code)
	}
	return nil
}

// List returns every session, newest first.
func (m *MemoryStore) List(_ context.Context) ([]*mafia.Session, error) {
	m.mu.RLock()
	out := make([]*mafia.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, code string, fn func(*mafia.Session)) func() {
	return subscribe(ctx, m.notifier, m.Get, code, fn)
}

var _ Store = (*MemoryStore)(nil)
