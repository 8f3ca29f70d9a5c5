package store

import (
	"context"
	"sync"
)

// Broker is an in-process Notifier keyed by session code.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan struct{}]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan struct{}]struct{}),
	}
}

// Listen returns a channel that receives a signal whenever the session
// changes, and a func that stops listening.
func (b *Broker) Listen(code string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	if b.subs[code] == nil {
		b.subs[code] = make(map[chan struct{}]struct{})
	}
	b.subs[code][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[code], ch)
			if len(b.subs[code]) == 0 {
				delete(b.subs, code)
			}
			b.mu.Unlock()
		})
	}
}

func (b *Broker) Notify(_ context.Context, code string) {
	b.mu.RLock()
	for ch := range b.subs[code] {
		select {
		case ch <- struct{}{}:
		default:
			// A signal is already pending.
		}
	}
	b.mu.RUnlock()
}

// Listeners returns the number of active listeners for code.
func (b *Broker) Listeners(code string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[code])
}
