package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/playperu/mafianight/internal/database"
	"github.com/playperu/mafianight/internal/mafia"
	"github.com/playperu/mafianight/internal/migrations"
	"github.com/playperu/mafianight/internal/store"
)

func newDocStore(t *testing.T) store.Store {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.MemoryPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(ctx, db, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.NewDocStore(db, nil)
}

func newMemoryStore(t *testing.T) store.Store {
	t.Helper()
	return store.NewMemoryStore(nil)
}

var factories = []struct {
	name string
	new  func(t *testing.T) store.Store
}{
	{"memory", newMemoryStore},
	{"doc", newDocStore},
}

func eachStore(t *testing.T, fn func(t *testing.T, s store.Store)) {
	for _, f := range factories {
		t.Run(f.name, func(t *testing.T) {
			fn(t, f.new(t))
		})
	}
}

func sampleSession(code string) *mafia.Session {
	created := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	return mafia.NewSession(code, mafia.Identity{ID: "host-1", DisplayName: "Ana"},
		mafia.Settings{TotalPlayers: 6, MafiaCount: 2, DetectiveCount: 1, DoctorCount: 1}, created)
}

func TestCreateAndGet(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()

		if _, err := s.Get(ctx, "123456"); !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("Get missing: got %v, want ErrNotFound", err)
		}

		if err := s.Create(ctx, sampleSession("123456")); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := s.Create(ctx, sampleSession("123456")); !errors.Is(err, store.ErrExists) {
			t.Fatalf("Create duplicate: got %v, want ErrExists", err)
		}

		got, err := s.Get(ctx, "123456")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.HostID != "host-1" || got.Status != mafia.StatusWaiting {
			t.Errorf("got host %q status %q, want host-1 waiting", got.HostID, got.Status)
		}
		if got.Version != 1 {
			t.Errorf("version = %d, want 1", got.Version)
		}
		if !got.Players["host-1"].IsHost {
			t.Error("host player entry missing")
		}
	})
}

func TestPut(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()

		sess := sampleSession("222222")
		if err := s.Put(ctx, sess); err != nil {
			t.Fatalf("Put new: %v", err)
		}
		sess.HostName = "Ana Maria"
		if err := s.Put(ctx, sess); err != nil {
			t.Fatalf("Put overwrite: %v", err)
		}

		got, err := s.Get(ctx, "222222")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.HostName != "Ana Maria" {
			t.Errorf("hostName = %q, want %q", got.HostName, "Ana Maria")
		}
		if got.Version != 2 {
			t.Errorf("version = %d, want 2", got.Version)
		}
	})
}

func TestUpdate(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		if err := s.Create(ctx, sampleSession("333333")); err != nil {
			t.Fatalf("Create: %v", err)
		}

		got, err := s.Update(ctx, "333333", func(sess *mafia.Session) error {
			sess.Players["p1"] = mafia.Player{ID: "p1", Name: "Luis"}
			return nil
		})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if got.Version != 2 || got.PlayerCount() != 1 {
			t.Errorf("got version %d with %d players, want 2 and 1", got.Version, got.PlayerCount())
		}

		boom := errors.New("boom")
		if _, err := s.Update(ctx, "333333", func(sess *mafia.Session) error {
			sess.Players["p2"] = mafia.Player{ID: "p2"}
			return boom
		}); !errors.Is(err, boom) {
			t.Fatalf("Update with error: got %v, want boom", err)
		}

		unchanged, err := s.Update(ctx, "333333", func(*mafia.Session) error { return store.ErrUnchanged })
		if err != nil {
			t.Fatalf("Update unchanged: %v", err)
		}
		if unchanged.Version != 2 || unchanged.PlayerCount() != 1 {
			t.Errorf("unchanged session has version %d and %d players", unchanged.Version, unchanged.PlayerCount())
		}

		if _, err := s.Update(ctx, "404404", func(*mafia.Session) error { return nil }); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Update missing: got %v, want ErrNotFound", err)
		}
	})
}

func TestUpdateRemove(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		if err := s.Create(ctx, sampleSession("444444")); err != nil {
			t.Fatalf("Create: %v", err)
		}

		got, err := s.Update(ctx, "444444", func(*mafia.Session) error { return store.ErrRemove })
		if err != nil {
			t.Fatalf("Update remove: %v", err)
		}
		if got != nil {
			t.Errorf("Update remove returned %+v, want nil", got)
		}
		if _, err := s.Get(ctx, "444444"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Get after remove: got %v, want ErrNotFound", err)
		}
	})
}

func TestUpdateConcurrentNoLostWrites(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		if err := s.Create(ctx, sampleSession("555555")); err != nil {
			t.Fatalf("Create: %v", err)
		}

		const writers = 5
		var wg sync.WaitGroup
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				id := string(rune('a' + i))
				if _, err := s.Update(ctx, "555555", func(sess *mafia.Session) error {
					sess.Players[id] = mafia.Player{ID: id}
					return nil
				}); err != nil {
					t.Errorf("Update %s: %v", id, err)
				}
			}()
		}
		wg.Wait()

		got, err := s.Get(ctx, "555555")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.PlayerCount() != writers {
			t.Errorf("player count = %d, want %d", got.PlayerCount(), writers)
		}
		if got.Version != writers+1 {
			t.Errorf("version = %d, want %d", got.Version, writers+1)
		}
	})
}

func TestRemoveIdempotent(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		if err := s.Create(ctx, sampleSession("666666")); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := s.Remove(ctx, "666666"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if err := s.Remove(ctx, "666666"); err != nil {
			t.Fatalf("second Remove: %v", err)
		}
	})
}

func TestList(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		older := sampleSession("111111")
		newer := sampleSession("999999")
		newer.CreatedAt = older.CreatedAt.Add(time.Hour)

		for _, sess := range []*mafia.Session{older, newer} {
			if err := s.Create(ctx, sess); err != nil {
				t.Fatalf("Create %s: %v", sess.Code, err)
			}
		}

		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("List returned %d sessions, want 2", len(got))
		}
		if got[0].Code != "999999" || got[1].Code != "111111" {
			t.Errorf("order = [%s %s], want newest first", got[0].Code, got[1].Code)
		}
	})
}

// recorder collects snapshots delivered to a subscriber.
type recorder struct {
	mu  sync.Mutex
	got []*mafia.Session
	ch  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan struct{}, 64)}
}

func (r *recorder) record(s *mafia.Session) {
	r.mu.Lock()
	r.got = append(r.got, s)
	r.mu.Unlock()
	r.ch <- struct{}{}
}

func (r *recorder) wait(t *testing.T) *mafia.Session {
	t.Helper()
	select {
	case <-r.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.got[len(r.got)-1]
}

func TestSubscribe(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		if err := s.Create(ctx, sampleSession("777777")); err != nil {
			t.Fatalf("Create: %v", err)
		}

		rec := newRecorder()
		unsubscribe := s.Subscribe(ctx, "777777", rec.record)
		defer unsubscribe()

		if first := rec.wait(t); first == nil || first.Version != 1 {
			t.Fatalf("first snapshot = %+v, want version 1", first)
		}

		if _, err := s.Update(ctx, "777777", func(sess *mafia.Session) error {
			sess.Players["p1"] = mafia.Player{ID: "p1"}
			return nil
		}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		if next := rec.wait(t); next == nil || next.Version != 2 {
			t.Fatalf("second snapshot = %+v, want version 2", next)
		}

		if err := s.Remove(ctx, "777777"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if last := rec.wait(t); last != nil {
			t.Fatalf("snapshot after remove = %+v, want nil", last)
		}

		unsubscribe()
		unsubscribe()
	})
}

func TestSubscribeMissingSession(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.Store) {
		rec := newRecorder()
		defer s.Subscribe(context.Background(), "000000", rec.record)()

		if got := rec.wait(t); got != nil {
			t.Fatalf("snapshot = %+v, want nil", got)
		}
	})
}

func TestSubscribeOrdered(t *testing.T) {
	eachStore(t, func(t *testing.T, s store.Store) {
		ctx := context.Background()
		if err := s.Create(ctx, sampleSession("888888")); err != nil {
			t.Fatalf("Create: %v", err)
		}

		rec := newRecorder()
		defer s.Subscribe(ctx, "888888", rec.record)()
		rec.wait(t)

		for i := range 10 {
			if _, err := s.Update(ctx, "888888", func(sess *mafia.Session) error {
				sess.Round = i
				return nil
			}); err != nil {
				t.Fatalf("Update: %v", err)
			}
		}

		deadline := time.After(2 * time.Second)
		for {
			rec.mu.Lock()
			last := rec.got[len(rec.got)-1]
			rec.mu.Unlock()
			if last.Version == 11 {
				break
			}
			select {
			case <-rec.ch:
			case <-deadline:
				t.Fatalf("last version delivered = %d, want 11", last.Version)
			}
		}

		rec.mu.Lock()
		defer rec.mu.Unlock()
		for i := 1; i < len(rec.got); i++ {
			if rec.got[i].Version <= rec.got[i-1].Version {
				t.Fatalf("snapshot %d has version %d after %d", i, rec.got[i].Version, rec.got[i-1].Version)
			}
		}
	})
}

func TestBrokerCoalesces(t *testing.T) {
	b := store.NewBroker()
	ch, stop := b.Listen("123456")

	b.Notify(context.Background(), "123456")
	b.Notify(context.Background(), "123456")

	select {
	case <-ch:
	default:
		t.Fatal("no signal after Notify")
	}
	select {
	case <-ch:
		t.Fatal("second signal was not coalesced")
	default:
	}

	if got := b.Listeners("123456"); got != 1 {
		t.Errorf("listeners = %d, want 1", got)
	}
	stop()
	stop()
	if got := b.Listeners("123456"); got != 0 {
		t.Errorf("listeners after stop = %d, want 0", got)
	}
}
