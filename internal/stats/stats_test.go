package stats_test

import (
	"context"
	"testing"

	"github.com/playperu/mafianight/internal/database"
	"github.com/playperu/mafianight/internal/mafia"
	"github.com/playperu/mafianight/internal/migrations"
	"github.com/playperu/mafianight/internal/stats"
)

func newStore(t *testing.T) *stats.Store {
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
	return stats.NewStore(db)
}

func TestGetUnknownUser(t *testing.T) {
	s := newStore(t)

	st, err := s.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st.GamesPlayed != 0 || st.GamesWon != 0 || st.GamesHosted != 0 {
		t.Errorf("got %+v, want zero stats", st)
	}
	if got := len(st.Roles); got != len(mafia.Roles) {
		t.Errorf("got %d role counters, want %d", got, len(mafia.Roles))
	}
}

func TestRecordGameResult(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	results := []struct {
		role   mafia.Role
		won    bool
		hosted bool
	}{
		{mafia.RoleMafia, true, false},
		{mafia.RoleMafia, false, false},
		{mafia.RoleDoctor, true, false},
		{"", false, true},
	}
	for _, r := range results {
		if err := s.RecordGameResult(ctx, "u1", r.role, r.won, r.hosted); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	st, err := s.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	tests := []struct {
		name string
		got  int
		want int
	}{
		{"gamesPlayed", st.GamesPlayed, 3},
		{"gamesWon", st.GamesWon, 2},
		{"gamesHosted", st.GamesHosted, 1},
		{"Mafia", st.Roles[mafia.RoleMafia], 2},
		{"Doctor", st.Roles[mafia.RoleDoctor], 1},
		{"Detective", st.Roles[mafia.RoleDetective], 0},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, tt.got, tt.want)
		}
	}
	if st.UpdatedAt == "" {
		t.Error("updatedAt not set")
	}

	other, err := s.Get(ctx, "u2")
	if err != nil {
		t.Fatalf("get u2: %v", err)
	}
	if other.GamesPlayed != 0 {
		t.Errorf("u2 gamesPlayed: got %d, want 0", other.GamesPlayed)
	}
}
