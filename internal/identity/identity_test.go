package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/playperu/mafianight/internal/database"
	"github.com/playperu/mafianight/internal/mafia"
	"github.com/playperu/mafianight/internal/migrations"
)

func newProvider(t *testing.T) *Provider {
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
	return NewProvider(db, time.Hour)
}

func TestRegisterAndIdentify(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	token, acc, err := p.Register(ctx, " Ana@Example.com ", "correct horse", "Ana")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acc.Email != "ana@example.com" {
		t.Errorf("email: got %q, want %q", acc.Email, "ana@example.com")
	}

	id, err := p.Identify(ctx, token)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if id.ID != acc.ID || id.DisplayName != "Ana" {
		t.Errorf("got %+v, want id %s name Ana", id, acc.ID)
	}

	_, _, err = p.Register(ctx, "ana@example.com", "another pass", "Ana 2")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate register: got %v, want ErrEmailTaken", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	p := newProvider(t)

	tests := []struct {
		name     string
		email    string
		password string
		display  string
	}{
		{"bad email", "not-an-email", "long enough", "Ana"},
		{"short password", "a@b.co", "short", "Ana"},
		{"blank name", "a@b.co", "long enough", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := p.Register(context.Background(), tt.email, tt.password, tt.display)
			if !errors.Is(err, ErrInvalidAccount) {
				t.Errorf("got %v, want ErrInvalidAccount", err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	if _, _, err := p.Register(ctx, "bo@example.com", "password1", "Bo"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := p.Login(ctx, "bo@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := p.Login(ctx, "nobody@example.com", "password1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v, want ErrInvalidCredentials", err)
	}

	token, acc, err := p.Login(ctx, "BO@example.com", "password1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if acc.DisplayName != "Bo" {
		t.Errorf("display name: got %q, want Bo", acc.DisplayName)
	}

	if err := p.Logout(ctx, token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := p.Identify(ctx, token); !errors.Is(err, mafia.ErrAuthRequired) {
		t.Errorf("after logout: got %v, want ErrAuthRequired", err)
	}
}

func TestIdentifyExpiredToken(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	token, _, err := p.Register(ctx, "cy@example.com", "password1", "Cy")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	now = now.Add(59 * time.Minute)
	if _, err := p.Identify(ctx, token); err != nil {
		t.Fatalf("before expiry: %v", err)
	}

	now = now.Add(time.Minute)
	if _, err := p.Identify(ctx, token); !errors.Is(err, mafia.ErrAuthRequired) {
		t.Errorf("after expiry: got %v, want ErrAuthRequired", err)
	}

	if _, err := p.Identify(ctx, ""); !errors.Is(err, mafia.ErrAuthRequired) {
		t.Errorf("empty token: got %v, want ErrAuthRequired", err)
	}
}
