// Package identity manages player accounts and the bearer tokens that
// authenticate them.
package identity

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/mafianight/internal/mafia"
)

const (
	DefaultTokenTTL = 30 * 24 * time.Hour

	minPasswordLen = 8
	maxNameLen     = 40
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidAccount     = errors.New("invalid account details")
)

// Account is the stored account document.
type Account struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    string `json:"createdAt"`
}

func (a Account) Identity() mafia.Identity {
	return mafia.Identity{ID: a.ID, DisplayName: a.DisplayName}
}

type Provider struct {
	db       *sql.DB
	tokenTTL time.Duration
	now      func() time.Time
}

func NewProvider(db *sql.DB, tokenTTL time.Duration) *Provider {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Provider{db: db, tokenTTL: tokenTTL, now: time.Now}
}

// Register creates an account and signs it in.
func (p *Provider) Register(ctx context.Context, email, password, displayName string) (string, Account, error) {
	email = normalizeEmail(email)
	displayName = strings.TrimSpace(displayName)

	if _, err := mail.ParseAddress(email); err != nil {
		return "", Account{}, fmt.Errorf("%w: email is not valid", ErrInvalidAccount)
	}
	if len(password) < minPasswordLen {
		return "", Account{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidAccount, minPasswordLen)
	}
	if displayName == "" || len(displayName) > maxNameLen {
		return "", Account{}, fmt.Errorf("%w: display name must be 1 to %d characters", ErrInvalidAccount, maxNameLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", Account{}, fmt.Errorf("hashing password: %w", err)
	}

	acc := Account{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    formatTime(p.now()),
	}
	data, err := json.Marshal(acc)
	if err != nil {
		return "", Account{}, err
	}

	res, err := p.db.ExecContext(ctx,
		`INSERT INTO accounts (id, email, data) VALUES (?, ?, jsonb(?))
		 ON CONFLICT(email) DO NOTHING`,
		acc.ID, acc.Email, string(data),
	)
	if err != nil {
		return "", Account{}, fmt.Errorf("inserting account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", Account{}, ErrEmailTaken
	}

	token, err := p.issueToken(ctx, acc.ID)
	if err != nil {
		return "", Account{}, err
	}
	return token, acc, nil
}

// Login checks the credentials and issues a new token.
func (p *Provider) Login(ctx context.Context, email, password string) (string, Account, error) {
	var data string
	err := p.db.QueryRowContext(ctx,
		`SELECT json(data) FROM accounts WHERE email = ?`, normalizeEmail(email),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", Account{}, fmt.Errorf("reading account: %w", err)
	}

	var acc Account
	if err := json.Unmarshal([]byte(data), &acc); err != nil {
		return "", Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return "", Account{}, ErrInvalidCredentials
	}

	token, err := p.issueToken(ctx, acc.ID)
	if err != nil {
		return "", Account{}, err
	}
	return token, acc, nil
}

// Logout revokes token. Unknown tokens are ignored.
func (p *Provider) Logout(ctx context.Context, token string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE token = ?`, token)
	return err
}

// Identify resolves a bearer token to the identity it was issued for.
// Missing, unknown and expired tokens all yield mafia.ErrAuthRequired.
func (p *Provider) Identify(ctx context.Context, token string) (mafia.Identity, error) {
	if token == "" {
		return mafia.Identity{}, mafia.ErrAuthRequired
	}

	var data, expiresAt string
	err := p.db.QueryRowContext(ctx, `
		SELECT json(a.data), t.expires_at
		FROM auth_tokens t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.token = ?
	`, token).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return mafia.Identity{}, mafia.ErrAuthRequired
	}
	if err != nil {
		return mafia.Identity{}, fmt.Errorf("reading token: %w", err)
	}

	if expiresAt <= formatTime(p.now()) {
		if err := p.Logout(ctx, token); err != nil {
			return mafia.Identity{}, fmt.Errorf("deleting expired token: %w", err)
		}
		return mafia.Identity{}, mafia.ErrAuthRequired
	}

	var acc Account
	if err := json.Unmarshal([]byte(data), &acc); err != nil {
		return mafia.Identity{}, err
	}
	return acc.Identity(), nil
}

func (p *Provider) issueToken(ctx context.Context, accountID string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	token := hex.EncodeToString(b)

	_, err := p.db.ExecContext(ctx,
		`INSERT INTO auth_tokens (token, account_id, expires_at) VALUES (?, ?, ?)`,
		token, accountID, formatTime(p.now().Add(p.tokenTTL)),
	)
	if err != nil {
		return "", fmt.Errorf("inserting token: %w", err)
	}
	return token, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
