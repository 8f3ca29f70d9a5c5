package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/playperu/mafianight/internal/identity"
	"github.com/playperu/mafianight/internal/mafia"
)

// Authenticator manages accounts and resolves bearer tokens.
type Authenticator interface {
	Register(ctx context.Context, email, password, displayName string) (string, identity.Account, error)
	Login(ctx context.Context, email, password string) (string, identity.Account, error)
	Logout(ctx context.Context, token string) error
	Identify(ctx context.Context, token string) (mafia.Identity, error)
}

// bearerToken reads the token from the Authorization header. EventSource and
// browser websockets cannot set headers, so a token query parameter is
// accepted as well.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, found := strings.CutPrefix(auth, "Bearer "); found && token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}
