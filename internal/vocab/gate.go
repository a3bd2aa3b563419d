package vocab

import (
	"context"
	"log/slog"
)

// Gate turns credentials into an authenticated Remote
type Gate struct {
	connector Connector
	log       *slog.Logger
}

// NewGate creates a gate over connector
func NewGate(connector Connector, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{connector: connector, log: log}
}

// Authenticate logs in. Empty username or password yields ErrCancelled without contacting
// the remote. Failures are *AuthError with Kind ErrInvalidCredentials or ErrNetworkUnavailable.
func (g *Gate) Authenticate(ctx context.Context, creds Credentials) (Remote, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, ErrCancelled
	}

	remote, err := g.connector.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		g.log.Warn("login failed", "username", creds.Username, "error", err)
		return nil, classifyAuthError(err)
	}

	g.log.Info("logged in", "username", creds.Username)
	return remote, nil
}
