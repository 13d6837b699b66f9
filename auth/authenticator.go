package auth

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Authenticator turns raw handshake credentials into an authenticated
// Identity. Every failure is handshake-fatal for the caller: the connection
// must be told why and closed, and must never reach the active state.
type Authenticator struct {
	log      *slog.Logger
	verifier contract.CredentialVerifier
	store    contract.IdentityStore
	timeout  time.Duration
}

func NewAuthenticator(log *slog.Logger, verifier contract.CredentialVerifier,
	store contract.IdentityStore, timeout time.Duration) *Authenticator {
	return &Authenticator{log: log, verifier: verifier, store: store, timeout: timeout}
}

// Authenticate extracts the bearer token (cookie first, explicit field as
// fallback), verifies it, and resolves the subject to an Identity.
// The whole handshake is bounded by the configured timeout; running out of
// time counts as not having presented credentials at all.
func (a *Authenticator) Authenticate(ctx context.Context, creds contract.Credentials) (domain.Identity, error) {
	token := creds.CookieToken
	if token == "" {
		token = creds.AuthToken
	}
	if token == "" {
		return domain.Identity{}, errors.ErrUnauthorized
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	claims, err := a.verifier.Verify(token)
	if err != nil {
		a.log.Debug("Token verification failed", "error", err)
		return domain.Identity{}, err
	}

	identity, err := a.store.FindByID(ctx, claims.Subject)
	if err != nil {
		if ctx.Err() != nil {
			return domain.Identity{}, fmt.Errorf("%w: handshake timed out", errors.ErrUnauthorized)
		}
		a.log.Debug("Subject resolution failed", "subject", claims.Subject, "error", err)
		return domain.Identity{}, err
	}

	return identity, nil
}
