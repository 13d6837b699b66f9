package auth

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"chat-relay/contract"
	"chat-relay/domain"
	apperrors "chat-relay/errors"
	"chat-relay/mocks"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testSecret = "test-secret-do-not-reuse"

func TestGenerateAndVerifyToken(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("u1", testSecret, time.Hour)
	req.NoError(err)

	claims, err := NewVerifier(testSecret).Verify(token)
	req.NoError(err)
	req.Equal("u1", claims.Subject)
	req.WithinDuration(time.Now().Add(time.Hour), claims.Expiry, 5*time.Second)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("u1", testSecret, time.Hour)
	req.NoError(err)

	_, err = NewVerifier("another-secret").Verify(token)
	req.ErrorIs(err, apperrors.ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("u1", testSecret, -time.Minute)
	req.NoError(err)

	_, err = NewVerifier(testSecret).Verify(token)
	req.ErrorIs(err, apperrors.ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	req := require.New(t)

	_, err := NewVerifier(testSecret).Verify("not.a.jwt")
	req.ErrorIs(err, apperrors.ErrInvalidToken)
}

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MonMotDePasseTr0pSûr!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("MauvaisMDP", hash)
	req.NoError(err)
	req.False(match)
}

func newTestAuthenticator(t *testing.T, timeout time.Duration) (*Authenticator, *mocks.MockCredentialVerifier, *mocks.MockIdentityStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	verifier := mocks.NewMockCredentialVerifier(ctrl)
	store := mocks.NewMockIdentityStore(ctrl)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return NewAuthenticator(log, verifier, store, timeout), verifier, store
}

func TestAuthenticator_Prefers_The_Cookie_Token(t *testing.T) {
	req := require.New(t)
	authenticator, verifier, store := newTestAuthenticator(t, time.Second)

	// Given both credential carriers are present
	creds := contract.Credentials{CookieToken: "cookie-token", AuthToken: "field-token"}

	// Then only the cookie one is verified
	verifier.EXPECT().Verify("cookie-token").
		Return(contract.TokenClaims{Subject: "u1"}, nil).Times(1)
	store.EXPECT().FindByID(gomock.Any(), "u1").
		Return(domain.Identity{ID: "u1", Username: "alice"}, nil).Times(1)

	identity, err := authenticator.Authenticate(context.Background(), creds)
	req.NoError(err)
	req.Equal("alice", identity.Username)
}

func TestAuthenticator_Falls_Back_To_The_Explicit_Token(t *testing.T) {
	req := require.New(t)
	authenticator, verifier, store := newTestAuthenticator(t, time.Second)

	verifier.EXPECT().Verify("field-token").
		Return(contract.TokenClaims{Subject: "u1"}, nil).Times(1)
	store.EXPECT().FindByID(gomock.Any(), "u1").
		Return(domain.Identity{ID: "u1"}, nil).Times(1)

	_, err := authenticator.Authenticate(context.Background(), contract.Credentials{AuthToken: "field-token"})
	req.NoError(err)
}

func TestAuthenticator_Missing_Credentials(t *testing.T) {
	req := require.New(t)
	authenticator, _, _ := newTestAuthenticator(t, time.Second)

	_, err := authenticator.Authenticate(context.Background(), contract.Credentials{})
	req.ErrorIs(err, apperrors.ErrUnauthorized)
}

func TestAuthenticator_Invalid_Token(t *testing.T) {
	req := require.New(t)
	authenticator, verifier, _ := newTestAuthenticator(t, time.Second)

	verifier.EXPECT().Verify("bad").
		Return(contract.TokenClaims{}, apperrors.ErrInvalidToken).Times(1)

	_, err := authenticator.Authenticate(context.Background(), contract.Credentials{AuthToken: "bad"})
	req.ErrorIs(err, apperrors.ErrInvalidToken)
}

func TestAuthenticator_Unknown_Subject(t *testing.T) {
	req := require.New(t)
	authenticator, verifier, store := newTestAuthenticator(t, time.Second)

	verifier.EXPECT().Verify("token").
		Return(contract.TokenClaims{Subject: "ghost"}, nil).Times(1)
	store.EXPECT().FindByID(gomock.Any(), "ghost").
		Return(domain.Identity{}, apperrors.ErrIdentityNotFound).Times(1)

	_, err := authenticator.Authenticate(context.Background(), contract.Credentials{AuthToken: "token"})
	req.ErrorIs(err, apperrors.ErrIdentityNotFound)
}

func TestAuthenticator_Handshake_Timeout_Maps_To_Unauthorized(t *testing.T) {
	req := require.New(t)
	authenticator, verifier, store := newTestAuthenticator(t, 20*time.Millisecond)

	verifier.EXPECT().Verify("token").
		Return(contract.TokenClaims{Subject: "u1"}, nil).Times(1)
	// The store honours its context and gives up when the handshake
	// budget runs out.
	store.EXPECT().FindByID(gomock.Any(), "u1").
		DoAndReturn(func(ctx context.Context, _ string) (domain.Identity, error) {
			<-ctx.Done()
			return domain.Identity{}, ctx.Err()
		}).Times(1)

	_, err := authenticator.Authenticate(context.Background(), contract.Credentials{AuthToken: "token"})
	req.ErrorIs(err, apperrors.ErrUnauthorized)
	req.False(stderrors.Is(err, apperrors.ErrIdentityNotFound))
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
