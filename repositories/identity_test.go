package repositories

import (
	"context"
	"testing"

	relayerrors "chat-relay/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir()).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Create_And_Find_Identity(t *testing.T) {
	req := require.New(t)
	repository := NewIdentityRepository(openTestDB(t))

	// Given a freshly created identity
	id, err := repository.CreateIdentity("alice", "ComplexPass123!", "https://cdn.example/alice.png")
	req.NoError(err)
	req.NotEmpty(id)

	// When resolving it by ID
	identity, err := repository.FindByID(context.Background(), id)

	// Then the public fields come back, nothing more
	req.NoError(err)
	req.Equal(id, identity.ID)
	req.Equal("alice", identity.Username)
	req.Equal("https://cdn.example/alice.png", identity.Avatar)
}

func Test_Duplicate_Username_Is_Rejected(t *testing.T) {
	req := require.New(t)
	repository := NewIdentityRepository(openTestDB(t))

	_, err := repository.CreateIdentity("alice", "ComplexPass123!", "")
	req.NoError(err)

	_, err = repository.CreateIdentity("alice", "AnotherPass456!", "")
	req.ErrorIs(err, relayerrors.ErrIdentityExists)
}

func Test_Find_Unknown_Identity(t *testing.T) {
	req := require.New(t)
	repository := NewIdentityRepository(openTestDB(t))

	_, err := repository.FindByID(context.Background(), "does-not-exist")
	req.ErrorIs(err, relayerrors.ErrIdentityNotFound)
}

func Test_Find_Honours_A_Cancelled_Context(t *testing.T) {
	req := require.New(t)
	repository := NewIdentityRepository(openTestDB(t))

	id, err := repository.CreateIdentity("alice", "ComplexPass123!", "")
	req.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = repository.FindByID(ctx, id)
	req.ErrorIs(err, context.Canceled)
}
