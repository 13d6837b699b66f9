package repositories

import (
	"chat-relay/auth"
	"chat-relay/domain"
	relayerrors "chat-relay/errors"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// IdentityRepository is the identity-store collaborator, backed by BadgerDB.
// It is the only layer that ever touches credential material: resolved
// identities leave with sensitive fields stripped.
type IdentityRepository struct {
	db *badger.DB
}

func NewIdentityRepository(db *badger.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// identityRecord is the on-disk representation, password hash included.
type identityRecord struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Avatar       string `json:"avatar,omitempty"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    int64  `json:"created_at"`
}

func identityKey(id string) []byte {
	return []byte("identity:" + id)
}

func usernameKey(username string) []byte {
	return []byte("username:" + username)
}

// CreateIdentity hashes the password and persists the record.
// It returns the newly generated identity ID.
func (r *IdentityRepository) CreateIdentity(username, password, avatar string) (string, error) {
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing failed: %w", err)
	}

	newID := uuid.NewString()
	record := identityRecord{
		ID:           newID,
		Username:     username,
		Avatar:       avatar,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().Unix(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(usernameKey(username)); err == nil {
			return relayerrors.ErrIdentityExists
		}
		if err := txn.Set(usernameKey(username), []byte(newID)); err != nil {
			return err
		}
		return txn.Set(identityKey(newID), data)
	})
	if err != nil {
		return "", err
	}
	return newID, nil
}

// FindByID resolves a token subject to its public identity.
// The password hash never crosses this boundary.
func (r *IdentityRepository) FindByID(ctx context.Context, id string) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Identity{}, err
	}

	var record identityRecord
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(identityKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Identity{}, fmt.Errorf("%w: %s", relayerrors.ErrIdentityNotFound, id)
	}
	if err != nil {
		return domain.Identity{}, err
	}

	return domain.Identity{
		ID:       record.ID,
		Username: record.Username,
		Avatar:   record.Avatar,
	}, nil
}
