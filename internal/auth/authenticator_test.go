package auth

import (
	"context"
	"testing"

	"weather-display-backend/internal/models"
	"weather-display-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserStore struct {
	users map[string]*models.User
	byID  map[uint]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	store := &fakeUserStore{
		users: map[string]*models.User{},
		byID:  map[uint]*models.User{},
	}
	for _, user := range users {
		store.users[user.Username] = user
		store.byID[user.ID] = user
	}
	return store
}

func (s *fakeUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if user, ok := s.users[username]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

func (s *fakeUserStore) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, repository.ErrNotFound
}

type fakeKeyStore struct {
	keys         map[string]*models.APIKey
	lastUsedHits []string
}

func newFakeKeyStore(keys ...*models.APIKey) *fakeKeyStore {
	store := &fakeKeyStore{keys: map[string]*models.APIKey{}}
	for _, key := range keys {
		store.keys[key.KeyID] = key
	}
	return store
}

func (s *fakeKeyStore) GetAPIKeyByKeyID(_ context.Context, keyID string) (*models.APIKey, error) {
	if key, ok := s.keys[keyID]; ok {
		return key, nil
	}
	return nil, repository.ErrNotFound
}

func (s *fakeKeyStore) UpdateAPIKeyLastUsed(_ context.Context, keyID string) error {
	s.lastUsedHits = append(s.lastUsedHits, keyID)
	return nil
}

func mustHash(t *testing.T, plaintext string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestSessionAuthenticator(t *testing.T) {
	alice := &models.User{ID: 1, Username: "alice", PasswordHash: mustHash(t, "hunter2"), Role: models.RoleUser}
	users := newFakeUserStore(alice)
	hasher := NewBcryptHasher(bcrypt.MinCost, nil)
	authenticator := NewSessionAuthenticator(users, hasher, nil)

	t.Run("valid credentials resolve the user", func(t *testing.T) {
		user := authenticator.Authenticate(context.Background(), basicHeader("alice", "hunter2"))
		require.NotNil(t, user)
		assert.Equal(t, alice.ID, user.ID)
	})

	t.Run("wrong password yields nil", func(t *testing.T) {
		assert.Nil(t, authenticator.Authenticate(context.Background(), basicHeader("alice", "hunter3")))
	})

	t.Run("unknown user yields nil", func(t *testing.T) {
		assert.Nil(t, authenticator.Authenticate(context.Background(), basicHeader("mallory", "hunter2")))
	})

	t.Run("bearer header yields nil", func(t *testing.T) {
		assert.Nil(t, authenticator.Authenticate(context.Background(), "Bearer key_x:secret"))
	})
}

func TestAPIKeyAuthenticator(t *testing.T) {
	owner := &models.User{ID: 7, Username: "bob", Role: models.RoleUser}
	key := &models.APIKey{KeyID: "key_abc", KeySecretHash: mustHash(t, "supersecret"), UserID: 7}
	hasher := NewBcryptHasher(bcrypt.MinCost, nil)

	t.Run("valid key resolves the owner and stamps last_used", func(t *testing.T) {
		keys := newFakeKeyStore(key)
		authenticator := NewAPIKeyAuthenticator(keys, newFakeUserStore(owner), hasher, nil)

		user := authenticator.Authenticate(context.Background(), "Bearer key_abc:supersecret")
		require.NotNil(t, user)
		assert.Equal(t, owner.ID, user.ID)
		assert.Equal(t, []string{"key_abc"}, keys.lastUsedHits)
	})

	t.Run("wrong secret yields nil without stamping last_used", func(t *testing.T) {
		keys := newFakeKeyStore(key)
		authenticator := NewAPIKeyAuthenticator(keys, newFakeUserStore(owner), hasher, nil)

		assert.Nil(t, authenticator.Authenticate(context.Background(), "Bearer key_abc:wrong"))
		assert.Empty(t, keys.lastUsedHits)
	})

	t.Run("unknown key yields nil", func(t *testing.T) {
		keys := newFakeKeyStore(key)
		authenticator := NewAPIKeyAuthenticator(keys, newFakeUserStore(owner), hasher, nil)

		assert.Nil(t, authenticator.Authenticate(context.Background(), "Bearer key_zzz:supersecret"))
	})

	t.Run("key owned by a deleted user yields nil but still stamps last_used", func(t *testing.T) {
		keys := newFakeKeyStore(key)
		authenticator := NewAPIKeyAuthenticator(keys, newFakeUserStore(), hasher, nil)

		assert.Nil(t, authenticator.Authenticate(context.Background(), "Bearer key_abc:supersecret"))
		// The secret was proven valid before the owner lookup failed
		assert.Equal(t, []string{"key_abc"}, keys.lastUsedHits)
	})
}
