package service

import (
	"context"
	"fmt"
	"testing"

	"weather-display-backend/internal/auth"
	"weather-display-backend/internal/models"
	"weather-display-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memoryAccountStore emulates the unique username/email constraints of
// the users table.
type memoryAccountStore struct {
	users  map[uint]*models.User
	nextID uint
}

func newMemoryAccountStore() *memoryAccountStore {
	return &memoryAccountStore{users: map[uint]*models.User{}}
}

func (m *memoryAccountStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memoryAccountStore) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memoryAccountStore) CreateUser(_ context.Context, user *models.User) error {
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("Error 1062 (23000): Duplicate entry '%s'", user.Username)
		}
	}
	m.nextID++
	user.ID = m.nextID
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *memoryAccountStore) ListUsers(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memoryAccountStore) UpdateUserRole(_ context.Context, id uint, role string) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	return nil
}

func (m *memoryAccountStore) DeleteUser(_ context.Context, id uint) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type staticCounter struct{ n int64 }

func (c staticCounter) CountDevicesByUserID(context.Context, uint) (int64, error) { return c.n, nil }
func (c staticCounter) CountAPIKeysByUserID(context.Context, uint) (int64, error) { return c.n, nil }

func newTestUserService(store *memoryAccountStore, devices, keys int64) *UserService {
	hasher := auth.NewBcryptHasher(bcrypt.MinCost, nil)
	return NewUserService(store, staticCounter{devices}, staticCounter{keys}, nil, hasher, nil)
}

func TestRegister(t *testing.T) {
	store := newMemoryAccountStore()
	svc := newTestUserService(store, 0, 0)

	user, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	t.Run("duplicate username is rejected", func(t *testing.T) {
		_, err := svc.Register(context.Background(), "alice", "other@example.com", "hunter22")
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("duplicate email surfaces as taken", func(t *testing.T) {
		_, err := svc.Register(context.Background(), "alice2", "alice@example.com", "hunter22")
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})
}

func TestLogin(t *testing.T) {
	store := newMemoryAccountStore()
	svc := newTestUserService(store, 0, 0)
	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)

	t.Run("correct password returns the account", func(t *testing.T) {
		user, err := svc.Login(context.Background(), "alice", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("wrong password and unknown user fail identically", func(t *testing.T) {
		_, wrongPass := svc.Login(context.Background(), "alice", "nope")
		_, unknown := svc.Login(context.Background(), "mallory", "hunter22")
		assert.ErrorIs(t, wrongPass, ErrInvalidCredentials)
		assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	})
}

func TestListUsers(t *testing.T) {
	store := newMemoryAccountStore()
	svc := newTestUserService(store, 0, 0)
	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "bob", "bob@example.com", "hunter22")
	require.NoError(t, err)

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUpdateRole(t *testing.T) {
	store := newMemoryAccountStore()
	svc := newTestUserService(store, 0, 0)
	target, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)
	admin := &models.User{ID: 99, Username: "root", Role: models.RoleAdmin}

	require.NoError(t, svc.UpdateRole(context.Background(), admin, target.ID, models.RoleAdmin))
	updated, err := store.GetUserByID(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	t.Run("re-applying the current role succeeds", func(t *testing.T) {
		assert.NoError(t, svc.UpdateRole(context.Background(), admin, target.ID, models.RoleAdmin))
	})

	t.Run("unknown target reports not found", func(t *testing.T) {
		err := svc.UpdateRole(context.Background(), admin, 12345, models.RoleUser)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestStats(t *testing.T) {
	store := newMemoryAccountStore()
	svc := newTestUserService(store, 3, 2)
	user, err := svc.Register(context.Background(), "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stats.Username)
	assert.Equal(t, int64(3), stats.DeviceCount)
	assert.Equal(t, int64(2), stats.APIKeyCount)

	t.Run("unknown user reports not found", func(t *testing.T) {
		_, err := svc.Stats(context.Background(), 12345)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

// The self-action guards and role validation run before any storage
// access, so they are testable without a database.

func TestUpdateRoleGuards(t *testing.T) {
	svc := NewUserService(nil, nil, nil, nil, nil, nil)
	admin := &models.User{ID: 3, Username: "root", Role: models.RoleAdmin}

	t.Run("admins cannot change their own role", func(t *testing.T) {
		err := svc.UpdateRole(context.Background(), admin, admin.ID, models.RoleUser)
		assert.ErrorIs(t, err, ErrSelfAction)
	})

	t.Run("unknown roles are rejected", func(t *testing.T) {
		err := svc.UpdateRole(context.Background(), admin, 9, "superuser")
		assert.ErrorIs(t, err, ErrInvalidRole)
	})
}

func TestDeleteUserGuards(t *testing.T) {
	svc := NewUserService(nil, nil, nil, nil, nil, nil)
	admin := &models.User{ID: 3, Username: "root", Role: models.RoleAdmin}

	err := svc.DeleteUser(context.Background(), admin, admin.ID)
	assert.ErrorIs(t, err, ErrSelfAction)
}
