package auth

import (
	"context"
	"net/http"
	"testing"

	"weather-display-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestEngine(t *testing.T) (*Engine, *fakeKeyStore) {
	t.Helper()

	alice := &models.User{ID: 1, Username: "alice", PasswordHash: mustHash(t, "hunter2"), Role: models.RoleUser}
	root := &models.User{ID: 2, Username: "root", PasswordHash: mustHash(t, "toor"), Role: models.RoleAdmin}
	key := &models.APIKey{KeyID: "key_abc", KeySecretHash: mustHash(t, "supersecret"), UserID: 1}

	users := newFakeUserStore(alice, root)
	keys := newFakeKeyStore(key)
	hasher := NewBcryptHasher(bcrypt.MinCost, nil)

	engine := NewEngine(
		NewSessionAuthenticator(users, hasher, nil),
		NewAPIKeyAuthenticator(keys, users, hasher, nil),
		"Weather Display",
		"Weather Display API",
		nil,
	)
	return engine, keys
}

func TestEngineAuthenticate(t *testing.T) {
	t.Run("default policy tries session first", func(t *testing.T) {
		engine, _ := newTestEngine(t)

		result, denial := engine.Authenticate(context.Background(), basicHeader("alice", "hunter2"), DefaultPolicy())
		require.Nil(t, denial)
		require.NotNil(t, result)
		assert.Equal(t, MethodSession, result.Method)
		assert.Equal(t, "alice", result.User.Username)
	})

	t.Run("api key resolves under the default policy", func(t *testing.T) {
		engine, _ := newTestEngine(t)

		result, denial := engine.Authenticate(context.Background(), "Bearer key_abc:supersecret", DefaultPolicy())
		require.Nil(t, denial)
		assert.Equal(t, MethodAPIKey, result.Method)
		assert.Equal(t, "alice", result.User.Username)
	})

	t.Run("method order is honored", func(t *testing.T) {
		engine, keys := newTestEngine(t)
		policy := Policy{Methods: []Method{MethodAPIKey, MethodSession}}

		result, denial := engine.Authenticate(context.Background(), "Bearer key_abc:supersecret", policy)
		require.Nil(t, denial)
		assert.Equal(t, MethodAPIKey, result.Method)
		assert.Equal(t, []string{"key_abc"}, keys.lastUsedHits)
	})

	t.Run("policy restricted to one method ignores the other", func(t *testing.T) {
		engine, _ := newTestEngine(t)
		policy := Policy{Methods: []Method{MethodSession}}

		result, denial := engine.Authenticate(context.Background(), "Bearer key_abc:supersecret", policy)
		assert.Nil(t, result)
		require.NotNil(t, denial)
		assert.Equal(t, http.StatusUnauthorized, denial.Status)
		assert.Equal(t, []string{`Basic realm="Weather Display"`}, denial.Challenges)
	})

	t.Run("missing credentials produce a challenge per configured method", func(t *testing.T) {
		engine, _ := newTestEngine(t)

		result, denial := engine.Authenticate(context.Background(), "", DefaultPolicy())
		assert.Nil(t, result)
		require.NotNil(t, denial)
		assert.Equal(t, http.StatusUnauthorized, denial.Status)
		assert.Equal(t, "Authentication required", denial.Error)
		assert.Equal(t, "Use Basic Auth (username:password) or Bearer token (key_id:key_secret)", denial.Hint)
		assert.Equal(t, []string{
			`Basic realm="Weather Display"`,
			`Bearer realm="Weather Display API"`,
		}, denial.Challenges)
	})

	t.Run("wrong password is indistinguishable from missing credentials", func(t *testing.T) {
		engine, _ := newTestEngine(t)

		_, missing := engine.Authenticate(context.Background(), "", DefaultPolicy())
		_, wrong := engine.Authenticate(context.Background(), basicHeader("alice", "nope"), DefaultPolicy())
		assert.Equal(t, missing, wrong)
	})

	t.Run("role check rejects non-admins with 403", func(t *testing.T) {
		engine, _ := newTestEngine(t)
		policy := Policy{Roles: []string{models.RoleAdmin}}

		result, denial := engine.Authenticate(context.Background(), basicHeader("alice", "hunter2"), policy)
		assert.Nil(t, result)
		require.NotNil(t, denial)
		assert.Equal(t, http.StatusForbidden, denial.Status)
		assert.Equal(t, "Insufficient permissions. Required role: admin", denial.Error)
		assert.Empty(t, denial.Challenges)
	})

	t.Run("role check passes admins", func(t *testing.T) {
		engine, _ := newTestEngine(t)
		policy := Policy{Roles: []string{models.RoleAdmin}}

		result, denial := engine.Authenticate(context.Background(), basicHeader("root", "toor"), policy)
		require.Nil(t, denial)
		assert.Equal(t, "root", result.User.Username)
	})

	t.Run("multiple roles are joined in the denial message", func(t *testing.T) {
		engine, _ := newTestEngine(t)
		policy := Policy{
			Methods: []Method{MethodAPIKey},
			Roles:   []string{"admin", "operator"},
		}

		_, denial := engine.Authenticate(context.Background(), "Bearer key_abc:supersecret", policy)
		require.NotNil(t, denial)
		assert.Equal(t, "Insufficient permissions. Required role: admin, operator", denial.Error)
	})
}

func TestAuthorizeOwnership(t *testing.T) {
	owner := &models.User{ID: 9, Role: models.RoleUser}
	stranger := &models.User{ID: 7, Role: models.RoleUser}
	admin := &models.User{ID: 3, Role: models.RoleAdmin}

	assert.True(t, AuthorizeOwnership(owner, 9))
	assert.False(t, AuthorizeOwnership(stranger, 9))
	assert.True(t, AuthorizeOwnership(admin, 9))
	assert.False(t, AuthorizeOwnership(nil, 9))
}
