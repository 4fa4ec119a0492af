package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost, nil)

	t.Run("round trip", func(t *testing.T) {
		hash, err := hasher.Hash("correct horse battery staple")
		require.NoError(t, err)
		assert.NotEqual(t, "correct horse battery staple", hash)

		assert.True(t, hasher.Verify("correct horse battery staple", hash))
		assert.False(t, hasher.Verify("correct horse battery stapl", hash))
	})

	t.Run("malformed hash is a mismatch", func(t *testing.T) {
		assert.False(t, hasher.Verify("anything", "not-a-bcrypt-hash"))
		assert.False(t, hasher.Verify("anything", ""))
	})

	t.Run("out of range cost falls back to default", func(t *testing.T) {
		h := NewBcryptHasher(99, nil)
		assert.Equal(t, bcrypt.DefaultCost, h.cost)

		h = NewBcryptHasher(0, nil)
		assert.Equal(t, bcrypt.DefaultCost, h.cost)
	})
}
