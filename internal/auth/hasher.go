package auth

import (
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Hasher abstracts the slow one-way hash used for both user passwords
// and API key secrets.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// BcryptHasher implements Hasher using bcrypt with a configurable cost
type BcryptHasher struct {
	cost int
	log  *zap.Logger
}

func NewBcryptHasher(cost int, log *zap.Logger) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BcryptHasher{cost: cost, log: log}
}

// Hash generates a bcrypt hash from a plaintext secret
func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	return string(bytes), err
}

// Verify compares a plaintext secret against a stored bcrypt hash.
// A malformed stored hash is treated as a mismatch, never a fault.
func (h *BcryptHasher) Verify(plaintext, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true
	}
	if err != bcrypt.ErrMismatchedHashAndPassword {
		h.log.Warn("stored hash could not be compared", zap.Error(err))
	}
	return false
}
