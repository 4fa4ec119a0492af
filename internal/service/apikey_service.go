package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"weather-display-backend/internal/auth"
	"weather-display-backend/internal/models"
	"weather-display-backend/internal/repository"

	"go.uber.org/zap"
)

var ErrAPIKeyNotFound = errors.New("API key not found")

// APIKeyStore is the persistence surface APIKeyService needs
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	GetAPIKeyByKeyID(ctx context.Context, keyID string) (*models.APIKey, error)
	ListAPIKeysByUserID(ctx context.Context, userID uint) ([]models.APIKey, error)
	ListAPIKeys(ctx context.Context) ([]models.APIKey, error)
	MarkAPIKeyViewed(ctx context.Context, keyID string) error
	UpdateAPIKeySecret(ctx context.Context, keyID, secretHash, pendingSecret string) error
	DeleteAPIKey(ctx context.Context, keyID string) error
}

// APIKeyService manages device API keys and their one-time secret
// reveal lifecycle.
type APIKeyService struct {
	keys   APIKeyStore
	audit  *repository.AuditRepository
	hasher auth.Hasher
	log    *zap.Logger
}

func NewAPIKeyService(keys APIKeyStore, audit *repository.AuditRepository, hasher auth.Hasher, log *zap.Logger) *APIKeyService {
	if log == nil {
		log = zap.NewNop()
	}
	return &APIKeyService{keys: keys, audit: audit, hasher: hasher, log: log}
}

// Generate creates a new API key for a user. The plaintext secret is
// bcrypt-hashed for verification and kept in pending_secret until the
// owner views it once.
func (s *APIKeyService) Generate(ctx context.Context, actor *models.User, ownerID uint, name string) (*models.APIKey, error) {
	keyID := "key_" + randomToken(16)
	secret := randomToken(32)

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, err
	}

	key := &models.APIKey{
		KeyID:         keyID,
		KeySecretHash: hash,
		UserID:        ownerID,
		Name:          name,
		SecretViewed:  false,
		PendingSecret: &secret,
	}
	if err := s.keys.CreateAPIKey(ctx, key); err != nil {
		return nil, err
	}

	s.writeAudit(ctx, actorID(actor), "apikey.generate", fmt.Sprintf("key_id=%s owner_id=%d", keyID, ownerID))
	s.log.Info("API key generated", zap.String("key_id", keyID), zap.Uint("owner_id", ownerID))
	return key, nil
}

// Get returns an API key record by its public key_id
func (s *APIKeyService) Get(ctx context.Context, keyID string) (*models.APIKey, error) {
	key, err := s.keys.GetAPIKeyByKeyID(ctx, keyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, err
	}
	return key, nil
}

// ListForUser returns a user's keys. The pending plaintext secret is
// included only while it has not been viewed.
func (s *APIKeyService) ListForUser(ctx context.Context, userID uint) ([]models.APIKeyResponse, error) {
	keys, err := s.keys.ListAPIKeysByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]models.APIKeyResponse, 0, len(keys))
	for _, key := range keys {
		responses = append(responses, toAPIKeyResponse(key))
	}
	return responses, nil
}

// ListAll returns every key in the system (admin view)
func (s *APIKeyService) ListAll(ctx context.Context) ([]models.APIKey, error) {
	return s.keys.ListAPIKeys(ctx)
}

// MarkViewed discards the pending plaintext secret. The transition is
// one-way; calling it on an already-viewed key is a no-op success.
func (s *APIKeyService) MarkViewed(ctx context.Context, keyID string) error {
	if err := s.keys.MarkAPIKeyViewed(ctx, keyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAPIKeyNotFound
		}
		return err
	}
	return nil
}

// Regenerate replaces a key's secret and restarts the one-time reveal
// window. The key_id stays stable so devices only need the new secret.
func (s *APIKeyService) Regenerate(ctx context.Context, actor *models.User, keyID string) (*models.APIKey, error) {
	secret := randomToken(32)
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, err
	}

	if err := s.keys.UpdateAPIKeySecret(ctx, keyID, hash, secret); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, err
	}

	s.writeAudit(ctx, actorID(actor), "apikey.regenerate", fmt.Sprintf("key_id=%s", keyID))
	s.log.Info("API key secret regenerated", zap.String("key_id", keyID))
	return s.Get(ctx, keyID)
}

// Delete permanently removes an API key
func (s *APIKeyService) Delete(ctx context.Context, actor *models.User, keyID string) error {
	if err := s.keys.DeleteAPIKey(ctx, keyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAPIKeyNotFound
		}
		return err
	}
	s.writeAudit(ctx, actorID(actor), "apikey.delete", fmt.Sprintf("key_id=%s", keyID))
	s.log.Info("API key deleted", zap.String("key_id", keyID))
	return nil
}

func (s *APIKeyService) writeAudit(ctx context.Context, userID *uint, action, details string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, userID, action, details); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}

func toAPIKeyResponse(key models.APIKey) models.APIKeyResponse {
	response := models.APIKeyResponse{
		ID:           key.ID,
		KeyID:        key.KeyID,
		Name:         key.Name,
		LastUsed:     key.LastUsed,
		CreatedAt:    key.CreatedAt,
		ExpiresAt:    key.ExpiresAt,
		SecretViewed: key.SecretViewed,
	}
	if !key.SecretViewed {
		response.PendingSecret = key.PendingSecret
	}
	return response
}

// randomToken returns a URL-safe token from n random bytes
func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
