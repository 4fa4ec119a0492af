package repository

import (
	"context"
	"errors"
	"time"

	"weather-display-backend/internal/models"

	"gorm.io/gorm"
)

type APIKeyRepository struct {
	db *gorm.DB
}

func NewAPIKeyRepo(db *gorm.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// CreateAPIKey creates a new API key record
func (r *APIKeyRepository) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	return r.db.WithContext(ctx).Create(key).Error
}

// GetAPIKeyByKeyID retrieves an API key by its public key_id
func (r *APIKeyRepository) GetAPIKeyByKeyID(ctx context.Context, keyID string) (*models.APIKey, error) {
	var key models.APIKey
	err := r.db.WithContext(ctx).Where("key_id = ?", keyID).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &key, nil
}

// ListAPIKeysByUserID returns all API keys owned by a user
func (r *APIKeyRepository) ListAPIKeysByUserID(ctx context.Context, userID uint) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&keys).Error
	return keys, err
}

// ListAPIKeys returns every API key in the system (admin view)
func (r *APIKeyRepository) ListAPIKeys(ctx context.Context) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&keys).Error
	return keys, err
}

// UpdateAPIKeyLastUsed stamps the key with the current time. Called on
// every successful secret verification.
func (r *APIKeyRepository) UpdateAPIKeyLastUsed(ctx context.Context, keyID string) error {
	return r.db.WithContext(ctx).Model(&models.APIKey{}).
		Where("key_id = ?", keyID).
		Update("last_used", time.Now().UTC()).Error
}

// MarkAPIKeyViewed clears the pending plaintext secret and marks the
// key as viewed in a single statement. Safe to call repeatedly; the
// transition is one-way. RowsAffected counts matched rows here
// (clientFoundRows in the DSN), so a repeat call still matches.
func (r *APIKeyRepository) MarkAPIKeyViewed(ctx context.Context, keyID string) error {
	result := r.db.WithContext(ctx).Model(&models.APIKey{}).
		Where("key_id = ?", keyID).
		Updates(map[string]interface{}{
			"secret_viewed":  true,
			"pending_secret": nil,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAPIKeySecret replaces the secret hash and resets the one-time
// reveal state with the new pending plaintext.
func (r *APIKeyRepository) UpdateAPIKeySecret(ctx context.Context, keyID, secretHash, pendingSecret string) error {
	result := r.db.WithContext(ctx).Model(&models.APIKey{}).
		Where("key_id = ?", keyID).
		Updates(map[string]interface{}{
			"key_secret_hash": secretHash,
			"pending_secret":  pendingSecret,
			"secret_viewed":   false,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAPIKey permanently deletes an API key
func (r *APIKeyRepository) DeleteAPIKey(ctx context.Context, keyID string) error {
	result := r.db.WithContext(ctx).Where("key_id = ?", keyID).Delete(&models.APIKey{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAPIKeysByUserID returns the number of API keys owned by a user
func (r *APIKeyRepository) CountAPIKeysByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.APIKey{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
