package auth

import (
	"context"

	"weather-display-backend/internal/models"
)

// UserStore is the slice of the credential store the authenticators
// need for principal lookups. Implemented by repository.UserRepository.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// KeyStore is the slice of the credential store holding API key
// records. Implemented by repository.APIKeyRepository.
type KeyStore interface {
	GetAPIKeyByKeyID(ctx context.Context, keyID string) (*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, keyID string) error
}
