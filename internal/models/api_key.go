package models

import "time"

// APIKey represents the api_keys table
// Used for authenticating weather display devices and scripts via Bearer tokens.
// The key secret is stored as a bcrypt hash; the plaintext is kept in
// PendingSecret only until the owner views it once.
type APIKey struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	KeyID         string     `gorm:"uniqueIndex;not null;size:64" json:"key_id"`
	KeySecretHash string     `gorm:"not null;size:255" json:"-"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	Name          string     `gorm:"not null;size:100" json:"name"`
	LastUsed      *time.Time `json:"last_used"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at"`
	SecretViewed  bool       `gorm:"default:false" json:"secret_viewed"`
	PendingSecret *string    `gorm:"size:255" json:"-"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

// TableName specifies the table name for APIKey model
func (APIKey) TableName() string {
	return "api_keys"
}

// APIKeyResponse is used when returning API keys to the client.
// PendingSecret is only populated while the secret has not been viewed.
type APIKeyResponse struct {
	ID            uint       `json:"id"`
	KeyID         string     `json:"key_id"`
	Name          string     `json:"name"`
	LastUsed      *time.Time `json:"last_used"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at"`
	SecretViewed  bool       `json:"secret_viewed"`
	PendingSecret *string    `json:"pending_secret,omitempty"`
}
