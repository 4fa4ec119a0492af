package auth

import (
	"context"

	"weather-display-backend/internal/models"

	"go.uber.org/zap"
)

// Method identifies how a request authenticated
type Method string

const (
	MethodSession Method = "session"
	MethodAPIKey  Method = "api_key"
)

// Authenticator resolves an Authorization header to a principal.
// A nil return means the credentials did not match; the caller never
// learns whether the lookup missed or the secret was wrong.
type Authenticator interface {
	Method() Method
	Authenticate(ctx context.Context, header string) *models.User
}

// SessionAuthenticator authenticates Basic Auth (username:password)
// credentials against stored password hashes.
type SessionAuthenticator struct {
	users  UserStore
	hasher Hasher
	log    *zap.Logger
}

func NewSessionAuthenticator(users UserStore, hasher Hasher, log *zap.Logger) *SessionAuthenticator {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionAuthenticator{users: users, hasher: hasher, log: log}
}

func (a *SessionAuthenticator) Method() Method {
	return MethodSession
}

func (a *SessionAuthenticator) Authenticate(ctx context.Context, header string) *models.User {
	username, password, ok := ParseBasicAuth(header)
	if !ok {
		return nil
	}

	// A missing user and a wrong password produce the same result so
	// the response cannot be used to enumerate usernames.
	user, err := a.users.GetUserByUsername(ctx, username)
	if err != nil || user == nil {
		a.log.Warn("failed session auth", zap.String("username", username))
		return nil
	}

	if !a.hasher.Verify(password, user.PasswordHash) {
		a.log.Warn("failed session auth", zap.String("username", username))
		return nil
	}

	a.log.Info("session auth successful", zap.String("username", username))
	return user
}

// APIKeyAuthenticator authenticates Bearer key_id:key_secret
// credentials against stored API key records.
type APIKeyAuthenticator struct {
	keys   KeyStore
	users  UserStore
	hasher Hasher
	log    *zap.Logger
}

func NewAPIKeyAuthenticator(keys KeyStore, users UserStore, hasher Hasher, log *zap.Logger) *APIKeyAuthenticator {
	if log == nil {
		log = zap.NewNop()
	}
	return &APIKeyAuthenticator{keys: keys, users: users, hasher: hasher, log: log}
}

func (a *APIKeyAuthenticator) Method() Method {
	return MethodAPIKey
}

func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, header string) *models.User {
	keyID, secret, ok := ParseBearerKey(header)
	if !ok {
		return nil
	}

	key, err := a.keys.GetAPIKeyByKeyID(ctx, keyID)
	if err != nil || key == nil {
		a.log.Warn("API key not found", zap.String("key_id", keyID))
		return nil
	}

	if !a.hasher.Verify(secret, key.KeySecretHash) {
		a.log.Warn("invalid secret for API key", zap.String("key_id", keyID))
		return nil
	}

	// The secret has been proven valid, so record the use now even if
	// the surrounding request later fails a role or ownership check.
	if err := a.keys.UpdateAPIKeyLastUsed(ctx, keyID); err != nil {
		a.log.Warn("failed to update API key last_used", zap.String("key_id", keyID), zap.Error(err))
	}

	user, err := a.users.GetUserByID(ctx, key.UserID)
	if err != nil || user == nil {
		// A valid key pointing at a deleted user is a data integrity
		// anomaly, not a normal auth failure.
		a.log.Error("API key references missing user",
			zap.String("key_id", keyID),
			zap.Uint("user_id", key.UserID))
		return nil
	}

	a.log.Info("API key auth successful",
		zap.String("username", user.Username),
		zap.String("key_id", keyID))
	return user
}
