package service

import (
	"context"
	"errors"
	"fmt"

	"weather-display-backend/internal/auth"
	"weather-display-backend/internal/models"
	"weather-display-backend/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrUsernameTaken      = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrSelfAction         = errors.New("action not allowed on own account")
	ErrInvalidRole        = errors.New("role must be 'user' or 'admin'")
)

// UserStats summarizes one user's resource footprint (admin view)
type UserStats struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	DeviceCount int64  `json:"device_count"`
	APIKeyCount int64  `json:"api_key_count"`
}

// AccountStore is the slice of user storage the service needs.
// Implemented by repository.UserRepository.
type AccountStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserRole(ctx context.Context, id uint, role string) error
	DeleteUser(ctx context.Context, id uint) error
}

// DeviceCounter and APIKeyCounter feed the per-user stats view.
// Implemented by repository.DeviceRepository and repository.APIKeyRepository.
type DeviceCounter interface {
	CountDevicesByUserID(ctx context.Context, userID uint) (int64, error)
}

type APIKeyCounter interface {
	CountAPIKeysByUserID(ctx context.Context, userID uint) (int64, error)
}

// UserService handles registration, login and account administration
type UserService struct {
	users   AccountStore
	devices DeviceCounter
	keys    APIKeyCounter
	audit   *repository.AuditRepository
	hasher  auth.Hasher
	log     *zap.Logger
}

func NewUserService(
	users AccountStore,
	devices DeviceCounter,
	keys APIKeyCounter,
	audit *repository.AuditRepository,
	hasher auth.Hasher,
	log *zap.Logger,
) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{
		users:   users,
		devices: devices,
		keys:    keys,
		audit:   audit,
		hasher:  hasher,
		log:     log,
	}
}

// Register creates a new account with the default user role
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// Unique index violations surface here for duplicate emails
		s.log.Warn("user registration failed", zap.String("username", username), zap.Error(err))
		return nil, ErrUsernameTaken
	}

	s.writeAudit(ctx, &user.ID, "user.register", fmt.Sprintf("username=%s", username))
	s.log.Info("user registered", zap.String("username", username), zap.Uint("user_id", user.ID))
	return user, nil
}

// Login verifies a username/password pair. A missing user and a wrong
// password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.writeAudit(ctx, nil, "user.login_failed", fmt.Sprintf("username=%s", username))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.writeAudit(ctx, &user.ID, "user.login_failed", fmt.Sprintf("username=%s", username))
		return nil, ErrInvalidCredentials
	}

	s.writeAudit(ctx, &user.ID, "user.login", fmt.Sprintf("username=%s", username))
	return user, nil
}

// ListUsers returns all accounts (admin view)
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.ListUsers(ctx)
}

// UpdateRole changes another user's role. Admins cannot change their
// own role; that would allow locking the last admin out.
func (s *UserService) UpdateRole(ctx context.Context, actor *models.User, targetID uint, role string) error {
	if actor != nil && actor.ID == targetID {
		return ErrSelfAction
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return ErrInvalidRole
	}

	if err := s.users.UpdateUserRole(ctx, targetID, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.writeAudit(ctx, actorID(actor), "user.role_change", fmt.Sprintf("target_id=%d role=%s", targetID, role))
	s.log.Info("user role updated", zap.Uint("target_id", targetID), zap.String("role", role))
	return nil
}

// DeleteUser removes an account and everything it owns. Self-deletion
// is rejected.
func (s *UserService) DeleteUser(ctx context.Context, actor *models.User, targetID uint) error {
	if actor != nil && actor.ID == targetID {
		return ErrSelfAction
	}

	if err := s.users.DeleteUser(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.writeAudit(ctx, actorID(actor), "user.delete", fmt.Sprintf("target_id=%d", targetID))
	s.log.Info("user deleted", zap.Uint("target_id", targetID))
	return nil
}

// Stats returns per-user resource counts
func (s *UserService) Stats(ctx context.Context, targetID uint) (*UserStats, error) {
	user, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	deviceCount, err := s.devices.CountDevicesByUserID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	keyCount, err := s.keys.CountAPIKeysByUserID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	return &UserStats{
		UserID:      user.ID,
		Username:    user.Username,
		Role:        user.Role,
		DeviceCount: deviceCount,
		APIKeyCount: keyCount,
	}, nil
}

func (s *UserService) writeAudit(ctx context.Context, userID *uint, action, details string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, userID, action, details); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}

func actorID(actor *models.User) *uint {
	if actor == nil {
		return nil
	}
	return &actor.ID
}
