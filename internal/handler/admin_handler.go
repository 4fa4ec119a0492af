package handler

import (
	"errors"
	"net/http"
	"time"

	"weather-display-backend/internal/middleware"
	"weather-display-backend/internal/service"
	"weather-display-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves the /api/admin routes. Every route here sits
// behind an admin-only policy; the handlers still apply the self-action
// guards.
type AdminHandler struct {
	users *service.UserService
	keys  *service.APIKeyService
}

func NewAdminHandler(users *service.UserService, keys *service.APIKeyService) *AdminHandler {
	return &AdminHandler{users: users, keys: keys}
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list users")
		return
	}
	utils.SuccessResponse(c, users)
}

// UpdateRole handles PUT /api/admin/users/:user_id/role
func (h *AdminHandler) UpdateRole(c *gin.Context) {
	targetID, err := parseUserID(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	principal := middleware.CurrentUser(c)
	if err := h.users.UpdateRole(c.Request.Context(), principal, targetID, req.Role); err != nil {
		switch {
		case errors.Is(err, service.ErrSelfAction):
			utils.ErrorResponse(c, http.StatusBadRequest, "Cannot change your own role")
		case errors.Is(err, service.ErrInvalidRole):
			utils.ErrorResponse(c, http.StatusBadRequest, "Role must be 'user' or 'admin'")
		case errors.Is(err, service.ErrUserNotFound):
			utils.ErrorResponse(c, http.StatusNotFound, "User not found")
		default:
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to update role")
		}
		return
	}

	utils.MessageResponse(c, "Role updated")
}

// DeleteUser handles DELETE /api/admin/users/:user_id
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	targetID, err := parseUserID(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	principal := middleware.CurrentUser(c)
	if err := h.users.DeleteUser(c.Request.Context(), principal, targetID); err != nil {
		switch {
		case errors.Is(err, service.ErrSelfAction):
			utils.ErrorResponse(c, http.StatusBadRequest, "Cannot delete your own account")
		case errors.Is(err, service.ErrUserNotFound):
			utils.ErrorResponse(c, http.StatusNotFound, "User not found")
		default:
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to delete user")
		}
		return
	}

	utils.MessageResponse(c, "User deleted")
}

// ListAPIKeys handles GET /api/admin/apikeys: every key in the system
// with its owner's username.
func (h *AdminHandler) ListAPIKeys(c *gin.Context) {
	keys, err := h.keys.ListAll(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list API keys")
		return
	}

	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list users")
		return
	}
	usernames := make(map[uint]string, len(users))
	for _, user := range users {
		usernames[user.ID] = user.Username
	}

	type adminKeyView struct {
		KeyID        string     `json:"key_id"`
		Name         string     `json:"name"`
		UserID       uint       `json:"user_id"`
		Username     string     `json:"username"`
		LastUsed     *time.Time `json:"last_used"`
		CreatedAt    time.Time  `json:"created_at"`
		SecretViewed bool       `json:"secret_viewed"`
	}

	views := make([]adminKeyView, 0, len(keys))
	for _, key := range keys {
		views = append(views, adminKeyView{
			KeyID:        key.KeyID,
			Name:         key.Name,
			UserID:       key.UserID,
			Username:     usernames[key.UserID],
			LastUsed:     key.LastUsed,
			CreatedAt:    key.CreatedAt,
			SecretViewed: key.SecretViewed,
		})
	}

	utils.SuccessResponse(c, views)
}

// UserStats handles GET /api/admin/users/:user_id/stats
func (h *AdminHandler) UserStats(c *gin.Context) {
	targetID, err := parseUserID(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	stats, err := h.users.Stats(c.Request.Context(), targetID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load user stats")
		return
	}

	utils.SuccessResponse(c, stats)
}
