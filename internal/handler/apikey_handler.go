package handler

import (
	"errors"
	"net/http"
	"strconv"

	"weather-display-backend/internal/auth"
	"weather-display-backend/internal/middleware"
	"weather-display-backend/internal/models"
	"weather-display-backend/internal/service"
	"weather-display-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type APIKeyHandler struct {
	keys    *service.APIKeyService
	devices *service.DeviceService
}

func NewAPIKeyHandler(keys *service.APIKeyService, devices *service.DeviceService) *APIKeyHandler {
	return &APIKeyHandler{keys: keys, devices: devices}
}

type generateKeyRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// ListForUser handles GET /api/users/:user_id/apikeys. Owners see
// their own keys; admins see anyone's.
func (h *APIKeyHandler) ListForUser(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}

	keys, err := h.keys.ListForUser(c.Request.Context(), userID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list API keys")
		return
	}

	utils.SuccessResponse(c, keys)
}

// Generate handles POST /api/users/:user_id/apikeys (admin only; the
// route policy enforces the role).
func (h *APIKeyHandler) Generate(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid user id")
		return
	}

	var req generateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	principal := middleware.CurrentUser(c)
	key, err := h.keys.Generate(c.Request.Context(), principal, userID, req.Name)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to generate API key")
		return
	}

	// The plaintext secret appears here and in the list until viewed
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"key_id":         key.KeyID,
			"name":           key.Name,
			"pending_secret": key.PendingSecret,
			"created_at":     key.CreatedAt,
		},
	})
}

// MarkViewed handles POST /api/apikeys/:key_id/viewed. After this call
// the plaintext secret is gone for good.
func (h *APIKeyHandler) MarkViewed(c *gin.Context) {
	key, ok := h.authorizedKey(c)
	if !ok {
		return
	}

	if err := h.keys.MarkViewed(c.Request.Context(), key.KeyID); err != nil {
		if errors.Is(err, service.ErrAPIKeyNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "API key not found")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to mark API key as viewed")
		return
	}

	utils.MessageResponse(c, "Secret dismissed. It cannot be shown again.")
}

// Regenerate handles POST /api/apikeys/:key_id/regenerate
func (h *APIKeyHandler) Regenerate(c *gin.Context) {
	key, ok := h.authorizedKey(c)
	if !ok {
		return
	}

	principal := middleware.CurrentUser(c)
	updated, err := h.keys.Regenerate(c.Request.Context(), principal, key.KeyID)
	if err != nil {
		if errors.Is(err, service.ErrAPIKeyNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "API key not found")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to regenerate API key")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"key_id":         updated.KeyID,
		"name":           updated.Name,
		"pending_secret": updated.PendingSecret,
	})
}

// Delete handles DELETE /api/apikeys/:key_id (admin only; the route
// policy enforces the role).
func (h *APIKeyHandler) Delete(c *gin.Context) {
	keyID := c.Param("key_id")

	principal := middleware.CurrentUser(c)
	if err := h.keys.Delete(c.Request.Context(), principal, keyID); err != nil {
		if errors.Is(err, service.ErrAPIKeyNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "API key not found")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to delete API key")
		return
	}

	utils.MessageResponse(c, "API key deleted")
}

// UserDevices handles GET /api/users/:user_id/devices (owner or admin)
func (h *APIKeyHandler) UserDevices(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}

	owner := &models.User{ID: userID, Role: models.RoleUser}
	devices, err := h.devices.ListFor(c.Request.Context(), owner)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list devices")
		return
	}

	utils.SuccessResponse(c, devices)
}

// authorizedUserID parses the :user_id route param and enforces the
// owner-or-admin rule against the authenticated principal.
func (h *APIKeyHandler) authorizedUserID(c *gin.Context) (uint, bool) {
	userID, err := parseUserID(c)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid user id")
		return 0, false
	}

	principal := middleware.CurrentUser(c)
	if !auth.AuthorizeOwnership(principal, userID) {
		utils.ErrorResponse(c, http.StatusForbidden, "You can only access your own resources")
		return 0, false
	}

	return userID, true
}

// authorizedKey loads the key from the route and enforces the
// owner-or-admin rule.
func (h *APIKeyHandler) authorizedKey(c *gin.Context) (*models.APIKey, bool) {
	keyID := c.Param("key_id")

	key, err := h.keys.Get(c.Request.Context(), keyID)
	if err != nil {
		if errors.Is(err, service.ErrAPIKeyNotFound) {
			utils.ErrorResponse(c, http.StatusNotFound, "API key not found")
		} else {
			utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load API key")
		}
		return nil, false
	}

	principal := middleware.CurrentUser(c)
	if !auth.AuthorizeOwnership(principal, key.UserID) {
		utils.ErrorResponse(c, http.StatusForbidden, "You do not own this API key")
		return nil, false
	}

	return key, true
}

func parseUserID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	return uint(id), err
}
