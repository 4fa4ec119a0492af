package auth

import "weather-display-backend/internal/models"

// AuthorizeOwnership is the canonical per-resource ownership rule:
// the resource owner or any admin passes, everyone else is denied.
// Route handlers that manage per-user resources (devices, API keys)
// call this after the policy engine has resolved the principal.
func AuthorizeOwnership(principal *models.User, ownerID uint) bool {
	if principal == nil {
		return false
	}
	return principal.ID == ownerID || principal.Role == models.RoleAdmin
}
