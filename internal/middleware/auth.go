package middleware

import (
	"strings"

	"weather-display-backend/internal/auth"
	"weather-display-backend/internal/models"
	"weather-display-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Context keys for the resolved authentication outcome
const (
	ContextUserKey   = "authUser"
	ContextMethodKey = "authMethod"
)

// RequireAuth runs the policy engine for a route. On success the
// principal and the method that resolved it are attached to the gin
// context; on failure the request is answered and aborted before the
// handler runs.
func RequireAuth(engine *auth.Engine, policy auth.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")

		result, denial := engine.Authenticate(c.Request.Context(), header, policy)
		if denial != nil {
			if len(denial.Challenges) > 0 {
				c.Header("WWW-Authenticate", strings.Join(denial.Challenges, ", "))
			}
			if denial.Hint != "" {
				utils.ErrorResponseWithHint(c, denial.Status, denial.Error, denial.Hint)
			} else {
				utils.ErrorResponse(c, denial.Status, denial.Error)
			}
			c.Abort()
			return
		}

		c.Set(ContextUserKey, result.User)
		c.Set(ContextMethodKey, result.Method)

		c.Next()
	}
}

// CurrentUser returns the authenticated principal, or nil when the
// route ran without RequireAuth.
func CurrentUser(c *gin.Context) *models.User {
	if value, exists := c.Get(ContextUserKey); exists {
		if user, ok := value.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentAuthMethod returns the method that authenticated this request
func CurrentAuthMethod(c *gin.Context) auth.Method {
	if value, exists := c.Get(ContextMethodKey); exists {
		if method, ok := value.(auth.Method); ok {
			return method
		}
	}
	return ""
}
