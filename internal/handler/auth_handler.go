package handler

import (
	"errors"
	"fmt"
	"net/http"

	"weather-display-backend/internal/middleware"
	"weather-display-backend/internal/service"
	"weather-display-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users *service.UserService
}

func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			utils.ErrorResponse(c, http.StatusConflict, "Username or email already registered")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to register user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    user,
	})
}

// Login handles POST /api/auth/login. There is no session token; the
// response echoes the verified pair so the SPA can store it for the
// Basic Authorization header on subsequent requests.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "Login failed")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user":        user,
		"credentials": fmt.Sprintf("%s:%s", req.Username, req.Password),
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user":        user,
		"auth_method": middleware.CurrentAuthMethod(c),
	})
}

// Logout handles POST /api/auth/logout. Credentials are stateless, so
// there is nothing to invalidate server-side.
func (h *AuthHandler) Logout(c *gin.Context) {
	utils.MessageResponse(c, "Logged out. Discard stored credentials client-side.")
}
