package handlers

import (
	"net/http"
	"time"

	"github.com/ArowuTest/mcash-backend/internal/middleware"
	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/internal/services"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication related HTTP requests
type AuthHandler struct {
	authService  services.AuthService
	cookieMaxAge time.Duration
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. The login cookie lives as long as the token.
func NewAuthHandler(authService services.AuthService, cookieMaxAge time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, cookieMaxAge: cookieMaxAge, secureCookie: secureCookie}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered", "user": account})
}

// Login handles POST /auth/login. The token is returned in the body and as an httpOnly cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Device == "" {
		req.Device = c.GetHeader("User-Agent")
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, resp.Token, int(h.cookieMaxAge.Seconds()), "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Success", "token": resp.Token, "user": resp.Account})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Success"})
}
