package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/ArowuTest/mcash-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// IdentityKey holds the verified models.Identity in the gin context
	IdentityKey = "identity"
	// TokenCookie is the cookie set at login for browser clients
	TokenCookie = "token"
)

// TokenValidator validates access tokens
type TokenValidator interface {
	Validate(token string) (*jwt.Claims, error)
}

// JWTAuthMiddleware verifies the Bearer token, or the token cookie, and stores the caller identity
func JWTAuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "UNAUTHORIZED"})
			return
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			slog.Debug("Token rejected", "error", err, "path", c.FullPath())
			message := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				message = "token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message, "code": "UNAUTHORIZED"})
			return
		}

		accountID, err := primitive.ObjectIDFromHex(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims", "code": "UNAUTHORIZED"})
			return
		}
		role, err := models.ParseRole(claims.Role)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims", "code": "UNAUTHORIZED"})
			return
		}

		c.Set(IdentityKey, models.Identity{AccountID: accountID, Role: role})
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not listed. It must run after JWTAuthMiddleware.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required", "code": "UNAUTHORIZED"})
			return
		}
		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied", "code": "FORBIDDEN"})
	}
}

// GetIdentity returns the caller identity set by JWTAuthMiddleware
func GetIdentity(c *gin.Context) (models.Identity, bool) {
	value, ok := c.Get(IdentityKey)
	if !ok {
		return models.Identity{}, false
	}
	identity, ok := value.(models.Identity)
	return identity, ok
}

func bearerToken(c *gin.Context) (string, bool) {
	const bearerSchema = "Bearer "
	if header := c.GetHeader("Authorization"); header != "" {
		if !strings.HasPrefix(header, bearerSchema) {
			return "", false
		}
		token := strings.TrimSpace(header[len(bearerSchema):])
		return token, token != ""
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}
