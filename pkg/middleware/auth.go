package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/jwt"
	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/response"
)

const (
	UserIDKey     = "user_id"
	EmailKey      = "email"
	RoleKey       = "role"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator verifies a bearer token and returns its claims.
type TokenValidator interface {
	Validate(token string) (*jwt.Claims, error)
}

// AuthMiddleware validates bearer tokens locally.
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

// RequireAuth returns a Gin middleware that validates bearer tokens.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(AuthHeaderKey) == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		token, ok := BearerToken(c.Request)
		if !ok {
			response.Unauthorized(c, "invalid authorization format")
			c.Abort()
			return
		}

		claims, err := m.validator.Validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Set(RoleKey, claims.Role)

		c.Next()
	}
}

// RequireRole rejects authenticated callers whose role is not listed.
// It must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "only "+strings.Join(roles, ", ")+" accounts may do this")
		c.Abort()
	}
}

// GetUserID extracts user ID from Gin context.
func GetUserID(c *gin.Context) int64 {
	if id, exists := c.Get(UserIDKey); exists {
		if v, ok := id.(int64); ok {
			return v
		}
	}
	return 0
}

// GetEmail extracts email from Gin context.
func GetEmail(c *gin.Context) string {
	return c.GetString(EmailKey)
}

// GetRole extracts role from Gin context.
func GetRole(c *gin.Context) string {
	return c.GetString(RoleKey)
}
