package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tj/assert"

	"github.com/forfuturefoundation2024-hash/AIVEX/pkg/jwt"
)

func newEngine(t *testing.T) (*gin.Engine, *jwt.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens, err := jwt.NewManager("test-secret", time.Hour, "test")
	assert.NoError(t, err)

	m := NewAuthMiddleware(tokens)
	r := gin.New()
	r.GET("/me", m.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, "%d %s %s", GetUserID(c), GetEmail(c), GetRole(c))
	})
	r.GET("/seller", m.RequireAuth(), m.RequireRole("seller"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, tokens
}

func call(r *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set(AuthHeaderKey, auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r, tokens := newEngine(t)
	token, _, err := tokens.Generate(5, "ann@example.com", "buyer")
	assert.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, call(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "/me", "Token "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "/me", "Bearer nope").Code)

	w := call(r, "/me", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5 ann@example.com buyer", w.Body.String())
}

func TestRequireRole(t *testing.T) {
	r, tokens := newEngine(t)
	buyer, _, err := tokens.Generate(1, "b@example.com", "buyer")
	assert.NoError(t, err)
	seller, _, err := tokens.Generate(2, "s@example.com", "seller")
	assert.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, call(r, "/seller", "Bearer "+buyer).Code)
	assert.Equal(t, http.StatusNoContent, call(r, "/seller", "Bearer "+seller).Code)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := BearerToken(req)
	assert.False(t, ok)

	req.Header.Set(AuthHeaderKey, "Bearer  abc ")
	token, ok := BearerToken(req)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)
}
