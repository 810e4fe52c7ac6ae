package log

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tj/assert"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		assert.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, level(""))
	assert.Equal(t, zerolog.InfoLevel, level("loud"))
	assert.Equal(t, zerolog.DebugLevel, level(" DEBUG "))
	assert.Equal(t, zerolog.Disabled, level("off"))
}

func TestNewTagsService(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", ServiceName: "market-api", Version: "abc"}, &buf)
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	got := lines(t, &buf)
	assert.Len(t, got, 1)
	assert.Equal(t, "market-api", got[0][FieldService])
	assert.Equal(t, "abc", got[0][FieldVersion])
	assert.Equal(t, "shown", got[0]["message"])
}

func TestCtxCarriesConnAndProduct(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(Config{}, &buf))
	ctx = WithProduct(WithConn(ctx, "c-1"), 7)

	l := Ctx(ctx)
	l.Info().Msg("tagged")

	got := lines(t, &buf)
	assert.Len(t, got, 1)
	assert.Equal(t, "c-1", got[0][FieldConnID])
	assert.Equal(t, float64(7), got[0][FieldProductID])
}

func TestCtxFallsBackToProcessLogger(t *testing.T) {
	l := Ctx(context.Background())
	assert.NotEqual(t, zerolog.Disabled, l.GetLevel())
}

func TestGinMiddlewareLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(GinMiddleware(New(Config{Level: "debug"}, &buf)))
	r.GET("/ok", func(c *gin.Context) {
		c.Set(FieldUserID, int64(3))
		c.Status(http.StatusOK)
	})
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/ok", "/missing", "/boom", "/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if path == "/ok" {
			req.Header.Set(headerRequestID, "req-1")
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if path == "/ok" {
			assert.Equal(t, "req-1", w.Header().Get(headerRequestID))
		} else {
			assert.NotEmpty(t, w.Header().Get(headerRequestID))
		}
	}

	got := lines(t, &buf)
	assert.Len(t, got, 4)
	assert.Equal(t, "info", got[0]["level"])
	assert.Equal(t, "req-1", got[0][FieldRequestID])
	assert.Equal(t, float64(3), got[0][FieldUserID])
	assert.Equal(t, "warn", got[1]["level"])
	assert.Equal(t, "error", got[2]["level"])
	assert.Equal(t, "debug", got[3]["level"])
}
