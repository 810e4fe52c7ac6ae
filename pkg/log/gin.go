package log

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const headerRequestID = "X-Request-ID"

// GinMiddleware puts a request-scoped logger into the request context and
// writes one line per finished request. Server errors log at error level,
// client errors at warn, and health checks at debug.
func GinMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(headerRequestID, reqID)

		reqLogger := logger.With().
			Str(FieldRequestID, reqID).
			Str(FieldMethod, c.Request.Method).
			Str(FieldPath, c.Request.URL.Path).
			Logger()
		c.Request = c.Request.WithContext(reqLogger.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		var evt *zerolog.Event
		switch {
		case status >= http.StatusInternalServerError:
			evt = reqLogger.Error()
		case status >= http.StatusBadRequest:
			evt = reqLogger.Warn()
		case c.FullPath() == "/health":
			evt = reqLogger.Debug()
		default:
			evt = reqLogger.Info()
		}

		evt = evt.
			Str(FieldRoute, c.FullPath()).
			Int(FieldStatus, status).
			Int(FieldBytes, c.Writer.Size()).
			Int64(FieldLatency, time.Since(start).Milliseconds()).
			Str(FieldClientIP, c.ClientIP())

		// Set by the auth middleware on protected routes.
		if id, ok := c.Get(FieldUserID); ok {
			if v, ok := id.(int64); ok {
				evt = evt.Int64(FieldUserID, v)
			}
		}
		if role := c.GetString(FieldRole); role != "" {
			evt = evt.Str(FieldRole, role)
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}

		evt.Msg("request completed")
	}
}
