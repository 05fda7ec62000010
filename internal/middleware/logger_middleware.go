package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/session"
)

// RequestIDHeader carries the correlation ID of a request.
const RequestIDHeader = "X-Request-ID"

// RequestLogger writes one event per request once the handler chain has finished.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}

		event = event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP())
		if s := CurrentSession(c); s != nil {
			event = event.Str("role", string(s.Role())).Str("session", shortID(s.ID))
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("Request")
	}
}

// LogSessionEvents subscribes logger to the provider's lifecycle events.
func LogSessionEvents(provider *session.Provider, logger zerolog.Logger) {
	provider.Subscribe(func(ev session.Event) {
		logger.Info().
			Str("event", string(ev.Kind)).
			Str("session", shortID(ev.SessionID)).
			Str("role", string(ev.Role)).
			Msg("Session event")
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
