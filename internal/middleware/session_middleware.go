package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/app/access"
	"github.com/aurcc/bonafide-portal/internal/app/views"
	"github.com/aurcc/bonafide-portal/internal/session"
)

const sessionContextKey = "portal.session"

// CookieConfig describes the session cookie
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// SessionMiddleware resolves the session cookie and guards the role subtrees
type SessionMiddleware struct {
	sessions *session.Provider
	cookie   CookieConfig
	logger   zerolog.Logger
}

// NewSessionMiddleware creates a new SessionMiddleware
func NewSessionMiddleware(sessions *session.Provider, cookie CookieConfig, logger zerolog.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
		cookie:   cookie,
		logger:   logger,
	}
}

// Sessions returns the provider behind the middleware.
func (m *SessionMiddleware) Sessions() *session.Provider {
	return m.sessions
}

// LoadSession puts the live session of the cookie, if any, into the context.
// A cookie whose session is gone is removed.
func (m *SessionMiddleware) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(m.cookie.Name)
		if err != nil || id == "" {
			c.Next()
			return
		}

		s, err := m.sessions.Load(c.Request.Context(), id)
		switch {
		case err == nil:
			c.Set(sessionContextKey, s)
		case errors.Is(err, session.ErrNotFound):
			m.ClearCookie(c)
		default:
			m.logger.Error().Err(err).Msg("Failed to load session")
		}
		c.Next()
	}
}

// CurrentSession returns the session loaded for this request, or nil.
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	s, _ := v.(*session.Session)
	return s
}

// SetCurrentSession replaces the request's session after it changed (login, password change).
func SetCurrentSession(c *gin.Context, s *session.Session) {
	c.Set(sessionContextKey, s)
}

// SetCookie issues the session cookie for s.
func (m *SessionMiddleware) SetCookie(c *gin.Context, s *session.Session) {
	maxAge := int(m.cookie.TTL.Seconds())
	if !s.ExpiresAt.IsZero() {
		maxAge = int(time.Until(s.ExpiresAt).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, s.ID, maxAge, "/", "", m.cookie.Secure, true)
}

// ClearCookie removes the session cookie.
func (m *SessionMiddleware) ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookie.Name, "", -1, "/", "", m.cookie.Secure, true)
}

// Flash stores a one-shot message shown by the next rendered page.
func (m *SessionMiddleware) Flash(c *gin.Context, kind session.FlashKind, message string) {
	s := CurrentSession(c)
	if s == nil {
		return
	}
	if err := m.sessions.SetFlash(c.Request.Context(), s.ID, kind, message); err != nil {
		m.logger.Warn().Err(err).Msg("Failed to store flash message")
	}
}

// Page builds the common view model for the current request and consumes the pending flash.
func (m *SessionMiddleware) Page(c *gin.Context, title, active string) views.Page {
	page := views.Page{
		Title:     title,
		Active:    active,
		CSRFField: csrf.TemplateField(c.Request),
	}
	s := CurrentSession(c)
	if s == nil {
		return page
	}
	user := s.User
	page.User = &user
	if role, ok := access.ParseRole(s.Role()); ok {
		page.Role = role
	}
	page.Flash = m.sessions.PopFlash(c.Request.Context(), s)
	return page
}
