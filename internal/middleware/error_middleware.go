package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aurcc/bonafide-portal/internal/app/access"
	"github.com/aurcc/bonafide-portal/internal/app/views"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
	"github.com/aurcc/bonafide-portal/internal/session"
)

const genericErrorMessage = "Something went wrong. Please try again."

// ErrorView is the generic error page.
const ErrorView = "public/error"

// HandlePageError renders err for the page that triggered it.
//
// Session errors end the session and send the browser to the login page, permission errors
// render the unauthorized page, and every other kind is shown inline on view with the
// page's own data so the user can correct the input or retry.
func (m *SessionMiddleware) HandlePageError(c *gin.Context, err error, view string, page views.Page) {
	if errors.Is(err, context.Canceled) && c.Request.Context().Err() != nil {
		// The browser navigated away; nobody is left to render for.
		m.logger.Debug().Str("path", c.Request.URL.Path).Msg("Request cancelled by client")
		c.Abort()
		return
	}

	kind := apperrors.KindOf(err)
	switch kind {
	case apperrors.KindAuth:
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			break
		}
		m.logger.Info().Err(err).Str("path", c.Request.URL.Path).Msg("Session ended")
		if s := CurrentSession(c); s != nil {
			if derr := m.sessions.Destroy(c.Request.Context(), s.ID); derr != nil {
				m.logger.Warn().Err(derr).Msg("Failed to destroy session")
			}
		}
		m.ClearCookie(c)
		c.Redirect(http.StatusSeeOther, access.LoginPath+"?expired=1")
		c.Abort()
		return
	case apperrors.KindAuthorization:
		m.logger.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("Permission denied")
		page.Title = "Unauthorized"
		c.HTML(http.StatusForbidden, UnauthorizedView, page)
		c.Abort()
		return
	case apperrors.KindTransient:
		m.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	default:
		m.logger.Debug().Err(err).Str("kind", string(kind)).Str("path", c.Request.URL.Path).Msg("Showing error inline")
	}

	page.Error = userMessage(err, kind)
	page.Fields = apperrors.FieldErrors(err)
	var cooldown *apperrors.CooldownError
	if errors.As(err, &cooldown) {
		page.Cooldown = cooldown
	}
	c.HTML(statusFor(kind), view, page)
	c.Abort()
}

// RedirectWithError reports err as a flash message on the page at path. Session and
// permission errors still go through HandlePageError.
func (m *SessionMiddleware) RedirectWithError(c *gin.Context, err error, path string) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindAuth || kind == apperrors.KindAuthorization || errors.Is(err, context.Canceled) {
		m.HandlePageError(c, err, ErrorView, m.Page(c, "", ""))
		return
	}
	if kind == apperrors.KindTransient {
		m.logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}
	m.Flash(c, session.FlashError, userMessage(err, kind))
	c.Redirect(http.StatusSeeOther, path)
	c.Abort()
}

// NotFound renders the error page for unknown paths.
func (m *SessionMiddleware) NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		page := m.Page(c, "Page not found", "")
		page.Error = "The page you are looking for does not exist."
		c.HTML(http.StatusNotFound, ErrorView, page)
	}
}

// userMessage hides internal error text: only errors raised for the user carry a message.
func userMessage(err error, kind apperrors.Kind) string {
	var ce *apperrors.CustomError
	var cd *apperrors.CooldownError
	if errors.As(err, &ce) || errors.As(err, &cd) || kind != apperrors.KindTransient {
		return apperrors.Message(err)
	}
	return genericErrorMessage
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindAuth:
		return http.StatusUnauthorized
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
