package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aurcc/bonafide-portal/internal/app/access"
)

// UnauthorizedView is the page rendered when a role enters another role's subtree.
const UnauthorizedView = "public/unauthorized"

// RequireRole admits only sessions whose role owns the subtree.
func (m *SessionMiddleware) RequireRole(role access.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.Enforce(c, access.AuthorizeSubtree(CurrentSession(c).Principal(), role))
	}
}

// RequirePasswordChange admits only sessions with a pending forced password change.
func (m *SessionMiddleware) RequirePasswordChange() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.Enforce(c, access.AuthorizePasswordChange(CurrentSession(c).Principal()))
	}
}

// RequireSession admits any signed-in session.
func (m *SessionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentSession(c) == nil {
			m.Enforce(c, access.Landing(nil))
			return
		}
		c.Next()
	}
}

// Enforce applies an access decision: Allow continues the chain, everything else ends it.
func (m *SessionMiddleware) Enforce(c *gin.Context, d access.Decision) {
	switch d.Outcome {
	case access.Allow:
		c.Next()
	case access.Deny:
		m.logger.Warn().
			Str("path", c.Request.URL.Path).
			Str("role", string(CurrentSession(c).Principal().Role)).
			Msg("Role not allowed in subtree")
		c.HTML(http.StatusForbidden, UnauthorizedView, m.Page(c, "Unauthorized", ""))
		c.Abort()
	default:
		c.Redirect(http.StatusSeeOther, d.Path)
		c.Abort()
	}
}
