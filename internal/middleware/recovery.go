package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into the generic error page.
func (m *SessionMiddleware) Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		m.logger.Error().
			Interface("panic", recovered).
			Str("path", c.Request.URL.Path).
			Msg("Recovered from panic")
		page := m.Page(c, "Something went wrong", "")
		page.Error = genericErrorMessage
		c.HTML(http.StatusInternalServerError, ErrorView, page)
		c.Abort()
	})
}
