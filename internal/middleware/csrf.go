package middleware

import (
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/rs/zerolog"
)

// CSRFFieldName is the hidden form field holding the token.
const CSRFFieldName = "csrf_token"

// CSRF wraps the whole router with gorilla/csrf. Every state-changing form must carry the
// token rendered by csrf.TemplateField. Without secure cookies the portal is assumed to be
// served over plain HTTP, which gorilla/csrf has to be told per request.
func CSRF(authKey []byte, secure bool, trustedOrigins []string, logger zerolog.Logger) func(http.Handler) http.Handler {
	protect := csrf.Protect(authKey,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(CSRFFieldName),
		csrf.TrustedOrigins(trustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn().
				Err(csrf.FailureReason(r)).
				Str("path", r.URL.Path).
				Msg("CSRF check failed")
			http.Error(w, "Your form has expired. Please go back, reload the page and try again.", http.StatusForbidden)
		})),
	)
	return func(next http.Handler) http.Handler {
		protected := protect(next)
		if secure {
			return protected
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
