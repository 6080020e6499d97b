package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/pep299/iracify/internal/infrastructure"
	"github.com/pep299/iracify/internal/transport/response"
)

// TokenParam is the query parameter carrying the admin token.
const TokenParam = "token"

// IsAdmin reports whether r carries the configured admin token. An empty
// configured token disables admin mode.
func IsAdmin(cfg *infrastructure.Config, r *http.Request) bool {
	if !cfg.AdminEnabled() {
		return false
	}
	given := r.URL.Query().Get(TokenParam)
	return subtle.ConstantTimeCompare([]byte(given), []byte(cfg.AdminToken)) == 1
}

// Admin guards the settings panel.
func Admin(cfg *infrastructure.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.AdminEnabled() {
				response.WriteNotFound(w, "Admin mode is disabled")
				return
			}
			if !IsAdmin(cfg, r) {
				response.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
