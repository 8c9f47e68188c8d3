// internal/adapters/in/http/middleware/cors.go
package middleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/cors"
)

// SessionHeader carries the storefront session id.
const SessionHeader = "X-Session-Id"

// CORS allows the storefront frontend origins. Credentials (the session
// cookie) are only allowed for an explicit origin list; "*" or no origins
// allows any origin without them.
func CORS(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", SessionHeader},
		ExposedHeaders: []string{SessionHeader},
		MaxAge:         600,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowedOrigins = origins
		opts.AllowCredentials = true
	}
	return cors.Handler(opts)
}
