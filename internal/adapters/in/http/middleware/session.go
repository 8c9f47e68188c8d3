// internal/adapters/in/http/middleware/session.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"gamestore/internal/application/usecase"
)

const (
	SessionCookie  = "sid"
	sessionMaxAge  = 30 * 24 * 60 * 60
	maxSessionSize = 128
)

// Session resolves the caller's session id: header first, then cookie,
// else a fresh "session_<uuid>" that is returned in both.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := strings.TrimSpace(r.Header.Get(SessionHeader))
		if sid == "" {
			if c, err := r.Cookie(SessionCookie); err == nil {
				sid = strings.TrimSpace(c.Value)
			}
		}
		if len(sid) > maxSessionSize {
			sid = ""
		}

		if sid == "" {
			sid = "session_" + uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   sessionMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   r.TLS != nil,
			})
		}
		w.Header().Set(SessionHeader, sid)

		next.ServeHTTP(w, r.WithContext(usecase.WithSessionID(r.Context(), sid)))
	})
}
