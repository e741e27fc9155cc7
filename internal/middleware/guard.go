package middleware

import (
	"net/http"

	"github.com/hongminglow/earn-portal/internal/session"
)

// RequireSession redirects to /login when the browser holds no session,
// otherwise it stores the session on the request context.
func RequireSession(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := sessions.Load(r)
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), s)))
		})
	}
}

// RequireAdmin sends non-admins back to the dashboard with an access denied notice.
// It must run after RequireSession.
func RequireAdmin(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := session.FromContext(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !s.User.IsAdmin {
				sessions.SetFlash(w, session.Flash{
					Variant:     session.FlashDestructive,
					Title:       "Access denied",
					Description: "This section is for administrators only",
				})
				http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
