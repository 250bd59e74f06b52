package handlers

import (
	"context"
	"net/http"
	"time"

	"learning-hub/internal/hub/auth"
)

// SessionCookie carries the session token.
const SessionCookie = "sessionid"

type sessionKey struct{}

// SessionFrom returns the session attached by Identify.
func SessionFrom(ctx context.Context) (auth.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(auth.Session)
	return s, ok
}

func userFrom(r *http.Request) string {
	s, _ := SessionFrom(r.Context())
	return s.User
}

// Identify attaches the visitor's session to the request, starting a guest
// session when the cookie is missing or expired.
func Identify(sessions *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				session auth.Session
				ok      bool
			)
			if c, err := r.Cookie(SessionCookie); err == nil {
				session, ok = sessions.Lookup(c.Value)
			}
			if !ok {
				session = sessions.Guest()
				setSessionCookie(w, session)
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, session)))
		})
	}
}

func setSessionCookie(w http.ResponseWriter, s auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// RequireAdmin rejects requests whose session is not an administrator.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s, ok := SessionFrom(r.Context()); !ok || !s.Admin {
			respondFailure(w, http.StatusForbidden, "Administrator access required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
