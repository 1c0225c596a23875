package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/factshield/factshield/internal/domain"
	"github.com/factshield/factshield/internal/flash"
	"github.com/factshield/factshield/internal/logger"
)

const SessionCookieName = "session"

type SessionResolver interface {
	Session(ctx context.Context, token string) (domain.Session, error)
}

type key int

const sessionKey key = 0

// Auth resolves the session cookie into a domain.Session stored in the
// request context.
type Auth struct {
	resolver      SessionResolver
	secureCookies bool
}

func NewAuth(resolver SessionResolver, secureCookies bool) *Auth {
	return &Auth{resolver: resolver, secureCookies: secureCookies}
}

// OptionalSession populates the context when a valid session cookie is
// present and never rejects the request.
func (a *Auth) OptionalSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess, ok := a.extractSession(r); ok {
				r = r.WithContext(WithSession(r.Context(), sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession redirects to /login unless the request carries a valid
// session.
func (a *Auth) RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := SessionFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}
			sess, ok := a.extractSession(r)
			if !ok {
				flash.Set(w, flash.KindError, "Please log in to continue", a.secureCookies)
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequirePasswordChange sends sessions flagged for a password change to
// changePath. changePath itself and logout stay reachable.
func RequirePasswordChange(changePath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if ok && sess.MustChangePassword && r.URL.Path != changePath && r.URL.Path != "/logout" {
				http.Redirect(w, r, changePath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Auth) extractSession(r *http.Request) (domain.Session, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return domain.Session{}, false
	}
	sess, err := a.resolver.Session(r.Context(), cookie.Value)
	if err != nil {
		logger.Log.Debug("session rejected", "path", r.URL.Path, "error", err)
		return domain.Session{}, false
	}
	return sess, true
}

func WithSession(ctx context.Context, sess domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(domain.Session)
	return sess, ok
}

func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
