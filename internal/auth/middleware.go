package auth

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CookieName is the session cookie.
const CookieName = "kudos_session"

// contextKey is unexported so no other package can read or overwrite the
// employee ID stored by LoadSession.
type contextKey string

const employeeIDKey contextKey = "employeeID"

// LoadSession validates the session cookie, if any, and stores the employee
// ID in the request context. It never blocks a request: a missing or invalid
// cookie just means "no session".
//
// Mount it before any of the redirect middlewares below.
func LoadSession(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(CookieName); err == nil {
				if id, err := tokens.Validate(cookie.Value); err == nil {
					r = r.WithContext(WithEmployeeID(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RedirectIfSession sends visitors who already have a session to target.
// Used on the public form and the login page.
func RedirectIfSession(target string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := EmployeeIDFromContext(r.Context()); ok {
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession sends visitors without a session to target.
func RequireSession(target string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := EmployeeIDFromContext(r.Context()); !ok {
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSignupSecret guards the /signup/{secret} routes. When the URL
// segment does not match secret the request is answered by notFound, whether
// or not a session is present. An empty configured secret matches nothing.
func RequireSignupSecret(secret string, notFound http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !SecretMatches(secret, chi.URLParam(r, "secret")) {
				notFound.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecretMatches compares in constant time.
func SecretMatches(want, got string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// WithEmployeeID returns a copy of ctx carrying id. Handler tests use it to
// fake a signed-in request.
func WithEmployeeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, employeeIDKey, id)
}

// EmployeeIDFromContext returns ("", false) for anonymous requests.
func EmployeeIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(employeeIDKey).(string)
	return id, ok && id != ""
}

// SetSessionCookie stores token in the session cookie. secure should be true
// whenever the site is served over HTTPS.
func SetSessionCookie(w http.ResponseWriter, token string, tokens *TokenService, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokens.Lifetime().Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
