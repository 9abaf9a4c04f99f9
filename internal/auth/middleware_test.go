package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := EmployeeIDFromContext(r.Context())
		w.Write([]byte("ok:" + id))
	})
}

func requestWithSession(t *testing.T, ts *TokenService, target string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	token, err := ts.Generate("emp-1")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	return req
}

func TestLoadSession(t *testing.T) {
	ts := newTestTokenService(t)
	h := LoadSession(ts)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithSession(t, ts, "/"))
	assert.Equal(t, "ok:emp-1", rec.Body.String())

	// An invalid cookie is ignored, not rejected.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok:", rec.Body.String())
}

func TestRedirectIfSession(t *testing.T) {
	ts := newTestTokenService(t)
	h := LoadSession(ts)(RedirectIfSession("/dashboard")(okHandler()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithSession(t, ts, "/login"))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireSession(t *testing.T) {
	ts := newTestTokenService(t)
	h := LoadSession(ts)(RequireSession("/login")(okHandler()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, requestWithSession(t, ts, "/dashboard"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok:emp-1", rec.Body.String())
}

func TestRequireSignupSecret(t *testing.T) {
	ts := newTestTokenService(t)
	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	newRouter := func(secret string) http.Handler {
		r := chi.NewRouter()
		r.Use(LoadSession(ts))
		r.With(RequireSignupSecret(secret, notFound), RedirectIfSession("/dashboard")).
			Get("/signup/{secret}", okHandler().ServeHTTP)
		return r
	}

	tests := []struct {
		name       string
		secret     string
		path       string
		session    bool
		wantStatus int
	}{
		{"wrong secret, anonymous", "right-token", "/signup/wrong-token", false, http.StatusNotFound},
		{"wrong secret, signed in", "right-token", "/signup/wrong-token", true, http.StatusNotFound},
		{"right secret, anonymous", "right-token", "/signup/right-token", false, http.StatusOK},
		{"right secret, signed in", "right-token", "/signup/right-token", true, http.StatusSeeOther},
		{"unset secret never matches", "", "/signup/", false, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.session {
				req = requestWithSession(t, ts, tt.path)
			} else {
				req = httptest.NewRequest(http.MethodGet, tt.path, nil)
			}
			rec := httptest.NewRecorder()
			newRouter(tt.secret).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestSecretMatches(t *testing.T) {
	assert.True(t, SecretMatches("abc", "abc"))
	assert.False(t, SecretMatches("abc", "abd"))
	assert.False(t, SecretMatches("abc", "ab"))
	assert.False(t, SecretMatches("", ""))
}

func TestSessionCookies(t *testing.T) {
	ts := newTestTokenService(t)

	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "tok", ts, true)
	c := rec.Result().Cookies()[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, 7*24*60*60, c.MaxAge)

	rec = httptest.NewRecorder()
	ClearSessionCookie(rec, false)
	c = rec.Result().Cookies()[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, -1, c.MaxAge)
}
