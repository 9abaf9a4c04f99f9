package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/kudos/internal/apperror"
	"github.com/sakif/kudos/internal/auth"
	"github.com/sakif/kudos/internal/service"
)

type LoginData struct {
	Page
	Email string
}

type SignupData struct {
	Page
	Secret   string
	FullName string
	Email    string
}

// AuthHandler serves login, signup and signout.
//
// Successful login or signup sets the session cookie and redirects to the
// dashboard with 303 See Other, so a browser refresh does not re-post the
// form. Access rules (who may see which page) are applied by the router.
type AuthHandler struct {
	accounts      *service.AuthService
	tokens        *auth.TokenService
	renderer      *Renderer
	secureCookies bool
	logger        *slog.Logger
}

func NewAuthHandler(
	accounts *service.AuthService,
	tokens *auth.TokenService,
	renderer *Renderer,
	secureCookies bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts:      accounts,
		tokens:        tokens,
		renderer:      renderer,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// HTTP: GET /login
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, pageLogin, LoginData{Page: newPage(r, "Kudos - Log in")})
}

// HTTP: POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")

	res, err := h.accounts.Login(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		data := LoginData{Page: newPage(r, "Kudos - Log in"), Email: email}
		status, toast := h.failure(r, err)
		data.Toast = toast
		h.renderer.Render(w, status, pageLogin, data)
		return
	}

	auth.SetSessionCookie(w, res.Token, h.tokens, h.secureCookies)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HTTP: GET /signup/{secret}
func (h *AuthHandler) HandleSignupForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, pageSignup, SignupData{
		Page:   newPage(r, "Kudos - Sign up"),
		Secret: chi.URLParam(r, "secret"),
	})
}

// HTTP: POST /signup/{secret}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	in := service.SignupInput{
		FullName: r.PostFormValue("full_name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	res, err := h.accounts.Signup(r.Context(), in)
	if err != nil {
		data := SignupData{
			Page:     newPage(r, "Kudos - Sign up"),
			Secret:   chi.URLParam(r, "secret"),
			FullName: in.FullName,
			Email:    in.Email,
		}
		status, toast := h.failure(r, err)
		data.Toast = toast
		h.renderer.Render(w, status, pageSignup, data)
		return
	}

	auth.SetSessionCookie(w, res.Token, h.tokens, h.secureCookies)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleSignout clears the session cookie. The token itself stays valid
// until it expires; there is no server-side revocation list.
//
// HTTP: POST /auth/signout
func (h *AuthHandler) HandleSignout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secureCookies)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// failure maps err to a status and an error toast. Unexpected errors are
// logged; their text is not shown.
func (h *AuthHandler) failure(r *http.Request, err error) (int, *Toast) {
	status, _ := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("auth request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	return status, errorToast(apperror.UserMessage(err, genericErrorMessage))
}
