// Package handler contains the HTTP handlers: server-rendered pages for the
// appreciation form, login, signup and dashboard, plus a small JSON API.
//
// Handlers parse the request, call a service, and render the result. They
// hold no business rules; validation and store access live in service.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/kudos/internal/auth"
	"github.com/sakif/kudos/internal/service"
)

// Page names, one template file each.
const (
	pageHome      = "home"
	pageLogin     = "login"
	pageSignup    = "signup"
	pageDashboard = "dashboard"
	pageNotFound  = "404"
)

// Toast is the notification shown after an action. Kind is "success" or
// "error".
type Toast struct {
	Kind    string
	Message string
}

func successToast(msg string) *Toast { return &Toast{Kind: "success", Message: msg} }
func errorToast(msg string) *Toast   { return &Toast{Kind: "error", Message: msg} }

// Page carries the fields base.html needs. Page data structs embed it.
type Page struct {
	Title    string
	Toast    *Toast
	SignedIn bool
}

func newPage(r *http.Request, title string) Page {
	_, signedIn := auth.EmployeeIDFromContext(r.Context())
	return Page{Title: title, SignedIn: signedIn}
}

// Renderer holds one parsed template set per page, each made of base.html
// and the page's own file. Templates are parsed once at startup.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses every page from templates. Dates are rendered in loc.
func NewRenderer(templates fs.FS, loc *time.Location, logger *slog.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"preview":    service.Preview,
		"formatDate": func(t time.Time) string { return service.FormatDate(t, loc) },
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	r := &Renderer{pages: make(map[string]*template.Template), logger: logger}
	for _, name := range []string{pageHome, pageLogin, pageSignup, pageDashboard, pageNotFound} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templates, "base.html", name+".html")
		if err != nil {
			return nil, fmt.Errorf("handler: parsing %s template: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render executes page into a buffer first, so a template error turns into
// a clean 500 rather than half a page.
func (rd *Renderer) Render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, ok := rd.pages[page]
	if !ok {
		rd.logger.Error("unknown page", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		rd.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// NotFound renders the 404 page. It is also the router's NotFound handler.
func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rd.Render(w, http.StatusNotFound, pageNotFound, newPage(r, "Not found"))
}
