package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/kudos/internal/apperror"
	"github.com/sakif/kudos/internal/auth"
	"github.com/sakif/kudos/internal/model"
	"github.com/sakif/kudos/internal/service"
)

type DashboardData struct {
	Page
	Employee      *model.Employee
	Appreciations []model.Appreciation
	ReferralLink  string
}

type DashboardHandler struct {
	dashboards *service.DashboardService
	// publicSiteURL overrides the request origin in referral links.
	publicSiteURL string
	secureCookies bool
	renderer      *Renderer
	logger        *slog.Logger
}

func NewDashboardHandler(
	dashboards *service.DashboardService,
	publicSiteURL string,
	secureCookies bool,
	renderer *Renderer,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		dashboards:    dashboards,
		publicSiteURL: publicSiteURL,
		secureCookies: secureCookies,
		renderer:      renderer,
		logger:        logger,
	}
}

// HandleDashboard shows the signed-in employee's appreciations, newest
// first, and their referral link. The route is behind RequireSession.
//
// HTTP: GET /dashboard
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	employeeID, _ := auth.EmployeeIDFromContext(r.Context())

	d, err := h.dashboards.Load(r.Context(), employeeID, h.origin(r))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// A valid session for an account that no longer exists.
			auth.ClearSessionCookie(w, h.secureCookies)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.logger.Error("loading dashboard failed",
			slog.String("employeeID", employeeID),
			slog.String("error", err.Error()),
		)
		http.Error(w, genericErrorMessage, http.StatusInternalServerError)
		return
	}

	data := DashboardData{
		Page:          newPage(r, "Kudos - Dashboard"),
		Employee:      d.Employee,
		Appreciations: d.Appreciations,
		ReferralLink:  d.ReferralLink,
	}
	if d.RetrievalFailed {
		data.Toast = errorToast("Could not load your appreciations")
	}

	h.renderer.Render(w, http.StatusOK, pageDashboard, data)
}

// origin is the configured public URL, or else the scheme and host this
// request was made to.
func (h *DashboardHandler) origin(r *http.Request) string {
	if h.publicSiteURL != "" {
		return h.publicSiteURL
	}
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
