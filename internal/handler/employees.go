package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/kudos/internal/directory"
)

// EmployeesHandler exposes the directory search as JSON for scripts and the
// form's progressive enhancement.
type EmployeesHandler struct {
	directory *directory.Loader
	logger    *slog.Logger
}

func NewEmployeesHandler(dir *directory.Loader, logger *slog.Logger) *EmployeesHandler {
	return &EmployeesHandler{directory: dir, logger: logger}
}

// HandleSearch returns the entries matching q (all entries when q is empty)
// in directory order.
//
// HTTP: GET /api/employees?q=<search>
func (h *EmployeesHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	dir, err := h.directory.Load(r.Context())
	if err != nil {
		h.logger.Error("loading employee directory failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dir.Search(r.URL.Query().Get("q")))
}
