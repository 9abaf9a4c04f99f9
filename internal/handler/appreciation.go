package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/kudos/internal/apperror"
	"github.com/sakif/kudos/internal/directory"
	"github.com/sakif/kudos/internal/model"
	"github.com/sakif/kudos/internal/service"
)

const (
	// maxFormBytes bounds the whole multipart body. It is well above
	// service.MaxImageBytes so an oversize image still reaches the service
	// check and gets the friendly message.
	maxFormBytes = 8 << 20

	// maxFormMemory is how much of the form is held in memory before
	// ParseMultipartForm spills file parts to disk.
	maxFormMemory = 2 << 20
)

// SubmitForm holds the free-text fields of the appreciation form.
type SubmitForm struct {
	ClientName  string
	ClientEmail string
	Message     string
}

type HomeData struct {
	Page
	Employees     []model.DirectoryEntry
	Query         string
	Ref           string
	SelectedID    string
	Form          SubmitForm
	MaxImageBytes int
}

// AppreciationHandler serves the public submission form.
type AppreciationHandler struct {
	submissions *service.AppreciationService
	directory   *directory.Loader
	renderer    *Renderer
	logger      *slog.Logger
}

func NewAppreciationHandler(
	submissions *service.AppreciationService,
	dir *directory.Loader,
	renderer *Renderer,
	logger *slog.Logger,
) *AppreciationHandler {
	return &AppreciationHandler{
		submissions: submissions,
		directory:   dir,
		renderer:    renderer,
		logger:      logger,
	}
}

// HandleForm renders the submission form.
//
// HTTP: GET /?ref=<employee id>&q=<search>
//
// ref pre-selects an employee from a referral link. An unknown ref selects
// nothing. q filters the employee list by name or email.
func (h *AppreciationHandler) HandleForm(w http.ResponseWriter, r *http.Request) {
	dir := h.loadDirectory(r)

	ref := r.URL.Query().Get("ref")
	query := r.URL.Query().Get("q")

	data := h.homeData(r, dir, query, dir.Find(ref), SubmitForm{})
	data.Ref = ref
	h.renderer.Render(w, http.StatusOK, pageHome, data)
}

// HandleSubmit processes the multipart form and re-renders the page with a
// toast. After a success the text fields are cleared and the selected
// employee stays selected, so a visitor can thank the same person again.
//
// HTTP: POST /appreciations
func (h *AppreciationHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		dir := h.loadDirectory(r)
		data := h.homeData(r, dir, "", nil, SubmitForm{})

		if isBodyTooLarge(err) {
			data.Toast = errorToast(service.MsgImageTooLarge)
			h.renderer.Render(w, http.StatusRequestEntityTooLarge, pageHome, data)
			return
		}
		h.logger.Warn("malformed submission", slog.String("error", err.Error()))
		data.Toast = errorToast("Invalid form submission")
		h.renderer.Render(w, http.StatusBadRequest, pageHome, data)
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := SubmitForm{
		ClientName:  r.FormValue("client_name"),
		ClientEmail: r.FormValue("client_email"),
		Message:     r.FormValue("message"),
	}

	// Unlike the GET form, a failed lookup here must not read as "no
	// employee selected".
	dir, err := h.directory.Load(r.Context())
	if err != nil {
		h.logger.Error("loading employee directory failed", slog.String("error", err.Error()))
		data := h.homeData(r, directory.New(nil), "", nil, form)
		data.Toast = errorToast(apperror.UserMessage(apperror.Unavailable("Loading employees", err), genericErrorMessage))
		h.renderer.Render(w, http.StatusBadGateway, pageHome, data)
		return
	}
	selected := dir.Find(r.FormValue("employee_id"))

	image, err := readImage(r)
	if err != nil {
		h.logger.Warn("reading uploaded image failed", slog.String("error", err.Error()))
		data := h.homeData(r, dir, "", selected, form)
		data.Toast = errorToast("Could not read the uploaded image")
		h.renderer.Render(w, http.StatusBadRequest, pageHome, data)
		return
	}

	result, err := h.submissions.Submit(r.Context(), service.SubmitInput{
		Employee:    selected,
		ClientName:  form.ClientName,
		ClientEmail: form.ClientEmail,
		Message:     form.Message,
		Image:       image,
	})
	if err != nil {
		status, _ := statusFor(err)
		data := h.homeData(r, dir, "", selected, form)
		data.Toast = errorToast(apperror.UserMessage(err, genericErrorMessage))
		h.renderer.Render(w, status, pageHome, data)
		return
	}

	data := h.homeData(r, dir, "", selected, SubmitForm{})
	data.Toast = successToast(result.Message)
	h.renderer.Render(w, http.StatusOK, pageHome, data)
}

// loadDirectory returns a fresh snapshot. A failure is logged and an empty
// directory is used, so the form still renders.
func (h *AppreciationHandler) loadDirectory(r *http.Request) *directory.Directory {
	dir, err := h.directory.Load(r.Context())
	if err != nil {
		h.logger.Error("loading employee directory failed", slog.String("error", err.Error()))
		return directory.New(nil)
	}
	return dir
}

func (h *AppreciationHandler) homeData(r *http.Request, dir *directory.Directory, query string, selected *model.DirectoryEntry, form SubmitForm) HomeData {
	employees := dir.Search(query)

	data := HomeData{
		Page:          newPage(r, "Kudos - Send an appreciation"),
		Query:         query,
		Form:          form,
		MaxImageBytes: service.MaxImageBytes,
	}

	if selected != nil {
		data.SelectedID = selected.ID
		// Keep the selection visible even when the search hides it.
		found := false
		for _, e := range employees {
			if e.ID == selected.ID {
				found = true
				break
			}
		}
		if !found {
			employees = append([]model.DirectoryEntry{*selected}, employees...)
		}
	}

	data.Employees = employees
	return data
}

// isBodyTooLarge reports whether err came from the MaxBytesReader. Some
// multipart read paths return the error without wrapping it.
func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

// readImage returns the uploaded image, or nil when none was attached.
func readImage(r *http.Request) (*service.Image, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &service.Image{
		Filename:    header.Filename,
		ContentType: strings.TrimSpace(header.Header.Get("Content-Type")),
		Data:        data,
	}, nil
}
