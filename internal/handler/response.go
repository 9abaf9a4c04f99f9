package handler

// Response helpers shared by the JSON endpoints and the pages.
//
// JSON errors always have the same shape:
//
//	{"error": "validation_error", "message": "Please select an employee to appreciate"}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/kudos/internal/apperror"
)

// genericErrorMessage is shown for any failure that is not an AppError.
// Store failures wrapped with apperror.Unavailable keep the store's own
// message, which is shown as-is.
const genericErrorMessage = "An error occurred"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a domain error to an HTTP status and a machine-readable type.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrUnavailable):
		return http.StatusBadGateway, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError writes err as a JSON error response.
func writeError(w http.ResponseWriter, err error) {
	status, errorType := statusFor(err)
	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: apperror.UserMessage(err, genericErrorMessage),
	})
}

// HandleHealth is the liveness probe.
//
// HTTP: GET /healthz
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
