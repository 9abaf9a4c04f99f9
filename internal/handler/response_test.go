package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/kudos/internal/apperror"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", apperror.ValidationFailed("message", "Message is required"), http.StatusBadRequest},
		{"unauthorized", apperror.Unauthorized("Invalid email or password"), http.StatusUnauthorized},
		{"not found", apperror.NotFound("employee", "abc"), http.StatusNotFound},
		{"conflict", apperror.Conflict("employee", "jane@example.com"), http.StatusConflict},
		{"store failure", apperror.Unavailable("Image upload", errors.New("bucket not found")), http.StatusBadGateway},
		{"wrapped store failure", fmt.Errorf("submitting: %w", apperror.Unavailable("Saving appreciation", errors.New("disk full"))), http.StatusBadGateway},
		{"plain error", errors.New("driver: bad connection"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := statusFor(tt.err)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}
