package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("employee", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("employee", "Please select an employee to appreciate"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("employee", "jane@example.com"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid email or password"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Unavailable wraps ErrUnavailable",
			err:       Unavailable("image upload", errors.New("bucket not found")),
			target:    ErrUnavailable,
			wantMatch: true,
		},
		{
			name:      "wrapped NotFound still matches",
			err:       fmt.Errorf("loading dashboard: %w", NotFound("employee", "abc123")),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("employee", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("employee", "abc123"),
			wantMessage: "employee not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("message", "message is required"),
			wantMessage: "message is required",
		},
		{
			name:        "Conflict message includes resource and key",
			err:         Conflict("employee", "jane@example.com"),
			wantMessage: "employee already exists: jane@example.com",
		},
		{
			name:        "Unavailable keeps the store message",
			err:         Unavailable("image upload", errors.New("bucket not found")),
			wantMessage: "image upload failed: bucket not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("employee", "abc123")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("image", "File too large")
	if err.Field != "image" {
		t.Errorf("Field = %q, want %q", err.Field, "image")
	}
}

func TestUserMessage(t *testing.T) {
	wrapped := fmt.Errorf("submitting: %w", ValidationFailed("employee", "Please select an employee to appreciate"))
	if got := UserMessage(wrapped, "An error occurred"); got != "Please select an employee to appreciate" {
		t.Errorf("UserMessage(AppError) = %q", got)
	}
	if got := UserMessage(errors.New("driver: bad connection"), "An error occurred"); got != "An error occurred" {
		t.Errorf("UserMessage(plain) = %q, want fallback", got)
	}
}
