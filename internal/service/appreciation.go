// Package service holds the application's business rules.
//
//	Handler (HTTP)  → parses forms, renders pages, sets cookies
//	Service         → validates, orchestrates store calls, logs
//	Repository/Blob → talks to the record store and the object store
//
// Services depend on the repository and storage interfaces, never on a
// concrete backend, so tests run against in-memory fakes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/kudos/internal/apperror"
	"github.com/sakif/kudos/internal/metrics"
	"github.com/sakif/kudos/internal/model"
	"github.com/sakif/kudos/internal/repository"
	"github.com/sakif/kudos/internal/storage"
)

const (
	// ImageBucket holds every appreciation image, each under ImagePrefix.
	ImageBucket = "appreciation-images"
	ImagePrefix = "appreciation-images"

	// MaxImageBytes is inclusive: an image of exactly 1MB is accepted.
	MaxImageBytes = 1 << 20

	cleanupTimeout = 10 * time.Second
)

// User-facing messages. The handlers show these verbatim in toasts.
const (
	MsgSelectEmployee = "Please select an employee to appreciate"
	MsgImageTooLarge  = "File too large: please select an image under 1MB"
	MsgNameRequired   = "Please enter your name"
	MsgEmailRequired  = "Please enter your email"
	MsgMessageEmpty   = "Please write a message"
)

// Image is an optional attachment as received from the form.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SubmitInput is one form submission. Employee is nil when the visitor has
// not picked anyone.
type SubmitInput struct {
	Employee    *model.DirectoryEntry
	ClientName  string
	ClientEmail string
	Message     string
	Image       *Image
}

type SubmitResult struct {
	Appreciation *model.Appreciation
	// Message is the confirmation shown to the visitor.
	Message string
}

// AppreciationService runs the submission pipeline:
//
//	validate → upload image (optional) → insert row
//
// The upload and the insert are not atomic. When the insert fails after a
// successful upload, Submit makes one attempt to delete the uploaded object.
type AppreciationService struct {
	repo     repository.AppreciationRepository
	blobs    storage.BlobStore
	logger   *slog.Logger
	newToken func() string
}

func NewAppreciationService(repo repository.AppreciationRepository, blobs storage.BlobStore, logger *slog.Logger) *AppreciationService {
	return &AppreciationService{
		repo:   repo,
		blobs:  blobs,
		logger: logger,
		newToken: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}
}

// Submit validates in, stores the optional image, and inserts the
// appreciation. Validation failures return apperror.ErrValidation before any
// store is touched; store failures return apperror.ErrUnavailable carrying
// the store's message.
func (s *AppreciationService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if err := validateSubmission(in); err != nil {
		metrics.AppreciationsSubmitted.WithLabelValues("invalid").Inc()
		return nil, err
	}

	a := &model.Appreciation{
		EmployeeID:  in.Employee.ID,
		ClientName:  strings.TrimSpace(in.ClientName),
		ClientEmail: strings.TrimSpace(in.ClientEmail),
		Message:     in.Message,
	}

	var objectPath string
	if in.Image != nil {
		objectPath = path.Join(ImagePrefix, s.objectName(in.Image.Filename))

		url, err := s.blobs.Upload(ctx, ImageBucket, objectPath, in.Image.Data, contentType(in.Image))
		if err != nil {
			metrics.AppreciationsSubmitted.WithLabelValues("upload_failed").Inc()
			s.logger.Error("image upload failed",
				slog.String("employeeID", a.EmployeeID),
				slog.String("path", objectPath),
				slog.String("error", err.Error()),
			)
			return nil, apperror.Unavailable("Image upload", err)
		}
		metrics.ImageUploadBytes.Observe(float64(len(in.Image.Data)))
		a.ImageURL = &url
	}

	if err := s.repo.CreateAppreciation(ctx, a); err != nil {
		metrics.AppreciationsSubmitted.WithLabelValues("insert_failed").Inc()
		s.logger.Error("appreciation insert failed",
			slog.String("employeeID", a.EmployeeID),
			slog.String("error", err.Error()),
		)
		if objectPath != "" {
			s.discardImage(objectPath)
		}
		return nil, apperror.Unavailable("Saving appreciation", err)
	}

	metrics.AppreciationsSubmitted.WithLabelValues("ok").Inc()
	s.logger.Info("appreciation submitted",
		slog.String("id", a.ID),
		slog.String("employeeID", a.EmployeeID),
		slog.Bool("hasImage", a.ImageURL != nil),
	)

	return &SubmitResult{
		Appreciation: a,
		Message:      fmt.Sprintf("Your appreciation for %s has been submitted.", in.Employee.FullName),
	}, nil
}

func validateSubmission(in SubmitInput) error {
	if in.Employee == nil || in.Employee.ID == "" {
		return apperror.ValidationFailed("employee", MsgSelectEmployee)
	}
	if strings.TrimSpace(in.ClientName) == "" {
		return apperror.ValidationFailed("clientName", MsgNameRequired)
	}
	if strings.TrimSpace(in.ClientEmail) == "" {
		return apperror.ValidationFailed("clientEmail", MsgEmailRequired)
	}
	if strings.TrimSpace(in.Message) == "" {
		return apperror.ValidationFailed("message", MsgMessageEmpty)
	}
	if in.Image != nil && len(in.Image.Data) > MaxImageBytes {
		return apperror.ValidationFailed("image", MsgImageTooLarge)
	}
	return nil
}

// objectName is a random token plus the original file's extension, so two
// uploads of "photo.png" never collide.
func (s *AppreciationService) objectName(filename string) string {
	return s.newToken() + strings.ToLower(filepath.Ext(filename))
}

// discardImage removes an image whose row was never written. It runs on a
// fresh context: the request context may already be cancelled, and that is
// often why the insert failed.
func (s *AppreciationService) discardImage(objectPath string) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if err := s.blobs.Delete(ctx, ImageBucket, objectPath); err != nil {
		metrics.OrphanedBlobs.Inc()
		s.logger.Error("orphaned image left in store",
			slog.String("bucket", ImageBucket),
			slog.String("path", objectPath),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Info("removed image after failed insert", slog.String("path", objectPath))
}

func contentType(img *Image) string {
	if img.ContentType != "" && img.ContentType != "application/octet-stream" {
		return img.ContentType
	}
	return http.DetectContentType(img.Data)
}
