package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/kudos/internal/model"
	"github.com/sakif/kudos/internal/repository"
)

const (
	// PreviewLength is counted in characters.
	PreviewLength = 50

	// DateLayout renders e.g. "March 1, 2024 at 2:05 PM".
	DateLayout = "January 2, 2006 at 3:04 PM"
)

// ErrNoOrigin is returned when a referral link is requested without an
// addressable site origin.
var ErrNoOrigin = errors.New("service: referral link needs a site origin")

// Dashboard is everything the employee dashboard page shows.
type Dashboard struct {
	Employee      *model.Employee
	Appreciations []model.Appreciation
	ReferralLink  string
	// RetrievalFailed is set when the appreciation list could not be read;
	// Appreciations is then empty and the page shows an error toast.
	RetrievalFailed bool
}

type DashboardService struct {
	employees     repository.EmployeeRepository
	appreciations repository.AppreciationRepository
	logger        *slog.Logger
}

func NewDashboardService(
	employees repository.EmployeeRepository,
	appreciations repository.AppreciationRepository,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{employees: employees, appreciations: appreciations, logger: logger}
}

// Load builds the dashboard for employeeID. origin is the site's public
// origin, used for the referral link.
//
// An error is returned only when the employee itself cannot be loaded
// (apperror.ErrNotFound for a deleted account). A failure to list the
// appreciations is logged and reported through RetrievalFailed.
func (s *DashboardService) Load(ctx context.Context, employeeID, origin string) (*Dashboard, error) {
	employee, err := s.employees.GetEmployeeByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: loading employee %s: %w", employeeID, err)
	}

	link, err := ReferralLink(origin, employeeID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Employee:      employee,
		ReferralLink:  link,
		Appreciations: []model.Appreciation{},
	}

	list, err := s.appreciations.ListByEmployee(ctx, employeeID)
	if err != nil {
		s.logger.Error("listing appreciations failed",
			slog.String("employeeID", employeeID),
			slog.String("error", err.Error()),
		)
		d.RetrievalFailed = true
		return d, nil
	}

	d.Appreciations = list
	return d, nil
}

// ReferralLink returns origin + "?ref=" + employeeID. A trailing slash on
// origin is dropped.
func ReferralLink(origin, employeeID string) (string, error) {
	origin = strings.TrimRight(origin, "/")
	if origin == "" {
		return "", ErrNoOrigin
	}
	return origin + "?ref=" + employeeID, nil
}

// Preview is the marquee text for a message: its first PreviewLength
// characters followed by "...". The marker is appended even to short
// messages.
func Preview(message string) string {
	if utf8.RuneCountInString(message) <= PreviewLength {
		return message + "..."
	}
	return string([]rune(message)[:PreviewLength]) + "..."
}

// FormatDate renders t in loc (the server's zone when loc is nil).
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}
