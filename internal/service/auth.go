package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/kudos/internal/apperror"
	"github.com/sakif/kudos/internal/auth"
	"github.com/sakif/kudos/internal/metrics"
	"github.com/sakif/kudos/internal/model"
	"github.com/sakif/kudos/internal/repository"
)

// MsgInvalidCredentials never says which of email or password was wrong.
const MsgInvalidCredentials = "Invalid email or password"

// DirectoryInvalidator is satisfied by *directory.Loader. A new employee must
// show up in the public picker without waiting for the cache TTL.
type DirectoryInvalidator interface {
	Invalidate(ctx context.Context)
}

// AuthService creates employee accounts and signs employees in.
//
//	AuthHandler → AuthService → EmployeeRepository
//	                          ↘ PasswordService (bcrypt)
//	                          ↘ TokenService (session JWT)
type AuthService struct {
	employees repository.EmployeeRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	directory DirectoryInvalidator
	logger    *slog.Logger
}

func NewAuthService(
	employees repository.EmployeeRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	directory DirectoryInvalidator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		employees: employees,
		tokens:    tokens,
		passwords: passwords,
		directory: directory,
		logger:    logger,
	}
}

// AuthResult bundles the employee with a freshly issued session token, so
// the handler can set the cookie and redirect in one step.
type AuthResult struct {
	Employee *model.Employee
	Token    string
}

type SignupInput struct {
	FullName string
	Email    string
	Password string
}

// Signup registers a new employee and signs them in. The signup secret is
// checked by the router before this is reached.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := normalizeEmail(in.Email)

	switch {
	case fullName == "":
		return nil, apperror.ValidationFailed("fullName", "Please enter your full name")
	case email == "":
		return nil, apperror.ValidationFailed("email", "Please enter your email")
	case in.Password == "":
		return nil, apperror.ValidationFailed("password", "Please enter a password")
	}

	if err := auth.CheckStrength(in.Password); err != nil {
		msg := fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength)
		if errors.Is(err, auth.ErrPasswordTooLong) {
			msg = fmt.Sprintf("Password must be %d bytes or fewer", auth.MaxPasswordBytes)
		}
		return nil, apperror.ValidationFailed("password", msg)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	employee := &model.Employee{FullName: fullName, Email: email, PasswordHash: hash}
	if err := s.employees.CreateEmployee(ctx, employee); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("email", "An account with this email already exists")
		}
		return nil, fmt.Errorf("service/auth: creating employee: %w", err)
	}

	if s.directory != nil {
		s.directory.Invalidate(ctx)
	}

	s.logger.Info("employee signed up", slog.String("employeeID", employee.ID))

	return s.issue(employee)
}

// Login checks email and password. Unknown emails and wrong passwords both
// return apperror.ErrUnauthorized with MsgInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	employee, err := s.employees.GetEmployeeByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			metrics.Logins.WithLabelValues("failed").Inc()
			return nil, apperror.Unauthorized(MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up employee: %w", err)
	}

	if err := s.passwords.Verify(employee.PasswordHash, password); err != nil {
		metrics.Logins.WithLabelValues("failed").Inc()
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("stored password hash is unusable",
				slog.String("employeeID", employee.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperror.Unauthorized(MsgInvalidCredentials)
	}

	metrics.Logins.WithLabelValues("ok").Inc()
	s.logger.Info("employee logged in", slog.String("employeeID", employee.ID))

	return s.issue(employee)
}

func (s *AuthService) issue(employee *model.Employee) (*AuthResult, error) {
	token, err := s.tokens.Generate(employee.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing session for %s: %w", employee.ID, err)
	}
	return &AuthResult{Employee: employee, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
