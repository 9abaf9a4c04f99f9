// Package repository declares the record store contracts. Services depend on
// these interfaces; sqlite and postgres provide the implementations.
package repository

import (
	"context"

	"github.com/sakif/kudos/internal/model"
)

type EmployeeRepository interface {
	// CreateEmployee assigns ID and CreatedAt. A duplicate email returns
	// apperror.ErrConflict.
	CreateEmployee(ctx context.Context, employee *model.Employee) error
	GetEmployeeByID(ctx context.Context, id string) (*model.Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*model.Employee, error)
	// ListDirectory returns every employee ordered by full name, then id.
	ListDirectory(ctx context.Context) ([]model.DirectoryEntry, error)
}

type AppreciationRepository interface {
	// CreateAppreciation assigns ID and CreatedAt.
	CreateAppreciation(ctx context.Context, appreciation *model.Appreciation) error
	// ListByEmployee returns every appreciation for employeeID, newest first.
	ListByEmployee(ctx context.Context, employeeID string) ([]model.Appreciation, error)
}

// Store is the full record store, as opened by the server.
type Store interface {
	EmployeeRepository
	AppreciationRepository
	Close() error
}
