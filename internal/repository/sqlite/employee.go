package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/kudos/internal/apperror"
	"github.com/sakif/kudos/internal/model"
)

// CreateEmployee inserts a new employee. ID and CreatedAt are assigned here.
func (db *DB) CreateEmployee(ctx context.Context, employee *model.Employee) error {
	employee.ID = xid.New().String()
	employee.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, full_name, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		employee.ID,
		employee.Email,
		employee.FullName,
		employee.PasswordHash,
		employee.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("employee", employee.Email)
		}
		return fmt.Errorf("sqlite: creating employee: %w", err)
	}

	return nil
}

// GetEmployeeByID retrieves an employee by internal ID.
// Returns apperror.ErrNotFound if no employee exists with that ID.
func (db *DB) GetEmployeeByID(ctx context.Context, id string) (*model.Employee, error) {
	return db.getEmployee(ctx, "id", id)
}

// GetEmployeeByEmail is used by login. Emails are stored lower-cased by the
// auth service, so the comparison here is exact.
func (db *DB) GetEmployeeByEmail(ctx context.Context, email string) (*model.Employee, error) {
	return db.getEmployee(ctx, "email", email)
}

func (db *DB) getEmployee(ctx context.Context, column, value string) (*model.Employee, error) {
	var e model.Employee

	// column is one of two constants chosen above, never user input.
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, full_name, password_hash, created_at
		 FROM users WHERE `+column+` = ?`,
		value,
	).Scan(&e.ID, &e.Email, &e.FullName, &e.PasswordHash, &e.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("employee", value)
		}
		return nil, fmt.Errorf("sqlite: getting employee by %s: %w", column, err)
	}

	return &e, nil
}

// ListDirectory returns every employee as a directory entry.
func (db *DB) ListDirectory(ctx context.Context) ([]model.DirectoryEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, email, full_name
		 FROM users
		 ORDER BY full_name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing directory: %w", err)
	}
	defer rows.Close()

	entries := []model.DirectoryEntry{}
	for rows.Next() {
		var e model.DirectoryEntry
		if err := rows.Scan(&e.ID, &e.Email, &e.FullName); err != nil {
			return nil, fmt.Errorf("sqlite: scanning directory row: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating directory: %w", err)
	}

	return entries, nil
}
