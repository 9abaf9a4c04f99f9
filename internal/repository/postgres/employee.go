package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/kudos/internal/apperror"
	"github.com/sakif/kudos/internal/model"
)

// CreateEmployee inserts employee. The id is generated here; created_at comes
// from the column default and is read back with RETURNING.
func (db *DB) CreateEmployee(ctx context.Context, employee *model.Employee) error {
	id := xid.New().String()

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO users (id, email, full_name, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		id, employee.Email, employee.FullName, employee.PasswordHash,
	).Scan(&employee.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("employee", employee.Email)
		}
		return fmt.Errorf("postgres: creating employee: %w", err)
	}

	employee.ID = id
	return nil
}

func (db *DB) GetEmployeeByID(ctx context.Context, id string) (*model.Employee, error) {
	return db.getEmployee(ctx,
		`SELECT id, email, full_name, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (db *DB) GetEmployeeByEmail(ctx context.Context, email string) (*model.Employee, error) {
	return db.getEmployee(ctx,
		`SELECT id, email, full_name, password_hash, created_at FROM users WHERE email = $1`, email)
}

func (db *DB) getEmployee(ctx context.Context, query, key string) (*model.Employee, error) {
	var e model.Employee
	err := db.conn.QueryRowContext(ctx, query, key).
		Scan(&e.ID, &e.Email, &e.FullName, &e.PasswordHash, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("employee", key)
		}
		return nil, fmt.Errorf("postgres: getting employee: %w", err)
	}
	return &e, nil
}

func (db *DB) ListDirectory(ctx context.Context) ([]model.DirectoryEntry, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, email, full_name FROM users ORDER BY full_name, id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing directory: %w", err)
	}
	defer rows.Close()

	entries := []model.DirectoryEntry{}
	for rows.Next() {
		var e model.DirectoryEntry
		if err := rows.Scan(&e.ID, &e.Email, &e.FullName); err != nil {
			return nil, fmt.Errorf("postgres: scanning directory row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating directory: %w", err)
	}
	return entries, nil
}
