package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/kudos/internal/model"
)

// CreateAppreciation inserts one appreciation row. ID and CreatedAt are
// assigned here, standing in for the hosted store's column defaults.
//
// Timestamps are stored in UTC so that ORDER BY created_at compares
// strings with the same offset.
func (db *DB) CreateAppreciation(ctx context.Context, a *model.Appreciation) error {
	a.ID = xid.New().String()
	a.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO appreciations
		   (id, employee_id, client_name, client_email, message, image_url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.EmployeeID,
		a.ClientName,
		a.ClientEmail,
		a.Message,
		nullString(a.ImageURL),
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating appreciation: %w", err)
	}

	return nil
}

// ListByEmployee returns every appreciation addressed to employeeID, newest
// first. There is no LIMIT: the dashboard shows them all.
//
// xid ids are time-ordered, so "id DESC" breaks created_at ties the same way.
func (db *DB) ListByEmployee(ctx context.Context, employeeID string) ([]model.Appreciation, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, employee_id, client_name, client_email, message, image_url, created_at
		 FROM appreciations
		 WHERE employee_id = ?
		 ORDER BY created_at DESC, id DESC`,
		employeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing appreciations for %s: %w", employeeID, err)
	}
	defer rows.Close()

	appreciations := []model.Appreciation{}
	for rows.Next() {
		var (
			a        model.Appreciation
			imageURL sql.NullString
		)
		if err := rows.Scan(
			&a.ID, &a.EmployeeID, &a.ClientName, &a.ClientEmail,
			&a.Message, &imageURL, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning appreciation row: %w", err)
		}
		if imageURL.Valid {
			url := imageURL.String
			a.ImageURL = &url
		}
		appreciations = append(appreciations, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating appreciations: %w", err)
	}

	return appreciations, nil
}

// nullString maps a nil pointer to SQL NULL.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
