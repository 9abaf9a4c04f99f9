package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/kudos/internal/model"
)

func (db *DB) CreateAppreciation(ctx context.Context, a *model.Appreciation) error {
	id := xid.New().String()

	var imageURL sql.NullString
	if a.ImageURL != nil {
		imageURL = sql.NullString{String: *a.ImageURL, Valid: true}
	}

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO appreciations (id, employee_id, client_name, client_email, message, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		id, a.EmployeeID, a.ClientName, a.ClientEmail, a.Message, imageURL,
	).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: creating appreciation: %w", err)
	}

	a.ID = id
	return nil
}

func (db *DB) ListByEmployee(ctx context.Context, employeeID string) ([]model.Appreciation, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, employee_id, client_name, client_email, message, image_url, created_at
		 FROM appreciations
		 WHERE employee_id = $1
		 ORDER BY created_at DESC, id DESC`,
		employeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing appreciations for %s: %w", employeeID, err)
	}
	defer rows.Close()

	out := []model.Appreciation{}
	for rows.Next() {
		var (
			a        model.Appreciation
			imageURL sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.EmployeeID, &a.ClientName, &a.ClientEmail,
			&a.Message, &imageURL, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scanning appreciation row: %w", err)
		}
		if imageURL.Valid {
			a.ImageURL = &imageURL.String
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating appreciations: %w", err)
	}
	return out, nil
}
