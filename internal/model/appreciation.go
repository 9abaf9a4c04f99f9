package model

import "time"

// Appreciation is one client's message of thanks to one employee.
//
// ImageURL is a pointer because the column is nullable: nil means no image
// was attached, which is different from an empty URL.
type Appreciation struct {
	ID          string    `json:"id"          db:"id"`
	EmployeeID  string    `json:"employeeId"  db:"employee_id"`
	ClientName  string    `json:"clientName"  db:"client_name"`
	ClientEmail string    `json:"clientEmail" db:"client_email"`
	Message     string    `json:"message"     db:"message"`
	ImageURL    *string   `json:"imageUrl"    db:"image_url"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}
