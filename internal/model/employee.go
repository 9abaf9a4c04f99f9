// Package model defines the data structures used throughout the application.
package model

import "time"

// Employee is an account that can receive appreciations and sign in to the
// dashboard. Rows live in the users table.
//
// PasswordHash is tagged json:"-" so a bcrypt hash never leaves the server,
// even if an Employee is accidentally written to a JSON response.
type Employee struct {
	ID           string    `json:"id"       db:"id"`
	Email        string    `json:"email"    db:"email"`
	FullName     string    `json:"fullName" db:"full_name"`
	PasswordHash string    `json:"-"        db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// DirectoryEntry is the public projection of an Employee shown in the
// submission form's employee picker.
type DirectoryEntry struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// Entry returns the directory projection of e.
func (e *Employee) Entry() DirectoryEntry {
	return DirectoryEntry{ID: e.ID, Email: e.Email, FullName: e.FullName}
}
