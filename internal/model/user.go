// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered account that owns notes.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"created_at"`
}

// AuthContext carries the authenticated caller identity through a request.
type AuthContext struct {
	UserID string
	Email  string
}
