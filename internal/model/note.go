// Package model defines domain entities for the application.
package model

import "time"

// NoteType classifies the severity of a note.
type NoteType int

const (
	NoteTypeInfo     NoteType = 0
	NoteTypeWarning  NoteType = 1
	NoteTypeCritical NoteType = 2
)

// IsValid checks if the note type is one of the known severities.
func (t NoteType) IsValid() bool {
	return t == NoteTypeInfo || t == NoteTypeWarning || t == NoteTypeCritical
}

// String returns a human-readable label for the note type.
func (t NoteType) String() string {
	switch t {
	case NoteTypeInfo:
		return "info"
	case NoteTypeWarning:
		return "warning"
	case NoteTypeCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Note represents a note owned by exactly one user.
// OwnerID is set at creation and never reassigned.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      NoteType  `json:"type"`
	OwnerID   string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
