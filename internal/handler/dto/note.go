package dto

import (
	"time"

	"github.com/notekeep/notekeep/internal/model"
)

// CreateNoteRequest represents the request body for creating a note.
type CreateNoteRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    *int   `json:"type"`
}

// UpdateNoteRequest represents the request body for updating a note.
// Absent fields are left unchanged.
type UpdateNoteRequest struct {
	Title   *string `json:"title,omitempty"`
	Message *string `json:"message,omitempty"`
	Type    *int    `json:"type,omitempty"`
}

// NoteResponse represents a note in API responses.
type NoteResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      int       `json:"type"`
	TypeLabel string    `json:"type_label"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteListResponse represents a list of notes.
type NoteListResponse struct {
	Data  []NoteResponse `json:"data"`
	Count int            `json:"count"`
}

// ToNoteResponse converts a Note model to NoteResponse DTO.
func ToNoteResponse(note *model.Note) *NoteResponse {
	return &NoteResponse{
		ID:        note.ID,
		Title:     note.Title,
		Message:   note.Message,
		Type:      int(note.Type),
		TypeLabel: note.Type.String(),
		UserID:    note.OwnerID,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

// ToNoteListResponse converts a slice of Note models to NoteListResponse.
func ToNoteListResponse(notes []*model.Note) *NoteListResponse {
	responses := make([]NoteResponse, len(notes))
	for i, note := range notes {
		responses[i] = *ToNoteResponse(note)
	}
	return &NoteListResponse{
		Data:  responses,
		Count: len(responses),
	}
}
