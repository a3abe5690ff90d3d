package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/notekeep/notekeep/internal/model"
)

// ErrNoteNotFound is returned when a note does not exist or is not
// owned by the requesting user. The two cases are deliberately
// indistinguishable so that note existence is never leaked.
var ErrNoteNotFound = errors.New("note not found")

// NoteSearchFilter defines criteria for searching notes.
// Message matches as a case-insensitive substring; Type matches exactly.
type NoteSearchFilter struct {
	Message string
	Type    *model.NoteType
}

// HasCriteria reports whether at least one search criterion is set.
func (f NoteSearchFilter) HasCriteria() bool {
	return f.Message != "" || f.Type != nil
}

// CreateNote inserts a new note into the database.
func (r *Repository) CreateNote(ctx context.Context, note *model.Note) error {
	query := `
		INSERT INTO notes (id, title, message, type, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		note.ID,
		note.Title,
		note.Message,
		note.Type,
		note.OwnerID,
		note.CreatedAt,
		note.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

// GetNoteByOwner retrieves a note by ID scoped to its owner.
// A note owned by another user yields ErrNoteNotFound.
func (r *Repository) GetNoteByOwner(ctx context.Context, ownerID, id string) (*model.Note, error) {
	query := `
		SELECT id, title, message, type, owner_id, created_at, updated_at
		FROM notes
		WHERE id = $1 AND owner_id = $2
	`

	note, err := scanNote(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return note, nil
}

// ListNotesByOwner retrieves all notes owned by a user in insertion
// order (IDs are ULIDs, so ordering by ID orders by creation time).
func (r *Repository) ListNotesByOwner(ctx context.Context, ownerID string) ([]*model.Note, error) {
	query := `
		SELECT id, title, message, type, owner_id, created_at, updated_at
		FROM notes
		WHERE owner_id = $1
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	return collectNotes(rows)
}

// SearchNotesByOwner retrieves the owner's notes matching the filter.
func (r *Repository) SearchNotesByOwner(ctx context.Context, ownerID string, filter NoteSearchFilter) ([]*model.Note, error) {
	query := `
		SELECT id, title, message, type, owner_id, created_at, updated_at
		FROM notes
		WHERE owner_id = $1
	`
	args := []any{ownerID}
	argIndex := 2

	if filter.Message != "" {
		query += fmt.Sprintf(" AND message ILIKE $%d", argIndex)
		args = append(args, "%"+filter.Message+"%")
		argIndex++
	}

	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argIndex)
		args = append(args, *filter.Type)
		argIndex++
	}

	query += " ORDER BY id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}
	defer rows.Close()

	return collectNotes(rows)
}

// UpdateNote updates a note's mutable fields scoped to its owner.
// The owner column is never written.
func (r *Repository) UpdateNote(ctx context.Context, note *model.Note) error {
	query := `
		UPDATE notes
		SET title = $3, message = $4, type = $5, updated_at = $6
		WHERE id = $1 AND owner_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		note.ID,
		note.OwnerID,
		note.Title,
		note.Message,
		note.Type,
		note.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNoteNotFound
	}

	return nil
}

// DeleteNote removes a note scoped to its owner.
func (r *Repository) DeleteNote(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM notes WHERE id = $1 AND owner_id = $2`

	result, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNoteNotFound
	}

	return nil
}

// scanNote scans a single row into a Note model.
func scanNote(row pgx.Row) (*model.Note, error) {
	var note model.Note
	err := row.Scan(
		&note.ID,
		&note.Title,
		&note.Message,
		&note.Type,
		&note.OwnerID,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	return &note, err
}

// collectNotes drains rows into a slice of Note models.
func collectNotes(rows pgx.Rows) ([]*model.Note, error) {
	var notes []*model.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}

	return notes, nil
}
