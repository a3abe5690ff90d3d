package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/notekeep/notekeep/internal/metrics"
	"github.com/notekeep/notekeep/internal/model"
	"github.com/notekeep/notekeep/internal/repository"
)

// NoteService handles note business logic. Every operation is scoped
// to the acting owner: a note that exists but belongs to someone else
// is reported as not found, never as forbidden.
type NoteService struct {
	repo    *repository.Repository
	metrics metrics.Recorder
}

// NewNoteService creates a new NoteService.
func NewNoteService(repo *repository.Repository, recorder metrics.Recorder) *NoteService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &NoteService{
		repo:    repo,
		metrics: recorder,
	}
}

// CreateNoteInput defines input for creating a note.
type CreateNoteInput struct {
	OwnerID string
	Title   string
	Message string
	Type    *model.NoteType
}

// CreateNote validates input and persists a new note for the owner.
func (s *NoteService) CreateNote(ctx context.Context, input CreateNoteInput) (*model.Note, error) {
	var missing []string
	if input.Title == "" {
		missing = append(missing, "title")
	}
	if input.Message == "" {
		missing = append(missing, "message")
	}
	if input.Type == nil {
		missing = append(missing, "type")
	}
	if err := newValidationError(missing); err != nil {
		return nil, err
	}

	if !input.Type.IsValid() {
		return nil, ErrInvalidNoteType
	}

	now := time.Now().UTC()
	note := &model.Note{
		ID:        ulid.Make().String(),
		Title:     input.Title,
		Message:   input.Message,
		Type:      *input.Type,
		OwnerID:   input.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	s.metrics.IncNoteCreated()

	return note, nil
}

// GetNote retrieves one of the owner's notes by ID.
func (s *NoteService) GetNote(ctx context.Context, ownerID, id string) (*model.Note, error) {
	note, err := s.repo.GetNoteByOwner(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return note, nil
}

// ListNotes retrieves all of the owner's notes in insertion order.
func (s *NoteService) ListNotes(ctx context.Context, ownerID string) ([]*model.Note, error) {
	notes, err := s.repo.ListNotesByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []*model.Note{}
	}
	return notes, nil
}

// SearchNotesInput defines criteria for searching the owner's notes.
type SearchNotesInput struct {
	OwnerID string
	Message string
	Type    *model.NoteType
}

// SearchNotes retrieves the owner's notes matching the criteria.
// At least one criterion must be provided.
func (s *NoteService) SearchNotes(ctx context.Context, input SearchNotesInput) ([]*model.Note, error) {
	filter := repository.NoteSearchFilter{
		Message: input.Message,
		Type:    input.Type,
	}
	if !filter.HasCriteria() {
		return nil, ErrNoSearchCriteria
	}

	if input.Type != nil && !input.Type.IsValid() {
		return nil, ErrInvalidNoteType
	}

	notes, err := s.repo.SearchNotesByOwner(ctx, input.OwnerID, filter)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []*model.Note{}
	}

	s.metrics.IncNoteSearched()

	return notes, nil
}

// UpdateNoteInput defines input for updating a note. Nil fields are
// left unchanged; the owner is never accepted as input.
type UpdateNoteInput struct {
	Title   *string
	Message *string
	Type    *model.NoteType
}

// UpdateNote applies partial changes to one of the owner's notes and
// refreshes updated_at. CreatedAt and OwnerID are never modified.
func (s *NoteService) UpdateNote(ctx context.Context, ownerID, id string, input UpdateNoteInput) (*model.Note, error) {
	if input.Type != nil && !input.Type.IsValid() {
		return nil, ErrInvalidNoteType
	}

	note, err := s.GetNote(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		note.Title = *input.Title
	}
	if input.Message != nil {
		note.Message = *input.Message
	}
	if input.Type != nil {
		note.Type = *input.Type
	}
	note.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateNote(ctx, note); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("update note: %w", err)
	}

	s.metrics.IncNoteUpdated()

	return note, nil
}

// DeleteNote removes one of the owner's notes.
func (s *NoteService) DeleteNote(ctx context.Context, ownerID, id string) error {
	if err := s.repo.DeleteNote(ctx, ownerID, id); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("delete note: %w", err)
	}

	s.metrics.IncNoteDeleted()

	return nil
}
