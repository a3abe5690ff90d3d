package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/notekeep/notekeep/internal/auth"
	"github.com/notekeep/notekeep/internal/handler/dto"
	"github.com/notekeep/notekeep/internal/model"
	"github.com/notekeep/notekeep/internal/service"
)

// NoteHandler handles HTTP requests for note operations. Every route
// requires authentication; the acting user is taken from the request
// context, never from the request body.
type NoteHandler struct {
	svc    *service.NoteService
	logger *slog.Logger
}

// NewNoteHandler creates a new NoteHandler.
func NewNoteHandler(svc *service.NoteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/notes.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustAuthFromContext(r.Context()).UserID

	var req dto.CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.CreateNoteInput{
		OwnerID: userID,
		Title:   req.Title,
		Message: req.Message,
		Type:    toNoteType(req.Type),
	}

	note, err := h.svc.CreateNote(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("note_created",
		"note_id", note.ID,
		"user_id", userID,
		"type", note.Type.String(),
	)

	writeJSON(w, http.StatusCreated, dto.ToNoteResponse(note))
}

// List handles GET /api/v1/notes.
// Notes are returned in insertion order.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustAuthFromContext(r.Context()).UserID

	notes, err := h.svc.ListNotes(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToNoteListResponse(notes))
}

// Search handles GET /api/v1/notes/search.
// Accepts message and type query parameters; at least one is required.
func (h *NoteHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustAuthFromContext(r.Context()).UserID
	query := r.URL.Query()

	input := service.SearchNotesInput{
		OwnerID: userID,
		Message: query.Get("message"),
	}

	if raw := query.Get("type"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_NOTE_TYPE", "Note type must be an integer")
			return
		}
		t := model.NoteType(parsed)
		input.Type = &t
	}

	notes, err := h.svc.SearchNotes(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToNoteListResponse(notes))
}

// Get handles GET /api/v1/notes/{id}.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustAuthFromContext(r.Context()).UserID

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Note ID is required")
		return
	}

	note, err := h.svc.GetNote(r.Context(), userID, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToNoteResponse(note))
}

// Update handles PATCH /api/v1/notes/{id}.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustAuthFromContext(r.Context()).UserID

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Note ID is required")
		return
	}

	var req dto.UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.UpdateNoteInput{
		Title:   req.Title,
		Message: req.Message,
		Type:    toNoteType(req.Type),
	}

	note, err := h.svc.UpdateNote(r.Context(), userID, id, input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("note_updated",
		"note_id", note.ID,
		"user_id", userID,
	)

	writeJSON(w, http.StatusOK, dto.ToNoteResponse(note))
}

// Delete handles DELETE /api/v1/notes/{id}.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustAuthFromContext(r.Context()).UserID

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Note ID is required")
		return
	}

	if err := h.svc.DeleteNote(r.Context(), userID, id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("note_deleted",
		"note_id", id,
		"user_id", userID,
	)

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps service errors to HTTP responses.
// A note owned by someone else maps to the same 404 as a note that
// does not exist.
func (h *NoteHandler) handleServiceError(w http.ResponseWriter, err error) {
	if verr, ok := asValidationError(err); ok {
		writeValidationError(w, verr)
		return
	}

	switch {
	case errors.Is(err, service.ErrNoteNotFound):
		writeError(w, http.StatusNotFound, "NOTE_NOT_FOUND", "Note not found")
	case errors.Is(err, service.ErrInvalidNoteType):
		writeError(w, http.StatusBadRequest, "INVALID_NOTE_TYPE", "Note type must be 0 (info), 1 (warning) or 2 (critical)")
	case errors.Is(err, service.ErrNoSearchCriteria):
		writeError(w, http.StatusBadRequest, "MISSING_SEARCH_CRITERIA", "At least one search criterion is required")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// toNoteType converts an optional request integer to a NoteType.
func toNoteType(v *int) *model.NoteType {
	if v == nil {
		return nil
	}
	t := model.NoteType(*v)
	return &t
}
