package handlers

import (
	"net/http"

	"maswada-backend/application/services"
	"maswada-backend/domain/note"
	"maswada-backend/interfaces/http/validation"
	"maswada-backend/pkg/api"
	appErrors "maswada-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NoteHandler handles note-related HTTP requests
type NoteHandler struct {
	base
	notes  *services.NoteService
	logger *zap.Logger
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(notes *services.NoteService, errs *appErrors.ErrorHandler, v *validation.Validator, logger *zap.Logger) *NoteHandler {
	return &NoteHandler{
		base:   base{errs: errs, validator: v},
		notes:  notes,
		logger: logger,
	}
}

// CreateNoteRequest represents the request body for creating a note
type CreateNoteRequest struct {
	Title   string  `json:"title" validate:"required,max=255"`
	Content *string `json:"content" validate:"required"`
}

// UpdateNoteRequest carries any subset of the mutable fields. A null
// summary clears it.
type UpdateNoteRequest struct {
	Title   *string          `json:"title" validate:"omitempty,min=1,max=255"`
	Content *string          `json:"content"`
	Summary Nullable[string] `json:"summary"`
}

type noteResponse struct {
	Note *note.Note `json:"note"`
}

type notesResponse struct {
	Notes []*note.Note `json:"notes"`
}

// ListNotes handles GET /api/notes
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	notes, err := h.notes.List(r.Context(), owner)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if notes == nil {
		notes = []*note.Note{}
	}
	api.Success(w, http.StatusOK, notesResponse{Notes: notes})
}

// CreateNote handles POST /api/notes
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req CreateNoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	n, err := h.notes.Create(r.Context(), owner, services.CreateNoteInput{
		Title:   req.Title,
		Content: *req.Content,
	})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.Success(w, http.StatusCreated, noteResponse{Note: n})
}

// GetNote handles GET /api/notes/{id}
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	n, err := h.notes.Get(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, noteResponse{Note: n})
}

// UpdateNote handles PATCH /api/notes/{id}
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req UpdateNoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	n, err := h.notes.Update(r.Context(), chi.URLParam(r, "id"), owner, note.Patch{
		Title:      req.Title,
		Content:    req.Content,
		Summary:    req.Summary.Value,
		SummarySet: req.Summary.Set,
	})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, noteResponse{Note: n})
}

// DeleteNote handles DELETE /api/notes/{id}
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	if err := h.notes.Delete(r.Context(), chi.URLParam(r, "id"), owner); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
