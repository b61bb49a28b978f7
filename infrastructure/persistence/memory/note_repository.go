// Package memory provides an in-memory note repository used for local
// development and as the backing store in service and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"maswada-backend/domain/note"
	appErrors "maswada-backend/pkg/errors"
)

// NoteRepository keeps notes in a map guarded by a RWMutex.
type NoteRepository struct {
	mu    sync.RWMutex
	notes map[string]*note.Note // noteID -> Note

	// For testing error scenarios
	shouldFailOn map[string]error
}

// NewNoteRepository creates an empty repository.
func NewNoteRepository() *NoteRepository {
	return &NoteRepository{
		notes:        make(map[string]*note.Note),
		shouldFailOn: make(map[string]error),
	}
}

// SetError configures the repository to return err from method.
func (r *NoteRepository) SetError(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shouldFailOn[method] = err
}

// ClearErrors removes all configured errors.
func (r *NoteRepository) ClearErrors() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shouldFailOn = make(map[string]error)
}

func (r *NoteRepository) checkError(method string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.shouldFailOn[method]
}

// ListByOwner returns the owner's notes, most recently updated first.
func (r *NoteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*note.Note, error) {
	if err := r.checkError("ListByOwner"); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	notes := make([]*note.Note, 0)
	for _, n := range r.notes {
		if n.OwnedBy(ownerID) {
			notes = append(notes, n.Clone())
		}
	}
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	return notes, nil
}

// GetByIDAndOwner returns NotFound unless id exists and belongs to ownerID.
func (r *NoteRepository) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*note.Note, error) {
	if err := r.checkError("GetByIDAndOwner"); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notes[id]
	if !ok || !n.OwnedBy(ownerID) {
		return nil, appErrors.NewNotFoundError("Note")
	}
	return n.Clone(), nil
}

// Create stores a new note.
func (r *NoteRepository) Create(ctx context.Context, n *note.Note) error {
	if err := r.checkError("Create"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.notes[n.ID] = n.Clone()
	return nil
}

// Update overwrites the stored note when the owner matches.
func (r *NoteRepository) Update(ctx context.Context, n *note.Note) error {
	if err := r.checkError("Update"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.notes[n.ID]
	if !ok || !existing.OwnedBy(n.OwnerID) {
		return appErrors.NewNotFoundError("Note")
	}
	r.notes[n.ID] = n.Clone()
	return nil
}

// Delete removes the note when the owner matches.
func (r *NoteRepository) Delete(ctx context.Context, id, ownerID string) error {
	if err := r.checkError("Delete"); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.notes[id]
	if !ok || !existing.OwnedBy(ownerID) {
		return appErrors.NewNotFoundError("Note")
	}
	delete(r.notes, id)
	return nil
}

// Ping always succeeds.
func (r *NoteRepository) Ping(ctx context.Context) error {
	return nil
}

// Count returns the number of stored notes across all owners.
func (r *NoteRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.notes)
}
