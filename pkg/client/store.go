package client

import (
	"context"
	"errors"
	"slices"
	"sync"

	"maswada-backend/pkg/client/autosave"
)

// ErrStoreClosed is returned by every Store operation after Close.
var ErrStoreClosed = errors.New("store closed")

// NotesAPI is the part of Client the store depends on.
type NotesAPI interface {
	ListNotes(ctx context.Context) ([]Note, error)
	CreateNote(ctx context.Context, in CreateNoteInput) (*Note, error)
	UpdateNote(ctx context.Context, id string, in UpdateNoteInput) (*Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// Store keeps the caller's note list in sync with the API. It records the
// last error instead of dropping it and notifies subscribers on every
// change.
type Store struct {
	api NotesAPI

	mu          sync.Mutex
	notes       []Note
	loading     bool
	err         error
	closed      bool
	subscribers map[int]func([]Note)
	nextSub     int
}

// NewStore creates an empty store backed by api.
func NewStore(api NotesAPI) *Store {
	return &Store{api: api, subscribers: map[int]func([]Note){}}
}

// Notes returns a copy of the current list.
func (s *Store) Notes() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.notes)
}

// Get returns the cached note with id.
func (s *Store) Get(id string) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return Note{}, false
	}
	return s.notes[i], true
}

// Loading reports whether a fetch is in progress.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the error of the most recent operation, or nil.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. fn runs on the goroutine that made the change.
func (s *Store) Subscribe(fn func([]Note)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Fetch replaces the list with the server's.
func (s *Store) Fetch(ctx context.Context) error {
	if err := s.begin(true); err != nil {
		return err
	}
	notes, err := s.api.ListNotes(ctx)
	return s.commit(err, func() { s.notes = notes })
}

// Create adds a note at the head of the list.
func (s *Store) Create(ctx context.Context, in CreateNoteInput) (*Note, error) {
	if err := s.begin(false); err != nil {
		return nil, err
	}
	n, err := s.api.CreateNote(ctx, in)
	err = s.commit(noteResult(n, err), func() { s.notes = append([]Note{*n}, s.notes...) })
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Update replaces the note in place.
func (s *Store) Update(ctx context.Context, id string, in UpdateNoteInput) (*Note, error) {
	if err := s.begin(false); err != nil {
		return nil, err
	}
	n, err := s.api.UpdateNote(ctx, id, in)
	err = s.commit(noteResult(n, err), func() {
		if i := s.index(id); i >= 0 {
			s.notes[i] = *n
		}
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Delete removes the note from the server and the list.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.begin(false); err != nil {
		return err
	}
	err := s.api.DeleteNote(ctx, id)
	return s.commit(err, func() {
		s.notes = slices.DeleteFunc(s.notes, func(n Note) bool { return n.ID == id })
	})
}

// Save persists an autosave draft.
func (s *Store) Save(ctx context.Context, noteID string, d autosave.Draft) error {
	_, err := s.Update(ctx, noteID, UpdateNoteInput{Title: &d.Title, Content: &d.Content})
	return err
}

// Close drops all subscribers. Later calls fail with ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	clear(s.subscribers)
	return nil
}

func (s *Store) begin(loading bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if loading {
		s.loading = true
	}
	return nil
}

// commit records err, applies mutate on success and notifies subscribers
// outside the lock.
func (s *Store) commit(err error, mutate func()) error {
	s.mu.Lock()
	s.loading = false
	s.err = err
	if err == nil && !s.closed {
		mutate()
	}
	snapshot := slices.Clone(s.notes)
	subs := make([]func([]Note), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
	return err
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.notes, func(n Note) bool { return n.ID == id })
}

func noteResult(n *Note, err error) error {
	if err == nil && n == nil {
		return ErrMissingNote
	}
	return err
}
