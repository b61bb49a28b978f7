// Package note holds the Note entity, the only persisted object of the
// service, and the rules that govern its creation and mutation.
package note

import (
	"strings"
	"time"
	"unicode/utf8"

	appErrors "maswada-backend/pkg/errors"

	"github.com/google/uuid"
)

// MaxTitleLength bounds the title in characters.
const MaxTitleLength = 255

// Note is owned by exactly one principal. ID and OwnerID never change after
// creation and UpdatedAt is never before CreatedAt.
type Note struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Summary   *string   `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Patch is a partial update. Nil fields are left untouched. Summary is
// applied only when SummarySet is true, which allows clearing it with nil.
type Patch struct {
	Title      *string
	Content    *string
	Summary    *string
	SummarySet bool
}

// Empty reports whether the patch carries no field at all.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Content == nil && !p.SummarySet
}

// Stamp normalizes a wall clock reading to the precision every store keeps.
func Stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// New builds a note for owner with a fresh id. Content may be empty.
func New(ownerID, title, content string, now time.Time) (*Note, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, appErrors.NewUnauthorizedError("")
	}
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}

	ts := Stamp(now)
	return &Note{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		Content:   content,
		CreatedAt: ts,
		UpdatedAt: ts,
	}, nil
}

// ValidateTitle enforces 1..MaxTitleLength characters.
func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	switch {
	case n == 0:
		return appErrors.NewValidationError("Title is required").
			WithDetails(appErrors.FieldError{Path: "title", Message: "title is required"})
	case n > MaxTitleLength:
		return appErrors.NewValidationError("Title is too long").
			WithDetails(appErrors.FieldError{Path: "title", Message: "title must be at most 255 characters"})
	}
	return nil
}

// Apply mutates the note with the supplied fields and moves UpdatedAt
// strictly forward, even when the clock has not advanced.
func (n *Note) Apply(p Patch, now time.Time) error {
	if p.Title != nil {
		if err := ValidateTitle(*p.Title); err != nil {
			return err
		}
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.SummarySet {
		if p.Summary == nil {
			n.Summary = nil
		} else {
			s := *p.Summary
			n.Summary = &s
		}
	}

	ts := Stamp(now)
	if !ts.After(n.UpdatedAt) {
		ts = n.UpdatedAt.Add(time.Microsecond)
	}
	n.UpdatedAt = ts
	return nil
}

// OwnedBy reports whether ownerID owns the note.
func (n *Note) OwnedBy(ownerID string) bool {
	return n.OwnerID == ownerID
}

// Clone returns a deep copy.
func (n *Note) Clone() *Note {
	c := *n
	if n.Summary != nil {
		s := *n.Summary
		c.Summary = &s
	}
	return &c
}
