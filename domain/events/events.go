package events

import (
	"time"

	"github.com/google/uuid"
)

// SourceBackend identifies this service on the event bus.
const SourceBackend = "maswada.backend"

// Event types
const (
	TypeNoteCreated = "note.created"
	TypeNoteUpdated = "note.updated"
	TypeNoteDeleted = "note.deleted"
)

// DomainEvent is anything the notes service announces after a mutation.
type DomainEvent interface {
	GetEventID() string
	GetEventType() string
	GetAggregateID() string
	GetOwnerID() string
	GetTimestamp() time.Time
}

// NoteEvent describes a change to a single note. Content is never included.
type NoteEvent struct {
	EventID   string    `json:"eventId"`
	EventType string    `json:"eventType"`
	NoteID    string    `json:"noteId"`
	OwnerID   string    `json:"userId"`
	Title     string    `json:"title,omitempty"`
	Fields    []string  `json:"fields,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e NoteEvent) GetEventID() string      { return e.EventID }
func (e NoteEvent) GetEventType() string    { return e.EventType }
func (e NoteEvent) GetAggregateID() string  { return e.NoteID }
func (e NoteEvent) GetOwnerID() string      { return e.OwnerID }
func (e NoteEvent) GetTimestamp() time.Time { return e.Timestamp }

// NewNoteEvent stamps a new event with a fresh id.
func NewNoteEvent(eventType, noteID, ownerID, title string, fields []string, at time.Time) NoteEvent {
	return NoteEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		NoteID:    noteID,
		OwnerID:   ownerID,
		Title:     title,
		Fields:    fields,
		Timestamp: at,
	}
}
