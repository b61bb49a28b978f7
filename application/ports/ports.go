// Package ports declares the interfaces the application layer depends on.
// Infrastructure packages provide the implementations.
package ports

import (
	"context"
	"time"

	"maswada-backend/domain/events"
	"maswada-backend/domain/note"
)

// NoteRepository persists notes. Every lookup is scoped by owner: a note
// that belongs to someone else is reported exactly like a missing one.
type NoteRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]*note.Note, error)
	GetByIDAndOwner(ctx context.Context, id, ownerID string) (*note.Note, error)
	Create(ctx context.Context, n *note.Note) error
	Update(ctx context.Context, n *note.Note) error
	Delete(ctx context.Context, id, ownerID string) error
}

// DirectReader is implemented by repositories that sit in front of a cache.
// GetByIDAndOwnerDirect always reads the backing store; read-modify-write
// paths use it so a stale cached copy is never written back.
type DirectReader interface {
	GetByIDAndOwnerDirect(ctx context.Context, id, ownerID string) (*note.Note, error)
}

// HealthChecker is implemented by stores that can report readiness.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// EventPublisher announces domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// CompletionRequest is one chat completion sent to a language model.
type CompletionRequest struct {
	Operation    string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
}

// LLMProvider performs text completion.
type LLMProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	IsAvailable() bool
}

// Metrics records business counters.
type Metrics interface {
	NoteCreated()
	NoteUpdated()
	NoteDeleted()
	AIOperation(operation string, duration time.Duration, err error)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) NoteCreated() {}
func (NopMetrics) NoteUpdated() {}
func (NopMetrics) NoteDeleted() {}
func (NopMetrics) AIOperation(string, time.Duration, error) {}
