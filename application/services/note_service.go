// Package services contains the application use cases. Services enforce
// ownership, publish domain events and record business metrics; persistence
// and model access stay behind ports.
package services

import (
	"context"
	"time"

	"maswada-backend/application/ports"
	"maswada-backend/domain/events"
	"maswada-backend/domain/note"
	appErrors "maswada-backend/pkg/errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CreateNoteInput carries the fields a client may set on creation.
type CreateNoteInput struct {
	Title   string
	Content string
}

// NoteService implements the note use cases for an authenticated owner.
type NoteService struct {
	repo      ports.NoteRepository
	publisher ports.EventPublisher
	metrics   ports.Metrics
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewNoteService wires the service. publisher and metrics may be nil.
func NewNoteService(repo ports.NoteRepository, publisher ports.EventPublisher, metrics ports.Metrics, logger *zap.Logger) *NoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &NoteService{
		repo:      repo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		tracer:    otel.Tracer("maswada-backend.application.note_service"),
		now:       time.Now,
	}
}

// validID treats malformed ids like unknown ones.
func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return appErrors.NewNotFoundError("Note")
	}
	return nil
}

func (s *NoteService) span(ctx context.Context, name, ownerID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("user.id", ownerID))
	return s.tracer.Start(ctx, "NoteService."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil && !appErrors.IsNotFound(err) && !appErrors.IsValidation(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// List returns the owner's notes, most recently updated first.
func (s *NoteService) List(ctx context.Context, ownerID string) (notes []*note.Note, err error) {
	ctx, span := s.span(ctx, "List", ownerID)
	defer func() { endSpan(span, err) }()

	notes, err = s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to list notes")
	}
	span.SetAttributes(attribute.Int("notes.count", len(notes)))
	return notes, nil
}

// Get returns one of the owner's notes.
func (s *NoteService) Get(ctx context.Context, id, ownerID string) (n *note.Note, err error) {
	ctx, span := s.span(ctx, "Get", ownerID, attribute.String("note.id", id))
	defer func() { endSpan(span, err) }()

	if err := validID(id); err != nil {
		return nil, err
	}
	n, err = s.repo.GetByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to get note")
	}
	return n, nil
}

// Create stores a new note for the owner.
func (s *NoteService) Create(ctx context.Context, ownerID string, in CreateNoteInput) (n *note.Note, err error) {
	ctx, span := s.span(ctx, "Create", ownerID)
	defer func() { endSpan(span, err) }()

	n, err = note.New(ownerID, in.Title, in.Content, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, appErrors.Wrap(err, "failed to create note")
	}

	s.metrics.NoteCreated()
	s.publish(ctx, events.NewNoteEvent(events.TypeNoteCreated, n.ID, n.OwnerID, n.Title, nil, n.CreatedAt))
	s.logger.Debug("Note created", zap.String("note_id", n.ID), zap.String("user_id", ownerID))
	return n, nil
}

// Update applies the supplied fields to the owner's note. Concurrent
// updates are last-write-wins.
func (s *NoteService) Update(ctx context.Context, id, ownerID string, patch note.Patch) (n *note.Note, err error) {
	ctx, span := s.span(ctx, "Update", ownerID, attribute.String("note.id", id))
	defer func() { endSpan(span, err) }()

	if err := validID(id); err != nil {
		return nil, err
	}
	n, err = s.getForWrite(ctx, id, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to get note")
	}
	if err := n.Apply(patch, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, appErrors.Wrap(err, "failed to update note")
	}

	s.metrics.NoteUpdated()
	s.publish(ctx, events.NewNoteEvent(events.TypeNoteUpdated, n.ID, n.OwnerID, n.Title, changedFields(patch), n.UpdatedAt))
	return n, nil
}

// Delete removes the owner's note permanently.
func (s *NoteService) Delete(ctx context.Context, id, ownerID string) (err error) {
	ctx, span := s.span(ctx, "Delete", ownerID, attribute.String("note.id", id))
	defer func() { endSpan(span, err) }()

	if err := validID(id); err != nil {
		return err
	}
	if _, err := s.getForWrite(ctx, id, ownerID); err != nil {
		return appErrors.Wrap(err, "failed to get note")
	}
	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return appErrors.Wrap(err, "failed to delete note")
	}

	s.metrics.NoteDeleted()
	s.publish(ctx, events.NewNoteEvent(events.TypeNoteDeleted, id, ownerID, "", nil, note.Stamp(s.now())))
	return nil
}

// getForWrite bypasses any cache so the patch applies to the stored row.
func (s *NoteService) getForWrite(ctx context.Context, id, ownerID string) (*note.Note, error) {
	if direct, ok := s.repo.(ports.DirectReader); ok {
		return direct.GetByIDAndOwnerDirect(ctx, id, ownerID)
	}
	return s.repo.GetByIDAndOwner(ctx, id, ownerID)
}

// publish never fails the caller; the mutation has already happened.
func (s *NoteService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish domain event",
			zap.String("event_type", event.GetEventType()),
			zap.String("note_id", event.GetAggregateID()),
			zap.Error(err))
	}
}

func changedFields(p note.Patch) []string {
	var fields []string
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Content != nil {
		fields = append(fields, "content")
	}
	if p.SummarySet {
		fields = append(fields, "summary")
	}
	return fields
}
