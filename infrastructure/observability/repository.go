package observability

import (
	"context"
	"time"

	"maswada-backend/application/ports"
	"maswada-backend/domain/note"
	appErrors "maswada-backend/pkg/errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const notesTable = "notes"

// TraceRepository wraps a repository with spans and DB metrics. Either
// tracer or collector may be nil.
func TraceRepository(repo ports.NoteRepository, tracer trace.Tracer, collector *Collector) ports.NoteRepository {
	return &tracedNoteRepository{inner: repo, tracer: tracer, collector: collector}
}

type tracedNoteRepository struct {
	inner     ports.NoteRepository
	tracer    trace.Tracer
	collector *Collector
}

func (r *tracedNoteRepository) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	began := time.Now()
	var span trace.Span
	if r.tracer != nil {
		ctx, span = r.tracer.Start(ctx, "repository."+op, trace.WithAttributes(attrs...))
	}

	return ctx, func(err error) {
		status := "success"
		// NotFound is an answer, not a failure of the store.
		if err != nil && !appErrors.IsNotFound(err) {
			status = "error"
			if span != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
		}
		if span != nil {
			span.End()
		}
		if r.collector != nil {
			r.collector.DBOperations.WithLabelValues(op, notesTable, status).Inc()
			r.collector.DBDuration.WithLabelValues(op, notesTable).Observe(time.Since(began).Seconds())
		}
	}
}

func (r *tracedNoteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*note.Note, error) {
	ctx, done := r.start(ctx, "ListByOwner", attribute.String("user.id", ownerID))
	notes, err := r.inner.ListByOwner(ctx, ownerID)
	done(err)
	return notes, err
}

func (r *tracedNoteRepository) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*note.Note, error) {
	ctx, done := r.start(ctx, "GetByIDAndOwner",
		attribute.String("note.id", id),
		attribute.String("user.id", ownerID))
	n, err := r.inner.GetByIDAndOwner(ctx, id, ownerID)
	done(err)
	return n, err
}

// GetByIDAndOwnerDirect forwards to the wrapped repository's uncached read
// when it has one.
func (r *tracedNoteRepository) GetByIDAndOwnerDirect(ctx context.Context, id, ownerID string) (*note.Note, error) {
	direct, ok := r.inner.(ports.DirectReader)
	if !ok {
		return r.GetByIDAndOwner(ctx, id, ownerID)
	}
	ctx, done := r.start(ctx, "GetByIDAndOwnerDirect",
		attribute.String("note.id", id),
		attribute.String("user.id", ownerID))
	n, err := direct.GetByIDAndOwnerDirect(ctx, id, ownerID)
	done(err)
	return n, err
}

func (r *tracedNoteRepository) Create(ctx context.Context, n *note.Note) error {
	ctx, done := r.start(ctx, "Create",
		attribute.String("note.id", n.ID),
		attribute.String("user.id", n.OwnerID))
	err := r.inner.Create(ctx, n)
	done(err)
	return err
}

func (r *tracedNoteRepository) Update(ctx context.Context, n *note.Note) error {
	ctx, done := r.start(ctx, "Update",
		attribute.String("note.id", n.ID),
		attribute.String("user.id", n.OwnerID))
	err := r.inner.Update(ctx, n)
	done(err)
	return err
}

func (r *tracedNoteRepository) Delete(ctx context.Context, id, ownerID string) error {
	ctx, done := r.start(ctx, "Delete",
		attribute.String("note.id", id),
		attribute.String("user.id", ownerID))
	err := r.inner.Delete(ctx, id, ownerID)
	done(err)
	return err
}

// Ping forwards to the wrapped repository when it supports health checks.
func (r *tracedNoteRepository) Ping(ctx context.Context) error {
	if hc, ok := r.inner.(ports.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}
