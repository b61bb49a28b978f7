package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"maswada-backend/domain/events"
	"maswada-backend/domain/note"
	"maswada-backend/infrastructure/persistence/memory"
	appErrors "maswada-backend/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, e events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) PublishBatch(ctx context.Context, es []events.DomainEvent) error {
	for _, e := range es {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.GetEventType())
	}
	return out
}

type countingMetrics struct {
	created, updated, deleted int
	aiOps                     map[string]int
	aiErrors                  int
}

func (m *countingMetrics) NoteCreated() { m.created++ }
func (m *countingMetrics) NoteUpdated() { m.updated++ }
func (m *countingMetrics) NoteDeleted() { m.deleted++ }
func (m *countingMetrics) AIOperation(op string, _ time.Duration, err error) {
	if m.aiOps == nil {
		m.aiOps = map[string]int{}
	}
	m.aiOps[op]++
	if err != nil {
		m.aiErrors++
	}
}

// fixedClock returns a clock that advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(time.Second)
		return t
	}
}

func newTestNoteService() (*NoteService, *memory.NoteRepository, *fakePublisher, *countingMetrics) {
	repo := memory.NewNoteRepository()
	pub := &fakePublisher{}
	metrics := &countingMetrics{}
	svc := NewNoteService(repo, pub, metrics, nil)
	svc.now = fixedClock(time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC))
	return svc, repo, pub, metrics
}

func strPtr(s string) *string { return &s }

// cachedRepo serves reads from a frozen snapshot, like a cache holding an
// out-of-date copy, while GetByIDAndOwnerDirect reads the live store.
type cachedRepo struct {
	*memory.NoteRepository
	snapshot map[string]*note.Note
}

func (r *cachedRepo) GetByIDAndOwner(ctx context.Context, id, ownerID string) (*note.Note, error) {
	if n, ok := r.snapshot[id]; ok && n.OwnedBy(ownerID) {
		return n.Clone(), nil
	}
	return r.NoteRepository.GetByIDAndOwner(ctx, id, ownerID)
}

func (r *cachedRepo) GetByIDAndOwnerDirect(ctx context.Context, id, ownerID string) (*note.Note, error) {
	return r.NoteRepository.GetByIDAndOwner(ctx, id, ownerID)
}

func TestNoteServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, _, pub, metrics := newTestNoteService()

		n, err := svc.Create(ctx, "user-1", CreateNoteInput{Title: "Groceries", Content: "milk"})
		require.NoError(t, err)
		assert.NotEmpty(t, n.ID)
		assert.Equal(t, "user-1", n.OwnerID)
		assert.Nil(t, n.Summary)
		assert.Equal(t, n.CreatedAt, n.UpdatedAt)
		assert.Equal(t, 1, metrics.created)
		assert.Equal(t, []string{events.TypeNoteCreated}, pub.types())
	})

	t.Run("EmptyContentAllowed", func(t *testing.T) {
		svc, _, _, _ := newTestNoteService()
		n, err := svc.Create(ctx, "user-1", CreateNoteInput{Title: "Blank"})
		require.NoError(t, err)
		assert.Equal(t, "", n.Content)
	})

	t.Run("TitleRequired", func(t *testing.T) {
		svc, repo, _, metrics := newTestNoteService()
		_, err := svc.Create(ctx, "user-1", CreateNoteInput{Title: ""})
		assert.True(t, appErrors.IsValidation(err))
		assert.Equal(t, 0, repo.Count())
		assert.Equal(t, 0, metrics.created)
	})

	t.Run("PublishFailureIsNotFatal", func(t *testing.T) {
		svc, repo, pub, _ := newTestNoteService()
		pub.err = errors.New("bus down")

		_, err := svc.Create(ctx, "user-1", CreateNoteInput{Title: "T"})
		require.NoError(t, err)
		assert.Equal(t, 1, repo.Count())
	})

	t.Run("RepositoryFailure", func(t *testing.T) {
		svc, repo, pub, _ := newTestNoteService()
		repo.SetError("Create", errors.New("disk full"))

		_, err := svc.Create(ctx, "user-1", CreateNoteInput{Title: "T"})
		require.Error(t, err)
		assert.Empty(t, pub.types())
	})
}

func TestNoteServiceGetAndList(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestNoteService()

	first, err := svc.Create(ctx, "user-1", CreateNoteInput{Title: "first"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, "user-1", CreateNoteInput{Title: "second"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user-2", CreateNoteInput{Title: "other"})
	require.NoError(t, err)

	t.Run("ListIsScopedAndOrdered", func(t *testing.T) {
		notes, err := svc.List(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, second.ID, notes[0].ID)
		assert.Equal(t, first.ID, notes[1].ID)
	})

	t.Run("ListEmpty", func(t *testing.T) {
		notes, err := svc.List(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, notes)
	})

	t.Run("GetOwn", func(t *testing.T) {
		n, err := svc.Get(ctx, first.ID, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "first", n.Title)
	})

	t.Run("OtherOwnerIsNotFound", func(t *testing.T) {
		_, err := svc.Get(ctx, first.ID, "user-2")
		assert.True(t, appErrors.IsNotFound(err))
	})

	t.Run("MalformedIDIsNotFound", func(t *testing.T) {
		_, err := svc.Get(ctx, "not-a-uuid", "user-1")
		assert.True(t, appErrors.IsNotFound(err))
	})

	t.Run("UnknownIDIsNotFound", func(t *testing.T) {
		_, err := svc.Get(ctx, uuid.NewString(), "user-1")
		assert.True(t, appErrors.IsNotFound(err))
	})
}

func TestNoteServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("PartialUpdate", func(t *testing.T) {
		svc, _, pub, metrics := newTestNoteService()
		n, err := svc.Create(ctx, "user-1", CreateNoteInput{Title: "T", Content: "C"})
		require.NoError(t, err)

		updated, err := svc.Update(ctx, n.ID, "user-1", note.Patch{Content: strPtr("C2")})
		require.NoError(t, err)
		assert.Equal(t, "T", updated.Title)
		assert.Equal(t, "C2", updated.Content)
		assert.True(t, updated.UpdatedAt.After(n.CreatedAt))
		assert.Equal(t, n.CreatedAt, updated.CreatedAt)
		assert.Equal(t, 1, metrics.updated)
		assert.Equal(t, []string{events.TypeNoteCreated, events.TypeNoteUpdated}, pub.types())

		evt := pub.events[1].(events.NoteEvent)
		assert.Equal(t, []string{"content"}, evt.Fields)
	})

	t.Run("SaveAndClearSummary", func(t *testing.T) {
		svc, _, _, _ := newTestNoteService()
		n, err := svc.Create(ctx, "user-1", CreateNoteInput{Title: "T"})
		require.NoError(t, err)

		updated, err := svc.Update(ctx, n.ID, "user-1", note.Patch{Summary: strPtr("short"), SummarySet: true})
		require.NoError(t, err)
		require.NotNil(t, updated.Summary)
		assert.Equal(t, "short", *updated.Summary)

		cleared, err := svc.Update(ctx, n.ID, "user-1", note.Patch{SummarySet: true})
		require.NoError(t, err)
		assert.Nil(t, cleared.Summary)
	})

	t.Run("InvalidTitleLeavesNoteUntouched", func(t *testing.T) {
		svc, _, _, _ := newTestNoteService()
		n, err := svc.Create(ctx, "user-1", CreateNoteInput{Title: "T"})
		require.NoError(t, err)

		_, err = svc.Update(ctx, n.ID, "user-1", note.Patch{Title: strPtr("")})
		assert.True(t, appErrors.IsValidation(err))

		got, err := svc.Get(ctx, n.ID, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "T", got.Title)
		assert.Equal(t, n.UpdatedAt, got.UpdatedAt)
	})

	t.Run("ReadsPastCachedCopy", func(t *testing.T) {
		live := memory.NewNoteRepository()
		repo := &cachedRepo{NoteRepository: live, snapshot: map[string]*note.Note{}}
		svc := NewNoteService(repo, nil, nil, nil)
		svc.now = fixedClock(time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC))

		n, err := svc.Create(ctx, "user-1", CreateNoteInput{Title: "T1", Content: "C1"})
		require.NoError(t, err)
		repo.snapshot[n.ID] = n.Clone()

		_, err = svc.Update(ctx, n.ID, "user-1", note.Patch{Title: strPtr("T2")})
		require.NoError(t, err)
		updated, err := svc.Update(ctx, n.ID, "user-1", note.Patch{Content: strPtr("C2")})
		require.NoError(t, err)
		assert.Equal(t, "T2", updated.Title)
		assert.Equal(t, "C2", updated.Content)

		stored, err := live.GetByIDAndOwner(ctx, n.ID, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "T2", stored.Title)
	})

	t.Run("OtherOwnerIsNotFound", func(t *testing.T) {
		svc, _, _, metrics := newTestNoteService()
		n, err := svc.Create(ctx, "user-1", CreateNoteInput{Title: "T"})
		require.NoError(t, err)

		_, err = svc.Update(ctx, n.ID, "user-2", note.Patch{Title: strPtr("stolen")})
		assert.True(t, appErrors.IsNotFound(err))
		assert.Equal(t, 0, metrics.updated)

		got, err := svc.Get(ctx, n.ID, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "T", got.Title)
	})
}

func TestNoteServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, repo, pub, metrics := newTestNoteService()
		n, err := svc.Create(ctx, "user-1", CreateNoteInput{Title: "T"})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, n.ID, "user-1"))
		assert.Equal(t, 0, repo.Count())
		assert.Equal(t, 1, metrics.deleted)
		assert.Equal(t, []string{events.TypeNoteCreated, events.TypeNoteDeleted}, pub.types())

		_, err = svc.Get(ctx, n.ID, "user-1")
		assert.True(t, appErrors.IsNotFound(err))
	})

	t.Run("OtherOwnerIsNotFound", func(t *testing.T) {
		svc, repo, _, _ := newTestNoteService()
		n, err := svc.Create(ctx, "user-1", CreateNoteInput{Title: "T"})
		require.NoError(t, err)

		err = svc.Delete(ctx, n.ID, "user-2")
		assert.True(t, appErrors.IsNotFound(err))
		assert.Equal(t, 1, repo.Count())
	})

	t.Run("MalformedID", func(t *testing.T) {
		svc, _, _, _ := newTestNoteService()
		assert.True(t, appErrors.IsNotFound(svc.Delete(ctx, "42", "user-1")))
	})
}
