// Package repotest holds the behavioral contract every NoteRepository
// implementation must satisfy. Store packages run it from their tests.
package repotest

import (
	"context"
	"testing"
	"time"

	"maswada-backend/application/ports"
	"maswada-backend/domain/note"
	appErrors "maswada-backend/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty repository for one subtest.
type Factory func(t *testing.T) ports.NoteRepository

func mustNote(t *testing.T, owner, title, content string, at time.Time) *note.Note {
	t.Helper()
	n, err := note.New(owner, title, content, at)
	require.NoError(t, err)
	return n
}

// Run executes the contract against repositories produced by newRepo.
func Run(t *testing.T, newRepo Factory) {
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

	t.Run("CreateThenGet", func(t *testing.T) {
		repo := newRepo(t)
		n := mustNote(t, "owner-a", "T", "C", base)
		require.NoError(t, repo.Create(ctx, n))

		got, err := repo.GetByIDAndOwner(ctx, n.ID, "owner-a")
		require.NoError(t, err)
		assert.Equal(t, n.ID, got.ID)
		assert.Equal(t, "owner-a", got.OwnerID)
		assert.Equal(t, "T", got.Title)
		assert.Equal(t, "C", got.Content)
		assert.Nil(t, got.Summary)
		assert.True(t, got.CreatedAt.Equal(n.CreatedAt))
		assert.True(t, got.UpdatedAt.Equal(got.CreatedAt))
	})

	t.Run("EmptyContentRoundTrips", func(t *testing.T) {
		repo := newRepo(t)
		n := mustNote(t, "owner-a", "T", "", base)
		require.NoError(t, repo.Create(ctx, n))

		got, err := repo.GetByIDAndOwner(ctx, n.ID, "owner-a")
		require.NoError(t, err)
		assert.Equal(t, "", got.Content)
	})

	t.Run("OtherOwnerIsNotFound", func(t *testing.T) {
		repo := newRepo(t)
		n := mustNote(t, "owner-a", "T", "C", base)
		require.NoError(t, repo.Create(ctx, n))

		_, err := repo.GetByIDAndOwner(ctx, n.ID, "owner-b")
		assert.True(t, appErrors.IsNotFound(err), "got %v", err)

		intruder := n.Clone()
		intruder.OwnerID = "owner-b"
		intruder.Title = "hijacked"
		err = repo.Update(ctx, intruder)
		assert.True(t, appErrors.IsNotFound(err), "got %v", err)

		err = repo.Delete(ctx, n.ID, "owner-b")
		assert.True(t, appErrors.IsNotFound(err), "got %v", err)

		got, err := repo.GetByIDAndOwner(ctx, n.ID, "owner-a")
		require.NoError(t, err)
		assert.Equal(t, "T", got.Title)
	})

	t.Run("MissingIsNotFound", func(t *testing.T) {
		repo := newRepo(t)
		id := uuid.NewString()

		_, err := repo.GetByIDAndOwner(ctx, id, "owner-a")
		assert.True(t, appErrors.IsNotFound(err), "got %v", err)

		err = repo.Delete(ctx, id, "owner-a")
		assert.True(t, appErrors.IsNotFound(err), "got %v", err)
	})

	t.Run("UpdateOverwritesFields", func(t *testing.T) {
		repo := newRepo(t)
		n := mustNote(t, "owner-a", "T", "C", base)
		require.NoError(t, repo.Create(ctx, n))

		summary := "S"
		require.NoError(t, n.Apply(note.Patch{Content: ptr("C2"), Summary: &summary, SummarySet: true}, base.Add(time.Minute)))
		require.NoError(t, repo.Update(ctx, n))

		got, err := repo.GetByIDAndOwner(ctx, n.ID, "owner-a")
		require.NoError(t, err)
		assert.Equal(t, "T", got.Title)
		assert.Equal(t, "C2", got.Content)
		require.NotNil(t, got.Summary)
		assert.Equal(t, "S", *got.Summary)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt))

		require.NoError(t, n.Apply(note.Patch{SummarySet: true}, base.Add(2*time.Minute)))
		require.NoError(t, repo.Update(ctx, n))
		got, err = repo.GetByIDAndOwner(ctx, n.ID, "owner-a")
		require.NoError(t, err)
		assert.Nil(t, got.Summary)
	})

	t.Run("ListOrderedByUpdatedAtDesc", func(t *testing.T) {
		repo := newRepo(t)
		first := mustNote(t, "owner-a", "first", "", base)
		second := mustNote(t, "owner-a", "second", "", base.Add(time.Minute))
		third := mustNote(t, "owner-a", "third", "", base.Add(2*time.Minute))
		other := mustNote(t, "owner-b", "other", "", base.Add(3*time.Minute))
		for _, n := range []*note.Note{first, second, third, other} {
			require.NoError(t, repo.Create(ctx, n))
		}

		require.NoError(t, first.Apply(note.Patch{Content: ptr("touched")}, base.Add(10*time.Minute)))
		require.NoError(t, repo.Update(ctx, first))

		notes, err := repo.ListByOwner(ctx, "owner-a")
		require.NoError(t, err)
		require.Len(t, notes, 3)
		assert.Equal(t, "first", notes[0].Title)
		assert.Equal(t, "third", notes[1].Title)
		assert.Equal(t, "second", notes[2].Title)
	})

	t.Run("ListEmptyOwner", func(t *testing.T) {
		repo := newRepo(t)
		notes, err := repo.ListByOwner(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, notes)
	})

	t.Run("DeleteIsHard", func(t *testing.T) {
		repo := newRepo(t)
		n := mustNote(t, "owner-a", "T", "C", base)
		require.NoError(t, repo.Create(ctx, n))
		require.NoError(t, repo.Delete(ctx, n.ID, "owner-a"))

		_, err := repo.GetByIDAndOwner(ctx, n.ID, "owner-a")
		assert.True(t, appErrors.IsNotFound(err))

		err = repo.Delete(ctx, n.ID, "owner-a")
		assert.True(t, appErrors.IsNotFound(err))
	})
}

func ptr(s string) *string { return &s }
