package memory

import (
	"context"
	"errors"
	"testing"

	"maswada-backend/application/ports"
	"maswada-backend/infrastructure/persistence/repotest"

	"github.com/stretchr/testify/assert"
)

func TestNoteRepositoryContract(t *testing.T) {
	repotest.Run(t, func(t *testing.T) ports.NoteRepository {
		return NewNoteRepository()
	})
}

func TestNoteRepositoryConfiguredErrors(t *testing.T) {
	repo := NewNoteRepository()
	boom := errors.New("boom")
	repo.SetError("ListByOwner", boom)

	_, err := repo.ListByOwner(context.Background(), "owner-a")
	assert.ErrorIs(t, err, boom)

	repo.ClearErrors()
	_, err = repo.ListByOwner(context.Background(), "owner-a")
	assert.NoError(t, err)
}
