package note

import (
	"strings"
	"testing"
	"time"

	appErrors "maswada-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNew(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 123456789, time.UTC)

	t.Run("SuccessfulCreation", func(t *testing.T) {
		n, err := New("user_1", "Shopping", "milk", now)
		require.NoError(t, err)

		assert.NotEmpty(t, n.ID)
		assert.Equal(t, "user_1", n.OwnerID)
		assert.Nil(t, n.Summary)
		assert.Equal(t, n.CreatedAt, n.UpdatedAt)
		assert.Equal(t, 123456000, n.CreatedAt.Nanosecond(), "timestamps are kept at microsecond precision")
	})

	t.Run("EmptyContentAllowed", func(t *testing.T) {
		n, err := New("user_1", "Draft", "", now)
		require.NoError(t, err)
		assert.Empty(t, n.Content)
	})

	t.Run("EmptyTitleRejected", func(t *testing.T) {
		_, err := New("user_1", "", "x", now)
		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("TitleLengthCountsCharacters", func(t *testing.T) {
		_, err := New("user_1", strings.Repeat("م", MaxTitleLength), "", now)
		assert.NoError(t, err)

		_, err = New("user_1", strings.Repeat("a", MaxTitleLength+1), "", now)
		assert.True(t, appErrors.IsValidation(err))
	})

	t.Run("MissingOwnerRejected", func(t *testing.T) {
		_, err := New(" ", "T", "", now)
		assert.True(t, appErrors.IsUnauthorized(err))
	})
}

func TestApply(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("OnlySuppliedFieldsChange", func(t *testing.T) {
		n, err := New("user_1", "T", "C", now)
		require.NoError(t, err)

		require.NoError(t, n.Apply(Patch{Content: strPtr("C2")}, now.Add(time.Second)))
		assert.Equal(t, "T", n.Title)
		assert.Equal(t, "C2", n.Content)
		assert.Nil(t, n.Summary)
		assert.True(t, n.UpdatedAt.After(n.CreatedAt))
	})

	t.Run("UpdatedAtAdvancesWithFrozenClock", func(t *testing.T) {
		n, err := New("user_1", "T", "C", now)
		require.NoError(t, err)
		before := n.UpdatedAt

		require.NoError(t, n.Apply(Patch{Title: strPtr("T2")}, now))
		assert.True(t, n.UpdatedAt.After(before))

		require.NoError(t, n.Apply(Patch{Title: strPtr("T3")}, now.Add(-time.Hour)))
		assert.True(t, n.UpdatedAt.After(before.Add(time.Microsecond)))
	})

	t.Run("SummarySetAndCleared", func(t *testing.T) {
		n, err := New("user_1", "T", "C", now)
		require.NoError(t, err)

		require.NoError(t, n.Apply(Patch{Summary: strPtr("short"), SummarySet: true}, now))
		require.NotNil(t, n.Summary)
		assert.Equal(t, "short", *n.Summary)

		require.NoError(t, n.Apply(Patch{SummarySet: true}, now))
		assert.Nil(t, n.Summary)
	})

	t.Run("InvalidTitleLeavesNoteUntouched", func(t *testing.T) {
		n, err := New("user_1", "T", "C", now)
		require.NoError(t, err)

		err = n.Apply(Patch{Title: strPtr(""), Content: strPtr("other")}, now)
		assert.True(t, appErrors.IsValidation(err))
		assert.Equal(t, "C", n.Content)
	})

	t.Run("CloneIsDeep", func(t *testing.T) {
		n, err := New("user_1", "T", "C", now)
		require.NoError(t, err)
		n.Summary = strPtr("s")

		c := n.Clone()
		*c.Summary = "changed"
		assert.Equal(t, "s", *n.Summary)
	})

	t.Run("EmptyPatch", func(t *testing.T) {
		assert.True(t, Patch{}.Empty())
		assert.False(t, Patch{SummarySet: true}.Empty())
	})
}
