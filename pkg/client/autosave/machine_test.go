package autosave

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loaded(id string, d Draft) Machine {
	m, _ := Transition(Machine{}, Load{NoteID: id, Draft: d})
	return m
}

func step(t *testing.T, m Machine, ev Event) (Machine, []Effect) {
	t.Helper()
	return Transition(m, ev)
}

func TestTransitionLoad(t *testing.T) {
	m := loaded("n1", Draft{Title: "T", Content: "C"})
	assert.Equal(t, Idle, m.State)
	assert.False(t, m.UserEdited)

	m, _ = step(t, m, Edit{Draft: Draft{Title: "T2", Content: "C"}})
	require.Equal(t, Dirty, m.State)
	oldGen := m.Generation()

	t.Run("SwitchResetsWithoutSaving", func(t *testing.T) {
		next, effects := step(t, m, Load{NoteID: "n2", Draft: Draft{Title: "Other"}})
		assert.Equal(t, Idle, next.State)
		assert.Equal(t, "n2", next.NoteID)
		assert.False(t, next.UserEdited)
		assert.True(t, next.LastSaved.IsZero())
		assert.Equal(t, []Effect{CancelTimer{}}, effects)

		after, effects := step(t, next, TimerFired{Gen: oldGen})
		assert.Empty(t, effects)
		assert.Equal(t, Idle, after.State)
	})
}

func TestTransitionEdit(t *testing.T) {
	base := Draft{Title: "T", Content: "C"}

	t.Run("ChangeMarksDirtyAndStartsTimer", func(t *testing.T) {
		m, effects := step(t, loaded("n1", base), Edit{Draft: Draft{Title: "T", Content: "C!"}})
		assert.Equal(t, Dirty, m.State)
		assert.True(t, m.UserEdited)
		assert.Equal(t, []Effect{StartTimer{Gen: m.Generation()}}, effects)
	})

	t.Run("EachEditRestartsTimer", func(t *testing.T) {
		m, _ := step(t, loaded("n1", base), Edit{Draft: Draft{Content: "a"}})
		first := m.Generation()
		m, effects := step(t, m, Edit{Draft: Draft{Content: "ab"}})
		assert.Greater(t, m.Generation(), first)
		assert.Equal(t, []Effect{StartTimer{Gen: m.Generation()}}, effects)

		_, effects = step(t, m, TimerFired{Gen: first})
		assert.Empty(t, effects)
	})

	t.Run("RevertCancels", func(t *testing.T) {
		m, _ := step(t, loaded("n1", base), Edit{Draft: Draft{Title: "X", Content: "C"}})
		m, effects := step(t, m, Edit{Draft: base})
		assert.Equal(t, Idle, m.State)
		assert.Equal(t, []Effect{CancelTimer{}}, effects)
	})

	t.Run("IgnoredWithoutNote", func(t *testing.T) {
		m, effects := step(t, Machine{}, Edit{Draft: base})
		assert.Equal(t, Idle, m.State)
		assert.Empty(t, effects)
	})
}

func TestTransitionSave(t *testing.T) {
	base := Draft{Title: "T", Content: "C"}
	edited := Draft{Title: "T", Content: "C2"}
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	dirty, _ := step(t, loaded("n1", base), Edit{Draft: edited})

	t.Run("TimerStartsSave", func(t *testing.T) {
		m, effects := step(t, dirty, TimerFired{Gen: dirty.Generation()})
		assert.Equal(t, Saving, m.State)
		require.Len(t, effects, 1)
		save := effects[0].(Save)
		assert.Equal(t, "n1", save.NoteID)
		assert.Equal(t, edited, save.Draft)

		m, effects = step(t, m, SaveSucceeded{Seq: save.Seq, At: at})
		assert.Empty(t, effects)
		assert.Equal(t, Saved, m.State)
		assert.Equal(t, at, m.LastSaved)
		assert.Equal(t, edited, m.Persisted)
	})

	t.Run("FailureDoesNotRetry", func(t *testing.T) {
		m, effects := step(t, dirty, TimerFired{Gen: dirty.Generation()})
		seq := effects[0].(Save).Seq

		boom := errors.New("boom")
		m, effects = step(t, m, SaveFailedEvent{Seq: seq, Err: boom})
		assert.Empty(t, effects)
		assert.Equal(t, SaveFailed, m.State)
		assert.ErrorIs(t, m.Err, boom)
		assert.Equal(t, base, m.Persisted)

		m, effects = step(t, m, Edit{Draft: Draft{Title: "T", Content: "C22"}})
		assert.Equal(t, Dirty, m.State)
		assert.Equal(t, []Effect{StartTimer{Gen: m.Generation()}}, effects)
	})

	t.Run("SaveNowCancelsTimer", func(t *testing.T) {
		m, effects := step(t, dirty, SaveNow{})
		assert.Equal(t, Saving, m.State)
		require.Len(t, effects, 2)
		assert.Equal(t, CancelTimer{}, effects[0])
		assert.IsType(t, Save{}, effects[1])

		_, effects = step(t, m, TimerFired{Gen: dirty.Generation()})
		assert.Empty(t, effects)
	})

	t.Run("EditDuringSaveSchedulesFollowUp", func(t *testing.T) {
		m, effects := step(t, dirty, TimerFired{Gen: dirty.Generation()})
		firstSeq := effects[0].(Save).Seq

		later := Draft{Title: "T", Content: "C3"}
		m, effects = step(t, m, Edit{Draft: later})
		assert.Equal(t, Saving, m.State)
		assert.Equal(t, []Effect{StartTimer{Gen: m.Generation()}}, effects)

		// timer fires while the first save is still running
		m, effects = step(t, m, TimerFired{Gen: m.Generation()})
		assert.Empty(t, effects)

		m, effects = step(t, m, SaveSucceeded{Seq: firstSeq, At: at})
		require.Len(t, effects, 1)
		follow := effects[0].(Save)
		assert.Equal(t, later, follow.Draft)
		assert.Greater(t, follow.Seq, firstSeq)
		assert.Equal(t, Saving, m.State)
		assert.Equal(t, edited, m.Persisted)
	})

	t.Run("EditDuringSaveWaitsForTimer", func(t *testing.T) {
		m, effects := step(t, dirty, TimerFired{Gen: dirty.Generation()})
		seq := effects[0].(Save).Seq
		m, _ = step(t, m, Edit{Draft: Draft{Content: "more"}})

		m, effects = step(t, m, SaveSucceeded{Seq: seq, At: at})
		assert.Empty(t, effects)
		assert.Equal(t, Dirty, m.State)

		_, effects = step(t, m, TimerFired{Gen: m.Generation()})
		require.Len(t, effects, 1)
	})

	t.Run("StaleResultIgnored", func(t *testing.T) {
		m, effects := step(t, dirty, TimerFired{Gen: dirty.Generation()})
		seq := effects[0].(Save).Seq

		switched, _ := step(t, m, Load{NoteID: "n2", Draft: base})
		after, effects := step(t, switched, SaveSucceeded{Seq: seq, At: at})
		assert.Empty(t, effects)
		assert.Equal(t, Idle, after.State)
		assert.True(t, after.LastSaved.IsZero())
	})
}

func TestSinceLastSaved(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := map[time.Duration]string{
		0:                "now",
		4 * time.Second:  "now",
		5 * time.Second:  "5s",
		59 * time.Second: "59s",
		time.Minute:      "1m",
		59 * time.Minute: "59m",
		time.Hour:        "1h",
		26 * time.Hour:   "26h",
	}
	for ago, want := range cases {
		assert.Equal(t, want, SinceLastSaved(now, now.Add(-ago)), "ago %s", ago)
	}
}
