// Package autosave debounces editor changes into note saves.
//
// The state machine in Transition is pure: it takes the current Machine and
// one Event and returns the next Machine plus the side effects to perform.
// Coordinator runs it against real timers and a Saver.
package autosave

import (
	"time"
)

// State is the save status shown to the user.
type State int

const (
	Idle State = iota
	Dirty
	Saving
	Saved
	SaveFailed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dirty:
		return "unsaved"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case SaveFailed:
		return "save failed"
	default:
		return "unknown"
	}
}

// Draft is the editable part of a note.
type Draft struct {
	Title   string
	Content string
}

// Machine is the full autosave state for one editor.
type Machine struct {
	State  State
	NoteID string
	// Persisted is the last draft known to be on the server.
	Persisted Draft
	Draft     Draft
	LastSaved time.Time
	Err       error
	// UserEdited is set by the first edit after a load.
	UserEdited bool

	gen           uint64
	seq           uint64
	inFlight      bool
	inFlightSeq   uint64
	inFlightDraft Draft
	// saveAfter means a save was due while another was in flight.
	saveAfter bool
}

// Generation identifies the current debounce timer.
func (m Machine) Generation() uint64 { return m.gen }

// Event is an input to Transition.
type Event interface{ isEvent() }

type (
	// Load switches the editor to a note without marking it dirty.
	Load struct {
		NoteID string
		Draft  Draft
	}
	// Edit reports the editor's current contents.
	Edit struct{ Draft Draft }
	// TimerFired reports that the debounce timer of generation Gen elapsed.
	TimerFired struct{ Gen uint64 }
	// SaveNow requests an immediate save.
	SaveNow struct{}
	// SaveSucceeded completes save Seq.
	SaveSucceeded struct {
		Seq uint64
		At  time.Time
	}
	// SaveFailedEvent completes save Seq with an error.
	SaveFailedEvent struct {
		Seq uint64
		Err error
	}
)

func (Load) isEvent()            {}
func (Edit) isEvent()            {}
func (TimerFired) isEvent()      {}
func (SaveNow) isEvent()         {}
func (SaveSucceeded) isEvent()   {}
func (SaveFailedEvent) isEvent() {}

// Effect is a side effect requested by Transition.
type Effect interface{ isEffect() }

type (
	// StartTimer (re)starts the debounce timer for generation Gen.
	StartTimer struct{ Gen uint64 }
	// CancelTimer stops the pending debounce timer, if any.
	CancelTimer struct{}
	// Save persists Draft for NoteID; the outcome must be reported with Seq.
	Save struct {
		NoteID string
		Draft  Draft
		Seq    uint64
	}
)

func (StartTimer) isEffect()  {}
func (CancelTimer) isEffect() {}
func (Save) isEffect()        {}

// Transition applies ev to m.
func Transition(m Machine, ev Event) (Machine, []Effect) {
	switch ev := ev.(type) {
	case Load:
		return Machine{
			State:     Idle,
			NoteID:    ev.NoteID,
			Persisted: ev.Draft,
			Draft:     ev.Draft,
			gen:       m.gen + 1,
			seq:       m.seq,
		}, []Effect{CancelTimer{}}

	case Edit:
		if m.NoteID == "" || ev.Draft == m.Draft {
			return m, nil
		}
		m.Draft = ev.Draft
		m.UserEdited = true

		if m.inFlight {
			if ev.Draft == m.inFlightDraft {
				m.saveAfter = false
				m.gen++
				return m, []Effect{CancelTimer{}}
			}
			m.gen++
			return m, []Effect{StartTimer{Gen: m.gen}}
		}

		if ev.Draft == m.Persisted {
			m.gen++
			if m.State == Dirty || m.State == SaveFailed {
				m.State = m.restState()
			}
			return m, []Effect{CancelTimer{}}
		}

		m.State = Dirty
		m.gen++
		return m, []Effect{StartTimer{Gen: m.gen}}

	case TimerFired:
		if ev.Gen != m.gen || m.NoteID == "" {
			return m, nil
		}
		if m.inFlight {
			m.saveAfter = true
			return m, nil
		}
		if m.Draft == m.Persisted {
			return m, nil
		}
		return m.startSave(nil)

	case SaveNow:
		if m.NoteID == "" {
			return m, nil
		}
		m.gen++
		if m.inFlight {
			m.saveAfter = m.Draft != m.inFlightDraft
			return m, []Effect{CancelTimer{}}
		}
		return m.startSave([]Effect{CancelTimer{}})

	case SaveSucceeded:
		if !m.inFlight || ev.Seq != m.inFlightSeq {
			return m, nil
		}
		m.inFlight = false
		m.Persisted = m.inFlightDraft
		m.LastSaved = ev.At
		m.Err = nil
		if m.Draft == m.Persisted {
			m.saveAfter = false
			m.State = Saved
			return m, nil
		}
		if m.saveAfter {
			return m.startSave(nil)
		}
		m.State = Dirty
		return m, nil

	case SaveFailedEvent:
		if !m.inFlight || ev.Seq != m.inFlightSeq {
			return m, nil
		}
		m.inFlight = false
		m.saveAfter = false
		m.State = SaveFailed
		m.Err = ev.Err
		return m, nil
	}
	return m, nil
}

func (m Machine) startSave(effects []Effect) (Machine, []Effect) {
	m.seq++
	m.inFlight = true
	m.inFlightSeq = m.seq
	m.inFlightDraft = m.Draft
	m.saveAfter = false
	m.State = Saving
	return m, append(effects, Save{NoteID: m.NoteID, Draft: m.Draft, Seq: m.seq})
}

func (m Machine) restState() State {
	if m.LastSaved.IsZero() {
		return Idle
	}
	return Saved
}
