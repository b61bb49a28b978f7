package autosave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last edit before saving.
const DefaultDebounce = 3 * time.Second

// Timer is a pending callback.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Saver persists a draft.
type Saver interface {
	Save(ctx context.Context, noteID string, d Draft) error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) { c.debounce = d }
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

// WithLogger logs failed saves.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithOnChange registers fn to receive every new machine state. fn must not
// call back into the coordinator.
func WithOnChange(fn func(Machine)) Option {
	return func(c *Coordinator) { c.onChange = fn }
}

// Coordinator drives the autosave machine for one editor. There is at most
// one pending timer and one save in flight.
type Coordinator struct {
	saver    Saver
	clock    Clock
	debounce time.Duration
	logger   *zap.Logger
	onChange func(Machine)

	mu      sync.Mutex
	machine Machine
	timer   Timer
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCoordinator creates a coordinator saving through saver.
func NewCoordinator(saver Saver, opts ...Option) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		saver:    saver,
		clock:    realClock{},
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load switches to another note.
func (c *Coordinator) Load(noteID string, d Draft) { c.dispatch(Load{NoteID: noteID, Draft: d}) }

// Edit reports the editor's current contents.
func (c *Coordinator) Edit(d Draft) { c.dispatch(Edit{Draft: d}) }

// SaveNow saves immediately, skipping the debounce.
func (c *Coordinator) SaveNow() { c.dispatch(SaveNow{}) }

// Snapshot returns a copy of the machine.
func (c *Coordinator) Snapshot() Machine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine
}

func (c *Coordinator) State() State { return c.Snapshot().State }

func (c *Coordinator) LastSaved() time.Time { return c.Snapshot().LastSaved }

func (c *Coordinator) HasUserEdited() bool { return c.Snapshot().UserEdited }

// Close cancels the pending timer and any in-flight save, and waits for
// background work to finish. Unsaved edits are dropped.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.stopTimer()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return nil
}

func (c *Coordinator) dispatch(ev Event) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	before := c.machine
	next, effects := Transition(c.machine, ev)
	c.machine = next
	for _, eff := range effects {
		c.apply(eff)
	}
	c.mu.Unlock()

	if c.onChange != nil && changed(before, next) {
		c.onChange(next)
	}
}

// apply runs with c.mu held.
func (c *Coordinator) apply(eff Effect) {
	switch eff := eff.(type) {
	case StartTimer:
		c.stopTimer()
		c.wg.Add(1)
		c.timer = c.clock.AfterFunc(c.debounce, func() {
			defer c.wg.Done()
			c.dispatch(TimerFired{Gen: eff.Gen})
		})
	case CancelTimer:
		c.stopTimer()
	case Save:
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.save(eff)
		}()
	}
}

func (c *Coordinator) stopTimer() {
	if c.timer == nil {
		return
	}
	if c.timer.Stop() {
		c.wg.Done()
	}
	c.timer = nil
}

func (c *Coordinator) save(eff Save) {
	err := c.callSaver(eff)
	if err != nil {
		c.logger.Warn("Autosave failed",
			zap.String("note_id", eff.NoteID),
			zap.Uint64("seq", eff.Seq),
			zap.Error(err))
		c.dispatch(SaveFailedEvent{Seq: eff.Seq, Err: err})
		return
	}
	c.dispatch(SaveSucceeded{Seq: eff.Seq, At: c.clock.Now()})
}

func (c *Coordinator) callSaver(eff Save) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("saver panicked: %v", r)
		}
	}()
	return c.saver.Save(c.ctx, eff.NoteID, eff.Draft)
}

func changed(a, b Machine) bool {
	return a.State != b.State || a.NoteID != b.NoteID || !a.LastSaved.Equal(b.LastSaved) || a.UserEdited != b.UserEdited
}

// SinceLastSaved renders how long ago t was, relative to now: "now" under
// five seconds, then whole seconds, minutes or hours.
func SinceLastSaved(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < 5*time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	default:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	}
}
