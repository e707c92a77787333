// Package poll provides a repeating Bubble Tea ticker with a swappable handler.
package poll

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// Handler runs on every tick and may return a command to execute.
type Handler func() tea.Cmd

// TickMsg is delivered when a ticker period elapses.
type TickMsg struct {
	ID  int
	gen uint64
}

// Ticker invokes the latest registered handler every period until stopped.
//
// Ticks are tagged with a generation. Start and Stop bump it, so a tick that
// was already scheduled for an older instance is dropped on arrival and the
// handler never runs after teardown.
type Ticker struct {
	id      int
	gen     uint64
	period  time.Duration
	running bool
	handler Handler
}

// New returns a stopped ticker owning handler.
func New(handler Handler) *Ticker {
	return &Ticker{id: nextID(), handler: handler}
}

// ID returns the ticker's identifier.
func (t *Ticker) ID() int {
	return t.id
}

// SetHandler swaps the handler without touching the schedule.
func (t *Ticker) SetHandler(handler Handler) {
	t.handler = handler
}

// Start cancels any previous instance and schedules ticks every period.
// A non-positive period suspends scheduling.
func (t *Ticker) Start(period time.Duration) tea.Cmd {
	t.gen++
	if period <= 0 {
		t.running = false
		t.period = 0
		return nil
	}
	t.period = period
	t.running = true
	return t.schedule()
}

// Reschedule restarts the ticker with a new period.
func (t *Ticker) Reschedule(period time.Duration) tea.Cmd {
	return t.Start(period)
}

// Stop cancels the ticker. Ticks already in flight are discarded.
func (t *Ticker) Stop() {
	t.gen++
	t.running = false
}

// Running reports whether the ticker is scheduled.
func (t *Ticker) Running() bool {
	return t.running
}

// Period returns the active period, or 0 when stopped.
func (t *Ticker) Period() time.Duration {
	if !t.running {
		return 0
	}
	return t.period
}

// Update consumes a TickMsg addressed to this ticker. It reports whether the
// message belonged to the ticker; stale ticks are consumed without effect.
func (t *Ticker) Update(msg tea.Msg) (tea.Cmd, bool) {
	tick, ok := msg.(TickMsg)
	if !ok || tick.ID != t.id {
		return nil, false
	}
	if !t.running || tick.gen != t.gen {
		return nil, true
	}
	next := t.schedule()
	if t.handler == nil {
		return next, true
	}
	return tea.Batch(t.handler(), next), true
}

func (t *Ticker) schedule() tea.Cmd {
	id, gen := t.id, t.gen
	return tea.Tick(t.period, func(time.Time) tea.Msg {
		return TickMsg{ID: id, gen: gen}
	})
}
