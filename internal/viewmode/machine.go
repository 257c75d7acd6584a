// Package viewmode holds the display-density state machine: which of the
// three layouts is showing, the idle timer that collapses compact into mini,
// and the window geometry requested on each transition.
package viewmode

import (
	"sync"
	"time"
)

// Mode is the active display density.
type Mode string

const (
	ModeNormal  Mode = "normal"
	ModeCompact Mode = "compact"
	ModeMini    Mode = "mini"
)

// ParseMode maps a persisted setting back to a mode, defaulting to normal.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeCompact:
		return ModeCompact
	case ModeMini:
		return ModeMini
	default:
		return ModeNormal
	}
}

// Tab selects which data view is showing. It is orthogonal to Mode.
type Tab string

const (
	TabOverall  Tab = "overall"
	TabProjects Tab = "projects"
)

// DefaultIdleDelay is how long compact waits, measured from the most recent
// pointer event, before collapsing to mini.
const DefaultIdleDelay = 10 * time.Second

// Logical window sizes per mode, in character cells.
const (
	normalWidth   = 110
	normalHeight  = 34
	compactWidth  = 56
	compactHeight = 16
	miniWidth     = 56
	miniHeight    = 3
)

// Machine is the view-mode state machine. It owns the mode, the active tab,
// and the compact idle timer, and issues geometry requests to the window
// manager on every mode entry.
type Machine struct {
	wm WindowManager

	// idleDelay is shortened in tests.
	idleDelay time.Duration

	mu           sync.Mutex
	mode         Mode
	tab          Tab
	idleTimer    *time.Timer
	idleDeadline time.Time

	updates   chan struct{}
	closeOnce sync.Once
}

// NewMachine creates the machine in the given initial mode and applies that
// mode's geometry immediately.
func NewMachine(wm WindowManager, initial Mode) *Machine {
	m := &Machine{
		wm:        wm,
		idleDelay: DefaultIdleDelay,
		mode:      initial,
		tab:       TabOverall,
		updates:   make(chan struct{}, 1),
	}
	m.applyGeometry(initial)
	if initial == ModeCompact {
		m.mu.Lock()
		m.restartIdleTimer()
		m.mu.Unlock()
	}
	return m
}

// Mode returns the current display density.
func (m *Machine) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Tab returns the active data view.
func (m *Machine) Tab() Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tab
}

// ToggleTab flips between the overall and projects views.
func (m *Machine) ToggleTab() {
	m.mu.Lock()
	if m.tab == TabOverall {
		m.tab = TabProjects
	} else {
		m.tab = TabOverall
	}
	m.mu.Unlock()
	m.notify()
}

// Updates signals observable state changes, coalesced. The consumer re-reads
// Mode and Tab on each signal.
func (m *Machine) Updates() <-chan struct{} {
	return m.updates
}

func (m *Machine) notify() {
	select {
	case m.updates <- struct{}{}:
	default:
	}
}

// Cycle advances normal -> compact -> mini -> normal. This is the only
// command path between non-adjacent modes.
func (m *Machine) Cycle() {
	m.mu.Lock()
	switch m.mode {
	case ModeNormal:
		m.enter(ModeCompact)
	case ModeCompact:
		m.enter(ModeMini)
	default:
		m.enter(ModeNormal)
	}
	m.mu.Unlock()
	m.notify()
}

// Restore brings mini back to compact. In any other mode it does nothing.
func (m *Machine) Restore() {
	m.mu.Lock()
	if m.mode != ModeMini {
		m.mu.Unlock()
		return
	}
	m.enter(ModeCompact)
	m.mu.Unlock()
	m.notify()
}

// PointerEnter reports the pointer entering the window. While compact it
// restarts the idle countdown; it never transitions state itself.
func (m *Machine) PointerEnter() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == ModeCompact {
		m.restartIdleTimer()
	}
}

// PointerLeave reports the pointer leaving the window. While compact the
// idle countdown is measured from this moment.
func (m *Machine) PointerLeave() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == ModeCompact {
		m.restartIdleTimer()
	}
}

// enter switches mode and applies geometry. Leaving compact cancels any
// pending idle transition so a stale timer cannot fire after the switch.
// Callers hold the lock.
func (m *Machine) enter(next Mode) {
	if m.mode == ModeCompact && next != ModeCompact {
		m.cancelIdleTimer()
	}
	m.mode = next
	m.applyGeometry(next)
	if next == ModeCompact {
		m.restartIdleTimer()
	}
}

// applyGeometry issues the mode's window requests. Normal gets the full
// resizable centered window; the dense modes get a fixed footprint.
func (m *Machine) applyGeometry(mode Mode) {
	switch mode {
	case ModeNormal:
		m.wm.SetResizable(true)
		m.wm.Resize(normalWidth, normalHeight)
		m.wm.Center()
	case ModeCompact:
		m.wm.SetResizable(false)
		m.wm.Resize(compactWidth, compactHeight)
	case ModeMini:
		m.wm.SetResizable(false)
		m.wm.Resize(miniWidth, miniHeight)
	}
}

// restartIdleTimer arms (or re-arms) the compact-to-mini countdown. Callers
// hold the lock.
func (m *Machine) restartIdleTimer() {
	m.idleDeadline = time.Now().Add(m.idleDelay)
	if m.idleTimer != nil {
		m.idleTimer.Reset(m.idleDelay)
		return
	}
	m.idleTimer = time.AfterFunc(m.idleDelay, m.idleExpired)
}

// cancelIdleTimer stops a pending countdown. Callers hold the lock.
func (m *Machine) cancelIdleTimer() {
	if m.idleTimer != nil {
		m.idleTimer.Stop()
	}
}

// idleExpired fires on the timer goroutine. Mode and deadline are rechecked
// under the lock: a transition that already left compact wins over a late
// timer, and a callback that was already queued when the countdown restarted
// re-arms for the remaining time instead of collapsing early.
func (m *Machine) idleExpired() {
	m.mu.Lock()
	if m.mode != ModeCompact {
		m.mu.Unlock()
		return
	}
	if remaining := time.Until(m.idleDeadline); remaining > 0 {
		m.idleTimer.Reset(remaining)
		m.mu.Unlock()
		return
	}
	m.enter(ModeMini)
	m.mu.Unlock()
	m.notify()
}

// Close cancels any pending idle timer. Safe to call more than once.
func (m *Machine) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.cancelIdleTimer()
		m.mu.Unlock()
	})
}
