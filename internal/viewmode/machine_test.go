package viewmode

import (
	"sync"
	"testing"
	"time"
)

// fakeWindow records every geometry request.
type fakeWindow struct {
	mu          sync.Mutex
	calls       []string
	resizes     [][2]int
	resizable   []bool
	alwaysOnTop bool
	maximized   bool
}

func (f *fakeWindow) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeWindow) Resize(w, h int) {
	f.record("resize")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizes = append(f.resizes, [2]int{w, h})
}

func (f *fakeWindow) SetResizable(r bool) {
	f.record("setResizable")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resizable = append(f.resizable, r)
}

func (f *fakeWindow) Center()         { f.record("center") }
func (f *fakeWindow) Minimize()       { f.record("minimize") }
func (f *fakeWindow) ToggleMaximize() { f.record("toggleMaximize") }
func (f *fakeWindow) Close()          { f.record("close") }

func (f *fakeWindow) SetAlwaysOnTop(onTop bool) {
	f.record("setAlwaysOnTop")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alwaysOnTop = onTop
}

func (f *fakeWindow) IsAlwaysOnTop() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alwaysOnTop
}

func (f *fakeWindow) IsMaximized() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maximized
}

func (f *fakeWindow) lastResize(t *testing.T) [2]int {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.resizes) == 0 {
		t.Fatal("no resize requested")
	}
	return f.resizes[len(f.resizes)-1]
}

func (f *fakeWindow) lastResizable(t *testing.T) bool {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.resizable) == 0 {
		t.Fatal("no resizable request")
	}
	return f.resizable[len(f.resizable)-1]
}

func testMachine(t *testing.T, initial Mode) (*Machine, *fakeWindow) {
	t.Helper()
	win := &fakeWindow{}
	m := NewMachine(win, initial)
	m.idleDelay = 300 * time.Millisecond
	if initial == ModeCompact {
		// Re-arm the countdown armed during construction with the
		// shortened delay.
		m.PointerLeave()
	}
	t.Cleanup(m.Close)
	return m, win
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"normal", ModeNormal},
		{"compact", ModeCompact},
		{"mini", ModeMini},
		{"", ModeNormal},
		{"bogus", ModeNormal},
	}
	for _, tt := range tests {
		if got := ParseMode(tt.in); got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCycle_VisitsAllModesInOrder(t *testing.T) {
	m, _ := testMachine(t, ModeNormal)

	var visited []Mode
	for i := 0; i < 3; i++ {
		m.Cycle()
		visited = append(visited, m.Mode())
	}

	want := []Mode{ModeCompact, ModeMini, ModeNormal}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("cycle sequence = %v, want %v", visited, want)
		}
	}
}

func TestRestore_OnlyFromMini(t *testing.T) {
	m, _ := testMachine(t, ModeNormal)

	m.Restore()
	if m.Mode() != ModeNormal {
		t.Errorf("restore from normal should do nothing, got %v", m.Mode())
	}

	m.Cycle() // compact
	m.Cycle() // mini
	m.Restore()
	if m.Mode() != ModeCompact {
		t.Errorf("restore from mini = %v, want compact", m.Mode())
	}
}

func TestToggleTab(t *testing.T) {
	m, _ := testMachine(t, ModeNormal)

	if m.Tab() != TabOverall {
		t.Fatalf("initial tab = %v", m.Tab())
	}
	m.ToggleTab()
	if m.Tab() != TabProjects {
		t.Errorf("tab = %v, want projects", m.Tab())
	}
	m.ToggleTab()
	if m.Tab() != TabOverall {
		t.Errorf("tab = %v, want overall", m.Tab())
	}
}

func TestGeometry_NormalEntry(t *testing.T) {
	m, win := testMachine(t, ModeMini)

	m.Cycle() // mini -> normal
	if !win.lastResizable(t) {
		t.Errorf("normal must be resizable")
	}
	if size := win.lastResize(t); size != [2]int{normalWidth, normalHeight} {
		t.Errorf("resize = %v, want full size", size)
	}

	win.mu.Lock()
	centered := false
	for _, call := range win.calls {
		if call == "center" {
			centered = true
		}
	}
	win.mu.Unlock()
	if !centered {
		t.Errorf("entering normal must center the window")
	}
}

func TestGeometry_DenseModesAreFixed(t *testing.T) {
	m, win := testMachine(t, ModeNormal)

	m.Cycle() // compact
	if win.lastResizable(t) {
		t.Errorf("compact must not be resizable")
	}
	if size := win.lastResize(t); size != [2]int{compactWidth, compactHeight} {
		t.Errorf("compact resize = %v", size)
	}

	m.Cycle() // mini
	if size := win.lastResize(t); size != [2]int{miniWidth, miniHeight} {
		t.Errorf("mini resize = %v", size)
	}
}

func TestIdle_CompactCollapsesToMini(t *testing.T) {
	m, _ := testMachine(t, ModeCompact)

	time.Sleep(m.idleDelay / 2)
	if m.Mode() != ModeCompact {
		t.Fatalf("collapsed too early: %v", m.Mode())
	}

	time.Sleep(m.idleDelay)
	if m.Mode() != ModeMini {
		t.Errorf("mode = %v, want mini after idle", m.Mode())
	}
}

func TestIdle_PointerEnterRestartsCountdown(t *testing.T) {
	m, _ := testMachine(t, ModeCompact)

	// Re-enter at half the delay: the countdown restarts, so the original
	// expiry must not fire.
	time.Sleep(m.idleDelay / 2)
	m.PointerEnter()

	time.Sleep(m.idleDelay * 3 / 4)
	if m.Mode() != ModeCompact {
		t.Fatalf("pointer enter did not restart the countdown, mode = %v", m.Mode())
	}

	time.Sleep(m.idleDelay)
	if m.Mode() != ModeMini {
		t.Errorf("mode = %v, want mini once the restarted countdown expires", m.Mode())
	}
}

func TestIdle_LeavingCompactCancelsTimer(t *testing.T) {
	m, _ := testMachine(t, ModeCompact)

	m.Cycle() // compact -> mini via command
	m.Restore()
	m.Cycle() // compact -> mini
	m.Cycle() // mini -> normal

	time.Sleep(m.idleDelay * 2)
	if m.Mode() != ModeNormal {
		t.Errorf("stale idle timer fired after leaving compact, mode = %v", m.Mode())
	}
}

func TestIdle_TimerMeasuredFromPointerLeave(t *testing.T) {
	m, _ := testMachine(t, ModeCompact)

	time.Sleep(m.idleDelay / 2)
	m.PointerLeave()

	time.Sleep(m.idleDelay * 3 / 4)
	if m.Mode() != ModeCompact {
		t.Fatalf("countdown not restarted from pointer leave")
	}

	time.Sleep(m.idleDelay)
	if m.Mode() != ModeMini {
		t.Errorf("mode = %v, want mini", m.Mode())
	}
}

func TestIdle_StaleExpiryAfterRestartKeepsCompact(t *testing.T) {
	m, _ := testMachine(t, ModeCompact)

	// Simulate an expiry callback that was already queued when the
	// countdown restarted: it must re-arm, not collapse.
	m.PointerEnter()
	m.idleExpired()
	if m.Mode() != ModeCompact {
		t.Fatalf("stale expiry collapsed a freshly restarted countdown")
	}

	time.Sleep(m.idleDelay * 3 / 2)
	if m.Mode() != ModeMini {
		t.Errorf("mode = %v, want mini once the real deadline passes", m.Mode())
	}
}

func TestClose_Idempotent(t *testing.T) {
	win := &fakeWindow{}
	m := NewMachine(win, ModeCompact)
	m.idleDelay = 50 * time.Millisecond
	// Re-arm the construction-time countdown with the shortened delay so
	// the sleep below actually covers an expiry.
	m.PointerLeave()

	m.Close()
	m.Close()

	time.Sleep(150 * time.Millisecond)
	if m.Mode() != ModeCompact {
		t.Errorf("idle timer fired after close")
	}
}
