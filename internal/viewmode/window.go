package viewmode

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// WindowManager is the injected capability the state machine drives for
// geometry changes. All operations are best-effort: implementations swallow
// host failures rather than surfacing them, so a missing or uncooperative
// window system never affects mode transitions.
type WindowManager interface {
	Resize(width, height int)
	SetResizable(resizable bool)
	Center()
	Minimize()
	ToggleMaximize()
	Close()
	SetAlwaysOnTop(onTop bool)
	IsAlwaysOnTop() bool
	IsMaximized() bool
}

// TerminalWindow drives the hosting terminal emulator with xterm window
// manipulation sequences. Emulators that ignore these sequences simply do
// nothing, which is exactly the contract.
type TerminalWindow struct {
	mu          sync.Mutex
	out         io.Writer
	alwaysOnTop bool
	maximized   bool
}

// NewTerminalWindow returns a window manager writing to stdout.
func NewTerminalWindow() *TerminalWindow {
	return &TerminalWindow{out: os.Stdout}
}

// Resize requests a text-area size in character cells.
func (t *TerminalWindow) Resize(width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "\x1b[8;%d;%dt", height, width)
}

// SetResizable is a no-op: terminals do not expose a resizability toggle.
func (t *TerminalWindow) SetResizable(bool) {}

// Center is a no-op: terminal emulators place their own windows.
func (t *TerminalWindow) Center() {}

// Minimize iconifies the terminal window.
func (t *TerminalWindow) Minimize() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(t.out, "\x1b[2t")
}

// ToggleMaximize flips between maximized and restored.
func (t *TerminalWindow) ToggleMaximize() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.maximized {
		fmt.Fprint(t.out, "\x1b[9;0t")
	} else {
		fmt.Fprint(t.out, "\x1b[9;1t")
	}
	t.maximized = !t.maximized
}

// Close is a no-op; the application exits via its own lifecycle, not by
// asking the terminal to close.
func (t *TerminalWindow) Close() {}

// SetAlwaysOnTop records the preference. Terminals offer no portable way to
// pin a window, so only the reported state changes.
func (t *TerminalWindow) SetAlwaysOnTop(onTop bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.alwaysOnTop = onTop
}

func (t *TerminalWindow) IsAlwaysOnTop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.alwaysOnTop
}

func (t *TerminalWindow) IsMaximized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maximized
}
