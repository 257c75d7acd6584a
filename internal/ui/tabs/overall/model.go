// Package overall renders the aggregate usage tab: totals, burn rate, plan
// limits, the daily chart, and the model split.
package overall

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dreynolds/ccmon-tui/internal/app"
	"github.com/dreynolds/ccmon-tui/internal/ui/components"
)

// keyMap defines the key bindings specific to the overall tab.
type keyMap struct {
	Refresh key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// Model represents the overall tab state.
type Model struct {
	state   *app.State
	spinner components.LoadingSpinner
	keys    keyMap
	width   int
	height  int
}

// New creates a new overall tab model.
func New(state *app.State) *Model {
	return &Model{
		state:   state,
		spinner: components.NewSpinner("Loading usage..."),
		keys:    defaultKeyMap(),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Init()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// SetSize sets the available size for the tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Refresh}
}
