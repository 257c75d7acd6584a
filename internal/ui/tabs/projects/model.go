// Package projects renders the per-project usage tab: a selectable table of
// projects with a detail card for the selection.
package projects

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dreynolds/ccmon-tui/internal/app"
	"github.com/dreynolds/ccmon-tui/internal/ui/components"
)

// keyMap defines the key bindings specific to the projects tab.
type keyMap struct {
	Next  key.Binding
	Prev  key.Binding
	First key.Binding
	Last  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next project"),
		),
		Prev: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev project"),
		),
		First: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first project"),
		),
		Last: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last project"),
		),
	}
}

// Model represents the projects tab state.
type Model struct {
	state         *app.State
	spinner       components.LoadingSpinner
	keys          keyMap
	width         int
	height        int
	selectedIndex int
}

// New creates a new projects tab model.
func New(state *app.State) *Model {
	return &Model{
		state:   state,
		spinner: components.NewSpinner("Loading projects..."),
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
	case tea.KeyMsg:
		m.handleKeyMsg(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) {
	count := len(m.state.Sync().Snapshot.Projects)
	if count == 0 {
		return
	}

	switch {
	case key.Matches(msg, m.keys.Next):
		m.selectedIndex = (m.selectedIndex + 1) % count
	case key.Matches(msg, m.keys.Prev):
		m.selectedIndex = (m.selectedIndex - 1 + count) % count
	case key.Matches(msg, m.keys.First):
		m.selectedIndex = 0
	case key.Matches(msg, m.keys.Last):
		m.selectedIndex = count - 1
	}
}

// SetSize sets the available size for the tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Next, m.keys.Prev, m.keys.First, m.keys.Last}
}
