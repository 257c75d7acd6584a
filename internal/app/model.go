// Package app implements the main Bubble Tea application.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/dreynolds/ccmon-tui/internal/collector"
	"github.com/dreynolds/ccmon-tui/internal/format"
	syncctl "github.com/dreynolds/ccmon-tui/internal/sync"
	"github.com/dreynolds/ccmon-tui/internal/ui/styles"
	"github.com/dreynolds/ccmon-tui/internal/viewmode"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabOverall is the ID for the aggregate usage tab.
	TabOverall TabID = iota
	// TabProjects is the ID for the per-project tab.
	TabProjects
)

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabOverall:
		return "Overall"
	case TabProjects:
		return "Projects"
	default:
		return "Unknown"
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding
}

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	CycleMode key.Binding
	Restore   key.Binding
	NextTab   key.Binding
	Tab1      key.Binding
	Tab2      key.Binding
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		CycleMode: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "cycle view mode")),
		Restore:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "restore window")),
		NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch tab")),
		Tab1:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "overall")),
		Tab2:      key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "projects")),
		Refresh:   key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Model is the main application model.
type Model struct {
	controller *syncctl.Controller
	machine    *viewmode.Machine
	state      *State

	activeTab TabID
	tabs      []Tab
	tabNames  []string

	keymap  KeyMap
	spinner spinner.Model

	width  int
	height int

	showHelp bool
	ready    bool
}

// NewModel initializes the application model over the sync controller and
// the view-mode machine.
func NewModel(controller *syncctl.Controller, machine *viewmode.Machine, state *State) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &Model{
		controller: controller,
		machine:    machine,
		state:      state,
		activeTab:  TabOverall,
		tabNames:   []string{"Overall", "Projects"},
		tabs:       make([]Tab, 2),
		keymap:     DefaultKeyMap(),
		spinner:    s,
	}
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the shared render state.
func (m *Model) GetState() *State {
	return m.state
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	m.pullSyncState()

	cmds := []tea.Cmd{
		m.spinner.Tick,
		tickCmd(DefaultTickInterval),
		waitForSyncCmd(m.controller.Updates()),
		waitForViewModeCmd(m.machine.Updates()),
	}
	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateTabSizes()

	case tea.KeyMsg:
		if cmd := m.handleKeyMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		m.handleMouseMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case TickMsg:
		m.state.ClearExpiredNotifications()
		cmds = append(cmds, tickCmd(DefaultTickInterval))

	case SyncUpdateMsg:
		cmds = append(cmds, m.handleSyncUpdate()...)

	case ViewModeUpdateMsg:
		cmds = append(cmds, waitForViewModeCmd(m.machine.Updates()))

	case RefreshDoneMsg:
		if msg.Err != nil {
			cmds = append(cmds, notifyErrorCmd(fmt.Sprintf("Refresh failed: %v", msg.Err)))
		}

	case AddNotificationMsg:
		id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
		if msg.Duration > 0 {
			cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
		}

	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)

	case DesktopNotifyDoneMsg:
		// Logged by the command; nothing to render.
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleSyncUpdate copies the controller's state into the shared render
// state and fires the plan-limit notification on a threshold crossing.
func (m *Model) handleSyncUpdate() []tea.Cmd {
	cmds := []tea.Cmd{waitForSyncCmd(m.controller.Updates())}

	view := m.pullSyncState()
	if !view.HasData {
		return cmds
	}

	limits := collector.PlanLimitsFor(m.state.PlanType())
	today := view.Snapshot.OverallStats.TodayStats.CostUSD
	if m.state.CostLimitCrossed(today, limits.CostLimit) {
		message := fmt.Sprintf("Today's usage reached %s (plan limit %s)",
			format.Cost(today), format.Cost(limits.CostLimit))
		cmds = append(cmds,
			desktopNotifyCmd("Claude usage limit", message),
			notifyWarningCmd(message),
		)
	}
	return cmds
}

// pullSyncState snapshots the controller's observable state for rendering.
func (m *Model) pullSyncState() SyncView {
	snap, ok := m.controller.Snapshot()
	view := SyncView{
		Snapshot:  snap,
		HasData:   ok,
		Loading:   m.controller.Loading(),
		Err:       m.controller.Err(),
		Animating: m.controller.Animating(),
		Heartbeat: m.controller.LastHeartbeat(),
	}
	m.state.SetSync(view)
	return view
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		return nil

	case key.Matches(msg, m.keymap.CycleMode):
		m.machine.Cycle()
		return nil

	case key.Matches(msg, m.keymap.Restore):
		m.machine.Restore()
		return nil

	case key.Matches(msg, m.keymap.NextTab):
		m.machine.ToggleTab()
		m.syncActiveTab()
		return nil

	case key.Matches(msg, m.keymap.Tab1):
		if m.machine.Tab() != viewmode.TabOverall {
			m.machine.ToggleTab()
		}
		m.syncActiveTab()
		return nil

	case key.Matches(msg, m.keymap.Tab2):
		if m.machine.Tab() != viewmode.TabProjects {
			m.machine.ToggleTab()
		}
		m.syncActiveTab()
		return nil

	case key.Matches(msg, m.keymap.Refresh):
		return refreshCmd(m.controller)
	}
	return nil
}

// handleMouseMsg feeds pointer motion into the view-mode machine's idle
// tracking. Bubble Tea reports motion, not window enter/leave, so any
// activity counts as presence.
func (m *Model) handleMouseMsg(tea.MouseMsg) {
	m.machine.PointerEnter()
}

func (m *Model) syncActiveTab() {
	if m.machine.Tab() == viewmode.TabProjects {
		m.activeTab = TabProjects
	} else {
		m.activeTab = TabOverall
	}
	m.updateTabSizes()
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		var cmd tea.Cmd
		m.tabs[m.activeTab], cmd = m.tabs[m.activeTab].Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) updateTabSizes() {
	contentHeight := max(0, m.height-4)
	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

// View renders the application UI for the active view mode.
func (m *Model) View() string {
	switch m.machine.Mode() {
	case viewmode.ModeMini:
		return m.renderMini()
	case viewmode.ModeCompact:
		return m.renderCompact()
	default:
		return m.renderNormal()
	}
}

func (m *Model) renderNormal() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	view := m.state.Sync()
	switch {
	case !m.ready, view.Loading && !view.HasData:
		b.WriteString(fmt.Sprintf("  %s Loading usage data...", m.spinner.View()))
	case view.Err != "" && !view.HasData:
		b.WriteString(m.renderErrorPanel(view.Err))
	case int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil:
		b.WriteString(m.tabs[m.activeTab].View())
	}

	mainView := b.String()
	if m.showHelp {
		mainView = m.overlayCentered(mainView, m.renderHelp())
	}

	if toasts := m.renderNotifications(); len(toasts) > 0 {
		mainView = m.overlayToasts(mainView, toasts)
	}
	return mainView
}

// renderCompact shows the summary rows: today, total, burn rate, session
// countdown.
func (m *Model) renderCompact() string {
	view := m.state.Sync()
	if !view.HasData {
		return fmt.Sprintf(" %s loading", m.spinner.View())
	}
	stats := view.Snapshot.OverallStats

	value := func(s string) string {
		if view.Animating {
			return styles.FlashStyle.Render(s)
		}
		return s
	}

	var lines []string
	lines = append(lines, styles.TitleStyle.Render(" ccmon "))
	lines = append(lines, fmt.Sprintf(" Today    %s  (%s tok)",
		value(format.Cost(stats.TodayStats.CostUSD)),
		format.Tokens(stats.TodayStats.TotalTokens)))
	lines = append(lines, fmt.Sprintf(" Total    %s  (%s tok)",
		value(format.Cost(stats.TotalCostUSD)),
		format.Tokens(stats.TotalTokens())))
	if stats.BurnRate != nil {
		lines = append(lines, fmt.Sprintf(" Burn     %s  %s/h",
			format.Rate(stats.BurnRate.TokensPerMinute),
			format.Cost(stats.BurnRate.CostPerHour)))
	}
	lines = append(lines, fmt.Sprintf(" Reset    %s", format.Minutes(stats.TimeToResetMinutes)))
	if view.Stale(time.Now()) {
		lines = append(lines, styles.StaleStyle.Render(" data may be outdated"))
	}
	return strings.Join(lines, "\n")
}

// renderMini is the single-line rendition.
func (m *Model) renderMini() string {
	view := m.state.Sync()
	if !view.HasData {
		return fmt.Sprintf("%s ccmon", m.spinner.View())
	}
	stats := view.Snapshot.OverallStats

	line := fmt.Sprintf("ccmon %s today | %s total | reset %s",
		format.Cost(stats.TodayStats.CostUSD),
		format.Cost(stats.TotalCostUSD),
		format.Minutes(stats.TimeToResetMinutes))
	if view.Animating {
		return styles.FlashStyle.Render(line)
	}
	if view.Stale(time.Now()) {
		return styles.StaleStyle.Render(line + " (stale)")
	}
	return line
}

func (m *Model) renderNavbar() string {
	var tabs []string
	for i, name := range m.tabNames {
		if TabID(i) == m.activeTab {
			tabs = append(tabs, styles.ActiveTabStyle.Render(fmt.Sprintf("[%d] %s", i+1, name)))
		} else {
			tabs = append(tabs, styles.InactiveTabStyle.Render(fmt.Sprintf(" %d  %s", i+1, name)))
		}
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	status := m.renderStatus()
	gap := m.width - lipgloss.Width(bar) - lipgloss.Width(status) - 1
	if gap > 0 {
		bar += strings.Repeat(" ", gap) + status
	}
	return bar
}

// renderStatus is the right-aligned liveness indicator.
func (m *Model) renderStatus() string {
	view := m.state.Sync()
	switch {
	case view.Loading:
		return m.spinner.View()
	case view.Err != "":
		return styles.ErrorTextStyle.Render("fetch error")
	case view.Stale(time.Now()):
		return styles.StaleStyle.Render("stale")
	case view.Heartbeat.IsZero():
		return ""
	default:
		return styles.SuccessTextStyle.Render("live")
	}
}

func (m *Model) renderErrorPanel(errMsg string) string {
	content := strings.Join([]string{
		styles.ErrorTextStyle.Render("Could not load usage data"),
		"",
		errMsg,
		"",
		styles.HelpStyle.Render("press r to retry"),
	}, "\n")
	return styles.CardStyle.Render(content)
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.Notifications()
	if len(notifications) == 0 {
		return nil
	}

	var toasts []string
	for _, n := range notifications {
		var style lipgloss.Style
		var prefix string
		switch n.Type {
		case NotificationError:
			style = styles.NotificationErrorStyle
			prefix = "[ERR]"
		case NotificationWarning:
			style = styles.NotificationWarningStyle
			prefix = "[WARN]"
		default:
			style = styles.NotificationInfoStyle
			prefix = "[INFO]"
		}
		toasts = append(toasts, style.Render(fmt.Sprintf("%s %s", prefix, n.Message)))
	}
	return toasts
}

func (m *Model) overlayCentered(mainView, overlay string) string {
	mainLines := strings.Split(mainView, "\n")
	overlayLines := strings.Split(overlay, "\n")

	overlayWidth := lipgloss.Width(overlay)
	y := max(0, (m.height-len(overlayLines))/2)
	x := max(0, (m.width-overlayWidth)/2)

	for i, overlayLine := range overlayLines {
		mainY := y + i
		if mainY >= len(mainLines) {
			break
		}
		mainLine := mainLines[mainY]

		left := ansi.Truncate(mainLine, x, "")
		right := ansi.TruncateLeft(mainLine, x+overlayWidth, "")
		if lipgloss.Width(left) < x {
			left += strings.Repeat(" ", x-lipgloss.Width(left))
		}
		mainLines[mainY] = left + overlayLine + right
	}
	return strings.Join(mainLines, "\n")
}

func (m *Model) overlayToasts(mainView string, toasts []string) string {
	stack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	toastLines := strings.Split(stack, "\n")
	mainLines := strings.Split(mainView, "\n")

	startX := max(0, m.width-lipgloss.Width(stack)-2)
	startY := 2

	for i, toastLine := range toastLines {
		lineIdx := startY + i
		if lineIdx >= len(mainLines) {
			break
		}
		mainLine := mainLines[lineIdx]
		if lipgloss.Width(mainLine) < startX {
			mainLines[lineIdx] = mainLine + strings.Repeat(" ", startX-lipgloss.Width(mainLine)) + toastLine
		} else {
			mainLines[lineIdx] = ansi.Truncate(mainLine, startX, "") + toastLine
		}
	}
	return strings.Join(mainLines, "\n")
}

func (m *Model) renderHelp() string {
	var lines []string

	lines = append(lines, styles.TitleStyle.Render("Keyboard Shortcuts"))
	lines = append(lines, "")
	lines = append(lines, "  m          Cycle view mode")
	lines = append(lines, "  enter      Restore from mini")
	lines = append(lines, "  tab, 1-2   Switch tab")
	lines = append(lines, "  r          Refresh data")
	lines = append(lines, "  ?          Toggle help")
	lines = append(lines, "  q/Ctrl+C   Quit")

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		tabHelp := m.tabs[m.activeTab].ShortHelp()
		if len(tabHelp) > 0 {
			lines = append(lines, "")
			lines = append(lines, styles.SubTitleStyle.Render(m.tabNames[m.activeTab]))
			for _, binding := range tabHelp {
				lines = append(lines, fmt.Sprintf("  %-10s %s", binding.Help().Key, binding.Help().Desc))
			}
		}
	}

	lines = append(lines, "")
	lines = append(lines, styles.HelpStyle.Render("Press ? to close"))
	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}
