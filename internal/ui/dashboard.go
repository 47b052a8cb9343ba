package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/harshul/stackdash/internal/dashboard"
	"github.com/harshul/stackdash/internal/ringlog"
	"github.com/harshul/stackdash/internal/status"
)

// Minimum terminal size the dashboard renders at.
const (
	MinWidth  = 40
	MinHeight = 10
)

// Tab is one dashboard page.
type Tab int

const (
	TabControl Tab = iota
	TabStatus
	TabProcesses
	TabSystem
	TabLogs
)

var tabNames = []string{"Control", "Status", "Processes", "System", "Logs"}

func (t Tab) String() string {
	return tabNames[t]
}

// Controller is the part of the scheduler the dashboard drives.
type Controller interface {
	Submit(action string) error
	RequestRefresh() error
	ToggleAutoRefresh() error
	ClearLogs() error
	ExportLogs() (string, error)
}

// Options configures the dashboard model.
type Options struct {
	Project string
	Markers status.Markers
	LogView int // number of log entries shown on the Logs tab
}

// Messages for bubbletea
type (
	// StateChangedMsg tells the model the scheduler published new state.
	StateChangedMsg struct{ Event dashboard.Event }

	tickMsg time.Time

	controlResultMsg struct {
		what string
		path string
		err  error
	}
)

// Model is the bubbletea model for the dashboard. It only reads State and
// sends requests through the Controller.
type Model struct {
	state *dashboard.State
	ctl   Controller
	opts  Options

	tab      Tab
	width    int
	height   int
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	styles   *Styles

	logSeq   uint64
	flash    string
	quitting bool
}

// NewModel creates the dashboard model.
func NewModel(state *dashboard.State, ctl Controller, opts Options) *Model {
	if opts.LogView <= 0 {
		opts.LogView = 50
	}

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(info)

	m := &Model{
		state:    state,
		ctl:      ctl,
		opts:     opts,
		viewport: vp,
		spinner:  sp,
		help:     help.New(),
		keys:     defaultKeyMap(),
		styles:   DefaultStyles(),
	}
	m.syncLogs(true)
	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.spinner.Tick)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizeViewport()
		m.syncLogs(true)
		return m, nil

	case StateChangedMsg:
		m.syncLogs(false)
		return m, nil

	case tickMsg:
		m.syncLogs(false)
		return m, tickCmd()

	case controlResultMsg:
		m.flash = controlFlash(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.tab == TabLogs {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resizeViewport()
		return m, nil

	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % Tab(len(tabNames))
		return m, nil

	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
		return m, nil

	case key.Matches(msg, m.keys.Action):
		action, ok := dashboard.ActionForKey(msg.String())
		if !ok {
			return m, nil
		}
		m.flash = ""
		return m, m.control("submit", func() (string, error) {
			return "", m.ctl.Submit(action.Name)
		})

	case key.Matches(msg, m.keys.Refresh):
		return m, m.control("refresh", func() (string, error) {
			return "", m.ctl.RequestRefresh()
		})

	case key.Matches(msg, m.keys.AutoRefresh):
		return m, m.control("auto-refresh", func() (string, error) {
			return "", m.ctl.ToggleAutoRefresh()
		})

	case key.Matches(msg, m.keys.Clear):
		return m, m.control("clear", func() (string, error) {
			return "", m.ctl.ClearLogs()
		})

	case key.Matches(msg, m.keys.Export):
		return m, m.control("export", m.ctl.ExportLogs)
	}

	if m.tab == TabLogs {
		switch {
		case key.Matches(msg, m.keys.Top):
			m.viewport.GotoTop()
			return m, nil
		case key.Matches(msg, m.keys.Bottom):
			m.viewport.GotoBottom()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// control runs fn off the update loop so a slow request never stalls rendering.
func (m *Model) control(what string, fn func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		path, err := fn()
		return controlResultMsg{what: what, path: path, err: err}
	}
}

func controlFlash(msg controlResultMsg) string {
	switch {
	case msg.err == nil && msg.path != "":
		return "Saved " + msg.path
	case msg.err == nil:
		return ""
	case errors.Is(msg.err, dashboard.ErrBusy):
		return "Busy: a command is already running"
	case errors.Is(msg.err, dashboard.ErrStopped):
		return ""
	default:
		return fmt.Sprintf("%s failed: %v", msg.what, msg.err)
	}
}

// syncLogs refreshes the viewport content when the log changed. Following
// mode is kept when the view was already at the bottom.
func (m *Model) syncLogs(force bool) {
	seq := m.state.LogSeq()
	if !force && seq == m.logSeq {
		return
	}
	m.logSeq = seq

	follow := m.viewport.AtBottom() || force
	entries := m.state.LogTail(m.opts.LogView)
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = m.renderEntry(e)
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderEntry(e ringlog.Entry) string {
	style := m.styles.LogInfo
	switch e.Level {
	case ringlog.LevelSuccess:
		style = m.styles.LogSuccess
	case ringlog.LevelError:
		style = m.styles.LogError
	}
	return style.Render(e.Format())
}

func (m *Model) resizeViewport() {
	if m.width == 0 {
		return
	}
	// header, tab bar, footer and viewport border
	chrome := 2 + 2 + 3 + 2
	if m.help.ShowAll {
		chrome += 3
	}
	h := m.height - chrome
	if h < 1 {
		h = 1
	}
	w := m.width - 4
	if w < 10 {
		w = 10
	}
	m.viewport.Width = w
	m.viewport.Height = h
}

// View implements tea.Model
func (m *Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}
	if m.width > 0 && (m.width < MinWidth || m.height < MinHeight) {
		return fmt.Sprintf("Terminal too small (%dx%d).\nResize to at least %dx%d.\n",
			m.width, m.height, MinWidth, MinHeight)
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return m.styles.App.Render(b.String())
}

func (m *Model) contentWidth() int {
	w := m.width - 4
	if w < MinWidth {
		w = MinWidth
	}
	return w
}

func (m *Model) renderHeader() string {
	title := "stackdash"
	if m.opts.Project != "" {
		title += " · " + m.opts.Project
	}

	var parts []string
	if snap := m.state.Snapshot(); snap != nil {
		parts = append(parts, supervisorSummary(snap))
	}
	if m.state.AutoRefresh() {
		parts = append(parts, "auto ⟳")
	} else {
		parts = append(parts, "auto off")
	}
	parts = append(parts, m.state.Phase().String())
	right := strings.Join(parts, " | ")

	width := m.contentWidth()
	pad := width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	if pad < 1 {
		pad = 1
	}
	return m.styles.Header.Width(width).Render(title + strings.Repeat(" ", pad) + right)
}

func (m *Model) renderTabs() string {
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		style := m.styles.Tab
		if Tab(i) == m.tab {
			style = m.styles.ActiveTab
		}
		if Tab(i) == TabLogs {
			if n := m.state.LogLen(); n > 0 {
				name = fmt.Sprintf("%s (%d)", name, n)
			}
		}
		tabs[i] = style.Render(name)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderBody() string {
	snap := m.state.Snapshot()
	switch m.tab {
	case TabStatus:
		return renderStatus(m.styles, snap, m.opts.Markers)
	case TabProcesses:
		return renderProcesses(m.styles, snap, m.contentWidth())
	case TabSystem:
		return renderSystem(m.styles, snap)
	case TabLogs:
		return m.styles.LogViewport.Render(m.viewport.View())
	default:
		return m.renderControl()
	}
}

func (m *Model) renderControl() string {
	var b strings.Builder
	for _, a := range dashboard.Actions {
		fmt.Fprintf(&b, "%s %s %s\n", m.styles.HelpKey.Render("["+a.Key+"]"), a.Icon, a.Label)
	}
	b.WriteString("\n")

	if last := m.state.LastRun(); last != nil {
		b.WriteString(m.renderLastRun(last))
		b.WriteString("\n")
	}

	// newest few log lines so command output is visible without switching tabs
	entries := m.state.LogTail(3)
	for _, e := range entries {
		b.WriteString(m.styles.Dim.Render(e.Format()))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderLastRun(run *dashboard.CommandRun) string {
	took := run.FinishedAt.Sub(run.StartedAt).Round(100 * time.Millisecond)
	text := fmt.Sprintf("Last: %s %s in %s (%s)", run.Action, run.Status, took, humanize.Time(run.FinishedAt))
	switch run.Status {
	case dashboard.RunSucceeded:
		return m.styles.Online.Render("✓ " + text)
	default:
		return m.styles.Errored.Render("✗ " + text)
	}
}

func (m *Model) renderFooter() string {
	var lines []string

	if run := m.state.Running(); run != nil {
		elapsed := time.Since(run.StartedAt).Round(time.Second)
		lines = append(lines, fmt.Sprintf("%s Running %s... %s / %s",
			m.spinner.View(), run.Action, elapsed, run.Timeout))
	} else if m.state.Phase() == dashboard.PhasePolling {
		lines = append(lines, m.spinner.View()+" Refreshing status...")
	}
	if m.flash != "" {
		lines = append(lines, m.flash)
	}
	lines = append(lines, m.help.View(m.keys))

	return m.styles.Footer.Width(m.contentWidth()).Render(strings.Join(lines, "\n"))
}
