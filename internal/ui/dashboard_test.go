package ui

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harshul/stackdash/internal/dashboard"
	"github.com/harshul/stackdash/internal/ringlog"
	"github.com/harshul/stackdash/internal/status"
)

type fakeController struct {
	mu        sync.Mutex
	submitted []string
	refreshes int
	toggles   int
	clears    int
	submitErr error
	exportErr error
}

func (f *fakeController) Submit(action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, action)
	return f.submitErr
}

func (f *fakeController) RequestRefresh() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil
}

func (f *fakeController) ToggleAutoRefresh() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles++
	return nil
}

func (f *fakeController) ClearLogs() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

func (f *fakeController) ExportLogs() (string, error) {
	if f.exportErr != nil {
		return "", f.exportErr
	}
	return "/tmp/stackdash_logs_20240101_120000.txt", nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T) (*Model, *ringlog.RingLog, *fakeController) {
	t.Helper()
	log := ringlog.New(100)
	ctl := &fakeController{}
	m := NewModel(dashboard.NewState(log), ctl, Options{Project: "shop", Markers: status.DefaultMarkers(), LogView: 10})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, log, ctl
}

// press sends a key and feeds the resulting control message back in.
func press(m *Model, msg tea.KeyMsg) {
	_, cmd := m.Update(msg)
	if cmd == nil {
		return
	}
	if res, ok := cmd().(controlResultMsg); ok {
		m.Update(res)
	}
}

func TestTabNavigation(t *testing.T) {
	m, _, _ := newTestModel(t)

	if m.tab != TabControl {
		t.Fatalf("expected initial tab Control, got %s", m.tab)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.tab != TabStatus {
		t.Errorf("expected Status after tab, got %s", m.tab)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.tab != TabLogs {
		t.Errorf("expected wrap to Logs, got %s", m.tab)
	}
}

func TestActionKeysSubmit(t *testing.T) {
	m, _, ctl := newTestModel(t)

	press(m, runes("1"))
	press(m, runes("5"))
	press(m, runes("9"))

	if len(ctl.submitted) != 2 || ctl.submitted[0] != "start" || ctl.submitted[1] != "build" {
		t.Errorf("unexpected submissions: %v", ctl.submitted)
	}
	if m.flash != "" {
		t.Errorf("expected no flash, got %q", m.flash)
	}
}

func TestBusySubmitShowsFlash(t *testing.T) {
	m, _, ctl := newTestModel(t)
	ctl.submitErr = dashboard.ErrBusy

	press(m, runes("3"))

	if !strings.Contains(m.flash, "Busy") {
		t.Errorf("expected busy flash, got %q", m.flash)
	}
}

func TestControlKeys(t *testing.T) {
	m, _, ctl := newTestModel(t)

	press(m, runes("r"))
	press(m, runes("a"))
	press(m, runes("c"))
	press(m, runes("s"))

	if ctl.refreshes != 1 || ctl.toggles != 1 || ctl.clears != 1 {
		t.Errorf("unexpected calls: refresh=%d toggle=%d clear=%d", ctl.refreshes, ctl.toggles, ctl.clears)
	}
	if !strings.Contains(m.flash, "stackdash_logs_20240101_120000.txt") {
		t.Errorf("expected export path in flash, got %q", m.flash)
	}

	ctl.exportErr = errors.New("disk full")
	press(m, runes("s"))
	if !strings.Contains(m.flash, "disk full") {
		t.Errorf("expected export error in flash, got %q", m.flash)
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if !strings.Contains(m.View(), "Shutting down") {
		t.Error("expected shutdown view")
	}
}

func TestTerminalTooSmall(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.Update(tea.WindowSizeMsg{Width: 30, Height: 8})
	if !strings.Contains(m.View(), "Terminal too small") {
		t.Errorf("expected resize notice, got %q", m.View())
	}

	m.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	if strings.Contains(m.View(), "Terminal too small") {
		t.Error("40x10 should render the dashboard")
	}
}

func TestLogsTabFollowsNewEntries(t *testing.T) {
	m, log, _ := newTestModel(t)
	log.Info("first line")

	m.Update(StateChangedMsg{Event: dashboard.Event{Kind: dashboard.EventLog}})
	m.tab = TabLogs

	view := m.View()
	if !strings.Contains(view, "first line") {
		t.Errorf("expected log entry in view, got:\n%s", view)
	}

	log.Error("second line")
	m.Update(StateChangedMsg{Event: dashboard.Event{Kind: dashboard.EventLog}})
	if !strings.Contains(m.View(), "[ERROR] second line") {
		t.Error("expected new entry after state change")
	}

	log.Clear()
	m.Update(tickMsg(time.Now()))
	if strings.Contains(m.View(), "first line") {
		t.Error("cleared entries should disappear")
	}
}

func TestLogsTabShowsEntryCount(t *testing.T) {
	m, log, _ := newTestModel(t)
	if strings.Contains(m.renderTabs(), "Logs (") {
		t.Error("empty log should not show a count")
	}

	log.Info("one")
	log.Info("two")
	if !strings.Contains(m.renderTabs(), "Logs (2)") {
		t.Errorf("expected entry count in tab, got %q", m.renderTabs())
	}
}

func TestLogViewLimit(t *testing.T) {
	m, log, _ := newTestModel(t)
	for i := 0; i < 30; i++ {
		log.Info("entry %02d", i)
	}
	m.syncLogs(true)
	m.viewport.GotoTop()
	m.tab = TabLogs

	view := m.View()
	if strings.Contains(view, "entry 19") {
		t.Error("entries beyond the view limit should not be rendered")
	}
	if !strings.Contains(view, "entry 20") {
		t.Error("expected oldest entry of the view window")
	}
}

func sampleSnapshot() *status.Snapshot {
	return &status.Snapshot{
		TakenAt:             time.Now(),
		ProjectPresent:      true,
		DependenciesPresent: true,
		SupervisorAvailable: true,
		Processes: []status.ProcessInfo{
			{Name: "api", PID: 4242, Status: status.StatusOnline, CPUPercent: 1.5, MemoryBytes: 50 * 1024 * 1024, RestartCount: 2, HasMonitor: true},
			{Name: "worker", Status: status.StatusStopped},
		},
		CPUPercent:    42,
		MemoryPercent: 65,
		MemoryUsedGB:  10.4,
		MemoryTotalGB: 16,
		DiskPercent:   91,
		DiskUsedGB:    455,
		DiskTotalGB:   500,
	}
}

func TestRenderProcesses(t *testing.T) {
	s := DefaultStyles()
	out := renderProcesses(s, sampleSnapshot(), 0)

	for _, want := range []string{"NAME", "api", "4242", "online", "50.0 MB", "worker", "stopped"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in table:\n%s", want, out)
		}
	}

	if out := renderProcesses(s, &status.Snapshot{}, 0); !strings.Contains(out, "unavailable") {
		t.Errorf("expected unavailable notice, got %q", out)
	}
	if out := renderProcesses(s, &status.Snapshot{SupervisorAvailable: true}, 0); !strings.Contains(out, "No processes") {
		t.Errorf("expected empty notice, got %q", out)
	}
	if out := renderProcesses(s, nil, 0); !strings.Contains(out, "Waiting") {
		t.Errorf("expected waiting notice, got %q", out)
	}
}

func TestSupervisorSummary(t *testing.T) {
	tests := []struct {
		name string
		snap *status.Snapshot
		want string
	}{
		{"unavailable", &status.Snapshot{}, "Unavailable"},
		{"stopped", &status.Snapshot{SupervisorAvailable: true}, "Stopped"},
		{"running", sampleSnapshot(), "2 processes (1 online)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := supervisorSummary(tt.snap); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRenderStatusMarkers(t *testing.T) {
	out := renderStatus(DefaultStyles(), sampleSnapshot(), status.DefaultMarkers())

	for _, want := range []string{"package.json", "node_modules", ".output", "2 processes"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in status:\n%s", want, out)
		}
	}
}

func TestRenderBarClamps(t *testing.T) {
	s := DefaultStyles()

	full := renderBar(s, "CPU", 150, 10)
	if !strings.Contains(full, "100.0%") || strings.Count(full, "█") != 10 {
		t.Errorf("expected full bar, got %q", full)
	}

	empty := renderBar(s, "CPU", -5, 10)
	if !strings.Contains(empty, "0.0%") || strings.Count(empty, "░") != 10 {
		t.Errorf("expected empty bar, got %q", empty)
	}
}

func TestRenderSystemTemperature(t *testing.T) {
	snap := sampleSnapshot()
	if strings.Contains(renderSystem(DefaultStyles(), snap), "°C") {
		t.Error("temperature should be hidden without a sensor")
	}
	snap.CPUTemp = 71
	if !strings.Contains(renderSystem(DefaultStyles(), snap), "71°C") {
		t.Error("expected temperature")
	}
}

func TestBridgeCoalesces(t *testing.T) {
	b := NewBridge()
	b.Notify(dashboard.Event{Kind: dashboard.EventPhase})
	b.Notify(dashboard.Event{Kind: dashboard.EventLog})
	b.Notify(dashboard.Event{Kind: dashboard.EventSnapshot})

	select {
	case <-b.Events():
	default:
		t.Fatal("expected a pending event")
	}
	select {
	case ev := <-b.Events():
		t.Fatalf("expected events to be coalesced, got extra %v", ev)
	default:
	}

	b.Close()
	b.Close()
}

func TestFallbackPrinterPrintsEachEntryOnce(t *testing.T) {
	log := ringlog.New(10)
	var buf bytes.Buffer
	p := &fallbackPrinter{state: dashboard.NewState(log), w: &buf}

	log.Info("stackdash started")
	log.Success("Command succeeded: build")
	p.flush()
	p.flush()

	log.Clear()
	log.Error("Command failed: start")
	p.flush()

	out := buf.String()
	if strings.Count(out, "stackdash started") != 1 {
		t.Errorf("expected entry printed once:\n%s", out)
	}
	if !strings.Contains(out, "[SUCCESS] Command succeeded: build") {
		t.Errorf("expected success entry:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] Command failed: start") {
		t.Errorf("expected entry appended after clear:\n%s", out)
	}
	if lines := strings.Count(out, "\n"); lines != 3 {
		t.Errorf("expected 3 lines, got %d", lines)
	}
}

func TestFallbackPrinterReturnsOnSchedulerExit(t *testing.T) {
	log := ringlog.New(10)
	var buf bytes.Buffer
	p := &fallbackPrinter{state: dashboard.NewState(log), w: &buf}

	events := make(chan dashboard.Event, 1)
	errc := make(chan error, 1)
	log.Info("last words")
	errc <- nil

	if err := p.run(events, errc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "last words") {
		t.Error("expected final flush")
	}
}

func TestConfirmPrompt(t *testing.T) {
	var m tea.Model = NewConfirmPrompt("Create config?", "", true)

	m, _ = m.Update(runes("n"))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected quit on enter")
	}

	v, ok := m.(ConfirmPrompt).Value()
	if v || !ok {
		t.Errorf("expected confirmed no, got %v %v", v, ok)
	}

	m = NewConfirmPrompt("Create config?", "", true)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if _, ok := m.(ConfirmPrompt).Value(); ok {
		t.Error("esc should cancel")
	}
}

func TestChoicePrompt(t *testing.T) {
	var m tea.Model = NewChoicePrompt("Interpreter", []string{"bash", "sh", ""}, "sh")

	if v, _ := m.(ChoicePrompt).Value(); v != "sh" {
		t.Errorf("expected default preselected, got %q", v)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	v, ok := m.(ChoicePrompt).Value()
	if v != "" || !ok {
		t.Errorf("expected last choice confirmed, got %q %v", v, ok)
	}
	if !strings.Contains(m.View(), "(none)") {
		t.Error("empty choice should render as (none)")
	}
}

func TestInputPromptDefault(t *testing.T) {
	var m tea.Model = NewInputPrompt("Launcher", "stackdash.sh", "stackdash.sh")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	v, ok := m.(InputPrompt).Value()
	if v != "stackdash.sh" || !ok {
		t.Errorf("expected default value, got %q %v", v, ok)
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Success("launcher %s", "found")
	p.Error("pm2 missing")
	p.Field("Root", "/srv/app")

	out := buf.String()
	for _, want := range []string{"launcher found", "pm2 missing", "Root:", "/srv/app"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}
