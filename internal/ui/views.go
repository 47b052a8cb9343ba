package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/harshul/stackdash/internal/status"
)

const barWidth = 20

// processIcon renders a process status indicator
func processIcon(s *Styles, st status.ProcessStatus) string {
	switch st {
	case status.StatusOnline:
		return s.Online.Render("● online")
	case status.StatusStopped:
		return s.Stopped.Render("○ stopped")
	case status.StatusErrored:
		return s.Errored.Render("✗ errored")
	default:
		return s.Unknown.Render("? unknown")
	}
}

func check(s *Styles, ok bool) string {
	if ok {
		return s.Online.Render("✓")
	}
	return s.Errored.Render("✗")
}

// renderBar renders a labeled percentage bar. The fill turns yellow above
// 60% and red above 80%.
func renderBar(s *Styles, label string, pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	filled := int(pct / 100 * float64(width))
	empty := width - filled

	fill := s.ProgressFill
	switch {
	case pct > 80:
		fill = s.ProgressHot
	case pct > 60:
		fill = s.ProgressWarn
	}

	bar := fill.Render(strings.Repeat("█", filled)) +
		s.ProgressEmpty.Render(strings.Repeat("░", empty))

	return fmt.Sprintf("%-6s [%s] %5.1f%%", label, bar, pct)
}

// supervisorSummary describes the supervisor in a few words.
func supervisorSummary(snap *status.Snapshot) string {
	switch {
	case !snap.SupervisorAvailable:
		return "Unavailable"
	case snap.SupervisorRunning():
		return fmt.Sprintf("%d processes (%d online)", len(snap.Processes), snap.Online())
	default:
		return "Stopped"
	}
}

// renderStatus renders the project markers and the supervisor summary.
func renderStatus(s *Styles, snap *status.Snapshot, markers status.Markers) string {
	if snap == nil {
		return s.Dim.Render("Waiting for first status check...")
	}

	rows := []struct {
		label string
		name  string
		ok    bool
	}{
		{"Project", markers.Manifest, snap.ProjectPresent},
		{"Dependencies", markers.Dependencies, snap.DependenciesPresent},
		{"Build", markers.Build, snap.BuildPresent},
	}

	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%s %-13s %s\n", check(s, r.ok), r.label, s.Dim.Render(r.name))
	}

	sup := supervisorSummary(snap)
	icon := check(s, snap.SupervisorAvailable && snap.SupervisorRunning())
	if !snap.SupervisorAvailable {
		icon = s.Unknown.Render("?")
	}
	fmt.Fprintf(&b, "%s %-13s %s\n", icon, "Supervisor", sup)

	b.WriteString("\n")
	b.WriteString(s.Label.Render("Updated " + humanize.Time(snap.TakenAt)))
	return b.String()
}

// renderProcesses renders the supervised processes as a table.
func renderProcesses(s *Styles, snap *status.Snapshot, width int) string {
	if snap == nil {
		return s.Dim.Render("Waiting for first status check...")
	}
	if !snap.SupervisorAvailable {
		return s.Errored.Render("Supervisor unavailable")
	}
	if len(snap.Processes) == 0 {
		return s.Dim.Render("No processes running")
	}

	rows := make([][]string, 0, len(snap.Processes))
	for _, p := range snap.Processes {
		pid, cpu, mem := "-", "-", "-"
		if p.HasPID() {
			pid = strconv.Itoa(p.PID)
		}
		if p.HasMonitor {
			cpu = fmt.Sprintf("%.1f%%", p.CPUPercent)
			mem = fmt.Sprintf("%.1f MB", float64(p.MemoryBytes)/1024/1024)
		}
		rows = append(rows, []string{
			p.Name,
			pid,
			processIcon(s, p.Status),
			cpu,
			mem,
			strconv.FormatUint(uint64(p.RestartCount), 10),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.TableBorder).
		Headers("NAME", "PID", "STATUS", "CPU", "MEMORY", "RESTARTS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			return s.TableCell
		})
	if width > 0 {
		t = t.Width(width)
	}
	return t.Render()
}

// renderSystem renders host resource bars.
func renderSystem(s *Styles, snap *status.Snapshot) string {
	if snap == nil {
		return s.Dim.Render("Waiting for first status check...")
	}

	var b strings.Builder
	b.WriteString(renderBar(s, "CPU", snap.CPUPercent, barWidth))
	b.WriteString("\n")
	b.WriteString(renderBar(s, "Memory", snap.MemoryPercent, barWidth))
	fmt.Fprintf(&b, "  %.1f / %.1f GB\n", snap.MemoryUsedGB, snap.MemoryTotalGB)
	b.WriteString(renderBar(s, "Disk", snap.DiskPercent, barWidth))
	fmt.Fprintf(&b, "  %.1f / %.1f GB\n", snap.DiskUsedGB, snap.DiskTotalGB)

	if snap.CPUTemp > 0 {
		style := s.ProgressFill
		if snap.CPUTemp > 80 {
			style = s.ProgressHot
		} else if snap.CPUTemp > 60 {
			style = s.ProgressWarn
		}
		b.WriteString(style.Render(fmt.Sprintf("🌡️ %.0f°C", snap.CPUTemp)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderSnapshot renders a snapshot for one-shot output outside the TUI.
func RenderSnapshot(snap *status.Snapshot, markers status.Markers, width int) string {
	s := DefaultStyles()
	sections := []string{
		s.Title.Render("Status"),
		renderStatus(s, snap, markers),
		"",
		s.Title.Render("Processes"),
		renderProcesses(s, snap, width),
		"",
		s.Title.Render("System"),
		renderSystem(s, snap),
	}
	return strings.Join(sections, "\n")
}
