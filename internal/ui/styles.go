package ui

import "github.com/charmbracelet/lipgloss"

var (
	subtle     = lipgloss.AdaptiveColor{Light: "#666", Dark: "#999"}
	highlight  = lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD8EE6"}
	success    = lipgloss.AdaptiveColor{Light: "#00AA00", Dark: "#00FF00"}
	warning    = lipgloss.AdaptiveColor{Light: "#AAAA00", Dark: "#FFFF00"}
	errorColor = lipgloss.AdaptiveColor{Light: "#AA0000", Dark: "#FF0000"}
	info       = lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#00AAFF"}
)

// Styles holds all lipgloss styles used by the dashboard and the CLI output.
type Styles struct {
	App    lipgloss.Style
	Header lipgloss.Style
	Footer lipgloss.Style

	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Panel     lipgloss.Style
	Title     lipgloss.Style
	Label     lipgloss.Style
	Dim       lipgloss.Style

	Online  lipgloss.Style
	Stopped lipgloss.Style
	Errored lipgloss.Style
	Unknown lipgloss.Style

	LogInfo    lipgloss.Style
	LogSuccess lipgloss.Style
	LogError   lipgloss.Style

	ProgressFill  lipgloss.Style
	ProgressWarn  lipgloss.Style
	ProgressHot   lipgloss.Style
	ProgressEmpty lipgloss.Style

	TableHeader lipgloss.Style
	TableCell   lipgloss.Style
	TableBorder lipgloss.Style

	LogViewport lipgloss.Style
	HelpKey     lipgloss.Style
}

// DefaultStyles returns the default color scheme
func DefaultStyles() *Styles {
	return &Styles{
		App: lipgloss.NewStyle().
			Padding(0, 1),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(subtle).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(subtle).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(subtle).
			Padding(0, 1),

		Tab: lipgloss.NewStyle().
			Foreground(subtle).
			Padding(0, 2),

		ActiveTab: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(highlight).
			Padding(0, 2),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtle).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight),

		Label: lipgloss.NewStyle().
			Foreground(subtle),

		Dim: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"}),

		Online: lipgloss.NewStyle().
			Foreground(success),

		Stopped: lipgloss.NewStyle().
			Foreground(warning),

		Errored: lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true),

		Unknown: lipgloss.NewStyle().
			Foreground(subtle),

		LogInfo: lipgloss.NewStyle(),

		LogSuccess: lipgloss.NewStyle().
			Foreground(success),

		LogError: lipgloss.NewStyle().
			Foreground(errorColor),

		ProgressFill: lipgloss.NewStyle().
			Foreground(success),

		ProgressWarn: lipgloss.NewStyle().
			Foreground(warning),

		ProgressHot: lipgloss.NewStyle().
			Foreground(errorColor),

		ProgressEmpty: lipgloss.NewStyle().
			Foreground(subtle),

		TableHeader: lipgloss.NewStyle().
			Bold(true).
			Foreground(highlight).
			Padding(0, 1),

		TableCell: lipgloss.NewStyle().
			Padding(0, 1),

		TableBorder: lipgloss.NewStyle().
			Foreground(subtle),

		LogViewport: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(highlight),

		HelpKey: lipgloss.NewStyle().
			Foreground(highlight).
			Bold(true),
	}
}
