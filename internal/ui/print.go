package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes styled one-line messages for the non-interactive commands.
type Printer struct {
	w io.Writer
	s *Styles
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, s: DefaultStyles()}
}

// Header prints a bold title.
func (p *Printer) Header(text string) {
	fmt.Fprintln(p.w, p.s.Title.Render(text))
	fmt.Fprintln(p.w)
}

func (p *Printer) Success(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.s.Online.Render("✔")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Warn(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.s.Stopped.Render("⚠")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Error(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.s.Errored.Render("✖")+" "+fmt.Sprintf(format, args...))
}

func (p *Printer) Info(format string, args ...interface{}) {
	fmt.Fprintln(p.w, lipgloss.NewStyle().Foreground(info).Render("ℹ")+" "+fmt.Sprintf(format, args...))
}

// Field prints an indented label/value pair.
func (p *Printer) Field(label, value string) {
	fmt.Fprintln(p.w, "  "+p.s.Label.Render(label+":")+" "+lipgloss.NewStyle().Bold(true).Render(value))
}

// Hint prints dimmed follow-up advice.
func (p *Printer) Hint(text string) {
	fmt.Fprintln(p.w, p.s.Dim.Render("    → "+text))
}

func (p *Printer) Divider() {
	fmt.Fprintln(p.w, p.s.Dim.Render(strings.Repeat("─", 50)))
}

// Raw prints text unchanged.
func (p *Printer) Raw(text string) {
	fmt.Fprintln(p.w, text)
}
