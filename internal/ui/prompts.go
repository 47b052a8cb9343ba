package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCanceled is returned when the user leaves a prompt with esc or ctrl+c.
var ErrCanceled = errors.New("prompt canceled")

var (
	promptTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	promptSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(success)
	promptCursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	promptDimStyle      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})
)

func promptHeader(b *strings.Builder, title, description string) {
	b.WriteString(promptTitleStyle.Render("? "+title) + "\n")
	if description != "" {
		b.WriteString(promptDimStyle.Render("  "+description) + "\n")
	}
	b.WriteString("\n")
}

// ConfirmPrompt asks a yes/no question.
type ConfirmPrompt struct {
	question    string
	description string
	yes         bool
	done        bool
	canceled    bool
}

// NewConfirmPrompt creates a yes/no prompt.
func NewConfirmPrompt(question, description string, defaultYes bool) ConfirmPrompt {
	return ConfirmPrompt{question: question, description: description, yes: defaultYes}
}

func (m ConfirmPrompt) Init() tea.Cmd { return nil }

func (m ConfirmPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch km.String() {
	case "left", "h", "y", "Y":
		m.yes = true
	case "right", "l", "n", "N":
		m.yes = false
	case "tab":
		m.yes = !m.yes
	case "enter":
		m.done = true
		return m, tea.Quit
	case "ctrl+c", "esc", "q":
		m.canceled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ConfirmPrompt) View() string {
	var b strings.Builder
	promptHeader(&b, m.question, m.description)

	option := func(label string, active bool) string {
		if active {
			return promptCursorStyle.Render("❯ ") + promptSelectedStyle.Render(label)
		}
		return "  " + promptDimStyle.Render(label)
	}
	b.WriteString(option("Yes", m.yes) + "    " + option("No", !m.yes) + "\n\n")
	b.WriteString(promptDimStyle.Render("  ← → to select • enter to confirm • esc to cancel"))
	return b.String()
}

// Value returns the answer and whether it was confirmed.
func (m ConfirmPrompt) Value() (bool, bool) {
	return m.yes, m.done && !m.canceled
}

// Confirm runs a yes/no prompt.
func Confirm(question, description string, defaultYes bool) (bool, error) {
	out, err := tea.NewProgram(NewConfirmPrompt(question, description, defaultYes)).Run()
	if err != nil {
		return false, err
	}
	v, ok := out.(ConfirmPrompt).Value()
	if !ok {
		return false, ErrCanceled
	}
	return v, nil
}

// ChoicePrompt picks one entry from a fixed list.
type ChoicePrompt struct {
	title    string
	choices  []string
	cursor   int
	done     bool
	canceled bool
}

// NewChoicePrompt creates a list prompt with def preselected when present.
func NewChoicePrompt(title string, choices []string, def string) ChoicePrompt {
	m := ChoicePrompt{title: title, choices: choices}
	for i, c := range choices {
		if c == def {
			m.cursor = i
		}
	}
	return m
}

func (m ChoicePrompt) Init() tea.Cmd { return nil }

func (m ChoicePrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch km.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "enter":
		m.done = true
		return m, tea.Quit
	case "ctrl+c", "esc", "q":
		m.canceled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ChoicePrompt) View() string {
	var b strings.Builder
	promptHeader(&b, m.title, "")
	for i, c := range m.choices {
		label := c
		if label == "" {
			label = "(none)"
		}
		if i == m.cursor {
			b.WriteString(promptCursorStyle.Render("❯ ") + promptSelectedStyle.Render(label) + "\n")
		} else {
			b.WriteString("  " + label + "\n")
		}
	}
	b.WriteString("\n" + promptDimStyle.Render("  ↑ ↓ to move • enter to select • esc to cancel"))
	return b.String()
}

// Value returns the selected entry and whether it was confirmed.
func (m ChoicePrompt) Value() (string, bool) {
	if len(m.choices) == 0 {
		return "", false
	}
	return m.choices[m.cursor], m.done && !m.canceled
}

// Choose runs a list prompt.
func Choose(title string, choices []string, def string) (string, error) {
	out, err := tea.NewProgram(NewChoicePrompt(title, choices, def)).Run()
	if err != nil {
		return "", err
	}
	v, ok := out.(ChoicePrompt).Value()
	if !ok {
		return "", ErrCanceled
	}
	return v, nil
}

// InputPrompt reads one line of text.
type InputPrompt struct {
	title    string
	def      string
	input    textinput.Model
	done     bool
	canceled bool
}

// NewInputPrompt creates a text prompt. An empty answer yields def.
func NewInputPrompt(title, placeholder, def string) InputPrompt {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 50
	ti.Focus()
	return InputPrompt{title: title, def: def, input: ti}
}

func (m InputPrompt) Init() tea.Cmd { return textinput.Blink }

func (m InputPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "enter":
			m.done = true
			return m, tea.Quit
		case "ctrl+c", "esc":
			m.canceled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m InputPrompt) View() string {
	var b strings.Builder
	promptHeader(&b, m.title, "")
	b.WriteString("  " + m.input.View() + "\n")
	if m.def != "" && m.input.Value() == "" {
		b.WriteString(promptDimStyle.Render(fmt.Sprintf("  Press enter to use: %s", m.def)) + "\n")
	}
	b.WriteString("\n" + promptDimStyle.Render("  enter to confirm • esc to cancel"))
	return b.String()
}

// Value returns the entered text and whether it was confirmed.
func (m InputPrompt) Value() (string, bool) {
	v := strings.TrimSpace(m.input.Value())
	if v == "" {
		v = m.def
	}
	return v, m.done && !m.canceled
}

// Input runs a text prompt.
func Input(title, placeholder, def string) (string, error) {
	out, err := tea.NewProgram(NewInputPrompt(title, placeholder, def)).Run()
	if err != nil {
		return "", err
	}
	v, ok := out.(InputPrompt).Value()
	if !ok {
		return "", ErrCanceled
	}
	return v, nil
}
