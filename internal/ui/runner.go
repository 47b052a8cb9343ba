package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/harshul/stackdash/internal/dashboard"
)

// RunConfig holds configuration for a dashboard session
type RunConfig struct {
	Options
	// FallbackMode prints log entries instead of starting the TUI.
	FallbackMode bool
	// Out receives fallback output. Defaults to os.Stdout.
	Out io.Writer
}

// Interactive reports whether f is a terminal the TUI can take over.
func Interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of f, or fallback when it is not a terminal.
func TerminalWidth(f *os.File, fallback int) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// Run drives sched until the user quits or the process receives SIGINT or
// SIGTERM. sched must have been created with bridge.Notify as its notify
// callback. The scheduler is always stopped before Run returns.
func Run(ctx context.Context, sched *dashboard.Scheduler, bridge *Bridge, cfg RunConfig) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- sched.Run(schedCtx) }()

	if cfg.FallbackMode {
		out := cfg.Out
		if out == nil {
			out = os.Stdout
		}
		p := &fallbackPrinter{state: sched.State(), w: out}
		return p.run(bridge.Events(), errc)
	}

	model := NewModel(sched.State(), sched, cfg.Options)
	program := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go bridge.Forward(program)
	defer bridge.Close()

	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	_, err := program.Run()

	// Kills an in-flight command and waits for its result to be logged.
	cancel()
	if serr := <-errc; err == nil {
		err = serr
	}
	return err
}

// fallbackPrinter writes log entries to a plain writer as they appear.
type fallbackPrinter struct {
	state *dashboard.State
	w     io.Writer
	seq   uint64
}

func (p *fallbackPrinter) run(events <-chan dashboard.Event, errc <-chan error) error {
	p.flush()
	for {
		select {
		case <-events:
			p.flush()
		case err := <-errc:
			p.flush()
			return err
		}
	}
}

func (p *fallbackPrinter) flush() {
	for _, e := range p.state.LogSince(p.seq) {
		fmt.Fprintln(p.w, e.Format())
		p.seq = e.Seq
	}
}
