package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harshul/stackdash/internal/dashboard"
)

// Bridge receives scheduler notifications and forwards them to the front
// end. Notify never blocks: while one event is waiting to be delivered,
// further events are coalesced into it, since the front end re-reads State
// on every delivery anyway.
type Bridge struct {
	pending chan dashboard.Event
	done    chan struct{}
	once    sync.Once
}

// NewBridge creates a bridge. Pass Notify to dashboard.WithNotify.
func NewBridge() *Bridge {
	return &Bridge{
		pending: make(chan dashboard.Event, 1),
		done:    make(chan struct{}),
	}
}

// Notify queues ev for delivery. Goroutine-safe.
func (b *Bridge) Notify(ev dashboard.Event) {
	select {
	case b.pending <- ev:
	default:
	}
}

// Events exposes pending notifications for front ends that poll State
// themselves.
func (b *Bridge) Events() <-chan dashboard.Event {
	return b.pending
}

// Forward delivers notifications to program until Close is called.
func (b *Bridge) Forward(program *tea.Program) {
	for {
		select {
		case ev := <-b.pending:
			program.Send(StateChangedMsg{Event: ev})
		case <-b.done:
			return
		}
	}
}

// Close stops Forward.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}
