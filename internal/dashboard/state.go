// Package dashboard holds the dashboard's shared state and the scheduler
// lane that is its only writer.
package dashboard

import (
	"sync/atomic"
	"time"

	"github.com/harshul/stackdash/internal/executor"
	"github.com/harshul/stackdash/internal/ringlog"
	"github.com/harshul/stackdash/internal/status"
)

// Phase is the scheduler lane's current activity.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhasePolling
	PhaseExecuting
)

func (p Phase) String() string {
	switch p {
	case PhasePolling:
		return "Polling"
	case PhaseExecuting:
		return "ExecutingCommand"
	default:
		return "Idle"
	}
}

// RunStatus is the lifecycle state of a CommandRun.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunTimedOut  RunStatus = "timed_out"
	RunErrored   RunStatus = "errored"
)

// CommandRun records one dispatched command. Values are never modified
// once published; a terminal copy replaces the running one.
type CommandRun struct {
	Action     string
	StartedAt  time.Time
	Timeout    time.Duration
	Status     RunStatus
	FinishedAt time.Time
}

func (r CommandRun) finished(res executor.Result) *CommandRun {
	r.FinishedAt = res.FinishedAt
	switch {
	case res.Success:
		r.Status = RunSucceeded
	case res.Failure == executor.ReasonTimedOut:
		r.Status = RunTimedOut
	case res.Failure != executor.ReasonNone:
		r.Status = RunErrored
	default:
		r.Status = RunFailed
	}
	return &r
}

// State is the single source of truth read by the render layer. Readers
// may call any exported method from any goroutine. Only the Scheduler
// writes to it.
type State struct {
	snapshot    atomic.Pointer[status.Snapshot]
	phase       atomic.Int32
	run         atomic.Pointer[CommandRun]
	lastRun     atomic.Pointer[CommandRun]
	autoRefresh atomic.Bool
	log         *ringlog.RingLog
}

// NewState creates a State around log with auto-refresh enabled.
func NewState(log *ringlog.RingLog) *State {
	if log == nil {
		log = ringlog.New(ringlog.DefaultCapacity)
	}
	s := &State{log: log}
	s.autoRefresh.Store(true)
	return s
}

// Snapshot returns the latest published snapshot, or nil before the first poll.
func (s *State) Snapshot() *status.Snapshot {
	return s.snapshot.Load()
}

// Phase returns the lane's current phase.
func (s *State) Phase() Phase {
	return Phase(s.phase.Load())
}

// Running returns the in-flight command, or nil.
func (s *State) Running() *CommandRun {
	return s.run.Load()
}

// LastRun returns the most recently completed command, or nil.
func (s *State) LastRun() *CommandRun {
	return s.lastRun.Load()
}

// AutoRefresh reports whether the periodic timer is enabled.
func (s *State) AutoRefresh() bool {
	return s.autoRefresh.Load()
}

// LogTail returns a copy of the newest n log entries.
func (s *State) LogTail(n int) []ringlog.Entry {
	return s.log.Tail(n)
}

// LogSince returns a copy of the entries appended after seq.
func (s *State) LogSince(seq uint64) []ringlog.Entry {
	return s.log.Since(seq)
}

// LogSeq returns the log's change counter.
func (s *State) LogSeq() uint64 {
	return s.log.Seq()
}

// LogLen returns the number of retained entries.
func (s *State) LogLen() int {
	return s.log.Len()
}

func (s *State) publish(snap *status.Snapshot) {
	s.snapshot.Store(snap)
}

func (s *State) setPhase(p Phase) {
	s.phase.Store(int32(p))
}

func (s *State) setRunning(r *CommandRun) {
	s.run.Store(r)
}

func (s *State) complete(r *CommandRun) {
	s.lastRun.Store(r)
	s.run.Store(nil)
}

func (s *State) setAutoRefresh(on bool) {
	s.autoRefresh.Store(on)
}
