package dashboard

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harshul/stackdash/internal/errors"
	"github.com/harshul/stackdash/internal/executor"
	"github.com/harshul/stackdash/internal/logger"
	"github.com/harshul/stackdash/internal/ringlog"
	"github.com/harshul/stackdash/internal/status"
)

const (
	// DefaultInterval is the auto-refresh period.
	DefaultInterval = 5 * time.Second
	// DefaultCommandTimeout bounds a launcher invocation.
	DefaultCommandTimeout = 5 * time.Minute
)

var (
	// ErrBusy is returned when a command cannot be accepted because one is
	// already running or queued.
	ErrBusy = stderrors.New("a command is already in progress")
	// ErrUnknownAction is returned for actions missing from Actions.
	ErrUnknownAction = stderrors.New("unknown action")
	// ErrStopped is returned once the scheduler has shut down.
	ErrStopped = stderrors.New("scheduler stopped")
)

// Poller produces snapshots.
type Poller interface {
	Poll(ctx context.Context) *status.Snapshot
}

// Runner executes launcher actions.
type Runner interface {
	Execute(ctx context.Context, action string, timeout time.Duration) executor.Result
}

// EventKind identifies what changed in the State.
type EventKind int

const (
	EventPhase EventKind = iota
	EventSnapshot
	EventLog
	EventStopped
)

// Event tells the render layer that State changed. It carries no data;
// consumers read State.
type Event struct {
	Kind  EventKind
	Phase Phase
	At    time.Time
}

// Scheduler owns the single execution lane: at most one poll or command is
// in flight at any time, and it is the only writer of State.
type Scheduler struct {
	state          *State
	log            *ringlog.RingLog
	poller         Poller
	runner         Runner
	interval       time.Duration
	commandTimeout time.Duration
	exportDir      string
	exportPrefix   string
	diag           logger.Logger
	notify         func(Event)
	now            func() time.Time

	reqs     chan request
	quit     chan struct{}
	quitOnce sync.Once
	started  atomic.Bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the auto-refresh period.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithCommandTimeout sets the per-command timeout.
func WithCommandTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.commandTimeout = d
		}
	}
}

// WithAutoRefresh sets whether the periodic timer starts enabled.
func WithAutoRefresh(on bool) Option {
	return func(s *Scheduler) { s.state.setAutoRefresh(on) }
}

// WithExport sets where exported log files are written.
func WithExport(dir, prefix string) Option {
	return func(s *Scheduler) {
		s.exportDir = dir
		s.exportPrefix = prefix
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) { s.diag = logger.OrNoop(l) }
}

// WithNotify registers a callback invoked on the lane after every State
// change. It must not block.
func WithNotify(fn func(Event)) Option {
	return func(s *Scheduler) { s.notify = fn }
}

// NewScheduler creates a scheduler writing to state.
func NewScheduler(state *State, poller Poller, runner Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		state:          state,
		log:            state.log,
		poller:         poller,
		runner:         runner,
		interval:       DefaultInterval,
		commandTimeout: DefaultCommandTimeout,
		exportDir:      ".",
		exportPrefix:   ringlog.DefaultExportPrefix,
		diag:           logger.Noop(),
		now:            time.Now,
		reqs:           make(chan request),
		quit:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the state this scheduler writes.
func (s *Scheduler) State() *State {
	return s.state
}

type requestKind int

const (
	reqCommand requestKind = iota
	reqRefresh
	reqAutoRefresh
	reqClear
	reqExport
)

type request struct {
	kind    requestKind
	action  string
	enabled bool
	reply   chan reply
}

type reply struct {
	path string
	err  error
}

// workResult is what the lane's single worker hands back.
type workResult struct {
	snapshot *status.Snapshot
	command  *executor.Result
}

// Submit asks the lane to run action. It returns ErrBusy while a command
// is running, or while one is already queued behind a poll.
func (s *Scheduler) Submit(action string) error {
	if _, ok := LookupAction(action); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	return s.send(request{kind: reqCommand, action: action}).err
}

// RequestRefresh asks for a poll as soon as the lane is free. Requests
// made while a poll is pending are coalesced.
func (s *Scheduler) RequestRefresh() error {
	return s.send(request{kind: reqRefresh}).err
}

// SetAutoRefresh enables or disables the periodic timer. Enabling arms a
// fresh interval.
func (s *Scheduler) SetAutoRefresh(on bool) error {
	return s.send(request{kind: reqAutoRefresh, enabled: on}).err
}

// ToggleAutoRefresh flips the periodic timer.
func (s *Scheduler) ToggleAutoRefresh() error {
	return s.SetAutoRefresh(!s.state.AutoRefresh())
}

// ClearLogs empties the log.
func (s *Scheduler) ClearLogs() error {
	return s.send(request{kind: reqClear}).err
}

// ExportLogs writes the log to a timestamped file and returns its path.
func (s *Scheduler) ExportLogs() (string, error) {
	r := s.send(request{kind: reqExport})
	return r.path, r.err
}

func (s *Scheduler) send(req request) reply {
	req.reply = make(chan reply, 1)
	select {
	case s.reqs <- req:
	case <-s.quit:
		return reply{err: ErrStopped}
	}
	select {
	case r := <-req.reply:
		return r
	case <-s.quit:
		return reply{err: ErrStopped}
	}
}

// lane is the loop-local state of Run. It is only touched by the Run goroutine.
type lane struct {
	timer          *time.Timer
	timerC         <-chan time.Time
	busy           bool
	pendingCommand string
	pendingRefresh bool
	work           chan workResult
}

// Run drives the lane until ctx is canceled. It performs an initial poll,
// then alternates between the auto-refresh timer, submitted commands and
// refresh requests. On cancellation an in-flight command is killed and its
// result logged; no further poll is started.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler already running")
	}

	l := &lane{work: make(chan workResult, 1)}
	defer l.disarm()

	s.note(ringlog.LevelInfo, "Checking project status...")
	s.startPoll(ctx, l)

	for {
		select {
		case <-ctx.Done():
			s.shutdown(l)
			return nil

		case <-l.timerC:
			l.timerC = nil
			if ctx.Err() == nil && !l.busy && s.state.AutoRefresh() {
				s.startPoll(ctx, l)
			}

		case req := <-s.reqs:
			if ctx.Err() != nil {
				req.reply <- reply{err: ErrStopped}
				continue
			}
			req.reply <- s.handle(ctx, l, req)

		case res := <-l.work:
			l.busy = false
			if res.command != nil {
				s.finishCommand(*res.command)
			}
			if ctx.Err() != nil {
				s.shutdown(l)
				return nil
			}
			if res.command != nil {
				// Refresh right away so the view reflects the command's effects.
				l.pendingRefresh = false
				s.startPoll(ctx, l)
				continue
			}
			s.state.publish(res.snapshot)
			s.emit(EventSnapshot)
			s.advance(ctx, l)
		}
	}
}

// advance picks the next piece of work after a poll, or goes idle.
func (s *Scheduler) advance(ctx context.Context, l *lane) {
	switch {
	case l.pendingCommand != "":
		action := l.pendingCommand
		l.pendingCommand = ""
		s.startCommand(ctx, l, action)
	case l.pendingRefresh:
		l.pendingRefresh = false
		s.startPoll(ctx, l)
	default:
		s.setPhase(PhaseIdle)
		if s.state.AutoRefresh() {
			l.arm(s.interval)
		}
	}
}

func (s *Scheduler) handle(ctx context.Context, l *lane, req request) reply {
	switch req.kind {
	case reqCommand:
		switch {
		case !l.busy:
			l.disarm()
			s.startCommand(ctx, l, req.action)
			return reply{}
		case s.state.Phase() == PhasePolling && l.pendingCommand == "":
			l.pendingCommand = req.action
			s.note(ringlog.LevelInfo, "Queued command: "+req.action)
			return reply{}
		default:
			s.note(ringlog.LevelInfo, "Busy, ignoring command: "+req.action)
			return reply{err: ErrBusy}
		}

	case reqRefresh:
		if !l.busy {
			l.disarm()
			s.note(ringlog.LevelInfo, "Refreshing status...")
			s.startPoll(ctx, l)
		} else if s.state.Phase() == PhasePolling {
			l.pendingRefresh = true
		}
		return reply{}

	case reqAutoRefresh:
		if s.state.AutoRefresh() != req.enabled {
			s.state.setAutoRefresh(req.enabled)
			if req.enabled {
				s.note(ringlog.LevelInfo, "Auto-refresh enabled")
			} else {
				s.note(ringlog.LevelInfo, "Auto-refresh disabled")
			}
		}
		l.disarm()
		if req.enabled && !l.busy {
			l.arm(s.interval)
		}
		return reply{}

	case reqClear:
		s.log.Clear()
		s.note(ringlog.LevelInfo, "Logs cleared")
		return reply{}

	case reqExport:
		path, err := s.log.Export(s.exportDir, s.exportPrefix, s.now())
		if err != nil {
			s.note(ringlog.LevelError, "Log export failed: "+err.Error())
			return reply{err: err}
		}
		s.note(ringlog.LevelSuccess, "Logs saved: "+path)
		return reply{path: path}
	}
	return reply{}
}

func (s *Scheduler) startPoll(ctx context.Context, l *lane) {
	l.busy = true
	s.setPhase(PhasePolling)
	go func() {
		l.work <- workResult{snapshot: s.poller.Poll(ctx)}
	}()
}

func (s *Scheduler) startCommand(ctx context.Context, l *lane, action string) {
	l.busy = true
	run := &CommandRun{
		Action:    action,
		StartedAt: s.now(),
		Timeout:   s.commandTimeout,
		Status:    RunRunning,
	}
	s.state.setRunning(run)
	s.note(ringlog.LevelInfo, "Running command: "+action)
	s.setPhase(PhaseExecuting)

	timeout := s.commandTimeout
	go func() {
		res := s.runner.Execute(ctx, action, timeout)
		l.work <- workResult{command: &res}
	}()
}

func (s *Scheduler) finishCommand(res executor.Result) {
	run := s.state.Running()
	if run == nil {
		run = &CommandRun{Action: res.Action, StartedAt: res.StartedAt, Timeout: s.commandTimeout}
	}
	foldResult(s.log, res)
	s.state.complete(run.finished(res))
	s.emit(EventLog)

	if res.Err != nil {
		s.diag.Warn("command %s failed (%s): %s", res.Action, res.Failure, errors.Summary(res.Err))
	} else {
		s.diag.Info("command %s succeeded in %s", res.Action, res.Duration())
	}
}

func (s *Scheduler) shutdown(l *lane) {
	s.quitOnce.Do(func() { close(s.quit) })
	l.disarm()
	if l.busy {
		// The worker shares ctx, so it is already being aborted.
		res := <-l.work
		if res.command != nil {
			s.finishCommand(*res.command)
		}
		l.busy = false
	}
	s.setPhase(PhaseIdle)
	s.emit(EventStopped)
	s.diag.Debug("scheduler stopped")
}

func (s *Scheduler) setPhase(p Phase) {
	s.state.setPhase(p)
	s.diag.Debug("lane -> %s", p)
	s.emit(EventPhase)
}

func (s *Scheduler) note(level ringlog.Level, text string) {
	s.log.Append(level, text)
	s.emit(EventLog)
}

func (s *Scheduler) emit(kind EventKind) {
	if s.notify == nil {
		return
	}
	s.notify(Event{Kind: kind, Phase: s.state.Phase(), At: s.now()})
}

func (l *lane) arm(d time.Duration) {
	if l.timer == nil {
		l.timer = time.NewTimer(d)
	} else {
		l.timer.Reset(d)
	}
	l.timerC = l.timer.C
}

func (l *lane) disarm() {
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timerC = nil
}
