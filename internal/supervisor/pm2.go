// Package supervisor talks to the external process manager (pm2) that owns
// the application processes.
package supervisor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/harshul/stackdash/internal/errors"
	"github.com/harshul/stackdash/internal/status"
)

const (
	// DefaultBinary is the supervisor executable looked up on PATH.
	DefaultBinary = "pm2"
	// DefaultListTimeout bounds a listing call.
	DefaultListTimeout = 10 * time.Second
	// DefaultLogsTimeout bounds a logs call.
	DefaultLogsTimeout = 30 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RunFunc runs the supervisor binary and returns its stdout.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// PM2 queries a pm2 daemon through its CLI.
type PM2 struct {
	bin         string
	listTimeout time.Duration
	logsTimeout time.Duration
	run         RunFunc
}

// Option configures a PM2 client.
type Option func(*PM2)

// WithRunner replaces the process runner. Used by tests.
func WithRunner(run RunFunc) Option {
	return func(p *PM2) { p.run = run }
}

// WithListTimeout overrides the listing timeout.
func WithListTimeout(d time.Duration) Option {
	return func(p *PM2) {
		if d > 0 {
			p.listTimeout = d
		}
	}
}

// NewPM2 creates a client for the given binary (DefaultBinary if empty).
func NewPM2(bin string, opts ...Option) *PM2 {
	if bin == "" {
		bin = DefaultBinary
	}
	p := &PM2{
		bin:         bin,
		listTimeout: DefaultListTimeout,
		logsTimeout: DefaultLogsTimeout,
		run:         runOutput,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Binary returns the supervisor executable name.
func (p *PM2) Binary() string {
	return p.bin
}

// List returns the managed processes from `pm2 jlist`. A failed call, a
// non-zero exit or malformed JSON yields a SUPERVISOR_UNAVAILABLE error.
func (p *PM2) List(ctx context.Context) ([]status.ProcessInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.listTimeout)
	defer cancel()

	out, err := p.run(ctx, p.bin, "jlist")
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.ErrSupervisorUnavailable, p.bin+" jlist timed out")
		}
		return nil, errors.Wrap(err, errors.ErrSupervisorUnavailable, p.bin+" jlist failed")
	}

	procs, err := ParseJList(out)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrSupervisorUnavailable, p.bin+" jlist returned invalid data")
	}
	return procs, nil
}

// Logs returns the last lines of every managed process's log without
// following.
func (p *PM2) Logs(ctx context.Context, lines int) (string, error) {
	if lines <= 0 {
		lines = 50
	}
	ctx, cancel := context.WithTimeout(ctx, p.logsTimeout)
	defer cancel()

	out, err := p.run(ctx, p.bin, "logs", "--lines", strconv.Itoa(lines), "--nostream")
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrSupervisorUnavailable,
			"Could not read supervisor logs",
			"Check that "+p.bin+" is installed and its daemon is running")
	}
	return string(out), nil
}

type jlistEntry struct {
	Name   string `json:"name"`
	PID    int    `json:"pid"`
	PM2Env struct {
		Status      string `json:"status"`
		RestartTime uint   `json:"restart_time"`
	} `json:"pm2_env"`
	Monit *struct {
		CPU    float64 `json:"cpu"`
		Memory uint64  `json:"memory"`
	} `json:"monit"`
}

// ParseJList decodes `pm2 jlist` output. pm2 sometimes prints warnings and
// "[PM2] ..." notices before the JSON array, so decoding starts at the first
// line that opens an array of objects (or an empty one).
func ParseJList(data []byte) ([]status.ProcessInfo, error) {
	start := arrayStart(data)
	if start < 0 {
		return nil, fmt.Errorf("no JSON array in output")
	}

	var entries []jlistEntry
	if err := json.Unmarshal(data[start:], &entries); err != nil {
		return nil, fmt.Errorf("decode jlist: %w", err)
	}

	procs := make([]status.ProcessInfo, 0, len(entries))
	for _, e := range entries {
		info := status.ProcessInfo{
			Name:         e.Name,
			Status:       status.ParseProcessStatus(e.PM2Env.Status),
			RestartCount: e.PM2Env.RestartTime,
		}
		if e.PID > 0 {
			info.PID = e.PID
		}
		if e.Monit != nil {
			info.HasMonitor = true
			info.CPUPercent = e.Monit.CPU
			info.MemoryBytes = e.Monit.Memory
		}
		procs = append(procs, info)
	}
	return procs, nil
}

// arrayStart returns the offset of the first '[' that begins a line and is
// followed, after optional whitespace, by '{' or ']'.
func arrayStart(data []byte) int {
	for i := 0; i < len(data); i++ {
		if data[i] != '[' || (i > 0 && data[i-1] != '\n') {
			continue
		}
		rest := bytes.TrimLeft(data[i+1:], " \t\r\n")
		if len(rest) > 0 && (rest[0] == '{' || rest[0] == ']') {
			return i
		}
	}
	return -1
}

func runOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = time.Second
	return cmd.Output()
}
