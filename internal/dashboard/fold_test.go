package dashboard

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harshul/stackdash/internal/errors"
	"github.com/harshul/stackdash/internal/executor"
	"github.com/harshul/stackdash/internal/ringlog"
)

type line struct {
	level ringlog.Level
	text  string
}

func lines(r *ringlog.RingLog) []line {
	var out []line
	for _, e := range r.All() {
		out = append(out, line{e.Level, e.Text})
	}
	return out
}

func TestFoldResult(t *testing.T) {
	code0, code1 := 0, 1

	tests := []struct {
		name string
		res  executor.Result
		want []line
	}{
		{
			name: "success keeps every non-empty line",
			res: executor.Result{
				Action: "build", Success: true, ExitCode: &code0,
				Stdout: "compiling\n\n  \ndone\r\n", Stderr: "warning: peer dep\n",
			},
			want: []line{
				{ringlog.LevelSuccess, "Command succeeded: build"},
				{ringlog.LevelInfo, "compiling"},
				{ringlog.LevelInfo, "done"},
				{ringlog.LevelInfo, "warning: peer dep"},
			},
		},
		{
			name: "non-zero exit",
			res: executor.Result{
				Action: "install", ExitCode: &code1,
				Stderr: "ENOENT\n",
			},
			want: []line{
				{ringlog.LevelError, "Command failed: install"},
				{ringlog.LevelError, "Exit code: 1"},
				{ringlog.LevelError, "ENOENT"},
			},
		},
		{
			name: "missing launcher",
			res: executor.Result{
				Action:  "start",
				Failure: executor.ReasonBinaryMissing,
				Err:     errors.New(errors.ErrMissingLauncher, "Launcher not found: /srv/app/run.sh", "hint"),
			},
			want: []line{
				{ringlog.LevelError, "Command failed: start"},
				{ringlog.LevelError, "Error: Launcher not found: /srv/app/run.sh"},
			},
		},
		{
			name: "timeout keeps partial output",
			res: executor.Result{
				Action:  "dev",
				Failure: executor.ReasonTimedOut,
				Err:     errors.New(errors.ErrTimeout, "dev timed out after 5m0s", ""),
				Stdout:  "listening on :3000\n",
			},
			want: []line{
				{ringlog.LevelError, "Command failed: dev"},
				{ringlog.LevelError, "Error: dev timed out after 5m0s"},
				{ringlog.LevelInfo, "listening on :3000"},
			},
		},
		{
			name: "wait error without exit code",
			res: executor.Result{
				Action: "dev",
				Err:    fmt.Errorf("dev: %w", exec.ErrWaitDelay),
				Stdout: "started\n",
			},
			want: []line{
				{ringlog.LevelError, "Command failed: dev"},
				{ringlog.LevelError, "Error: dev: exec: WaitDelay expired before I/O complete"},
				{ringlog.LevelInfo, "started"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ringlog.New(50)
			foldResult(r, tt.res)
			assert.Equal(t, tt.want, lines(r))
		})
	}
}

func TestCommandRunFinished(t *testing.T) {
	run := CommandRun{Action: "build", StartedAt: time.Now(), Status: RunRunning}

	tests := []struct {
		res  executor.Result
		want RunStatus
	}{
		{executor.Result{Success: true}, RunSucceeded},
		{executor.Result{}, RunFailed},
		{executor.Result{Failure: executor.ReasonTimedOut}, RunTimedOut},
		{executor.Result{Failure: executor.ReasonBinaryMissing}, RunErrored},
		{executor.Result{Failure: executor.ReasonSpawnError}, RunErrored},
		{executor.Result{Failure: executor.ReasonCanceled, Err: context.Canceled}, RunErrored},
	}
	for _, tt := range tests {
		got := run.finished(tt.res)
		assert.Equal(t, tt.want, got.Status)
	}
	assert.Equal(t, RunRunning, run.Status, "the running record is never modified")
}

func TestActions(t *testing.T) {
	assert.Equal(t, []string{"start", "stop", "restart", "dev", "build", "install", "clean", "update"}, ActionNames())

	a, ok := LookupAction("clean")
	assert.True(t, ok)
	assert.Equal(t, "7", a.Key)

	a, ok = ActionForKey("3")
	assert.True(t, ok)
	assert.Equal(t, "restart", a.Name)

	_, ok = LookupAction("deploy")
	assert.False(t, ok)

	seen := map[string]bool{}
	for _, a := range Actions {
		assert.False(t, seen[a.Key], "duplicate key %s", a.Key)
		seen[a.Key] = true
	}
}

func TestStateDefaults(t *testing.T) {
	s := NewState(nil)
	assert.Nil(t, s.Snapshot())
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.True(t, s.AutoRefresh())
	assert.Nil(t, s.Running())
	assert.Equal(t, 0, s.LogLen())
	assert.Equal(t, "ExecutingCommand", PhaseExecuting.String())
}
