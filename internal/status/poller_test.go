package status

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshul/stackdash/internal/hostinfo"
	"github.com/harshul/stackdash/internal/logger"
)

type fakeLister struct {
	procs []ProcessInfo
	err   error
	delay time.Duration
}

func (f *fakeLister) List(ctx context.Context) ([]ProcessInfo, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.procs, f.err
}

func fakeHost(stats hostinfo.Stats, err error) HostProbe {
	return func(ctx context.Context, sample time.Duration) (hostinfo.Stats, error) {
		return stats, err
	}
}

func TestPollMarkers(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "node_modules"), 0o755))

	snap := NewPoller(root, DefaultMarkers(), nil, nil).Poll(context.Background())

	assert.True(t, snap.ProjectPresent)
	assert.True(t, snap.DependenciesPresent)
	assert.False(t, snap.BuildPresent)
	assert.False(t, snap.SupervisorAvailable)
	assert.NotNil(t, snap.Processes)
	assert.Empty(t, snap.Processes)
}

func TestPollCombinesSources(t *testing.T) {
	lister := &fakeLister{procs: []ProcessInfo{
		{Name: "api", PID: 10, Status: StatusOnline},
		{Name: "worker", Status: StatusStopped},
	}}
	host := fakeHost(hostinfo.Stats{
		CPUPercent:    12.5,
		MemoryPercent: 50,
		MemoryUsed:    4 << 30,
		MemoryTotal:   8 << 30,
		DiskPercent:   25,
		DiskUsed:      100 << 30,
		DiskTotal:     400 << 30,
	}, nil)

	snap := NewPoller(t.TempDir(), DefaultMarkers(), lister, host).Poll(context.Background())

	assert.True(t, snap.SupervisorAvailable)
	assert.True(t, snap.SupervisorRunning())
	assert.Equal(t, 1, snap.Online())
	require.Len(t, snap.Processes, 2)
	assert.Equal(t, StatusStopped, snap.Processes[1].Status)

	assert.Equal(t, 12.5, snap.CPUPercent)
	assert.Equal(t, 4.0, snap.MemoryUsedGB)
	assert.Equal(t, 8.0, snap.MemoryTotalGB)
	assert.Equal(t, 100.0, snap.DiskUsedGB)
	assert.Equal(t, 400.0, snap.DiskTotalGB)
}

func TestPollEmptyListing(t *testing.T) {
	snap := NewPoller(t.TempDir(), DefaultMarkers(), &fakeLister{procs: []ProcessInfo{}}, nil).
		Poll(context.Background())

	assert.True(t, snap.SupervisorAvailable)
	assert.Empty(t, snap.Processes)
	assert.False(t, snap.SupervisorRunning())
}

func TestPollDegradesOnFailures(t *testing.T) {
	log := logger.NewBufferLogger()
	lister := &fakeLister{err: stderrors.New("pm2 not found")}
	host := fakeHost(hostinfo.Stats{MemoryPercent: 30, MemoryTotal: 1 << 30}, stderrors.New("cpu: unsupported"))

	snap := NewPoller(t.TempDir(), DefaultMarkers(), lister, host, WithLogger(log)).Poll(context.Background())

	assert.False(t, snap.SupervisorAvailable)
	assert.Empty(t, snap.Processes)
	assert.Zero(t, snap.CPUPercent)
	assert.Equal(t, 30.0, snap.MemoryPercent, "healthy metrics survive a partial host failure")
	assert.True(t, log.HasLevel("warn"))
}

func TestPollSupervisorTimeout(t *testing.T) {
	lister := &fakeLister{delay: time.Minute}
	p := NewPoller(t.TempDir(), DefaultMarkers(), lister, nil, WithSupervisorTimeout(50*time.Millisecond))

	start := time.Now()
	snap := p.Poll(context.Background())

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, snap.SupervisorAvailable)
	assert.Empty(t, snap.Processes)
}

func TestPollStampsAfterQueries(t *testing.T) {
	before := time.Now()
	lister := &fakeLister{procs: []ProcessInfo{}, delay: 20 * time.Millisecond}

	snap := NewPoller(t.TempDir(), DefaultMarkers(), lister, nil).Poll(context.Background())

	assert.True(t, snap.TakenAt.Sub(before) >= 20*time.Millisecond)
}

func TestParseProcessStatus(t *testing.T) {
	tests := map[string]ProcessStatus{
		"online":    StatusOnline,
		"stopped":   StatusStopped,
		"stopping":  StatusStopped,
		"errored":   StatusErrored,
		"error":     StatusErrored,
		"launching": StatusUnknown,
		"":          StatusUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseProcessStatus(in), "status %q", in)
	}
}

func TestMarkerNames(t *testing.T) {
	assert.Equal(t, []string{"package.json", "node_modules", ".output"}, DefaultMarkers().Names())
	assert.Equal(t, []string{"go.mod"}, Markers{Manifest: "go.mod"}.Names())
}
