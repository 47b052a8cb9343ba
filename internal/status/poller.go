package status

import (
	"context"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harshul/stackdash/internal/fsutil"
	"github.com/harshul/stackdash/internal/hostinfo"
	"github.com/harshul/stackdash/internal/logger"
)

const (
	// DefaultSupervisorTimeout bounds the supervisor listing call.
	DefaultSupervisorTimeout = 10 * time.Second
	// DefaultCPUSample is how long CPU usage is sampled for.
	DefaultCPUSample = 200 * time.Millisecond
)

// Markers names the filesystem entries, relative to the project root,
// whose presence the poller reports.
type Markers struct {
	Manifest     string
	Dependencies string
	Build        string
}

// DefaultMarkers returns the markers of a Node project.
func DefaultMarkers() Markers {
	return Markers{
		Manifest:     "package.json",
		Dependencies: "node_modules",
		Build:        ".output",
	}
}

// Names returns the non-empty marker names.
func (m Markers) Names() []string {
	var out []string
	for _, n := range []string{m.Manifest, m.Dependencies, m.Build} {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Lister returns the supervisor's process listing.
type Lister interface {
	List(ctx context.Context) ([]ProcessInfo, error)
}

// HostProbe samples host resource usage.
type HostProbe func(ctx context.Context, sample time.Duration) (hostinfo.Stats, error)

// Poller builds Snapshots. Every external query is best-effort: failures
// degrade the affected fields to empty or zero and are only logged.
type Poller struct {
	root              string
	markers           Markers
	lister            Lister
	host              HostProbe
	supervisorTimeout time.Duration
	cpuSample         time.Duration
	log               logger.Logger
	now               func() time.Time
}

// Option configures a Poller.
type Option func(*Poller)

// WithSupervisorTimeout overrides the listing timeout.
func WithSupervisorTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.supervisorTimeout = d
		}
	}
}

// WithCPUSample overrides the CPU sampling interval.
func WithCPUSample(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.cpuSample = d
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Poller) { p.log = logger.OrNoop(l) }
}

// WithClock overrides the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

// NewPoller creates a poller for the project at root. A nil lister or host
// probe leaves the corresponding fields empty.
func NewPoller(root string, markers Markers, lister Lister, host HostProbe, opts ...Option) *Poller {
	p := &Poller{
		root:              root,
		markers:           markers,
		lister:            lister,
		host:              host,
		supervisorTimeout: DefaultSupervisorTimeout,
		cpuSample:         DefaultCPUSample,
		log:               logger.Noop(),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll queries the filesystem, the supervisor and the host concurrently and
// returns a new Snapshot. It never fails; TakenAt is stamped after every
// query has returned.
func (p *Poller) Poll(ctx context.Context) *Snapshot {
	start := time.Now()
	snap := &Snapshot{
		ProjectPresent:      p.exists(p.markers.Manifest),
		DependenciesPresent: p.exists(p.markers.Dependencies),
		BuildPresent:        p.exists(p.markers.Build),
	}

	// Probe goroutines return nil so one failure never cancels the other.
	var g errgroup.Group

	if p.lister != nil {
		g.Go(func() error {
			lctx, cancel := context.WithTimeout(ctx, p.supervisorTimeout)
			defer cancel()

			procs, err := p.lister.List(lctx)
			if err != nil {
				p.log.Warn("supervisor query failed: %v", err)
				return nil
			}
			snap.SupervisorAvailable = true
			snap.Processes = procs
			return nil
		})
	}

	if p.host != nil {
		g.Go(func() error {
			stats, err := p.host(ctx, p.cpuSample)
			if err != nil {
				p.log.Warn("host probe degraded: %v", err)
			}
			snap.CPUPercent = stats.CPUPercent
			snap.CPUTemp = stats.CPUTemp
			snap.MemoryPercent = stats.MemoryPercent
			snap.MemoryUsedGB = hostinfo.GB(stats.MemoryUsed)
			snap.MemoryTotalGB = hostinfo.GB(stats.MemoryTotal)
			snap.DiskPercent = stats.DiskPercent
			snap.DiskUsedGB = hostinfo.GB(stats.DiskUsed)
			snap.DiskTotalGB = hostinfo.GB(stats.DiskTotal)
			return nil
		})
	}

	_ = g.Wait()

	if snap.Processes == nil {
		snap.Processes = []ProcessInfo{}
	}
	snap.TakenAt = p.now()
	p.log.Debug("poll finished in %s (%d processes)", time.Since(start), len(snap.Processes))
	return snap
}

func (p *Poller) exists(name string) bool {
	if name == "" {
		return false
	}
	return fsutil.Exists(filepath.Join(p.root, name))
}
