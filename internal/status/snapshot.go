// Package status gathers point-in-time views of the managed process set and
// the host into immutable Snapshots.
package status

import "time"

// ProcessStatus is the normalized state of a supervised process.
type ProcessStatus string

const (
	StatusOnline  ProcessStatus = "online"
	StatusStopped ProcessStatus = "stopped"
	StatusErrored ProcessStatus = "errored"
	StatusUnknown ProcessStatus = "unknown"
)

// ParseProcessStatus maps a supervisor status string onto ProcessStatus.
// Anything unrecognized, including an empty string, is unknown.
func ParseProcessStatus(s string) ProcessStatus {
	switch s {
	case "online":
		return StatusOnline
	case "stopped", "stopping":
		return StatusStopped
	case "errored", "error":
		return StatusErrored
	default:
		return StatusUnknown
	}
}

// ProcessInfo describes one supervised process.
type ProcessInfo struct {
	Name         string
	PID          int // 0 when the process has no pid
	Status       ProcessStatus
	CPUPercent   float64
	MemoryBytes  uint64
	RestartCount uint
	HasMonitor   bool // false when the supervisor reported no monitoring figures
}

// HasPID reports whether the process has a pid.
func (p ProcessInfo) HasPID() bool {
	return p.PID > 0
}

// Snapshot is one immutable view of project, process and host state.
// It is never modified after the poller returns it.
type Snapshot struct {
	TakenAt time.Time

	ProjectPresent      bool
	DependenciesPresent bool
	BuildPresent        bool

	// SupervisorAvailable is false when the listing query failed, timed
	// out or returned malformed data.
	SupervisorAvailable bool
	Processes           []ProcessInfo

	CPUPercent    float64
	CPUTemp       float64 // 0 when no sensor is available
	MemoryPercent float64
	MemoryUsedGB  float64
	MemoryTotalGB float64
	DiskPercent   float64
	DiskUsedGB    float64
	DiskTotalGB   float64
}

// SupervisorRunning reports whether the supervisor manages any process.
func (s *Snapshot) SupervisorRunning() bool {
	return len(s.Processes) > 0
}

// Online counts processes in the online state.
func (s *Snapshot) Online() int {
	n := 0
	for _, p := range s.Processes {
		if p.Status == StatusOnline {
			n++
		}
	}
	return n
}
