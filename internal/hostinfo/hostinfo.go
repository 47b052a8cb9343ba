// Package hostinfo samples CPU, memory, disk and temperature from the host.
package hostinfo

import (
	"context"
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/harshul/stackdash/internal/errors"
)

// DiskPath is the filesystem reported as disk usage.
const DiskPath = "/"

// Stats holds one host resource sample. Metrics whose probe failed are zero.
type Stats struct {
	CPUPercent    float64
	CPUTemp       float64 // Celsius, 0 if unavailable
	MemoryPercent float64
	MemoryUsed    uint64
	MemoryTotal   uint64
	DiskPercent   float64
	DiskUsed      uint64
	DiskTotal     uint64
}

// Probe samples the host. CPU usage is measured over sample. Each metric is
// independent: a failing probe zeroes its own fields and its error is
// joined into the returned error, the rest of the sample is still valid.
func Probe(ctx context.Context, sample time.Duration) (Stats, error) {
	var stats Stats
	var errs []error

	if pct, err := cpu.PercentWithContext(ctx, sample, false); err != nil {
		errs = append(errs, fmt.Errorf("cpu: %w", err))
	} else if len(pct) > 0 {
		stats.CPUPercent = clampPct(pct[0])
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("memory: %w", err))
	} else {
		stats.MemoryUsed = vm.Used
		stats.MemoryTotal = vm.Total
		stats.MemoryPercent = clampPct(vm.UsedPercent)
	}

	if du, err := disk.UsageWithContext(ctx, DiskPath); err != nil {
		errs = append(errs, fmt.Errorf("disk: %w", err))
	} else {
		stats.DiskUsed = du.Used
		stats.DiskTotal = du.Total
		stats.DiskPercent = clampPct(du.UsedPercent)
	}

	stats.CPUTemp = cpuTemperature(ctx)

	if len(errs) > 0 {
		return stats, errors.Wrap(stderrors.Join(errs...), errors.ErrPollFailure, "host probe incomplete")
	}
	return stats, nil
}

// cpuTemperature returns the first plausible CPU sensor reading, or 0.
func cpuTemperature(ctx context.Context) float64 {
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if len(temps) == 0 && err != nil {
		return 0
	}
	return pickTemperature(temps, runtime.GOOS)
}

func pickTemperature(temps []host.TemperatureStat, goos string) float64 {
	for _, t := range temps {
		if isCPUSensor(t.SensorKey) && plausible(t.Temperature) {
			return t.Temperature
		}
	}

	// Apple Silicon and many VMs expose no CPU-named sensor.
	if goos == "darwin" || goos == "linux" {
		for _, t := range temps {
			if plausible(t.Temperature) {
				return t.Temperature
			}
		}
	}
	return 0
}

func isCPUSensor(key string) bool {
	key = strings.ToLower(key)
	for _, name := range []string{"cpu", "coretemp", "k10temp", "package"} {
		if strings.Contains(key, name) {
			return true
		}
	}
	return false
}

func plausible(c float64) bool {
	return c > 0 && c < 120
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// GB converts bytes to gibibytes.
func GB(b uint64) float64 {
	return float64(b) / (1 << 30)
}
