// Package machine gathers the host-level summary printed above the service
// list: CPU load, memory, and storage.
package machine

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"go.uber.org/multierr"
)

// Stubbed by tests.
var (
	cpuCounts  = cpu.CountsWithContext
	hostUptime = host.UptimeWithContext
	loadAvg    = load.AvgWithContext
)

// CPUSummary describes host load.
type CPUSummary struct {
	Cores     int
	Uptime    time.Duration
	LoadAvg   [3]float64
	Processes int
}

// MemorySummary describes host memory in bytes.
type MemorySummary struct {
	Total uint64
	Free  uint64
	RSS   uint64
	Cache uint64
	Swap  uint64
}

// StorageSummary describes one mounted block device in bytes.
type StorageSummary struct {
	Device string
	Mount  string
	Total  uint64
	Used   uint64
	Free   uint64
}

// Summary is the full host report.
type Summary struct {
	CPU     CPUSummary
	Memory  MemorySummary
	Storage []StorageSummary
}

// CPU returns core count, uptime and load average. processes is the size of
// the caller's process snapshot.
func CPU(ctx context.Context, processes int) (CPUSummary, error) {
	sum := CPUSummary{Cores: 1, Processes: processes}
	var errs error
	if cores, err := cpuCounts(ctx, false); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("counting cores: %w", err))
	} else if cores > 0 {
		sum.Cores = cores
	}
	if secs, err := hostUptime(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("reading uptime: %w", err))
	} else {
		sum.Uptime = time.Duration(secs) * time.Second
	}
	if avg, err := loadAvg(ctx); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("reading load average: %w", err))
	} else {
		sum.LoadAvg = [3]float64{avg.Load1, avg.Load5, avg.Load15}
	}
	return sum, errs
}

// Collect gathers every summary section. Sections that fail are left zero
// and their errors are combined.
func Collect(ctx context.Context, procPath string, processes int) (Summary, error) {
	var sum Summary
	var err, errs error
	sum.CPU, err = CPU(ctx, processes)
	errs = multierr.Append(errs, err)
	sum.Memory, err = Memory(procPath)
	errs = multierr.Append(errs, err)
	sum.Storage, err = Storage()
	errs = multierr.Append(errs, err)
	return sum, errs
}
