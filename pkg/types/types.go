package types

import (
	"strings"
	"time"
)

// ConfigEnvVar names the environment override for the service config source.
const ConfigEnvVar = "UPSTATE_CONF"

// Process is one observation from the process table snapshot.
type Process struct {
	PID       uint32
	PPID      uint32 // 0 when the process has no parent
	Name      string
	Exe       string
	Cmdline   []string
	CPUTime   time.Duration
	RSSBytes  uint64
	StartTime time.Time
	Kernel    bool // kernel thread; never indexed
}

// Command returns the joined argv used for pattern matching.
func (p Process) Command() string {
	return strings.Join(p.Cmdline, " ")
}

// Usage is the aggregated resource footprint of a process subtree.
type Usage struct {
	CPUTime  time.Duration
	RSSBytes uint64
}

// Add returns the sum of two usages.
func (u Usage) Add(o Usage) Usage {
	return Usage{CPUTime: u.CPUTime + o.CPUTime, RSSBytes: u.RSSBytes + o.RSSBytes}
}

// Match is one resolution result for a configured service. PID 0 means the
// service is not running.
type Match struct {
	Name    string
	PID     uint32
	Message string
}
