//go:build linux
// +build linux

package procs

import (
	"fmt"
	"math"
	"time"

	"github.com/prometheus/procfs"
	"go.uber.org/zap"

	"github.com/srodi/upstate/pkg/types"
)

// pfKthread is the PF_KTHREAD bit of the kernel task flags word.
const pfKthread = 0x00200000

// Collector reads the process table from a procfs mount.
type Collector struct {
	fs  procfs.FS
	log *zap.Logger
}

// NewCollector opens the procfs mount at path, or the default mount when
// path is empty.
func NewCollector(path string, logger *zap.Logger) (*Collector, error) {
	if path == "" {
		path = procfs.DefaultMountPoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	fs, err := procfs.NewFS(path)
	if err != nil {
		return nil, fmt.Errorf("opening procfs at %s: %w", path, err)
	}
	return &Collector{fs: fs, log: logger}, nil
}

// Snapshot lists every process once. Processes that exit during the scan are
// skipped.
func (c *Collector) Snapshot() ([]types.Process, error) {
	all, err := c.fs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}
	out := make([]types.Process, 0, len(all))
	for _, p := range all {
		proc, err := readProcess(p)
		if err != nil {
			c.log.Debug("skipping process", zap.Int("pid", p.PID), zap.Error(err))
			continue
		}
		out = append(out, proc)
	}
	return out, nil
}

func readProcess(p procfs.Proc) (types.Process, error) {
	stat, err := p.Stat()
	if err != nil {
		return types.Process{}, fmt.Errorf("reading stat: %w", err)
	}
	proc := types.Process{
		PID:      uint32(p.PID),
		PPID:     uint32(max(stat.PPID, 0)),
		Name:     displayName(uint32(p.PID), stat.Comm),
		CPUTime:  secondsToDuration(stat.CPUTime()),
		RSSBytes: uint64(max(stat.ResidentMemory(), 0)),
		Kernel:   stat.Flags&pfKthread != 0,
	}
	if cmdline, err := p.CmdLine(); err == nil {
		proc.Cmdline = cmdline
	}
	if exe, err := p.Executable(); err == nil {
		proc.Exe = exe
	}
	if start, err := stat.StartTime(); err == nil {
		sec, frac := math.Modf(start)
		proc.StartTime = time.Unix(int64(sec), int64(frac*float64(time.Second)))
	}
	return proc, nil
}
