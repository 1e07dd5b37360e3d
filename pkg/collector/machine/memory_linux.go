//go:build linux
// +build linux

package machine

import (
	"fmt"

	"github.com/prometheus/procfs"
)

// Memory reads /proc/meminfo from the procfs mount at procPath.
func Memory(procPath string) (MemorySummary, error) {
	if procPath == "" {
		procPath = procfs.DefaultMountPoint
	}
	fs, err := procfs.NewFS(procPath)
	if err != nil {
		return MemorySummary{}, fmt.Errorf("opening procfs: %w", err)
	}
	mi, err := fs.Meminfo()
	if err != nil {
		return MemorySummary{}, fmt.Errorf("reading meminfo: %w", err)
	}
	return memorySummary(mi), nil
}

func memorySummary(mi procfs.Meminfo) MemorySummary {
	total := kib(mi.MemTotal)
	free := kib(mi.MemFree)
	avail := free
	if mi.MemAvailable != nil {
		avail = kib(mi.MemAvailable)
	}
	return MemorySummary{
		Total: total,
		Free:  free,
		RSS:   saturatingSub(total, avail),
		Cache: saturatingSub(avail, free),
		Swap:  saturatingSub(kib(mi.SwapTotal), kib(mi.SwapFree)),
	}
}

func kib(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v * 1024
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
