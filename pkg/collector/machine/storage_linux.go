//go:build linux
// +build linux

package machine

import (
	"fmt"
	"strings"

	"github.com/moby/sys/mountinfo"
	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// Stubbed by tests.
var (
	getMounts = mountinfo.GetMounts
	statfs    = unix.Statfs
)

// blockDevices keeps mounts backed by a real block device.
func blockDevices(info *mountinfo.Info) (skip, stop bool) {
	if !strings.HasPrefix(info.Source, "/dev/") {
		return true, false
	}
	return strings.HasPrefix(info.Source, "/dev/loop"), false
}

// Storage reports space for each mounted block device. A device mounted more
// than once is reported at its first mount point. Devices that cannot be
// queried are left out and their errors combined.
func Storage() ([]StorageSummary, error) {
	mounts, err := getMounts(blockDevices)
	if err != nil {
		return nil, fmt.Errorf("listing mounts: %w", err)
	}
	seen := make(map[string]struct{}, len(mounts))
	var out []StorageSummary
	var errs error
	for _, m := range mounts {
		if _, ok := seen[m.Source]; ok {
			continue
		}
		seen[m.Source] = struct{}{}
		var st unix.Statfs_t
		if err := statfs(m.Mountpoint, &st); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("statfs %s: %w", m.Mountpoint, err))
			continue
		}
		bsize := uint64(st.Bsize)
		total := st.Blocks * bsize
		free := st.Bavail * bsize
		out = append(out, StorageSummary{
			Device: m.Source,
			Mount:  m.Mountpoint,
			Total:  total,
			Used:   saturatingSub(total, free),
			Free:   free,
		})
	}
	return out, errs
}
