//go:build linux

package machine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/moby/sys/mountinfo"
	"github.com/prometheus/procfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func u64(v uint64) *uint64 { return &v }

func TestMemorySummary(t *testing.T) {
	mi := procfs.Meminfo{
		MemTotal:     u64(16 << 20),
		MemFree:      u64(2 << 20),
		MemAvailable: u64(10 << 20),
		SwapTotal:    u64(4 << 20),
		SwapFree:     u64(3 << 20),
	}
	assert.Equal(t, MemorySummary{
		Total: 16 << 30,
		Free:  2 << 30,
		RSS:   6 << 30,
		Cache: 8 << 30,
		Swap:  1 << 30,
	}, memorySummary(mi))
}

func TestMemorySummaryMissingFields(t *testing.T) {
	mi := procfs.Meminfo{MemTotal: u64(1024), MemFree: u64(256)}
	assert.Equal(t, MemorySummary{Total: 1 << 20, Free: 256 << 10, RSS: 768 << 10}, memorySummary(mi))
}

func TestMemoryReadsMeminfo(t *testing.T) {
	root := t.TempDir()
	meminfo := "MemTotal:        2048 kB\nMemFree:          512 kB\nMemAvailable:    1536 kB\nSwapTotal:          0 kB\nSwapFree:           0 kB\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "meminfo"), []byte(meminfo), 0o644))

	sum, err := Memory(root)
	require.NoError(t, err)
	assert.Equal(t, MemorySummary{Total: 2 << 20, Free: 512 << 10, RSS: 512 << 10, Cache: 1 << 20}, sum)
}

func TestBlockDevicesFilter(t *testing.T) {
	cases := []struct {
		source string
		skip   bool
	}{
		{"/dev/nvme0n1p2", false},
		{"/dev/mapper/root", false},
		{"/dev/loop3", true},
		{"tmpfs", true},
		{"overlay", true},
	}
	for _, tc := range cases {
		skip, stop := blockDevices(&mountinfo.Info{Source: tc.source})
		assert.Equal(t, tc.skip, skip, tc.source)
		assert.False(t, stop)
	}
}

func TestStorageDedupesDevices(t *testing.T) {
	t.Cleanup(func() {
		getMounts = mountinfo.GetMounts
		statfs = unix.Statfs
	})
	getMounts = func(f mountinfo.FilterFunc) ([]*mountinfo.Info, error) {
		return []*mountinfo.Info{
			{Source: "/dev/sda1", Mountpoint: "/"},
			{Source: "/dev/sda1", Mountpoint: "/var/lib/docker"},
			{Source: "/dev/sdb1", Mountpoint: "/data"},
			{Source: "/dev/sdc1", Mountpoint: "/broken"},
		}, nil
	}
	statfs = func(path string, st *unix.Statfs_t) error {
		switch path {
		case "/":
			st.Bsize = 4096
			st.Blocks = 1000
			st.Bavail = 250
		case "/data":
			st.Bsize = 1024
			st.Blocks = 10
			st.Bavail = 10
		default:
			return errors.New("stale mount")
		}
		return nil
	}

	disks, err := Storage()
	require.Error(t, err)
	assert.EqualError(t, err, "statfs /broken: stale mount")
	assert.Equal(t, []StorageSummary{
		{Device: "/dev/sda1", Mount: "/", Total: 4096000, Used: 3072000, Free: 1024000},
		{Device: "/dev/sdb1", Mount: "/data", Total: 10240, Used: 0, Free: 10240},
	}, disks)
}

func TestStorageListError(t *testing.T) {
	t.Cleanup(func() { getMounts = mountinfo.GetMounts })
	getMounts = func(mountinfo.FilterFunc) ([]*mountinfo.Info, error) {
		return nil, errors.New("no mountinfo")
	}
	_, err := Storage()
	require.Error(t, err)
}
