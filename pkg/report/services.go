package report

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/srodi/upstate/pkg/procmap"
	"github.com/srodi/upstate/pkg/types"
)

// SortKey selects the column service rows are ordered by.
type SortKey int

const (
	SortNone SortKey = iota
	SortCPU
	SortRSS
	SortUptime
)

// ParseSortKey maps a command-line sort name to a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	switch s {
	case "", "none":
		return SortNone, nil
	case "cpu":
		return SortCPU, nil
	case "rss", "mem":
		return SortRSS, nil
	case "uptime", "time":
		return SortUptime, nil
	}
	return SortNone, fmt.Errorf("invalid sort option: %s", s)
}

// Row is one service line of the report.
type Row struct {
	PID     uint32 // 0 for a configured service that is not running
	Name    string
	CPU     time.Duration
	RSS     uint64
	Uptime  time.Duration
	Warn    bool
	Message string
}

// Failed reports whether the row is a missing configured service.
func (r Row) Failed() bool {
	return r.PID == 0
}

// Options controls which rows are built and how they are ordered.
type Options struct {
	All   bool // include running services missing from the config
	Sort  SortKey
	Limit int // 0 means no limit
	Now   time.Time
}

// Build turns resolved config matches into report rows, followed by the
// unconfigured services when opts.All is set. It returns the rows and the
// number of configured services that are not running.
func Build(procs *procmap.Map, matches []types.Match, opts Options) ([]Row, int) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	var rows []Row
	missing := 0
	shown := make(map[uint32]struct{})

	for _, m := range matches {
		if m.PID == 0 {
			rows = append(rows, Row{Name: m.Name, Message: m.Message})
			missing++
			continue
		}
		if _, ok := shown[m.PID]; ok {
			continue
		}
		shown[m.PID] = struct{}{}
		if row, ok := usageRow(procs, m.PID, m.Name, opts.Now); ok {
			row.Warn = m.Message != ""
			row.Message = m.Message
			rows = append(rows, row)
		}
	}

	if opts.All {
		services := procs.Services()
		slices.Sort(services)
		for _, pid := range services {
			if _, ok := shown[pid]; ok {
				continue
			}
			shown[pid] = struct{}{}
			if row, ok := usageRow(procs, pid, "", opts.Now); ok {
				row.Warn = true
				rows = append(rows, row)
			}
		}
	}

	SortRows(rows, opts.Sort)
	return Limit(rows, opts.Limit), missing
}

func usageRow(procs *procmap.Map, pid uint32, name string, now time.Time) (Row, bool) {
	p, ok := procs.Process(pid)
	if !ok {
		return Row{}, false
	}
	if name == "" {
		name = p.Name
	}
	usage := procs.Stat(pid)
	row := Row{PID: pid, Name: name, CPU: usage.CPUTime, RSS: usage.RSSBytes}
	if !p.StartTime.IsZero() && now.After(p.StartTime) {
		row.Uptime = now.Sub(p.StartTime)
	}
	return row, true
}

// SortRows orders rows descending by key. Ties keep their build order.
func SortRows(rows []Row, key SortKey) {
	var less func(a, b Row) bool
	switch key {
	case SortCPU:
		less = func(a, b Row) bool { return a.CPU > b.CPU }
	case SortRSS:
		less = func(a, b Row) bool { return a.RSS > b.RSS }
	case SortUptime:
		less = func(a, b Row) bool { return a.Uptime > b.Uptime }
	default:
		return
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
}

// Limit truncates rows to n entries when n is positive.
func Limit(rows []Row, n int) []Row {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}
