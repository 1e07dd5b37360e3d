// Package procmap indexes a process table snapshot as a parent/child
// hierarchy and answers service classification and usage queries over it.
package procmap

import (
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/srodi/upstate/pkg/types"
)

type procInfo struct {
	cmd  string
	proc types.Process
}

// Map is an immutable index over one process snapshot, keyed by pid.
type Map struct {
	roots    mapset.Set[uint32]
	parents  map[uint32]uint32
	children map[uint32][]uint32
	info     map[uint32]procInfo
}

// New builds the index. Kernel threads are dropped. A parent pid that is not
// part of the retained snapshot counts as no parent, so its child becomes a
// root.
func New(procs []types.Process) *Map {
	m := &Map{
		roots:    mapset.NewThreadUnsafeSet[uint32](),
		parents:  make(map[uint32]uint32, len(procs)),
		children: make(map[uint32][]uint32, len(procs)),
		info:     make(map[uint32]procInfo, len(procs)),
	}
	for _, p := range procs {
		if p.Kernel || p.PID == 0 {
			continue
		}
		m.info[p.PID] = procInfo{cmd: p.Command(), proc: p}
		if _, ok := m.children[p.PID]; !ok {
			m.children[p.PID] = []uint32{}
		}
	}
	for _, p := range procs {
		if _, ok := m.info[p.PID]; !ok || m.indexed(p.PID) {
			continue
		}
		if _, known := m.info[p.PPID]; p.PPID != 0 && p.PPID != p.PID && known {
			m.parents[p.PID] = p.PPID
			m.children[p.PPID] = append(m.children[p.PPID], p.PID)
		} else {
			m.roots.Add(p.PID)
		}
	}
	return m
}

func (m *Map) indexed(pid uint32) bool {
	_, ok := m.parents[pid]
	return ok || m.roots.Contains(pid)
}

// Len returns the number of indexed processes.
func (m *Map) Len() int {
	return len(m.info)
}

// Process returns the observation recorded for pid.
func (m *Map) Process(pid uint32) (types.Process, bool) {
	pi, ok := m.info[pid]
	return pi.proc, ok
}

// IsService reports whether pid is a root or a direct child of a root.
func (m *Map) IsService(pid uint32) bool {
	ppid, ok := m.parents[pid]
	return !ok || m.roots.Contains(ppid)
}

// AsService promotes pid to its immediate parent when that parent is a
// service. Only one hop is considered.
func (m *Map) AsService(pid uint32) uint32 {
	if m.IsService(pid) {
		return pid
	}
	ppid := m.parents[pid]
	if m.IsService(ppid) {
		return ppid
	}
	return pid
}

// Services returns the direct children of every root, unordered.
func (m *Map) Services() []uint32 {
	var pids []uint32
	for _, pid := range m.roots.ToSlice() {
		pids = append(pids, m.children[pid]...)
	}
	return pids
}

// ServiceByPID returns the service pid for a known process.
func (m *Map) ServiceByPID(pid uint32) (uint32, bool) {
	if _, ok := m.info[pid]; !ok {
		return 0, false
	}
	return m.AsService(pid), true
}

// ServicesByCmd returns the service pid of every process whose command line
// contains pattern, or matches it as a case-insensitive regular expression.
// The result may hold duplicates and is not sorted.
func (m *Map) ServicesByCmd(pattern string) []uint32 {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		re = nil
	}
	var pids []uint32
	for pid, pi := range m.info {
		if strings.Contains(pi.cmd, pattern) || (re != nil && re.MatchString(pi.cmd)) {
			pids = append(pids, m.AsService(pid))
		}
	}
	return pids
}

// Stat sums CPU time and RSS over pid and all of its descendants.
func (m *Map) Stat(pid uint32) types.Usage {
	pi, ok := m.info[pid]
	if !ok {
		return types.Usage{}
	}
	usage := types.Usage{CPUTime: pi.proc.CPUTime, RSSBytes: pi.proc.RSSBytes}
	for _, cid := range m.children[pid] {
		usage = usage.Add(m.Stat(cid))
	}
	return usage
}
