package conf

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/srodi/upstate/pkg/types"
)

const (
	msgNotRunning = "service not running"
	msgMultiple   = "multiple matching processes"
)

// Resolver looks up services in a process snapshot.
type Resolver interface {
	ServiceByPID(pid uint32) (uint32, bool)
	ServicesByCmd(pattern string) []uint32
}

// Item is one declared service expectation.
type Item struct {
	Name     string
	Required bool
	Multiple bool
	PIDFile  string // empty when no PID file is configured
	Command  string // empty means match on Name
}

// Pattern returns the command pattern used for process matching.
func (it Item) Pattern() string {
	if it.Command == "" {
		return it.Name
	}
	return it.Command
}

// Matches resolves the item against procs. A readable PID file naming a
// known process wins outright. Otherwise every command match is returned in
// ascending pid order, sharing one diagnostic.
func (it Item) Matches(fs afero.Fs, procs Resolver) []types.Match {
	if pid, ok := it.pidFromFile(fs, procs); ok {
		return []types.Match{{Name: it.Name, PID: pid}}
	}

	pids := procs.ServicesByCmd(it.Pattern())
	slices.Sort(pids)
	if len(pids) == 0 {
		if it.Required {
			return []types.Match{{Name: it.Name, PID: 0, Message: msgNotRunning}}
		}
		return nil
	}

	msg := ""
	if it.PIDFile != "" {
		msg = fmt.Sprintf("invalid PID file %s", it.PIDFile)
	} else if len(pids) > 1 && !it.Multiple {
		msg = msgMultiple
	}
	found := make([]types.Match, 0, len(pids))
	for _, pid := range pids {
		found = append(found, types.Match{Name: it.Name, PID: pid, Message: msg})
	}
	return found
}

func (it Item) pidFromFile(fs afero.Fs, procs Resolver) (uint32, bool) {
	if it.PIDFile == "" || fs == nil {
		return 0, false
	}
	data, err := afero.ReadFile(fs, it.PIDFile)
	if err != nil {
		return 0, false
	}
	// One leading '+' is accepted, as in "+42".
	text := strings.TrimPrefix(strings.TrimSpace(string(data)), "+")
	pid, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		return 0, false
	}
	return procs.ServiceByPID(uint32(pid))
}
