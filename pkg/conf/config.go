// Package conf loads the declared service list and resolves each entry
// against a process snapshot.
//
// A config source holds one entry per line:
//
//	<marker><name> [<pidfile-or-"-"> [<command pattern...>]]
//
// The optional marker is "-" (optional), "+" (multiple allowed) or "*"
// (optional, multiple allowed). Empty lines and lines starting with "#" are
// ignored.
package conf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/srodi/upstate/pkg/types"
)

// Config is the ordered list of declared services.
type Config struct {
	fs    afero.Fs
	items []Item
}

// New returns a Config that reads PID files through fs.
func New(fs afero.Fs, items ...Item) *Config {
	return &Config{fs: fs, items: items}
}

// Empty returns a Config with no declared services.
func Empty() *Config {
	return &Config{}
}

// Items returns the declared services in source order.
func (c *Config) Items() []Item {
	return c.items
}

// All resolves every item in declaration order.
func (c *Config) All(procs Resolver) []types.Match {
	var found []types.Match
	for _, it := range c.items {
		found = append(found, it.Matches(c.fs, procs)...)
	}
	return found
}

// Parse reads config lines from r. Lines have no length limit.
func Parse(r io.Reader) ([]Item, error) {
	var items []Item
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if it, ok := parseLine(line); ok {
			items = append(items, it)
		}
		if errors.Is(err, io.EOF) {
			return items, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
}

func parseLine(line string) (Item, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return Item{}, false
	}
	title := fields[0]
	it := Item{
		Name:     strings.TrimLeft(title, "-+*"),
		Required: !strings.HasPrefix(title, "-") && !strings.HasPrefix(title, "*"),
		Multiple: strings.HasPrefix(title, "+") || strings.HasPrefix(title, "*"),
	}
	if it.Name == "" {
		return Item{}, false
	}
	if len(fields) > 1 && fields[1] != "-" {
		it.PIDFile = fields[1]
	}
	if len(fields) > 2 {
		it.Command = strings.Join(fields[2:], " ")
	}
	return it, true
}
