package ui

import (
	"strings"

	"github.com/fatih/color"
)

const tagline = "# Server metrics for man & machine. See --help for details."

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Date    string
	Commit  string
}

func (b BuildInfo) orUnknown() BuildInfo {
	for _, f := range []*string{&b.Version, &b.Date, &b.Commit} {
		if *f == "" {
			*f = "unknown"
		}
	}
	return b
}

// Banner renders the --version output.
func Banner(info BuildInfo) string {
	info = info.orUnknown()
	wordmark := color.New(color.Bold, color.FgHiYellow).Sprint("Upstate")

	var b strings.Builder
	b.WriteString(wordmark + " (" + info.Version + ", " + info.Date + ", @" + info.Commit + ")\n")
	b.WriteString(color.New(color.Faint).Sprint(tagline) + "\n")
	return b.String()
}
