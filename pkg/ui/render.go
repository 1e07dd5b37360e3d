package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/srodi/upstate/pkg/collector/machine"
	"github.com/srodi/upstate/pkg/report"
)

// Format selects the report encoding.
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatYAML
)

// Report is everything one run prints. A nil Summary or Services section is
// left out of the output.
type Report struct {
	Summary  *machine.Summary
	Services []report.Row
	// ShowServices keeps an empty services section in structured output.
	ShowServices bool
}

// ConfigureColor disables colors unless f is a terminal.
func ConfigureColor(f *os.File) {
	color.NoColor = !term.IsTerminal(int(f.Fd()))
}

// Render writes r to w in the requested format.
func Render(w io.Writer, f Format, r Report) error {
	switch f {
	case FormatText:
		return renderText(w, r)
	case FormatJSON:
		return renderJSON(w, r)
	case FormatYAML:
		return renderYAML(w, r)
	}
	return fmt.Errorf("unknown output format %d", f)
}
