package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/srodi/upstate/pkg/collector/machine"
	"github.com/srodi/upstate/pkg/report"
)

const sep = " ∙ "

var (
	white  = color.New(color.FgWhite).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

func renderText(w io.Writer, r Report) error {
	bw := bufio.NewWriter(w)
	if r.Summary != nil {
		writeSummary(bw, *r.Summary)
	}
	for _, row := range r.Services {
		writeRow(bw, row)
	}
	return bw.Flush()
}

func writeSummary(w io.Writer, s machine.Summary) {
	load := fmt.Sprintf("%.2f, %.2f, %.2f", s.CPU.LoadAvg[0], s.CPU.LoadAvg[1], s.CPU.LoadAvg[2])
	summaryLine(w, "loadavg:", load,
		"up "+elapsed(s.CPU.Uptime),
		fmt.Sprintf("%d processes", s.CPU.Processes),
		fmt.Sprintf("%d cores", s.CPU.Cores))

	m := s.Memory
	detail := []string{size(m.RSS) + " rss", size(m.Cache) + " cache"}
	if m.Swap > 0 {
		detail = append(detail, size(m.Swap)+" swap")
	}
	detail = append(detail, size(m.Total)+" total")
	summaryLine(w, "memory:", fmt.Sprintf("%s (%.1f%%) free", size(m.Free), percent(m.Free, m.Total)), detail...)

	for _, d := range s.Storage {
		summaryLine(w, "storage:", fmt.Sprintf("%s (%.1f%%) free", size(d.Free), percent(d.Free, d.Total)),
			size(d.Used)+" used",
			size(d.Total)+" total",
			"on "+d.Mount)
	}
}

func summaryLine(w io.Writer, key, value string, detail ...string) {
	fmt.Fprintf(w, "%s%-26s %s\n", white(fmt.Sprintf("%-10s", key)), value, white(strings.Join(detail, sep)))
}

func writeRow(w io.Writer, row report.Row) {
	label := fmt.Sprintf("%-34s", fmt.Sprintf("%s [%d]", row.Name, row.PID))
	detail := strings.Join([]string{
		"cpu " + elapsed(row.CPU),
		"up " + elapsed(row.Uptime),
		size(row.RSS) + " rss",
	}, sep)
	switch {
	case row.Failed():
		fmt.Fprintf(w, "%s %s %s\n", red("■"), label, row.Message)
	case row.Warn:
		fmt.Fprintf(w, "%s %s %s\n", yellow("■"), label, white(detail))
		if row.Message != "" {
			fmt.Fprintf(w, "  %s %s\n", yellow("Warning:"), row.Message)
		}
	default:
		fmt.Fprintf(w, "%s %s %s\n", green("●"), label, white(detail))
	}
}

// elapsed renders d as HH:MM:SS, or whole days once it reaches a day.
func elapsed(d time.Duration) string {
	secs := int64(d / time.Second)
	mins := secs / 60
	hours := mins / 60
	if days := hours / 24; days > 0 {
		return fmt.Sprintf("%d days", days)
	}
	return fmt.Sprintf("%02d:%02d:%02d", hours, mins%60, secs%60)
}

func size(b uint64) string {
	return humanize.IBytes(b)
}

func percent(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}
