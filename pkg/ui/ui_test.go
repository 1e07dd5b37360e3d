package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/srodi/upstate/pkg/collector/machine"
	"github.com/srodi/upstate/pkg/report"
)

func noColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func sampleSummary() *machine.Summary {
	return &machine.Summary{
		CPU: machine.CPUSummary{
			Cores:     4,
			Uptime:    30 * time.Hour,
			LoadAvg:   [3]float64{0.5, 0.254, 0.125},
			Processes: 120,
		},
		Memory: machine.MemorySummary{
			Total: 16 << 30,
			Free:  4 << 30,
			RSS:   8 << 30,
			Cache: 4 << 30,
		},
		Storage: []machine.StorageSummary{
			{Device: "/dev/sda1", Mount: "/", Total: 100 << 30, Used: 60 << 30, Free: 40 << 30},
		},
	}
}

func sampleRows() []report.Row {
	return []report.Row{
		{PID: 10, Name: "web", CPU: 5 * time.Second, RSS: 30 << 20, Uptime: time.Hour},
		{PID: 30, Name: "db", CPU: 90 * time.Second, RSS: 1 << 30, Uptime: 2 * time.Hour,
			Warn: true, Message: "multiple matching processes"},
		{PID: 20, Name: "sshd", CPU: time.Second, RSS: 5 << 20, Uptime: 48 * time.Hour, Warn: true},
		{Name: "redis", Message: "service not running"},
	}
}

func TestElapsed(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{5 * time.Second, "00:00:05"},
		{time.Hour + time.Minute + time.Second, "01:01:01"},
		{24*time.Hour - time.Second, "23:59:59"},
		{24 * time.Hour, "1 days"},
		{72*time.Hour + 5*time.Minute, "3 days"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, elapsed(tc.in), tc.in.String())
	}
}

func TestRenderTextRows(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatText, Report{Services: sampleRows()}))

	label := func(s string) string { return fmt.Sprintf("%-34s", s) }
	want := []string{
		"● " + label("web [10]") + " cpu 00:00:05 ∙ up 01:00:00 ∙ 30 MiB rss",
		"■ " + label("db [30]") + " cpu 00:01:30 ∙ up 02:00:00 ∙ 1.0 GiB rss",
		"  Warning: multiple matching processes",
		"■ " + label("sshd [20]") + " cpu 00:00:01 ∙ up 2 days ∙ 5.0 MiB rss",
		"■ " + label("redis [0]") + " service not running",
	}
	assert.Equal(t, want, strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n"))
}

func TestRenderTextSummary(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatText, Report{Summary: sampleSummary()}))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "loadavg:  0.50, 0.25, 0.12"), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], "up 1 days ∙ 120 processes ∙ 4 cores"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "memory:   4.0 GiB (25.0%) free"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], "8.0 GiB rss ∙ 4.0 GiB cache ∙ 16 GiB total"), lines[1])
	assert.NotContains(t, lines[1], "swap")
	assert.True(t, strings.HasPrefix(lines[2], "storage:  40 GiB (40.0%) free"), lines[2])
	assert.True(t, strings.HasSuffix(lines[2], "60 GiB used ∙ 100 GiB total ∙ on /"), lines[2])
}

func TestRenderTextSwapShownWhenUsed(t *testing.T) {
	noColor(t)
	sum := sampleSummary()
	sum.Memory.Swap = 512 << 20
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatText, Report{Summary: sum}))
	assert.Contains(t, buf.String(), "4.0 GiB cache ∙ 512 MiB swap ∙ 16 GiB total")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, Report{Summary: sampleSummary(), Services: sampleRows()}))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.EqualValues(t, 4, doc["cores"])
	assert.EqualValues(t, 30*3600, doc["uptime"])
	assert.EqualValues(t, 120, doc["processes"])
	assert.Equal(t, []any{0.5, 0.25, 0.13}, doc["loadavg"])
	assert.Equal(t, map[string]any{
		"total": float64(16 << 30),
		"free":  float64(4 << 30),
		"rss":   float64(8 << 30),
		"cache": float64(4 << 30),
		"swap":  float64(0),
	}, doc["memory"])
	assert.Equal(t, []any{map[string]any{
		"total": float64(100 << 30),
		"used":  float64(60 << 30),
		"free":  float64(40 << 30),
		"dev":   "/dev/sda1",
		"mount": "/",
	}}, doc["storage"])

	services, ok := doc["services"].([]any)
	require.True(t, ok)
	require.Len(t, services, 4)
	assert.Equal(t, map[string]any{
		"pid": float64(10), "name": "web", "cputime": float64(5), "uptime": float64(3600), "rss": float64(30 << 20),
	}, services[0])
	assert.Equal(t, "multiple matching processes", services[1].(map[string]any)["warning"])
	assert.Equal(t, "not listed in config", services[2].(map[string]any)["warning"])
	assert.Equal(t, map[string]any{
		"pid": float64(0), "name": "redis", "error": "service not running",
	}, services[3])
}

func TestRenderJSONSectionsOmitted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, Report{ShowServices: true}))
	assert.JSONEq(t, `{"services": []}`, buf.String())

	buf.Reset()
	require.NoError(t, Render(&buf, FormatJSON, Report{}))
	assert.JSONEq(t, `{}`, buf.String())
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatYAML, Report{Summary: sampleSummary(), Services: sampleRows()}))

	var doc struct {
		Cores    int       `yaml:"cores"`
		LoadAvg  []float64 `yaml:"loadavg"`
		Storage  []map[string]any
		Services []map[string]any `yaml:"services"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, 4, doc.Cores)
	assert.Equal(t, []float64{0.5, 0.25, 0.13}, doc.LoadAvg)
	require.Len(t, doc.Storage, 1)
	assert.Equal(t, "/dev/sda1", doc.Storage[0]["dev"])
	require.Len(t, doc.Services, 4)
	assert.Equal(t, "web", doc.Services[0]["name"])
	assert.Equal(t, "service not running", doc.Services[3]["error"])
	assert.NotContains(t, doc.Services[3], "rss")
}

func TestRenderUnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, Format(42), Report{})
	assert.EqualError(t, err, "unknown output format 42")
}

func TestBanner(t *testing.T) {
	noColor(t)
	banner := Banner(BuildInfo{Version: "1.2.0", Date: "2026-01-01", Commit: "abc123"})
	assert.Equal(t, "Upstate (1.2.0, 2026-01-01, @abc123)\n"+tagline+"\n", banner)

	assert.Contains(t, Banner(BuildInfo{}), "Upstate (unknown, unknown, @unknown)")
}
