package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/srodi/upstate/pkg/report"
)

const notListed = "not listed in config"

type document struct {
	Cores     *int          `json:"cores,omitempty" yaml:"cores,omitempty"`
	Uptime    *uint64       `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	LoadAvg   []float64     `json:"loadavg,omitempty" yaml:"loadavg,omitempty,flow"`
	Processes *int          `json:"processes,omitempty" yaml:"processes,omitempty"`
	Memory    *memoryDoc    `json:"memory,omitempty" yaml:"memory,omitempty"`
	Storage   *[]storageDoc `json:"storage,omitempty" yaml:"storage,omitempty"`
	Services  *[]serviceDoc `json:"services,omitempty" yaml:"services,omitempty"`
}

type memoryDoc struct {
	Total uint64 `json:"total" yaml:"total"`
	Free  uint64 `json:"free" yaml:"free"`
	RSS   uint64 `json:"rss" yaml:"rss"`
	Cache uint64 `json:"cache" yaml:"cache"`
	Swap  uint64 `json:"swap" yaml:"swap"`
}

type storageDoc struct {
	Total uint64 `json:"total" yaml:"total"`
	Used  uint64 `json:"used" yaml:"used"`
	Free  uint64 `json:"free" yaml:"free"`
	Dev   string `json:"dev" yaml:"dev"`
	Mount string `json:"mount" yaml:"mount"`
}

type serviceDoc struct {
	PID     uint32  `json:"pid" yaml:"pid"`
	Name    string  `json:"name" yaml:"name"`
	CPUTime *uint64 `json:"cputime,omitempty" yaml:"cputime,omitempty"`
	Uptime  *uint64 `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	RSS     *uint64 `json:"rss,omitempty" yaml:"rss,omitempty"`
	Error   string  `json:"error,omitempty" yaml:"error,omitempty"`
	Warning string  `json:"warning,omitempty" yaml:"warning,omitempty"`
}

func newDocument(r Report) document {
	var doc document
	if s := r.Summary; s != nil {
		cores, procs := s.CPU.Cores, s.CPU.Processes
		uptime := uint64(s.CPU.Uptime.Seconds())
		doc.Cores = &cores
		doc.Uptime = &uptime
		doc.Processes = &procs
		doc.LoadAvg = []float64{round2(s.CPU.LoadAvg[0]), round2(s.CPU.LoadAvg[1]), round2(s.CPU.LoadAvg[2])}
		doc.Memory = &memoryDoc{
			Total: s.Memory.Total,
			Free:  s.Memory.Free,
			RSS:   s.Memory.RSS,
			Cache: s.Memory.Cache,
			Swap:  s.Memory.Swap,
		}
		disks := make([]storageDoc, 0, len(s.Storage))
		for _, d := range s.Storage {
			disks = append(disks, storageDoc{Total: d.Total, Used: d.Used, Free: d.Free, Dev: d.Device, Mount: d.Mount})
		}
		doc.Storage = &disks
	}
	if r.ShowServices || len(r.Services) > 0 {
		services := make([]serviceDoc, 0, len(r.Services))
		for _, row := range r.Services {
			services = append(services, newServiceDoc(row))
		}
		doc.Services = &services
	}
	return doc
}

func newServiceDoc(row report.Row) serviceDoc {
	doc := serviceDoc{PID: row.PID, Name: row.Name}
	if row.Failed() {
		doc.Error = row.Message
		return doc
	}
	cpu := uint64(row.CPU.Seconds())
	uptime := uint64(row.Uptime.Seconds())
	rss := row.RSS
	doc.CPUTime, doc.Uptime, doc.RSS = &cpu, &uptime, &rss
	if row.Warn {
		doc.Warning = row.Message
		if doc.Warning == "" {
			doc.Warning = notListed
		}
	}
	return doc
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func renderJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newDocument(r)); err != nil {
		return fmt.Errorf("encoding json report: %w", err)
	}
	return nil
}

func renderYAML(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(r)); err != nil {
		return fmt.Errorf("encoding yaml report: %w", err)
	}
	return enc.Close()
}
