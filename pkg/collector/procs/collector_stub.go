//go:build !linux
// +build !linux

package procs

import (
	"errors"

	"go.uber.org/zap"

	"github.com/srodi/upstate/pkg/types"
)

var errUnsupported = errors.New("process collector requires linux")

// Collector is a placeholder on non-Linux platforms.
type Collector struct{}

// NewCollector returns an error because procfs is only available on Linux.
func NewCollector(path string, logger *zap.Logger) (*Collector, error) {
	return nil, errUnsupported
}

// Snapshot always fails on unsupported platforms.
func (c *Collector) Snapshot() ([]types.Process, error) {
	return nil, errUnsupported
}
