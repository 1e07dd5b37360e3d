//go:build !linux
// +build !linux

package machine

import "errors"

var errUnsupported = errors.New("memory and storage summaries require linux")

// Memory always fails on unsupported platforms.
func Memory(procPath string) (MemorySummary, error) {
	return MemorySummary{}, errUnsupported
}

// Storage always fails on unsupported platforms.
func Storage() ([]StorageSummary, error) {
	return nil, errUnsupported
}
