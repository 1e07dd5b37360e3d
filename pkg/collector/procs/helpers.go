package procs

import (
	"fmt"
	"math"
	"strings"
	"time"
)

func displayName(pid uint32, comm string) string {
	name := strings.TrimSpace(comm)
	if name == "" {
		return fmt.Sprintf("pid-%d", pid)
	}
	return name
}

func secondsToDuration(secs float64) time.Duration {
	if secs <= 0 || math.IsNaN(secs) {
		return 0
	}
	return time.Duration(math.Round(secs * float64(time.Second)))
}
