package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/srodi/upstate/pkg/collector/machine"
	"github.com/srodi/upstate/pkg/collector/procs"
	"github.com/srodi/upstate/pkg/types"
	"github.com/srodi/upstate/pkg/ui"
)

// Set with -ldflags "-X main.version=..." at release time.
var (
	version = "dev"
	date    = ""
	commit  = ""
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.ConfigureColor(os.Stdout)

	a := &app{
		out:      os.Stdout,
		errOut:   os.Stderr,
		fs:       afero.NewOsFs(),
		snapshot: snapshotProcs,
		summary:  machine.Collect,
		build:    ui.BuildInfo{Version: version, Date: date, Commit: commit},
	}
	if exe, err := os.Executable(); err == nil {
		a.exe = exe
	}
	if wd, err := os.Getwd(); err == nil {
		a.wd = wd
	}

	status := 0
	if err := newRootCmd(a, &status).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		status = 1
	}
	stop()
	os.Exit(status)
}

func snapshotProcs(procPath string, logger *zap.Logger) ([]types.Process, error) {
	c, err := procs.NewCollector(procPath, logger)
	if err != nil {
		return nil, err
	}
	return c.Snapshot()
}
