package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/srodi/upstate/pkg/collector/machine"
	"github.com/srodi/upstate/pkg/conf"
	"github.com/srodi/upstate/pkg/procmap"
	"github.com/srodi/upstate/pkg/report"
	"github.com/srodi/upstate/pkg/types"
	"github.com/srodi/upstate/pkg/ui"
)

type serviceMode int

const (
	modeNone serviceMode = iota
	modeLimited
	modeComplete
)

type options struct {
	summary  bool
	mode     serviceMode
	format   ui.Format
	sort     report.SortKey
	limit    int
	conf     string
	logLevel string
}

// app holds the collaborators of one run so tests can replace them.
type app struct {
	out      io.Writer
	errOut   io.Writer
	fs       afero.Fs
	procPath string
	exe, wd  string
	build    ui.BuildInfo

	snapshot func(procPath string, logger *zap.Logger) ([]types.Process, error)
	summary  func(ctx context.Context, procPath string, processes int) (machine.Summary, error)
	now      func() time.Time

	logger *zap.Logger
}

func newRootCmd(a *app, status *int) *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "upstate",
		Short: "Report machine health and the state of configured services",
		Long: `upstate prints a one-shot report for this machine: load, memory and
storage, followed by the services declared in upstate.conf matched against
the live process table.

The exit status is the number of configured services that are not running.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v.GetBool("version") {
				fmt.Fprint(a.errOut, ui.Banner(a.build))
				return nil
			}
			opts, err := readOptions(v)
			if err != nil {
				return err
			}
			logger, err := newLogger(opts.logLevel)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			a.logger = logger

			n, err := a.run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			*status = n
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Bool("no-summary", false, "skip the machine summary")
	flags.Bool("no-services", false, "skip the service list")
	flags.Bool("limited", false, "list configured services only")
	flags.Bool("complete", false, "list configured services and every other running service (default)")
	flags.String("sort", "", "sort services by cpu, rss (mem) or uptime (time)")
	flags.Int("limit", 0, "show at most this many services")
	flags.Bool("json", false, "print the report as JSON")
	flags.Bool("yaml", false, "print the report as YAML")
	flags.String("conf", "", "config file or directory (env "+types.ConfigEnvVar+")")
	flags.String("log-level", "warn", "log level written to stderr (debug, info, warn, error)")
	flags.Bool("version", false, "print version information")
	cmd.MarkFlagsMutuallyExclusive("no-services", "limited", "complete")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")

	v.SetEnvPrefix("UPSTATE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)
	_ = v.BindEnv("conf", types.ConfigEnvVar)

	return cmd
}

func readOptions(v *viper.Viper) (options, error) {
	opts := options{
		summary:  !v.GetBool("no-summary"),
		mode:     modeComplete,
		format:   ui.FormatText,
		limit:    v.GetInt("limit"),
		conf:     v.GetString("conf"),
		logLevel: v.GetString("log-level"),
	}
	switch {
	case v.GetBool("no-services"):
		opts.mode = modeNone
	case v.GetBool("limited"):
		opts.mode = modeLimited
	}
	switch {
	case v.GetBool("json"):
		opts.format = ui.FormatJSON
	case v.GetBool("yaml"):
		opts.format = ui.FormatYAML
	}
	sort, err := report.ParseSortKey(v.GetString("sort"))
	if err != nil {
		return opts, err
	}
	opts.sort = sort
	if opts.limit < 0 {
		return opts, fmt.Errorf("invalid limit option: %d", opts.limit)
	}
	return opts, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// run prints the report and returns the number of configured services that
// are not running.
func (a *app) run(ctx context.Context, opts options) (int, error) {
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}

	table, err := a.snapshot(a.procPath, a.logger)
	if err != nil {
		return 0, fmt.Errorf("reading process table: %w", err)
	}
	procs := procmap.New(table)
	a.logger.Debug("process snapshot", zap.Int("processes", procs.Len()))

	var r ui.Report
	if opts.summary {
		sum, err := a.summary(ctx, a.procPath, procs.Len())
		if err != nil {
			a.logger.Warn("machine summary incomplete", zap.Error(err))
		}
		r.Summary = &sum
	}

	missing := 0
	if opts.mode != modeNone {
		cfg := a.loadConfig(opts.conf)
		r.ShowServices = true
		r.Services, missing = report.Build(procs, cfg.All(procs), report.Options{
			All:   opts.mode == modeComplete,
			Sort:  opts.sort,
			Limit: opts.limit,
			Now:   a.now(),
		})
	}

	if err := ui.Render(a.out, opts.format, r); err != nil {
		return 0, err
	}
	return missing, nil
}

func (a *app) loadConfig(override string) *conf.Config {
	loader := conf.NewLoader(a.fs, a.logger)
	path, err := loader.Locate(override, a.exe, a.wd)
	if err == nil {
		var cfg *conf.Config
		if cfg, err = loader.Load(path); err == nil {
			return cfg
		}
	}
	if errors.Is(err, conf.ErrNotFound) {
		a.logger.Warn("no service config", zap.Error(err))
	} else {
		a.logger.Warn("reading service config", zap.Error(err))
	}
	return conf.Empty()
}
