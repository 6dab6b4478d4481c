// Package main is the entry point for the katalan speed-enforcement runner.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"github.com/katalan/katalan/internal/config"
	"github.com/katalan/katalan/internal/logging"
	"github.com/katalan/katalan/internal/scenario"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// options holds the parsed command line.
type options struct {
	ConfigPath   string
	ScenarioPath string
	LogLevel     string
	Watch        bool
	ShowVersion  bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.ShowVersion {
		fmt.Fprintf(stdout, "katalan %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}

	if opts.ScenarioPath == "" {
		fmt.Fprintln(stderr, "Error: -scenario is required")
		return 2
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger, err := logging.New(stderr, cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &runner{
		scenarioPath: opts.ScenarioPath,
		logger:       logger,
		out:          stdout,
	}
	r.cfg.Store(&cfg)

	if !opts.Watch {
		if err := r.runOnce(ctx); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := r.watch(ctx, opts); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("katalan", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	fs.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.ScenarioPath, "scenario", "", "Path to scenario file")
	fs.StringVar(&opts.ScenarioPath, "s", "", "Path to scenario file (shorthand)")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the configuration")
	fs.BoolVar(&opts.Watch, "watch", false, "Re-run the scenario whenever it or the configuration changes")
	fs.BoolVar(&opts.Watch, "w", false, "Re-run on change (shorthand)")
	fs.BoolVar(&opts.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&opts.ShowVersion, "v", false, "Show version information (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "katalan - speed enforcement pipeline runner\n\n")
		fmt.Fprintf(stderr, "Usage: katalan -scenario file.toml [options]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nConfirmed infractions are printed on stdout as JSON lines; logs go to stderr.\n")
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  katalan -s a7.toml                 Run a scenario once\n")
		fmt.Fprintf(stderr, "  katalan -s a7.toml -c katalan.toml Run with a configuration file\n")
		fmt.Fprintf(stderr, "  katalan -s a7.toml -w              Re-run on every save\n")
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}

// loadConfig loads the configuration and applies command-line overrides.
func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
		cfg.Normalize()
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

// runner executes the scenario with the latest configuration.
type runner struct {
	scenarioPath string
	cfg          atomic.Pointer[config.Config]
	logger       *slog.Logger
	out          io.Writer
}

func (r *runner) runOnce(ctx context.Context) error {
	sc, err := scenario.Load(r.scenarioPath)
	if err != nil {
		return err
	}

	report, err := scenario.Run(ctx, sc, scenario.Env{
		Config: *r.cfg.Load(),
		Logger: r.logger,
		Output: r.out,
	})
	if err != nil {
		return err
	}

	r.logger.Info("run complete",
		"scenario", r.scenarioPath,
		"triggers", report.Triggers,
		"requested", report.Requested,
		"confirmed", report.Confirmed(),
		"unconfirmed", report.Unconfirmed,
		"dropped", report.Dropped,
	)
	return nil
}

// watch runs the scenario once, then again on every change to the scenario
// or configuration file, until ctx is cancelled.
func (r *runner) watch(ctx context.Context, opts options) error {
	if err := r.runOnce(ctx); err != nil {
		r.logger.Error("scenario run failed", "err", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	watchOpts := []scenario.WatchOption{scenario.WithWatchLogger(r.logger)}

	g.Go(func() error {
		return scenario.Watch(ctx, r.scenarioPath, r.runOnce, watchOpts...)
	})

	if opts.ConfigPath != "" {
		g.Go(func() error {
			return scenario.Watch(ctx, opts.ConfigPath, func(ctx context.Context) error {
				cfg, err := loadConfig(opts)
				if err != nil {
					return fmt.Errorf("reloading configuration: %w", err)
				}
				r.cfg.Store(&cfg)
				r.logger.Info("configuration reloaded", "path", opts.ConfigPath)
				return r.runOnce(ctx)
			}, watchOpts...)
		})
	}

	return g.Wait()
}
