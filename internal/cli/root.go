// Package cli implements the gardener command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gardener/internal/config"
	"github.com/mesh-intelligence/gardener/internal/metrics"
	"github.com/mesh-intelligence/gardener/internal/paths"
	"github.com/mesh-intelligence/gardener/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// errFindings reports a check that ran but found problems.
var errFindings = errors.New("checks reported problems")

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configFile      string
	database        string
	jsonMode        bool
	logLevel        string
	metricsTextfile string
}

// app carries the state of one invocation.
type app struct {
	flags   rootFlags
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
	metrics *metrics.Metrics

	configPath string
	cfg        *config.Config
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout: stdout,
		stderr: stderr,
		logger: slog.New(slog.NewTextHandler(stderr, nil)),
	}
}

// rootCmd creates the top-level "gardener" command with global flags and
// all subcommands registered.
func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gardener",
		Short: "Curate cell-tracking lineages",
		Long: "Gardener edits and validates a lineage-structured track database:\n" +
			"tracks linked by mitosis, each made of per-frame cell observations.",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", errUsage, err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configFile, "config", "", "experiment config file (default: ./gardener.yaml)")
	pf.StringVar(&a.flags.database, "db", "", "track database file (default: config database.path, then ./gardener.db)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output as JSON")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default: config log_level)")
	pf.StringVar(&a.flags.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")

	root.AddCommand(
		a.versionCmd(),
		a.initCmd(),
		a.validateCmd(),
		a.configCmd(),
		a.signalsCmd(),
		a.trackCmd(),
		a.cellCmd(),
		a.exportCmd(),
		a.importCmd(),
	)
	return root
}

// setup resolves the config file, loads it when present, and configures
// logging and metrics.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	path, err := paths.ResolveConfigFile(a.flags.configFile)
	if err != nil {
		return fmt.Errorf("resolve config file: %w", err)
	}
	a.configPath = path

	if _, err := os.Stat(path); err == nil {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}

	level := a.flags.logLevel
	if level == "" && a.cfg != nil {
		level = a.cfg.LogLevel
	}
	logger, err := newLogger(a.stderr, level, a.flags.jsonMode)
	if err != nil {
		return err
	}
	a.logger = logger

	if a.flags.metricsTextfile != "" {
		a.metrics = metrics.New()
	}
	return nil
}

func newLogger(w io.Writer, level string, jsonMode bool) (*slog.Logger, error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, types.ErrInvalidArgument)
		}
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if jsonMode {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	root := a.rootCmd()
	root.SetArgs(args)
	err := root.Execute()

	if a.metrics != nil {
		if werr := a.metrics.WriteTextfile(a.flags.metricsTextfile); werr != nil {
			a.logger.Error("writing metrics", "path", a.flags.metricsTextfile, "error", werr)
		}
	}
	if err == nil {
		return exitSuccess
	}
	if !errors.Is(err, errFindings) {
		fmt.Fprintln(stderr, "gardener:", err)
	}
	return exitCode(err)
}

// exitCode maps an error to the process exit status: caller mistakes and
// data findings are user errors, everything else is a system error.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, errFindings),
		errors.Is(err, errUsage),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidArgument),
		errors.Is(err, types.ErrFrameNotAfterStart),
		errors.Is(err, types.ErrStoreNotEmpty),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, fs.ErrNotExist):
		return exitUserError
	}
	return exitSysError
}
