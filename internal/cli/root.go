// Package cli implements the cobra-based CLI commands for drover.
//
// Each subcommand (run, prepare, capture, history, bump, tag, publish,
// status, clear) is defined in its own file within this package. This
// file defines the root command, global flags, and the shared wiring
// that constructs a pipeline coordinator from resolved settings.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mmr-tortoise/drover/internal/artifacts"
	"github.com/mmr-tortoise/drover/internal/config"
	"github.com/mmr-tortoise/drover/internal/git"
	"github.com/mmr-tortoise/drover/internal/manifest"
	"github.com/mmr-tortoise/drover/internal/model"
	"github.com/mmr-tortoise/drover/internal/pipeline"
	"github.com/mmr-tortoise/drover/internal/workspace"
)

// Global flag variables bound to cobra persistent flags on the root
// command, available to every subcommand.
var (
	configPath string
	dryRun     bool
	verbose    bool
)

// Version, Commit, and Date are set at build time via ldflags and
// injected from the main package for --version output.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "drover",
		Short: "Multi-package release pipeline for git workspaces",
		Long: `drover coordinates a multi-stage release workflow across the
independently-versioned packages of one workspace: prepare a working
branch, capture pending changes, capture history since the last release,
bump the version, create an annotated tag, and publish.

Stages are idempotent — a run interrupted by a partial failure is
resolved by re-running it. Human approval travels through plain-text
artifact files (commit and tag message drafts) that gate stage
advancement.`,

		// Errors are formatted by Execute; cobra's own printing would
		// duplicate them.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to drover.yaml (default: search ., ./.config, ./release)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Log mutating commands instead of executing them")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewPrepareCommand())
	rootCmd.AddCommand(NewCaptureCommand())
	rootCmd.AddCommand(NewHistoryCommand())
	rootCmd.AddCommand(NewBumpCommand())
	rootCmd.AddCommand(NewTagCommand())
	rootCmd.AddCommand(NewPublishCommand())
	rootCmd.AddCommand(NewStatusCommand())
	rootCmd.AddCommand(NewClearCommand())

	return rootCmd
}

// Execute runs the root command and translates errors into process exit
// codes.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(int(exitCode(err)))
	}
}

// exitCode maps an error to its process exit code. CLIError values
// carry their own code, even when buried in a wrap chain; anything else
// exits 1.
func exitCode(err error) model.ExitCode {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return model.ExitGeneralError
}

// app bundles the collaborators a subcommand needs for one invocation.
type app struct {
	cfg    *config.Settings
	coord  *pipeline.Coordinator
	report *pipeline.Report
	log    *zap.SugaredLogger
}

// newApp resolves settings and wires the coordinator. Settings are read
// once here and passed by reference into every constructor — no
// component performs ambient configuration lookup.
func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dryRun {
		cfg.DryRun = true
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return nil, err
	}
	sugar := logger.Sugar()
	sugar.Debugw("settings resolved", "source", cfg.Source)

	root, err := os.Getwd()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	fs := afero.NewOsFs()
	runner := git.NewRunner(sugar, cfg.DryRun)
	ops := git.NewOps(runner, sugar)
	coord := pipeline.New(
		cfg,
		ops,
		manifest.NewStore(fs),
		artifacts.NewStore(fs),
		workspace.NewEnumerator(fs, cfg, root),
		sugar,
		cfg.DryRun,
	)

	return &app{
		cfg:    cfg,
		coord:  coord,
		report: pipeline.NewReport(os.Stdout),
		log:    sugar,
	}, nil
}

// newLogger builds the console logger. Diagnostics go to stderr so
// stdout stays reserved for report output.
func newLogger(verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.DisableStacktrace = true
	zcfg.DisableCaller = true
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return zcfg.Build()
}
