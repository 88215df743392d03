package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/resin/internal/compiler"
	"github.com/roach88/resin/internal/compositor"
	"github.com/roach88/resin/internal/config"
	"github.com/roach88/resin/internal/engine"
	"github.com/roach88/resin/internal/rarity"
	"github.com/roach88/resin/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Assets       string
	Config       string
	Output       string
	SkipMetadata bool
	KeepSidecar  bool
	Workers      int
	Seed         uint64
	Ledger       string
	StackMode    string
	Compositor   string

	// Stacker overrides the external tool (for testing).
	Stacker compositor.Stacker

	// IDs overrides the ledger's run id generator (for testing).
	IDs store.IDGenerator
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	return newGenerateCommand(&GenerateOptions{RootOptions: rootOpts})
}

func newGenerateCommand(opts *GenerateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate metadata and images for a collection",
		Long: `Resolve every item's attributes from the config, write the metadata
records, then composite each item's layers into an image.

The output folder is emptied first unless --skip-metadata is given, in
which case images are composited from the records already there.

Environment (also read from .env next to the config or in the working
directory): RESIN_COMPOSITOR, RESIN_STACK_MODE, RESIN_WORKERS. Flags win.

Example:
  resin generate
  resin generate --config ./assets/config.yaml --seed 42 --ledger runs.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Assets, "assets", "./assets", "asset folder, laid out as <layer>/<file>")
	cmd.Flags().StringVar(&opts.Config, "config", "./assets/config.json", "config file (.json or .yaml)")
	cmd.Flags().StringVar(&opts.Output, "output", "./generated", "output folder")
	cmd.Flags().BoolVar(&opts.SkipMetadata, "skip-metadata", false, "composite from metadata already in the output folder")
	cmd.Flags().BoolVar(&opts.KeepSidecar, "keep-sidecar", false, "keep the raw-value records after a successful run")
	cmd.Flags().IntVar(&opts.Workers, "workers", engine.DefaultWorkers, "concurrent compositing jobs")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "seed the random source for a reproducible batch")
	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.StackMode, "stack-mode", string(compositor.StackSingle), "single or pairwise tool invocations")
	cmd.Flags().StringVar(&opts.Compositor, "compositor", compositor.DefaultTool, "image tool to run")

	return cmd
}

func runGenerate(opts *GenerateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := slog.Default().With("component", "generate")

	if err := applyEnv(opts, cmd); err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid environment", err)
	}
	mode, err := compositor.ParseStackMode(opts.StackMode)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid flag", err)
	}

	logger.Info("compiling config", "path", opts.Config)
	prog, err := compiler.Load(opts.Config)
	if err != nil {
		return reportConfigErrors(formatter, err)
	}
	for _, w := range prog.Warnings {
		logger.Warn(w.Message)
	}

	stacker := opts.Stacker
	if stacker == nil {
		stacker = compositor.NewMagickStacker(opts.Compositor, mode)
	}

	options := []engine.Option{engine.WithLogger(slog.Default())}
	if cmd.Flags().Changed("seed") {
		options = append(options, engine.WithSource(rarity.NewSeededSource(opts.Seed)))
	}
	if opts.Ledger != "" {
		var ledgerOpts []store.Option
		if opts.IDs != nil {
			ledgerOpts = append(ledgerOpts, store.WithIDGenerator(opts.IDs))
		}
		ledger, err := store.Open(opts.Ledger, ledgerOpts...)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open ledger", err)
		}
		defer func() {
			if closeErr := ledger.Close(); closeErr != nil {
				logger.Error("error closing ledger", "error", closeErr)
			}
		}()
		options = append(options, engine.WithRecorder(ledger))
	}

	batch := engine.NewBatch(prog, engine.Options{
		Assets:       opts.Assets,
		Output:       opts.Output,
		SkipMetadata: opts.SkipMetadata,
		KeepSidecar:  opts.KeepSidecar,
		Workers:      opts.Workers,
	}, stacker, options...)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, finishing running jobs", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	summary, err := batch.Run(ctx)
	if err != nil {
		return reportBatchFailure(formatter, summary, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(summary)
	}
	formatter.OK("Generated %d items (%d guaranteed, %d retries) in %s",
		summary.Items, summary.Guaranteed, summary.Retries, opts.Output)
	formatter.OK("Composited %d images in %s", summary.Composited, summary.Duration.Round(time.Millisecond))
	if summary.RunID != "" {
		formatter.VerboseLog("run %s recorded in %s", summary.RunID, opts.Ledger)
	}
	return nil
}

// applyEnv fills flags the user did not set from the environment.
func applyEnv(opts *GenerateOptions, cmd *cobra.Command) error {
	env, err := config.LoadEnv(filepath.Dir(opts.Config), ".")
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if env.Compositor != "" && !flags.Changed("compositor") {
		opts.Compositor = env.Compositor
	}
	if env.StackMode != "" && !flags.Changed("stack-mode") {
		opts.StackMode = env.StackMode
	}
	if env.Workers > 0 && !flags.Changed("workers") {
		opts.Workers = env.Workers
	}
	return nil
}

// reportConfigErrors prints every compile error and returns a command error.
func reportConfigErrors(formatter *OutputFormatter, err error) error {
	errs := compiler.Flatten(err)
	code, _ := classify(errs[0])
	if errors.Is(err, os.ErrNotExist) {
		code = ErrCodeNotFound
	}

	if formatter.Format == "json" {
		issues := make([]Issue, len(errs))
		for i, e := range errs {
			issues[i] = issueOf(e)
		}
		_ = formatter.Failure(code, errs[0].Error(), ValidationResult{Valid: false, Errors: issues})
	} else {
		formatter.Fail("Invalid config")
		for _, e := range errs {
			c, _ := classify(e)
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", c, e)
		}
	}
	return WrapExitError(ExitCommandError, fmt.Sprintf("config has %d error(s)", len(errs)), err)
}

// reportBatchFailure prints a failed batch, listing every failed item.
func reportBatchFailure(formatter *OutputFormatter, summary *engine.Summary, err error) error {
	code, exit := classify(err)
	itemErrs := engine.ItemErrors(err)

	if formatter.Format == "json" {
		_ = formatter.Failure(code, err.Error(), summary)
	} else {
		formatter.Fail("Generation failed")
		for _, e := range itemErrs {
			fmt.Fprintf(formatter.Writer, "  %s\n", e)
		}
		if summary != nil && (summary.Composited > 0 || summary.Failed > 0) {
			fmt.Fprintf(formatter.Writer, "\n%d composited, %d failed\n", summary.Composited, summary.Failed)
		}
	}
	return WrapExitError(exit, code, err)
}
