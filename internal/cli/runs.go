package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/resin/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Ledger string
	Run    string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs recorded in a ledger",
		Long: `List the runs recorded by generate --ledger, oldest first.
With --run, list the items of one run instead.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "path to the SQLite ledger (required)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show the items of this run")
	_ = cmd.MarkFlagRequired("ledger")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Open would create an empty database; a missing ledger is an error.
	if _, err := os.Stat(opts.Ledger); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("ledger %s not found", opts.Ledger), nil)
		return WrapExitError(ExitCommandError, "ledger not found", err)
	}
	ledger, err := store.Open(opts.Ledger)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	defer ledger.Close()

	ctx := cmd.Context()
	if opts.Run != "" {
		items, err := ledger.ListItems(ctx, opts.Run)
		if err == nil {
			_, err = ledger.GetRun(ctx, opts.Run)
		}
		if err != nil {
			code := ErrCodeGeneric
			if errors.Is(err, store.ErrRunNotFound) {
				code = ErrCodeNotFound
			}
			_ = formatter.Error(code, err.Error(), nil)
			return WrapExitError(ExitCommandError, "list items", err)
		}
		if formatter.Format == "json" {
			return formatter.Success(items)
		}
		tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tSOURCE\tRETRIES\tIMAGE\tFINGERPRINT\tERROR")
		for _, it := range items {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n", it.Index, it.Source, it.Retries, it.ImageStatus, short(it.Fingerprint), it.Error)
		}
		return tw.Flush()
	}

	runs, err := ledger.ListRuns(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "list runs", err)
	}
	if formatter.Format == "json" {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded")
		return nil
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRUN\tSTATUS\tITEMS\tIMAGES\tFAILED\tCONFIG")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\t%d\t%d\t%s\n", r.Seq, r.ID, r.Status, r.Items, r.Amount, r.Composited, r.Failed, short(r.ConfigHash))
	}
	return tw.Flush()
}

// short abbreviates a hex digest for table output.
func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
