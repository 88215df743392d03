package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/resin/internal/metadata"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Unique bool
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify [folder]",
		Short: "Check a generated folder for missing images and gaps",
		Long: `Check that every <i>.json in a generated folder has its <i>.png and
that indices run from 0 without gaps. With --unique, also report items
whose public traits are identical.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := "./generated"
			if len(args) == 1 {
				folder = args[0]
			}
			return runVerify(opts, folder, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Unique, "unique", false, "report duplicate trait sets")

	return cmd
}

func runVerify(opts *VerifyOptions, folder string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	report, err := metadata.Verify(folder, opts.Unique)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "verify failed", err)
	}

	if formatter.Format == "json" {
		if report.OK() {
			return formatter.Success(report)
		}
		_ = formatter.Failure("VERIFY_FAILED", "output folder has problems", report)
		return NewExitError(ExitFailure, "verify failed")
	}

	if report.OK() {
		formatter.OK("%d items verified in %s", report.Records, folder)
		return nil
	}

	formatter.Fail("%s has problems", folder)
	for _, i := range report.MissingImages {
		fmt.Fprintf(formatter.Writer, "  item %d: missing %s\n", i, metadata.ImageName(i))
	}
	for _, i := range report.Gaps {
		fmt.Fprintf(formatter.Writer, "  item %d: missing record\n", i)
	}
	for _, group := range report.Duplicates {
		fmt.Fprintf(formatter.Writer, "  duplicate traits: items %v\n", group)
	}
	return NewExitError(ExitFailure, "verify failed")
}
