package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/resin/internal/compiler"
	"github.com/roach88/resin/internal/config"
	"github.com/roach88/resin/internal/rarity"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool               `json:"valid"`
	Errors   []Issue            `json:"errors,omitempty"`
	Warnings []compiler.Warning `json:"warnings,omitempty"`
	Layers   []string           `json:"layers,omitempty"`
	Amount   int                `json:"amount,omitempty"`
	Hash     string             `json:"config_hash,omitempty"`
}

// Issue is one validation error.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Layer   string `json:"layer,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Config string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a config without generating anything",
		Long: `Check a config against the schema, then compile its attribute tables
and conditions. Every problem found is reported, not just the first.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "./assets/config.json", "config file (.json or .yaml)")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	src, err := config.ReadSource(opts.Config)
	if err != nil {
		code := ErrCodeGeneric
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, code, err)
	}
	formatter.VerboseLog("Read %s (%s, %d bytes)", src.Path, src.Format, len(src.Data))

	prog, err := compiler.CompileSource(src)
	if err != nil {
		errs := compiler.Flatten(err)
		issues := make([]Issue, len(errs))
		for i, e := range errs {
			issues[i] = issueOf(e)
		}
		return outputValidationErrors(formatter, issues)
	}

	return outputValidateSuccess(formatter, prog)
}

// issueOf converts a compile error into an Issue.
func issueOf(err error) Issue {
	code, _ := classify(err)
	issue := Issue{Code: code, Message: err.Error()}

	var ce *rarity.ConfigError
	if errors.As(err, &ce) {
		issue.Layer = ce.Layer
	}
	var se *compiler.SchemaError
	if errors.As(err, &se) && se.Pos.IsValid() {
		issue.Line = se.Pos.Line()
	}
	return issue
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, prog *compiler.Program) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:    true,
			Warnings: prog.Warnings,
			Layers:   prog.Model.LayerNames(),
			Amount:   prog.Amount,
			Hash:     prog.ConfigHash,
		})
	}

	for _, w := range prog.Warnings {
		formatter.Warn("%s", w.Message)
	}
	formatter.OK("Config valid: %d layers, %d items", len(prog.Model.LayerNames()), prog.Amount)
	formatter.VerboseLog("config hash %s", prog.ConfigHash)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, issues []Issue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: issues},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	formatter.Fail("Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", issue.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}

	// Validation failures = exit code 1 (check failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
