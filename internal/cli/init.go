package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/resin/internal/config"
	"github.com/roach88/resin/internal/scaffold"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Overwrite    bool
	FromExisting string
	YAML         bool
}

// InitResult is the JSON payload of a successful init.
type InitResult struct {
	Config string   `json:"config"`
	Layers []string `json:"layers,omitempty"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init [folder]",
		Short: "Create a starter asset folder and config",
		Long: `Create an asset folder with an example config and a placeholder layer.

With --from-existing, scan an asset folder laid out as <layer>/<file>
and write a config that gives every file weight 0.1.

Example:
  resin init
  resin init ./my-assets --yaml
  resin init --from-existing ./art --overwrite`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := "./assets"
			if len(args) == 1 {
				folder = args[0]
			}
			return runInit(opts, folder, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace an existing folder or config")
	cmd.Flags().StringVar(&opts.FromExisting, "from-existing", "", "write a config for an existing asset folder")
	cmd.Flags().BoolVar(&opts.YAML, "yaml", false, "write config.yaml instead of config.json")

	return cmd
}

func runInit(opts *InitOptions, folder string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	logger := slog.Default().With("component", "init")

	format := config.FormatJSON
	if opts.YAML {
		format = config.FormatYAML
	}

	var result InitResult
	var err error
	if opts.FromExisting != "" {
		var doc *config.Document
		result.Config, doc, err = scaffold.FromExisting(opts.FromExisting, format, opts.Overwrite, logger)
		if err == nil {
			result.Layers = doc.Attributes.Names()
		}
	} else {
		result.Config, err = scaffold.Create(folder, format, opts.Overwrite, logger)
	}
	if err != nil {
		code := ErrCodeGeneric
		if errors.Is(err, scaffold.ErrExists) {
			code = "EXISTS"
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "init failed", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	if opts.FromExisting != "" {
		formatter.OK("Wrote %s with %d layers", result.Config, len(result.Layers))
	} else {
		formatter.OK("Initialized %s", result.Config)
	}
	return nil
}
