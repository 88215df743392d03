// Command resin generates layered NFT collections.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/resin/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			// Already reported by the command.
			os.Exit(exitErr.Code)
		}
		// Flag and argument errors from cobra.
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
}
