package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/roach88/resin/internal/testutil"
)

// execute runs cmd with args and returns what it wrote to stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const twoLayerConfig = `{
	"name": "Faces",
	"symbol": "FCE",
	"description": "d",
	"royaltyPercentage": 5,
	"attributes": {
		"background": {"red.png": 1, "blue.png": 1},
		"face": {"gold.png": 1}
	},
	"amount": 4
}`

// workspace is an asset tree with a config, plus an output path beside it.
type workspace struct {
	assets string
	config string
	output string
}

func newWorkspace(t *testing.T, cfg string, layers map[string][]string) workspace {
	t.Helper()
	assets := testutil.AssetTree(t, layers)
	return workspace{
		assets: assets,
		config: testutil.WriteFile(t, assets, "config.json", cfg),
		output: filepath.Join(filepath.Dir(assets), "generated"),
	}
}

func (w workspace) flags(extra ...string) []string {
	return append([]string{"--assets", w.assets, "--config", w.config, "--output", w.output}, extra...)
}
