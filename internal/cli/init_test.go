package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/resin/internal/testutil"
)

func TestInit_FromScratch(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "assets")

	out, err := execute(NewInitCommand(&RootOptions{Format: "text"}), folder)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Initialized")
	assert.FileExists(t, filepath.Join(folder, "config.json"))
	assert.FileExists(t, filepath.Join(folder, "LAYER_NAME", "FILE_NAME.png"))

	// The scaffolded config validates.
	out, err = execute(NewValidateCommand(&RootOptions{Format: "text"}), "--config", filepath.Join(folder, "config.json"))
	require.NoError(t, err, out)
}

func TestInit_YAML(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "assets")

	_, err := execute(NewInitCommand(&RootOptions{Format: "text"}), folder, "--yaml")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(folder, "config.yaml"))
}

func TestInit_ExistsNeedsOverwrite(t *testing.T) {
	folder := t.TempDir()

	out, err := execute(NewInitCommand(&RootOptions{Format: "text"}), folder)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [EXISTS]")

	_, err = execute(NewInitCommand(&RootOptions{Format: "text"}), folder, "--overwrite")
	assert.NoError(t, err)
}

func TestInit_FromExistingJSON(t *testing.T) {
	assets := testutil.AssetTree(t, map[string][]string{
		"background": {"a.png", "b.png"},
		"face":       {"x.png"},
	})

	out, err := execute(NewInitCommand(&RootOptions{Format: "json"}), "--from-existing", assets)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   InitResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, filepath.Join(assets, "config.json"), resp.Data.Config)
	assert.Equal(t, []string{"background", "face"}, resp.Data.Layers)
}
