package compositor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTool writes a shell script that logs its argv, one argument per line
// followed by "--", and writes "stacked" to its last argument.
func fakeTool(t *testing.T) (tool, log string) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	log = filepath.Join(dir, "argv.log")
	tool = filepath.Join(dir, "magick")
	script := fmt.Sprintf(`#!/bin/sh
for a in "$@"; do printf '%%s\n' "$a" >> '%s'; last=$a; done
printf -- '--\n' >> '%s'
printf 'stacked' > "$last"
`, log, log)
	require.NoError(t, os.WriteFile(tool, []byte(script), 0o755))
	return tool, log
}

// invocations splits the argv log into one slice per call.
func invocations(t *testing.T, log string) [][]string {
	t.Helper()
	data, err := os.ReadFile(log)
	require.NoError(t, err)

	var calls [][]string
	var current []string
	for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		if line == "--" {
			calls = append(calls, current)
			current = nil
			continue
		}
		current = append(current, line)
	}
	return calls
}

func writeLayers(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(paths[i], []byte(name), 0o644))
	}
	return paths
}

func TestMagickStackerSingle(t *testing.T) {
	tool, log := fakeTool(t)
	layers := writeLayers(t, "red bg.png", "face;rm -rf.png", "eyes.png")
	out := filepath.Join(t.TempDir(), "0.png")

	s := NewMagickStacker(tool, StackSingle)
	require.NoError(t, s.Stack(context.Background(), layers, out))

	want := append(append([]string{}, layers...), "-background", "none", "-flatten", out)
	assert.Equal(t, [][]string{want}, invocations(t, log), "paths reach the tool verbatim")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "stacked", string(data))
}

func TestMagickStackerPairwise(t *testing.T) {
	tool, log := fakeTool(t)
	layers := writeLayers(t, "bg.png", "face.png", "eyes.png")
	out := filepath.Join(t.TempDir(), "1.png")

	s := NewMagickStacker(tool, StackPairwise)
	require.NoError(t, s.Stack(context.Background(), layers, out))

	assert.Equal(t, [][]string{
		{out, layers[1], "-composite", out},
		{out, layers[2], "-composite", out},
	}, invocations(t, log))
}

func TestMagickStackerPairwiseSingleLayerCopies(t *testing.T) {
	layers := writeLayers(t, "bg.png")
	out := filepath.Join(t.TempDir(), "2.png")

	s := NewMagickStacker("/nonexistent/magick", StackPairwise)
	require.NoError(t, s.Stack(context.Background(), layers, out), "the tool is not needed for one layer")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "bg.png", string(data))
}

func TestMagickStackerExitError(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	tool := filepath.Join(t.TempDir(), "magick")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\necho 'no decode delegate' >&2\nexit 3\n"), 0o755))

	err := NewMagickStacker(tool, StackSingle).Stack(context.Background(), writeLayers(t, "a.png"), filepath.Join(t.TempDir(), "o.png"))
	require.Error(t, err)
	assert.True(t, IsExternalTool(err))

	var te *ExternalToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 3, te.ExitCode)
	assert.Equal(t, "no decode delegate", te.Stderr)
	assert.Equal(t, NoIndex, te.Index)
	assert.Contains(t, err.Error(), "exited with status 3")
}

func TestMagickStackerSpawnFailure(t *testing.T) {
	err := NewMagickStacker("/nonexistent/magick", StackSingle).Stack(context.Background(), writeLayers(t, "a.png"), filepath.Join(t.TempDir(), "o.png"))
	require.Error(t, err)

	var te *ExternalToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, -1, te.ExitCode)
	assert.Contains(t, err.Error(), "failed to start")
}

func TestMagickStackerCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMagickStacker("/nonexistent/magick", StackSingle).Stack(ctx, []string{"a.png"}, "o.png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMagickStackerNoLayers(t *testing.T) {
	err := NewMagickStacker("", "").Stack(context.Background(), nil, "o.png")
	assert.Error(t, err)
}

func TestNewMagickStackerDefaults(t *testing.T) {
	s := NewMagickStacker("", "")
	assert.Equal(t, DefaultTool, s.Tool())
	assert.Equal(t, StackSingle, s.Mode())
}

func TestParseStackMode(t *testing.T) {
	tests := []struct {
		in      string
		want    StackMode
		wantErr bool
	}{
		{"", StackSingle, false},
		{"single", StackSingle, false},
		{" Pairwise ", StackPairwise, false},
		{"layered", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStackMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
