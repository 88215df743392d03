package compositor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Stacker flattens layers, bottom first, into a single image at out.
type Stacker interface {
	Stack(ctx context.Context, layers []string, out string) error
}

// StackMode selects how MagickStacker invokes the tool.
type StackMode string

const (
	// StackSingle flattens every layer in one invocation.
	StackSingle StackMode = "single"

	// StackPairwise copies the bottom layer to the output and composites
	// each later layer onto it, one invocation per layer.
	StackPairwise StackMode = "pairwise"
)

// DefaultTool is the ImageMagick entry point used when none is configured.
const DefaultTool = "magick"

// ParseStackMode parses a mode name. The empty string is StackSingle.
func ParseStackMode(s string) (StackMode, error) {
	switch StackMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", StackSingle:
		return StackSingle, nil
	case StackPairwise:
		return StackPairwise, nil
	default:
		return "", fmt.Errorf("unknown stack mode %q (want %q or %q)", s, StackSingle, StackPairwise)
	}
}

// MagickStacker runs ImageMagick (or a compatible tool) as a subprocess.
//
// Arguments are passed as an argv list, never through a shell. No timeout
// is applied: a running invocation is allowed to finish.
type MagickStacker struct {
	tool string
	mode StackMode
}

// NewMagickStacker creates a stacker. An empty tool uses DefaultTool.
func NewMagickStacker(tool string, mode StackMode) *MagickStacker {
	if tool == "" {
		tool = DefaultTool
	}
	if mode == "" {
		mode = StackSingle
	}
	return &MagickStacker{tool: tool, mode: mode}
}

// Tool returns the executable the stacker runs.
func (m *MagickStacker) Tool() string {
	return m.tool
}

// Mode returns the invocation mode.
func (m *MagickStacker) Mode() StackMode {
	return m.mode
}

// Stack implements Stacker. ctx is checked once before the first
// invocation; cancellation does not interrupt a running tool.
func (m *MagickStacker) Stack(ctx context.Context, layers []string, out string) error {
	if len(layers) == 0 {
		return errors.New("no layers to stack")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if m.mode == StackPairwise {
		if err := copyFile(layers[0], out); err != nil {
			return err
		}
		for _, layer := range layers[1:] {
			if err := m.run(out, layer, "-composite", out); err != nil {
				return err
			}
		}
		return nil
	}

	args := make([]string, 0, len(layers)+4)
	args = append(args, layers...)
	args = append(args, "-background", "none", "-flatten", out)
	return m.run(args...)
}

func (m *MagickStacker) run(args ...string) error {
	cmd := exec.Command(m.tool, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	te := &ExternalToolError{
		Index:    NoIndex,
		Tool:     m.tool,
		Args:     args,
		ExitCode: -1,
		Stderr:   strings.TrimSpace(stderr.String()),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		te.ExitCode = exitErr.ExitCode()
	}
	return te
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
