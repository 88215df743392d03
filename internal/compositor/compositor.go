package compositor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/roach88/resin/internal/ir"
)

// Compositor resolves an item's layer files and hands them to a Stacker.
type Compositor struct {
	assets  string
	out     string
	stacker Stacker
	logger  *slog.Logger
}

// New creates a compositor reading layers from assets/<layer>/<value> and
// writing images to out/<index>.png.
func New(assets, out string, stacker Stacker, logger *slog.Logger) *Compositor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compositor{
		assets:  assets,
		out:     out,
		stacker: stacker,
		logger:  logger.With("component", "compositor"),
	}
}

// ImagePath returns the output image path for item index.
func (c *Compositor) ImagePath(index int) string {
	return filepath.Join(c.out, strconv.Itoa(index)+".png")
}

// Composite stacks the non-meta traits of set, in order, into the image
// for item index.
func (c *Compositor) Composite(ctx context.Context, index int, set ir.AttributeSet) error {
	layers, err := c.LayerPaths(index, set)
	if err != nil {
		return err
	}

	out := c.ImagePath(index)
	if err := c.stacker.Stack(ctx, layers, out); err != nil {
		var te *ExternalToolError
		if errors.As(err, &te) {
			if te.Index != NoIndex {
				return err
			}
			copied := *te
			copied.Index = index
			return &copied
		}
		return fmt.Errorf("item %d: stack %s: %w", index, out, err)
	}

	c.logger.Debug("composited", "item", index, "layers", len(layers), "out", out)
	return nil
}

// LayerPaths resolves the asset file of every non-meta trait in set.
func (c *Compositor) LayerPaths(index int, set ir.AttributeSet) ([]string, error) {
	public := set.Public()
	paths := make([]string, 0, len(public))
	for _, t := range public {
		path, err := c.resolve(index, t)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// resolve finds the file for a trait. The exact name is tried first. A
// value without its extension (from a public record) is then matched
// against file stems in the layer directory, and must match exactly one.
func (c *Compositor) resolve(index int, t ir.Trait) (string, error) {
	dir := filepath.Join(c.assets, t.Layer)
	path := filepath.Join(dir, t.Value)
	missing := &MissingAssetError{Index: index, Layer: t.Layer, Path: path}

	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		return path, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("item %d: stat %s: %w", index, path, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", missing
	}
	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.TrimSuffix(name, filepath.Ext(name)) == t.Value {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}
	if len(candidates) != 1 {
		missing.Candidates = candidates
		return "", missing
	}
	return candidates[0], nil
}
