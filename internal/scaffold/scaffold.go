package scaffold

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/resin/internal/config"
)

// DefaultWeight is the weight FromExisting gives every scanned file.
const DefaultWeight = 0.1

// ErrExists is returned when a target exists and overwrite was not requested.
var ErrExists = errors.New("already exists, pass --overwrite to replace it")

// ConfigName returns the config file name for format.
func ConfigName(format config.Format) string {
	if format == config.FormatYAML {
		return "config.yaml"
	}
	return "config.json"
}

// Example returns the starter document written by Create.
func Example() *config.Document {
	royalty := 10.0
	return &config.Document{
		Name:        "NFT Title",
		Symbol:      "SNFT",
		Description: "Hello, NFT!",
		Creators: []config.Creator{
			{Address: "BPr18DCdtzASf1YVbUVZ4dZ7mA6jpMYZSUP3YuiMgGeD", Share: 100},
		},
		RoyaltyPercentage: &royalty,
		Collection:        &config.Collection{Name: "NFT Collection", Family: "NFT Family"},
		Attributes: config.Layers{
			{Name: "LAYER_NAME", Entries: []config.Entry{{Key: "FILE_NAME.png", Weight: 0.01}}},
			{Name: "LAYER_NAME_2", Entries: []config.Entry{{Key: "FILE_NAME_2.png", Weight: 0.01}}},
		},
		LayerOrder:               []string{"LAYER_NAME", "LAYER_NAME_2"},
		GuaranteedAttributeRolls: [][]string{{"FILE_NAME.png", "FILE_NAME_2.png"}},
		Amount:                   10,
	}
}

// Create makes folder with the example config and a placeholder asset at
// LAYER_NAME/FILE_NAME.png. An existing folder is removed first when
// overwrite is set; otherwise Create returns ErrExists.
func Create(folder string, format config.Format, overwrite bool, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(folder); err == nil {
		if !overwrite {
			return "", fmt.Errorf("folder %s %w", folder, ErrExists)
		}
		if err := os.RemoveAll(folder); err != nil {
			return "", fmt.Errorf("remove %s: %w", folder, err)
		}
		logger.Info("removed existing folder", "path", folder)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	layerDir := filepath.Join(folder, "LAYER_NAME")
	if err := os.MkdirAll(layerDir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", layerDir, err)
	}
	if err := os.WriteFile(filepath.Join(layerDir, "FILE_NAME.png"), nil, 0o644); err != nil {
		return "", fmt.Errorf("create placeholder: %w", err)
	}

	path := filepath.Join(folder, ConfigName(format))
	if err := config.Write(path, Example()); err != nil {
		return "", err
	}
	logger.Info("initialized assets folder", "path", folder, "config", path)
	return path, nil
}

// FromExisting writes a config into dir describing its layer folders.
// Every regular file in a layer folder becomes a value with
// DefaultWeight. Hidden entries are skipped, as are layer folders with no
// files. Layers keep directory order, which is sorted by name.
//
// The example's descriptive fields are kept; layerOrder and guaranteed
// rolls are dropped because they name example layers.
func FromExisting(dir string, format config.Format, overwrite bool, logger *slog.Logger) (string, *config.Document, error) {
	if logger == nil {
		logger = slog.Default()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return "", nil, fmt.Errorf("folder %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", nil, fmt.Errorf("%s is not a directory", dir)
	}

	path := filepath.Join(dir, ConfigName(format))
	if _, err := os.Stat(path); err == nil && !overwrite {
		return "", nil, fmt.Errorf("config %s %w", path, ErrExists)
	}

	layers, err := scanLayers(dir, logger)
	if err != nil {
		return "", nil, err
	}
	if len(layers) == 0 {
		return "", nil, fmt.Errorf("no layer folders with files in %s", dir)
	}

	doc := Example()
	doc.Attributes = layers
	doc.LayerOrder = nil
	doc.GuaranteedAttributeRolls = nil

	if err := config.Write(path, doc); err != nil {
		return "", nil, err
	}
	logger.Info("wrote config from existing assets", "path", path, "layers", len(layers))
	return path, doc, nil
}

func scanLayers(dir string, logger *slog.Logger) (config.Layers, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var layers config.Layers
	for _, e := range entries {
		if !e.IsDir() || hidden(e.Name()) {
			continue
		}
		files, err := os.ReadDir(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read layer %s: %w", e.Name(), err)
		}

		layer := config.Layer{Name: e.Name()}
		for _, f := range files {
			if !f.Type().IsRegular() || hidden(f.Name()) {
				continue
			}
			layer.Entries = append(layer.Entries, config.Entry{Key: f.Name(), Weight: DefaultWeight})
		}
		if len(layer.Entries) == 0 {
			logger.Warn("skipping layer folder with no files", "layer", e.Name())
			continue
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
