package metadata

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/roach88/resin/internal/ir"
)

// SidecarDir is the side-channel directory name inside the output folder.
const SidecarDir = ".resin"

// PublicPath returns the public record path for item index.
func PublicPath(dir string, index int) string {
	return filepath.Join(dir, strconv.Itoa(index)+".json")
}

// SidecarPath returns the side-channel record path for item index.
func SidecarPath(dir string, index int) string {
	return filepath.Join(dir, SidecarDir, strconv.Itoa(index)+".json")
}

// Emitter writes records into an output directory.
type Emitter struct {
	dir    string
	info   Info
	logger *slog.Logger
}

// NewEmitter creates an emitter writing under dir.
func NewEmitter(dir string, info Info, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		dir:    dir,
		info:   info,
		logger: logger.With("component", "emitter"),
	}
}

// Dir returns the output directory.
func (e *Emitter) Dir() string {
	return e.dir
}

// Emit writes the public and side-channel records for item index.
// Errors name the index and path.
func (e *Emitter) Emit(index int, set ir.AttributeSet) error {
	rec := NewRecord(e.info, index, set)

	if err := os.MkdirAll(filepath.Join(e.dir, SidecarDir), 0o755); err != nil {
		return fmt.Errorf("item %d: create %s: %w", index, filepath.Join(e.dir, SidecarDir), err)
	}
	if err := writeRecord(PublicPath(e.dir, index), rec.Public()); err != nil {
		return fmt.Errorf("item %d: %w", index, err)
	}
	if err := writeRecord(SidecarPath(e.dir, index), rec); err != nil {
		return fmt.Errorf("item %d: %w", index, err)
	}

	e.logger.Debug("emitted metadata", "item", index, "traits", len(rec.Attributes))
	return nil
}

func writeRecord(path string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
