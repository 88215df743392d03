package compositor

import (
	"errors"
	"fmt"
	"strings"
)

// NoIndex marks an error not yet attributed to an item.
const NoIndex = -1

// MissingAssetError is returned when a trait has no asset file.
// It fails only the item it belongs to.
type MissingAssetError struct {
	Index int
	Layer string
	Path  string

	// Candidates lists files matching by stem when the lookup was ambiguous.
	Candidates []string
}

// Error implements the error interface.
func (e *MissingAssetError) Error() string {
	if len(e.Candidates) > 1 {
		return fmt.Sprintf("item %d: layer %s: asset %s is ambiguous (%s)",
			e.Index, e.Layer, e.Path, strings.Join(e.Candidates, ", "))
	}
	return fmt.Sprintf("item %d: layer %s: asset not found: %s", e.Index, e.Layer, e.Path)
}

// IsMissingAsset returns true if the error is a MissingAssetError.
// Uses errors.As to handle wrapped errors.
func IsMissingAsset(err error) bool {
	var me *MissingAssetError
	return errors.As(err, &me)
}

// ExternalToolError is returned when the stacking tool cannot be started
// or exits non-zero.
type ExternalToolError struct {
	Index    int
	Tool     string
	Args     []string
	ExitCode int // -1 when the process never ran
	Stderr   string
	Err      error
}

// Error implements the error interface.
func (e *ExternalToolError) Error() string {
	var b strings.Builder
	if e.Index != NoIndex {
		fmt.Fprintf(&b, "item %d: ", e.Index)
	}
	if e.ExitCode < 0 {
		fmt.Fprintf(&b, "%s failed to start: %v", e.Tool, e.Err)
	} else {
		fmt.Fprintf(&b, "%s exited with status %d", e.Tool, e.ExitCode)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, ": %s", e.Stderr)
	}
	return b.String()
}

// Unwrap returns the underlying exec error.
func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

// IsExternalTool returns true if the error is an ExternalToolError.
// Uses errors.As to handle wrapped errors.
func IsExternalTool(err error) bool {
	var te *ExternalToolError
	return errors.As(err, &te)
}
