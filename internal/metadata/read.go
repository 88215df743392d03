package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/resin/internal/ir"
)

// ReadRecord parses the record at path.
func ReadRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &rec, nil
}

// ReadAttributeSet parses the record at path and returns its attributes.
func ReadAttributeSet(path string) (ir.AttributeSet, error) {
	rec, err := ReadRecord(path)
	if err != nil {
		return nil, err
	}
	return rec.Attributes, nil
}

// Locate returns the record to composite item index from: the side
// channel when present, the public record otherwise. sidecar reports which.
func Locate(dir string, index int) (path string, sidecar bool, err error) {
	path = SidecarPath(dir, index)
	if _, err := os.Stat(path); err == nil {
		return path, true, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", false, fmt.Errorf("item %d: stat %s: %w", index, path, err)
	}

	path = PublicPath(dir, index)
	if _, err := os.Stat(path); err != nil {
		return "", false, fmt.Errorf("item %d: no metadata record: %w", index, err)
	}
	return path, false, nil
}

// ListRecords returns the indices of the public records in dir, in
// numeric order. Files that are not <index>.json are ignored.
func ListRecords(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list records in %s: %w", dir, err)
	}

	var indices []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stem, ok := strings.CutSuffix(entry.Name(), ".json")
		if !ok {
			continue
		}
		index, err := strconv.Atoi(stem)
		if err != nil || index < 0 || strconv.Itoa(index) != stem {
			continue
		}
		indices = append(indices, index)
	}
	sort.Ints(indices)
	return indices, nil
}
