package metadata

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/roach88/resin/internal/ir"
)

// Report is the result of checking a generated output directory.
type Report struct {
	Records       int     `json:"records"`
	MissingImages []int   `json:"missing_images,omitempty"`
	Gaps          []int   `json:"gaps,omitempty"`
	Duplicates    [][]int `json:"duplicates,omitempty"`
}

// OK reports whether the check found nothing wrong.
func (r *Report) OK() bool {
	return len(r.MissingImages) == 0 && len(r.Gaps) == 0 && len(r.Duplicates) == 0
}

// Verify checks that every public record in dir has its image and that
// indices run from 0 without gaps. With unique set it also groups items
// whose public traits are identical. Each duplicate group lists indices in
// ascending order.
func Verify(dir string, unique bool) (*Report, error) {
	indices, err := ListRecords(dir)
	if err != nil {
		return nil, err
	}
	report := &Report{Records: len(indices)}

	present := make(map[int]bool, len(indices))
	for _, i := range indices {
		present[i] = true
		if _, err := os.Stat(filepath.Join(dir, ImageName(i))); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			report.MissingImages = append(report.MissingImages, i)
		}
	}
	if n := len(indices); n > 0 {
		for i := 0; i <= indices[n-1]; i++ {
			if !present[i] {
				report.Gaps = append(report.Gaps, i)
			}
		}
	}

	if unique {
		groups := make(map[string][]int)
		for _, i := range indices {
			rec, err := ReadRecord(PublicPath(dir, i))
			if err != nil {
				return nil, err
			}
			fp, err := ir.Fingerprint(rec.Attributes)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			groups[fp] = append(groups[fp], i)
		}
		for _, g := range groups {
			if len(g) > 1 {
				report.Duplicates = append(report.Duplicates, g)
			}
		}
		sort.Slice(report.Duplicates, func(a, b int) bool {
			return report.Duplicates[a][0] < report.Duplicates[b][0]
		})
	}
	return report, nil
}
