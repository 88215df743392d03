package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/resin/internal/ir"
)

func emitAll(t *testing.T, dir string, sets ...ir.AttributeSet) {
	t.Helper()
	e := NewEmitter(dir, Info{Name: "N", Symbol: "S"}, nil)
	for i, set := range sets {
		require.NoError(t, e.Emit(i, set))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ImageName(i)), []byte("png"), 0o644))
	}
}

func TestVerify_Clean(t *testing.T) {
	dir := t.TempDir()
	emitAll(t, dir,
		ir.AttributeSet{{Layer: "bg", Value: "red.png"}},
		ir.AttributeSet{{Layer: "bg", Value: "blue.png"}},
	)

	report, err := Verify(dir, true)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 2, report.Records)
}

func TestVerify_Problems(t *testing.T) {
	dir := t.TempDir()
	red := ir.AttributeSet{{Layer: "bg", Value: "red.png"}}
	emitAll(t, dir, red, ir.AttributeSet{{Layer: "bg", Value: "blue.png"}}, red, red)
	require.NoError(t, os.Remove(PublicPath(dir, 1)))
	require.NoError(t, os.Remove(filepath.Join(dir, ImageName(3))))

	report, err := Verify(dir, false)
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, 3, report.Records)
	assert.Equal(t, []int{1}, report.Gaps)
	assert.Equal(t, []int{3}, report.MissingImages)
	assert.Empty(t, report.Duplicates, "duplicates only checked on request")

	report, err = Verify(dir, true)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 2, 3}}, report.Duplicates)
}

func TestVerify_MetaLayersIgnored(t *testing.T) {
	dir := t.TempDir()
	emitAll(t, dir,
		ir.AttributeSet{{Layer: "_tier", Value: "a"}, {Layer: "bg", Value: "red.png"}},
		ir.AttributeSet{{Layer: "_tier", Value: "b"}, {Layer: "bg", Value: "red.png"}},
	)

	report, err := Verify(dir, true)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1}}, report.Duplicates, "public records carry no meta layers")
}

func TestVerify_MissingDir(t *testing.T) {
	_, err := Verify(filepath.Join(t.TempDir(), "nope"), false)
	assert.Error(t, err)
}
