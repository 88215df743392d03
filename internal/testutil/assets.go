package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// AssetTree creates an assets directory under a fresh temp dir with one
// file per (layer, name) pair and returns its path. Each file holds its
// own "<layer>/<name>" path so stacked outputs can be inspected.
func AssetTree(t testing.TB, layers map[string][]string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "assets")
	for layer, names := range layers {
		dir := filepath.Join(root, layer)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create layer dir: %v", err)
		}
		for _, name := range names {
			content := []byte(layer + "/" + name)
			if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
				t.Fatalf("write asset: %v", err)
			}
		}
	}
	return root
}

// WriteFile writes content to root/rel, creating parent directories.
func WriteFile(t testing.TB, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return path
}
