package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteVideo writes a small stand-in video file and returns its path.
func WriteVideo(t testing.TB, dir, name string, contents []byte) string {
	t.Helper()

	if len(contents) == 0 {
		contents = []byte("fake video bytes")
	}
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
