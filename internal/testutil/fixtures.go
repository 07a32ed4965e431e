package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// FixturePath returns the absolute path of an OFX fixture.
func FixturePath(t *testing.T, name string) string {
	t.Helper()

	// Get path relative to this file
	_, filename, _, _ := runtime.Caller(0)
	baseDir := filepath.Dir(filepath.Dir(filename)) // up to internal/

	return filepath.Join(baseDir, "ofxparser", "testdata", name+".ofx")
}

// LoadFixture reads an OFX fixture file
func LoadFixture(t *testing.T, name string) string {
	t.Helper()

	data, err := os.ReadFile(FixturePath(t, name))
	if err != nil {
		t.Fatalf("Failed to load fixture %s: %v", name, err)
	}

	return string(data)
}

// LoadFixtureLines reads an OFX fixture and splits it into lines.
func LoadFixtureLines(t *testing.T, name string) []string {
	t.Helper()

	content := strings.TrimRight(LoadFixture(t, name), "\n")
	return strings.Split(content, "\n")
}

// CopyFixture copies a fixture into dir and returns the new path.
func CopyFixture(t *testing.T, name, dir string) string {
	t.Helper()

	dst := filepath.Join(dir, name+".ofx")
	if err := os.WriteFile(dst, []byte(LoadFixture(t, name)), 0o644); err != nil {
		t.Fatalf("Failed to copy fixture %s: %v", name, err)
	}

	return dst
}
