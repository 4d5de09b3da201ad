// Package testsupport holds the fixture and golden-file helpers shared by
// the engine's test suites.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// MustReadFixture reads a testdata file and returns its raw bytes.
func MustReadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

// MustReadFixtureString reads a testdata file as a string.
func MustReadFixtureString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadFixture(t, path))
}

// MustLoadContext reads a YAML or JSON fixture into a render context map.
func MustLoadContext(t *testing.T, path string) map[string]any {
	t.Helper()

	raw := MustReadFixture(t, path)
	out := map[string]any{}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal context: %v", err)
	}
	return out
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}
