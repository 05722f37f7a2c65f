package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
)

// DefaultTolerance is the absolute tolerance used by the float assertions.
const DefaultTolerance = 1e-9

// AssertNear verifies that two floats are within tol of each other.
func AssertNear(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v (±%g)", name, got, want, tol)
	}
}

// AssertFinite verifies that every value is a finite number.
func AssertFinite(t *testing.T, name string, values ...float64) {
	t.Helper()
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s[%d] = %v, want finite", name, i, v)
		}
	}
}

// AssertStrings verifies two string slices are equal element by element.
func AssertStrings(t *testing.T, name string, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s = %q, want %q", name, got, want)
		return
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("%s[%d] = %q, want %q", name, i, got[i], want[i])
		}
	}
}

// WriteFile writes content to name inside dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// WriteTreeFile marshals a tree fixture as JSON into dir.
func WriteTreeFile(t *testing.T, dir, name string, root any) string {
	t.Helper()
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal tree: %v", err)
	}
	return WriteFile(t, dir, name, string(data))
}
