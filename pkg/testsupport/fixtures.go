// Package testsupport holds the sample catalog and the fixture and golden-file helpers
// shared by the package tests.
package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
)

// WriteGolden writes test output to a golden file, creating parent directories.
func WriteGolden(t testing.TB, path string, data []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write golden file to %s: %v", path, err)
	}
}

// CompareJSONWithGolden compares actual with the golden JSON document at path
// structurally. A missing golden file is created from actual.
func CompareJSONWithGolden(t testing.TB, path string, actual []byte) {
	t.Helper()

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Logf("golden file %s does not exist, creating it", path)
			WriteGolden(t, path, actual)
			return
		}
		t.Fatalf("failed to read golden file %s: %v", path, err)
	}

	var want, got any
	if err := json.Unmarshal(expected, &want); err != nil {
		t.Fatalf("golden file %s is not JSON: %v", path, err)
	}
	if err := json.Unmarshal(actual, &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, actual)
	}

	wantNorm, _ := json.Marshal(want)
	gotNorm, _ := json.Marshal(got)
	if !bytes.Equal(wantNorm, gotNorm) {
		t.Errorf("JSON mismatch for %s:\nExpected:\n%s\nActual:\n%s", path, wantNorm, gotNorm)
	}
}

// GoldenPath constructs a path to a golden file relative to the testdata directory.
func GoldenPath(filename string) string {
	return filepath.Join("testdata", "golden", filename)
}
