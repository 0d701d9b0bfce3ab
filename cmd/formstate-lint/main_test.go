package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLintFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	content := "id: broken\nconstraint:\n  age: {min: \"9\", max: \"1\"}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := lintFile(path)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	want := []violation{{file: path, location: "broken:age", message: "min 9 exceeds max 1"}}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(violation{})); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestLintFileRejectsMissingID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anonymous.yaml")
	if err := os.WriteFile(path, []byte("constraint: {}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := lintFile(path); err == nil {
		t.Fatalf("expected an error for a definition without id")
	}
}
