package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunRejectsMalformedConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("cache = [broken"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := run(path, "", false); err == nil {
		t.Fatal("expected error for malformed config")
	}
}
