package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Defaults()) {
		t.Fatalf("cfg = %+v, want defaults %+v", cfg, Defaults())
	}
}

func TestLoadMergesFileOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slimd.yaml")
	contents := "host: 127.0.0.1\nport: 9000\nverbose: true\nfixturePaths:\n  - ./fixtures\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Host != "127.0.0.1" || cfg.Port != 9000 || !cfg.Verbose {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Keepalive {
		t.Fatalf("keepalive should default to false when omitted, got true")
	}
	if len(cfg.FixturePaths) != 1 || cfg.FixturePaths[0] != "./fixtures" {
		t.Fatalf("fixturePaths = %v", cfg.FixturePaths)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load("/nonexistent/slimd.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
