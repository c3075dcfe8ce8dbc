package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Capacities.Textures != Default().Capacities.Textures {
		t.Fatalf("expected default capacities when file is missing")
	}
}

func TestLoadOverlaysCapacities(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.toml")
	doc := `
app_name = "testbed"
width = 800
height = 600

[capacities]
textures = 128
meshes = 64
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AppName != "testbed" {
		t.Fatalf("expected app_name to be overridden, got %q", cfg.AppName)
	}
	if cfg.Capacities.Textures != 128 {
		t.Fatalf("expected textures capacity 128, got %d", cfg.Capacities.Textures)
	}
	if cfg.Capacities.Shaders != Default().Capacities.Shaders {
		t.Fatalf("expected unspecified capacities to retain their default")
	}
}
