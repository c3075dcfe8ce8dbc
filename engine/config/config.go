// Package config loads the engine's own TOML configuration document:
// slot table capacities, worker pool size, and window dimensions. It is
// deliberately separate from the application/asset YAML config loader,
// which stays an external collaborator (spec.md §1, out of core scope).
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/voidarchitect/corevk/engine/core"
)

// Capacities holds the fixed N passed to each resource system's slot
// table at construction time (spec.md §5: "fixed maximum ... determined
// at construction").
type Capacities struct {
	Textures      uint32 `toml:"textures"`
	Meshes        uint32 `toml:"meshes"`
	Materials     uint32 `toml:"materials"`
	Shaders       uint32 `toml:"shaders"`
	RenderStates  uint32 `toml:"render_states"`
	RenderPasses  uint32 `toml:"render_passes"`
	RenderTargets uint32 `toml:"render_targets"`
}

// EngineConfig is the root document.
type EngineConfig struct {
	AppName     string     `toml:"app_name"`
	Width       uint32     `toml:"width"`
	Height      uint32     `toml:"height"`
	WorkerCount int        `toml:"worker_count"`
	AssetPath   string     `toml:"asset_path"`
	Capacities  Capacities `toml:"capacities"`
}

// Default returns a config with reasonable capacities matching the
// teacher's historical defaults, usable without any file present;
// systems.NewSystemManager sizes its slot tables from Capacities.
func Default() *EngineConfig {
	return &EngineConfig{
		AppName:     "voidarchitect",
		Width:       1280,
		Height:      720,
		WorkerCount: 4,
		AssetPath:   "assets",
		Capacities: Capacities{
			Textures:      65536,
			Meshes:        4096,
			Materials:     4096,
			Shaders:       1024,
			RenderStates:  1024,
			RenderPasses:  256,
			RenderTargets: 256,
		},
	}
}

// Load reads and decodes a TOML document at path, overlaying it onto the
// defaults. A missing file is not an error; Default() is returned as-is.
func Load(path string) (*EngineConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		core.LogWarn("config file '%s' not found, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		core.LogError("failed to parse config file '%s': %s", path, err.Error())
		return nil, err
	}

	abs, err := filepath.Abs(cfg.AssetPath)
	if err == nil {
		cfg.AssetPath = abs
	}

	return cfg, nil
}
