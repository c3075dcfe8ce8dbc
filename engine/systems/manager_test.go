package systems

import (
	"testing"

	"github.com/voidarchitect/corevk/engine/config"
)

func testConfig(assetPath string) *config.EngineConfig {
	cfg := config.Default()
	cfg.AssetPath = assetPath
	cfg.Capacities = config.Capacities{
		Textures:      4,
		Meshes:        4,
		Materials:     4,
		Shaders:       4,
		RenderStates:  4,
		RenderPasses:  4,
		RenderTargets: 4,
	}
	return cfg
}

func TestNewSystemManagerWiresAllSystems(t *testing.T) {
	sm, err := NewSystemManager(testConfig(t.TempDir()), &fakeRHI{})
	if err != nil {
		t.Fatalf("NewSystemManager: %v", err)
	}
	defer sm.Shutdown()

	if sm.JobSystem == nil || sm.LoadPipeline == nil {
		t.Fatalf("expected job system and load pipeline to be non-nil")
	}
	if sm.TextureSystem == nil || sm.MeshSystem == nil || sm.ShaderSystem == nil || sm.MaterialSystem == nil {
		t.Fatalf("expected all four resource systems to be constructed")
	}
	if sm.RenderPassCache == nil || sm.RenderStateCache == nil {
		t.Fatalf("expected both render graph caches to be constructed")
	}

	// The default material must be reachable through the wired material
	// system, same as any other caller would expect post-construction.
	h := sm.MaterialSystem.GetDefault()
	if !h.IsValid() {
		t.Fatalf("expected default material handle to be valid")
	}
}

func TestNewSystemManagerDefaultsWorkerCount(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.WorkerCount = 0

	sm, err := NewSystemManager(cfg, &fakeRHI{})
	if err != nil {
		t.Fatalf("NewSystemManager: %v", err)
	}
	defer sm.Shutdown()

	if sm.JobSystem == nil {
		t.Fatalf("expected job system to still be constructed when WorkerCount is unset")
	}
}

func TestSystemManagerInvalidateCachesIsSafeBeforeUse(t *testing.T) {
	sm, err := NewSystemManager(testConfig(t.TempDir()), &fakeRHI{})
	if err != nil {
		t.Fatalf("NewSystemManager: %v", err)
	}
	defer sm.Shutdown()

	// Resize handling calls this on every frame-size change; it must not
	// panic on a cache that has never had anything registered into it.
	sm.InvalidateCaches()
}

func TestSystemManagerShutdownTearsDownCleanly(t *testing.T) {
	sm, err := NewSystemManager(testConfig(t.TempDir()), &fakeRHI{})
	if err != nil {
		t.Fatalf("NewSystemManager: %v", err)
	}

	if err := sm.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
