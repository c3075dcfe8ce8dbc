package systems

import (
	"runtime"

	"github.com/voidarchitect/corevk/engine/config"
	"github.com/voidarchitect/corevk/engine/rendergraph"
	"github.com/voidarchitect/corevk/engine/rhi"
)

// MaxNumberOfWorkers defaults the job pool size to the host's core count;
// EngineConfig.WorkerCount overrides it when set.
var MaxNumberOfWorkers = runtime.NumCPU()

// SystemManager owns every resource system and permutation cache the
// render graph depends on (spec.md §2 components B-F), all built against
// the single rhi.RHI backend the engine boots (component A).
type SystemManager struct {
	JobSystem      *JobSystem
	LoadPipeline   *LoadPipeline
	TextureSystem  *TextureSystem
	MeshSystem     *MeshSystem
	ShaderSystem   *ShaderSystem
	MaterialSystem *MaterialSystem

	RenderPassCache  *rendergraph.RenderPassCache
	RenderStateCache *rendergraph.RenderStateCache
}

// NewSystemManager builds every system/cache against backend, with slot
// table capacities and worker count taken from cfg (spec.md §5 "fixed
// maximum ... determined at construction").
func NewSystemManager(cfg *config.EngineConfig, backend rhi.RHI) (*SystemManager, error) {
	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = MaxNumberOfWorkers
	}

	js, err := NewJobSystem(workers, 256)
	if err != nil {
		return nil, err
	}
	pipeline := NewLoadPipeline(js)

	ts, err := NewTextureSystem(int(cfg.Capacities.Textures), cfg.AssetPath, backend, pipeline)
	if err != nil {
		return nil, err
	}
	ms, err := NewMeshSystem(int(cfg.Capacities.Meshes), cfg.AssetPath, backend, pipeline)
	if err != nil {
		return nil, err
	}
	ssys := NewShaderSystem(int(cfg.Capacities.Shaders), cfg.AssetPath, backend)
	mats := NewMaterialSystem(int(cfg.Capacities.Materials), cfg.AssetPath, ts)

	passCache := rendergraph.NewRenderPassCache(int(cfg.Capacities.RenderPasses), backend)
	stateCache := rendergraph.NewRenderStateCache(int(cfg.Capacities.RenderStates), backend)

	return &SystemManager{
		JobSystem:        js,
		LoadPipeline:     pipeline,
		TextureSystem:    ts,
		MeshSystem:       ms,
		ShaderSystem:     ssys,
		MaterialSystem:   mats,
		RenderPassCache:  passCache,
		RenderStateCache: stateCache,
	}, nil
}

// InvalidateCaches drops every cached render-pass/render-state permutation,
// called on every window resize (spec.md §4.9).
func (sm *SystemManager) InvalidateCaches() {
	sm.RenderPassCache.Invalidate()
	sm.RenderStateCache.Invalidate()
}

// Shutdown tears systems down in reverse dependency order: resource
// systems before the job pool they submit loads to. MaterialSystem holds
// no resources of its own beyond what TextureSystem already owns, so it
// has nothing to release here.
func (sm *SystemManager) Shutdown() error {
	sm.MeshSystem.Shutdown()
	sm.ShaderSystem.Shutdown()
	sm.TextureSystem.Shutdown()
	return sm.JobSystem.Shutdown()
}
