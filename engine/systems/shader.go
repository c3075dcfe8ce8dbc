package systems

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/voidarchitect/corevk/engine/core"
	"github.com/voidarchitect/corevk/engine/handle"
	"github.com/voidarchitect/corevk/engine/resources"
	"github.com/voidarchitect/corevk/engine/rhi"
)

// ShaderSystem owns every compiled shader module behind a generational
// handle, mirroring the teacher's name->id Lookup table but returning
// handle.Handle instead of a raw array index. Shader bytecode is small and
// cheap relative to textures/meshes, so loads run synchronously on
// acquisition rather than through the async pipeline (spec.md §4.5 scopes
// the async loader to texture and mesh data specifically).
type ShaderSystem struct {
	mu       sync.Mutex
	slots    *handle.SlotTable[resources.Shader]
	byName   map[string]handle.Handle
	refcount map[string]int

	assetRoot string
	backend   rhi.RHI
}

// NewShaderSystem builds a shader system with room for capacity modules.
func NewShaderSystem(capacity int, assetRoot string, backend rhi.RHI) *ShaderSystem {
	return &ShaderSystem{
		slots:     handle.NewSlotTable[resources.Shader](capacity),
		byName:    make(map[string]handle.Handle),
		refcount:  make(map[string]int),
		assetRoot: assetRoot,
		backend:   backend,
	}
}

// GetHandleFor loads and compiles name on first acquisition, otherwise
// just bumps its reference count.
func (ss *ShaderSystem) GetHandleFor(name string) (handle.Handle, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if h, ok := ss.byName[name]; ok {
		ss.refcount[name]++
		return h, nil
	}

	bytecode, err := os.ReadFile(filepath.Join(ss.assetRoot, name))
	if err != nil {
		return handle.Invalid, fmt.Errorf("%w: %s", core.ErrResourceNotFound, err.Error())
	}
	stage, _ := resources.InferShaderStageFromFilename(name)

	shader := resources.Shader{Name: name, Stage: stage, EntryPoint: "main", Bytecode: bytecode}
	backendModule, err := ss.backend.CreateShader(&shader)
	if err != nil {
		return handle.Invalid, fmt.Errorf("%w: %s", core.ErrBackendTransient, err.Error())
	}
	shader.BackendModule = backendModule

	h := ss.slots.Allocate(shader)
	if !h.IsValid() {
		ss.backend.DestroyShader(backendModule)
		core.LogError("shader system: capacity exhausted, cannot load %q", name)
		return handle.Invalid, core.ErrCapacityExhausted
	}
	ss.byName[name] = h
	ss.refcount[name] = 1
	ss.backend.RegisterShader(h, backendModule)
	return h, nil
}

// GetPointerFor resolves h to its live Shader.
func (ss *ShaderSystem) GetPointerFor(h handle.Handle) (*resources.Shader, error) {
	shader := ss.slots.Get(h)
	if shader == nil {
		return nil, core.ErrHandleInvalid
	}
	return shader, nil
}

// Release decrements name's reference count, destroying the backend module
// once the count reaches zero.
func (ss *ShaderSystem) Release(name string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	h, ok := ss.byName[name]
	if !ok {
		return
	}
	ss.refcount[name]--
	if ss.refcount[name] > 0 {
		return
	}

	if shader := ss.slots.Get(h); shader != nil {
		ss.backend.DestroyShader(shader.BackendModule)
	}
	ss.slots.Release(h)
	delete(ss.byName, name)
	delete(ss.refcount, name)
}

// Shutdown releases every shader still held.
func (ss *ShaderSystem) Shutdown() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	for name, h := range ss.byName {
		if shader := ss.slots.Get(h); shader != nil {
			ss.backend.DestroyShader(shader.BackendModule)
		}
		delete(ss.byName, name)
		delete(ss.refcount, name)
	}
}
