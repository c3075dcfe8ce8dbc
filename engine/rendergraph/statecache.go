package rendergraph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/voidarchitect/corevk/engine/core"
	"github.com/voidarchitect/corevk/engine/handle"
	"github.com/voidarchitect/corevk/engine/resources"
	"github.com/voidarchitect/corevk/engine/rhi"
)

// RenderStateCache is the permutation cache keyed by (material class, pass
// type, vertex format, pass signature): at most one backend pipeline object
// exists per distinct key (spec.md §4.4, §8 "Render-state cache
// determinism").
type RenderStateCache struct {
	mu        sync.Mutex
	backend   rhi.RHI
	slots     *handle.SlotTable[resources.RenderState]
	byKey     map[string]handle.Handle
	configs   map[string]resources.RenderStateConfig
}

// NewRenderStateCache builds an empty cache with room for capacity distinct
// permutations.
func NewRenderStateCache(capacity int, backend rhi.RHI) *RenderStateCache {
	return &RenderStateCache{
		backend: backend,
		slots:   handle.NewSlotTable[resources.RenderState](capacity),
		byKey:   make(map[string]handle.Handle),
		configs: make(map[string]resources.RenderStateConfig),
	}
}

// Register records the RenderStateConfig recipe to use on a miss for the
// key (config.MaterialClass, config.PassType, config.VertexFormat). Callers
// register every config a pass renderer might request before the first
// GetHandleFor call resolving it.
func (c *RenderStateCache) Register(config resources.RenderStateConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configs[recipeKey(config.MaterialClass, config.PassType, config.VertexFormat)] = config
}

// GetHandleFor resolves (class, passType, vertexFormat, signature) to a
// cached render-state handle against pass, creating the backend pipeline
// object on a miss. Returns ErrResourceNotFound if no config was
// registered for the (class, passType, vertexFormat) triple.
func (c *RenderStateCache) GetHandleFor(
	class resources.MaterialClass,
	passType resources.RenderPassType,
	vertexFormat resources.VertexFormat,
	signature resources.RenderPassSignature,
	pass handle.Handle,
) (handle.Handle, error) {
	key := stateCacheKey(class, passType, vertexFormat, signature)

	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.byKey[key]; ok {
		return h, nil
	}

	config, ok := c.configs[recipeKey(class, passType, vertexFormat)]
	if !ok {
		return handle.Invalid, fmt.Errorf("%w: no render state registered for class=%d passType=%d vertexFormat=%d", core.ErrResourceNotFound, class, passType, vertexFormat)
	}

	backendPipeline, err := c.backend.CreateRenderState(config, pass)
	if err != nil {
		return handle.Invalid, fmt.Errorf("%w: %s", core.ErrBackendTransient, err.Error())
	}

	state := resources.RenderState{UUID: uuid.New(), Name: config.Name, BackendPipeline: backendPipeline}
	h := c.slots.Allocate(state)
	if !h.IsValid() {
		c.backend.DestroyRenderState(backendPipeline)
		core.LogError("render state cache: capacity exhausted, cannot cache %q", config.Name)
		return handle.Invalid, core.ErrCapacityExhausted
	}
	c.byKey[key] = h
	c.backend.RegisterRenderState(h, backendPipeline)
	return h, nil
}

// GetPointerFor resolves h to its cached RenderState.
func (c *RenderStateCache) GetPointerFor(h handle.Handle) (*resources.RenderState, error) {
	state := c.slots.Get(h)
	if state == nil {
		return nil, core.ErrHandleInvalid
	}
	return state, nil
}

// Invalidate drops every cache entry, destroying their backend pipelines.
// Registered recipes survive; only the built objects are dropped.
func (c *RenderStateCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, h := range c.byKey {
		if state := c.slots.Get(h); state != nil {
			c.backend.DestroyRenderState(state.BackendPipeline)
		}
		c.slots.Release(h)
	}
	c.byKey = make(map[string]handle.Handle)
}

func recipeKey(class resources.MaterialClass, passType resources.RenderPassType, vertexFormat resources.VertexFormat) string {
	return fmt.Sprintf("%d|%d|%d", class, passType, vertexFormat)
}

func stateCacheKey(class resources.MaterialClass, passType resources.RenderPassType, vertexFormat resources.VertexFormat, signature resources.RenderPassSignature) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|", recipeKey(class, passType, vertexFormat))
	for _, f := range signature.ColorFormats {
		fmt.Fprintf(&sb, "%d,", f)
	}
	sb.WriteByte('|')
	if signature.DepthFormat != nil {
		fmt.Fprintf(&sb, "%d", *signature.DepthFormat)
	}
	return sb.String()
}
