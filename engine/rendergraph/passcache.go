package rendergraph

import (
	"fmt"
	"strings"
	"sync"

	"github.com/voidarchitect/corevk/engine/core"
	"github.com/voidarchitect/corevk/engine/handle"
	"github.com/voidarchitect/corevk/engine/resources"
	"github.com/voidarchitect/corevk/engine/rhi"
)

// RenderPassCache is the permutation cache keyed by (RenderPassConfig,
// PassPosition): at most one backend render pass object exists per
// distinct key (spec.md §4.3, §8 "Render-pass cache determinism").
type RenderPassCache struct {
	mu      sync.Mutex
	backend rhi.RHI
	slots   *handle.SlotTable[resources.RenderPass]
	byKey   map[string]handle.Handle
}

// NewRenderPassCache builds an empty cache with room for capacity distinct
// permutations.
func NewRenderPassCache(capacity int, backend rhi.RHI) *RenderPassCache {
	return &RenderPassCache{
		backend: backend,
		slots:   handle.NewSlotTable[resources.RenderPass](capacity),
		byKey:   make(map[string]handle.Handle),
	}
}

// GetHandleFor resolves (config, position) to a cached render pass handle,
// creating the backend object on a cache miss.
func (c *RenderPassCache) GetHandleFor(config resources.RenderPassConfig, position resources.PassPosition) (handle.Handle, error) {
	key := passCacheKey(config, position)

	c.mu.Lock()
	defer c.mu.Unlock()

	if h, ok := c.byKey[key]; ok {
		return h, nil
	}

	backendPass, err := c.backend.CreateRenderPass(config, position)
	if err != nil {
		return handle.Invalid, fmt.Errorf("%w: %s", core.ErrBackendTransient, err.Error())
	}

	rp := resources.RenderPass{
		Config:      config,
		Signature:   config.DeriveSignature(),
		Position:    position,
		BackendPass: backendPass,
	}
	h := c.slots.Allocate(rp)
	if !h.IsValid() {
		c.backend.DestroyRenderPass(backendPass)
		core.LogError("render pass cache: capacity exhausted, cannot cache %q", config.Name)
		return handle.Invalid, core.ErrCapacityExhausted
	}
	c.byKey[key] = h
	c.backend.RegisterRenderPass(h, backendPass)
	return h, nil
}

// GetPointerFor resolves h to its cached RenderPass.
func (c *RenderPassCache) GetPointerFor(h handle.Handle) (*resources.RenderPass, error) {
	rp := c.slots.Get(h)
	if rp == nil {
		return nil, core.ErrHandleInvalid
	}
	return rp, nil
}

// Invalidate drops every cache entry, destroying their backend objects.
// Called on resize when a signature's format changed (spec.md §4.9); the
// next compile lazily rebuilds whatever permutations are needed.
func (c *RenderPassCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, h := range c.byKey {
		if rp := c.slots.Get(h); rp != nil {
			c.backend.DestroyRenderPass(rp.BackendPass)
		}
		c.slots.Release(h)
	}
	c.byKey = make(map[string]handle.Handle)
}

func passCacheKey(config resources.RenderPassConfig, position resources.PassPosition) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s|%d|%d|", config.Name, config.Type, position)
	for _, a := range config.Attachments {
		fmt.Fprintf(&sb, "(%s,%d,%d,%d)", a.Name, a.Format, a.LoadOp, a.StoreOp)
	}
	return sb.String()
}
