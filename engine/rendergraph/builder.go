// Package rendergraph implements the per-frame render graph: a declarative
// builder (this file), a compiler that turns the declared reads/writes into
// an ordered execution plan, an executor that drives the RHI through that
// plan, and the two permutation caches (render pass, render state) the
// compiled steps resolve against.
package rendergraph

import (
	"github.com/voidarchitect/corevk/engine/core"
	"github.com/voidarchitect/corevk/engine/handle"
	"github.com/voidarchitect/corevk/engine/resources"
	"github.com/voidarchitect/corevk/engine/rhi"
)

// Well-known virtual resource names the builder and compiler understand
// without any explicit import -- the swapchain color and depth targets.
const (
	ViewportColor = "viewport.color"
	ViewportDepth = "viewport.depth"
)

// AccessType classifies one pass's declared access to a named resource.
type AccessType int

const (
	AccessRead AccessType = iota
	AccessWrite
)

// FrameData carries the per-frame inputs every pass renderer's Execute sees.
type FrameData struct {
	DeltaTime float64
}

// PassContext is handed to a PassRenderer's Execute call for one compiled
// step (spec.md §4.8).
type PassContext struct {
	RHI              rhi.RHI
	Frame            FrameData
	CurrentPass      handle.Handle
	CurrentSignature resources.RenderPassSignature
}

// PassRenderer is the capability set every render pass implementation
// provides: declare its reads/writes against the builder, report the
// RenderPassConfig the compiler should cache it under, and execute once
// the compiler has resolved a concrete pass+targets for it (spec.md §9:
// "capability set is {setup(builder), execute(ctx), get_render_pass_config()}").
type PassRenderer interface {
	Setup(b *Builder)
	Execute(ctx PassContext) error
	RenderPassConfig() resources.RenderPassConfig
}

type resourceAccess struct {
	pass AccessType
	node *passNode
}

type passNode struct {
	name     string
	renderer PassRenderer
	reads    []string
	writes   []string
}

// Builder accumulates one frame's declared passes and their resource
// accesses. A fresh Builder is created every frame (spec.md §4.9 step 1).
type Builder struct {
	imported map[string]handle.Handle
	passes   []*passNode
	current  *passNode

	// accesses maps a virtual resource name to every (pass, access-type)
	// pair declared against it, in declaration order.
	accesses map[string][]resourceAccess
}

// NewBuilder returns an empty builder with no imported targets or passes.
func NewBuilder() *Builder {
	return &Builder{
		imported: make(map[string]handle.Handle),
		accesses: make(map[string][]resourceAccess),
	}
}

// ImportRenderTarget registers an externally-owned render target handle
// under a virtual resource name, making it resolvable by passes that read
// or write that name (spec.md §4.6 import_render_target).
func (b *Builder) ImportRenderTarget(name string, target handle.Handle) {
	b.imported[name] = target
}

// ImportedTarget resolves a previously-imported name to its handle.
func (b *Builder) ImportedTarget(name string) (handle.Handle, bool) {
	h, ok := b.imported[name]
	return h, ok
}

// AddPass registers renderer under name and runs its Setup against this
// builder, recording whatever reads/writes it declares (spec.md §4.6
// add_pass).
func (b *Builder) AddPass(name string, renderer PassRenderer) {
	node := &passNode{name: name, renderer: renderer}
	b.passes = append(b.passes, node)

	prev := b.current
	b.current = node
	renderer.Setup(b)
	b.current = prev
}

// ReadsFrom records a Read access by the pass currently being set up
// against the named virtual resource.
func (b *Builder) ReadsFrom(name string) *Builder {
	return b.access(name, AccessRead)
}

// WritesTo records a Write access by the pass currently being set up
// against the named virtual resource.
func (b *Builder) WritesTo(name string) *Builder {
	return b.access(name, AccessWrite)
}

// ReadsFromColorBuffer is sugar for ReadsFrom(ViewportColor).
func (b *Builder) ReadsFromColorBuffer() *Builder { return b.ReadsFrom(ViewportColor) }

// WritesToColorBuffer is sugar for WritesTo(ViewportColor).
func (b *Builder) WritesToColorBuffer() *Builder { return b.WritesTo(ViewportColor) }

// ReadsFromDepthBuffer is sugar for ReadsFrom(ViewportDepth).
func (b *Builder) ReadsFromDepthBuffer() *Builder { return b.ReadsFrom(ViewportDepth) }

// WritesToDepthBuffer is sugar for WritesTo(ViewportDepth).
func (b *Builder) WritesToDepthBuffer() *Builder { return b.WritesTo(ViewportDepth) }

func (b *Builder) access(name string, accessType AccessType) *Builder {
	if b.current == nil {
		core.LogError("rendergraph: %s access to %q declared outside of AddPass, ignored", accessLabel(accessType), name)
		return b
	}
	if accessType == AccessRead {
		b.current.reads = append(b.current.reads, name)
	} else {
		b.current.writes = append(b.current.writes, name)
	}
	b.accesses[name] = append(b.accesses[name], resourceAccess{pass: accessType, node: b.current})
	return b
}

func accessLabel(t AccessType) string {
	if t == AccessRead {
		return "read"
	}
	return "write"
}
