// Package rhi defines the Rendering Hardware Interface: the abstract
// capability set the render graph executor and pass renderers drive.
// Concrete back-ends (engine/renderer/vulkan being the one shipped here)
// implement this interface; the core never references a specific graphics
// API directly (spec.md §1, §6).
package rhi

import (
	"github.com/voidarchitect/corevk/engine/handle"
	"github.com/voidarchitect/corevk/engine/resources"
)

// RHI is the back-end contract the render graph executor and pass
// renderers consume. Every method here maps directly onto the table in
// spec.md §6.
type RHI interface {
	// Resize recreates the swapchain; called on window resize.
	Resize(width, height uint32) error
	// WaitIdle blocks until the device has finished all submitted work;
	// used only at shutdown and around resize.
	WaitIdle() error

	// BeginFrame returns false on a transient failure (e.g. swapchain
	// out-of-date); the caller must skip the frame.
	BeginFrame(dt float64) (bool, error)
	// EndFrame presents the frame. Returns false on a transient failure.
	EndFrame(dt float64) (bool, error)

	BeginRenderPass(pass handle.Handle, targets []handle.Handle) error
	EndRenderPass() error

	BindRenderState(state handle.Handle) error
	BindMaterial(material, state handle.Handle) error
	// BindMesh returns false if the mesh is not yet GPU-ready; the caller
	// must skip the draw.
	BindMesh(mesh handle.Handle) (bool, error)
	PushConstants(stage resources.ShaderStage, size uint32, data []byte) error
	DrawIndexed(indexCount, indexOffset, vertexOffset, instanceCount, firstInstance uint32) error

	CreateShader(shader *resources.Shader) (interface{}, error)
	DestroyShader(backend interface{})

	CreateTexture(texture *resources.Texture, pixels []byte) (interface{}, error)
	DestroyTexture(backend interface{})

	CreateMesh(mesh *resources.Mesh) (vertexBuffer, indexBuffer interface{}, err error)
	DestroyMesh(vertexBuffer, indexBuffer interface{})

	CreateMaterial(material *resources.Material) (interface{}, error)
	DestroyMaterial(backend interface{})

	CreateRenderPass(config resources.RenderPassConfig, position resources.PassPosition) (interface{}, error)
	DestroyRenderPass(backend interface{})

	CreateRenderState(config resources.RenderStateConfig, pass handle.Handle) (interface{}, error)
	DestroyRenderState(backend interface{})

	CreateRenderTarget(config resources.RenderTargetConfig) (interface{}, error)
	ReleaseRenderTarget(backend interface{})

	GetCurrentColorRenderTargetHandle() handle.Handle
	GetDepthRenderTargetHandle() handle.Handle

	// RegisterMesh/RegisterMaterial/RegisterRenderState/RegisterRenderPass
	// correlate a handle owned by the calling resource system or
	// permutation cache with the backend object a prior Create* call
	// produced, so the later handle-only Bind*/BeginRenderPass calls can
	// resolve it without the RHI needing to know about any system's own
	// slot table. Callers register once, immediately after the handle is
	// allocated and the backend object created.
	RegisterMesh(h handle.Handle, vertexBuffer, indexBuffer interface{})
	RegisterMaterial(h handle.Handle, backend interface{})
	RegisterRenderState(h handle.Handle, backend interface{})
	RegisterRenderPass(h handle.Handle, backend interface{})
	// RegisterShader lets CreateRenderState resolve a RenderStateConfig's
	// ShaderHandles (owned by the shader system, not this package) back to
	// the backend module CreateShader produced for them.
	RegisterShader(h handle.Handle, backend interface{})
}
