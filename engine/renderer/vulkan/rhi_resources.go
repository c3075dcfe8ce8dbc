package vulkan

// rhi_resources.go implements the Create*/Destroy*/Register* half of the
// rhi.RHI contract: shaders, textures, meshes, materials, render passes,
// render states and render targets, all built from the resources.*Config
// structs the resource systems and render graph cache own.

import (
	"encoding/binary"
	"fmt"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/voidarchitect/corevk/engine/core"
	"github.com/voidarchitect/corevk/engine/handle"
	"github.com/voidarchitect/corevk/engine/renderer/metadata"
	"github.com/voidarchitect/corevk/engine/resources"
)

type vulkanShaderBackend struct {
	module    vk.ShaderModule
	stageInfo vk.PipelineShaderStageCreateInfo
}

type vulkanMeshBuffers struct {
	vertex *VulkanBuffer
	index  *VulkanBuffer
}

// vulkanMaterialBinding is a marker the adapter keeps per material handle
// so BindMaterial can validate the handle; this backend has no per-material
// descriptor set, following the teacher's push-constant-only material
// model (see VulkanShader.GlobalUniformSamplerCount's single global set).
type vulkanMaterialBinding struct {
	name string
}

func (r *RHI) CreateShader(shader *resources.Shader) (interface{}, error) {
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(shader.Bytecode)),
		PCode:    bytesToUint32Slice(shader.Bytecode),
	}
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(r.context.Device.LogicalDevice, &createInfo, r.context.Allocator, &module); !VulkanResultIsSuccess(res) {
		return nil, fmt.Errorf("%w: vkCreateShaderModule failed: %s", core.ErrBackendTransient, VulkanResultString(res, true))
	}
	stageInfo := vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  shaderStageBit(shader.Stage),
		Module: module,
		PName:  VulkanSafeString(shader.EntryPoint),
	}
	return &vulkanShaderBackend{module: module, stageInfo: stageInfo}, nil
}

func (r *RHI) DestroyShader(backend interface{}) {
	sb, ok := backend.(*vulkanShaderBackend)
	if !ok || sb == nil {
		return
	}
	vk.DestroyShaderModule(r.context.Device.LogicalDevice, sb.module, r.context.Allocator)
}

func (r *RHI) RegisterShader(h handle.Handle, backend interface{}) {
	if sb, ok := backend.(*vulkanShaderBackend); ok {
		r.shaders[h] = sb
	}
}

func shaderStageBit(stage resources.ShaderStage) vk.ShaderStageFlagBits {
	switch stage {
	case resources.ShaderStageVertex:
		return vk.ShaderStageVertexBit
	case resources.ShaderStagePixel:
		return vk.ShaderStageFragmentBit
	case resources.ShaderStageCompute:
		return vk.ShaderStageComputeBit
	case resources.ShaderStageGeometry:
		return vk.ShaderStageGeometryBit
	case resources.ShaderStageTessCtl:
		return vk.ShaderStageTessellationControlBit
	case resources.ShaderStageTessEval:
		return vk.ShaderStageTessellationEvaluationBit
	default:
		return vk.ShaderStageVertexBit
	}
}

func bytesToUint32Slice(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}

// CreateTexture uploads pixels into a device-local image via the shared
// staging path, grounded on ImageCreate/image.go.
func (r *RHI) CreateTexture(texture *resources.Texture, pixels []byte) (interface{}, error) {
	format := vk.FormatR8g8b8a8Unorm
	img, err := ImageCreate(r.context, vk.ImageType2d, texture.Width, texture.Height, format,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)|vk.ImageUsageFlags(vk.ImageUsageSampledBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true, vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil || img == nil {
		return nil, fmt.Errorf("%w: texture image creation failed", core.ErrBackendTransient)
	}

	staging, err := bufferCreate(r.context, uint64(len(pixels)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		img.ImageDestroy(r.context)
		return nil, err
	}
	defer bufferDestroy(r.context, staging)
	if err := bufferLoadData(r.context, staging, pixels); err != nil {
		img.ImageDestroy(r.context)
		return nil, err
	}

	cmd, err := AllocateAndBeginSingleUse(r.context, r.context.Device.GraphicsCommandPool)
	if err != nil {
		img.ImageDestroy(r.context)
		return nil, err
	}
	region := vk.BufferImageCopy{
		BufferOffset:      0,
		ImageSubresource:  vk.ImageSubresourceLayers{AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit), MipLevel: 0, BaseArrayLayer: 0, LayerCount: 1},
		ImageExtent:       vk.Extent3D{Width: texture.Width, Height: texture.Height, Depth: 1},
	}
	vk.CmdCopyBufferToImage(cmd.Handle, staging.Handle, img.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
	if err := cmd.EndSingleUse(r.context, r.context.Device.GraphicsCommandPool, r.context.Device.GraphicsQueue); err != nil {
		img.ImageDestroy(r.context)
		return nil, err
	}
	return img, nil
}

func (r *RHI) DestroyTexture(backend interface{}) {
	img, ok := backend.(*VulkanImage)
	if !ok || img == nil {
		return
	}
	img.ImageDestroy(r.context)
}

// CreateMesh uploads a mesh's vertex/index data into device-local buffers.
func (r *RHI) CreateMesh(mesh *resources.Mesh) (interface{}, interface{}, error) {
	_, vertexCount, indexCount := mesh.Data.Snapshot()
	vertexBytes := encodeVertices(mesh.Data.Vertices)
	indexBytes := encodeIndices(mesh.Data.Indices)

	vb, err := bufferCreate(r.context, uint64(len(vertexBytes)),
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, nil, err
	}
	if err := bufferUploadViaStaging(r.context, r.context.Device.GraphicsCommandPool, r.context.Device.GraphicsQueue, vb, vertexBytes); err != nil {
		bufferDestroy(r.context, vb)
		return nil, nil, err
	}

	ib, err := bufferCreate(r.context, uint64(len(indexBytes)),
		vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		bufferDestroy(r.context, vb)
		return nil, nil, err
	}
	if err := bufferUploadViaStaging(r.context, r.context.Device.GraphicsCommandPool, r.context.Device.GraphicsQueue, ib, indexBytes); err != nil {
		bufferDestroy(r.context, vb)
		bufferDestroy(r.context, ib)
		return nil, nil, err
	}

	core.LogDebug("mesh %q uploaded: %d vertices, %d indices", mesh.Name, vertexCount, indexCount)
	return vb, ib, nil
}

func (r *RHI) DestroyMesh(vertexBuffer, indexBuffer interface{}) {
	if vb, ok := vertexBuffer.(*VulkanBuffer); ok {
		bufferDestroy(r.context, vb)
	}
	if ib, ok := indexBuffer.(*VulkanBuffer); ok {
		bufferDestroy(r.context, ib)
	}
}

func (r *RHI) RegisterMesh(h handle.Handle, vertexBuffer, indexBuffer interface{}) {
	vb, _ := vertexBuffer.(*VulkanBuffer)
	ib, _ := indexBuffer.(*VulkanBuffer)
	if vb == nil || ib == nil {
		return
	}
	r.meshes[h] = &vulkanMeshBuffers{vertex: vb, index: ib}
}

func encodeVertices(vertices []resources.Vertex) []byte {
	const stride = 12 * 4
	out := make([]byte, len(vertices)*stride)
	for i, v := range vertices {
		off := i * stride
		putF32(out, off+0, v.Position.X)
		putF32(out, off+4, v.Position.Y)
		putF32(out, off+8, v.Position.Z)
		putF32(out, off+12, v.Normal.X)
		putF32(out, off+16, v.Normal.Y)
		putF32(out, off+20, v.Normal.Z)
		putF32(out, off+24, v.UV0.X)
		putF32(out, off+28, v.UV0.Y)
		putF32(out, off+32, v.Tangent.X)
		putF32(out, off+36, v.Tangent.Y)
		putF32(out, off+40, v.Tangent.Z)
		putF32(out, off+44, v.Tangent.W)
	}
	return out
}

func putF32(b []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(b[off:], math.Float32bits(v))
}

func encodeIndices(indices []uint32) []byte {
	out := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(out[i*4:], idx)
	}
	return out
}

// CreateMaterial has no backend allocation beyond a bookkeeping marker in
// this backend: diffuse color and texture bindings are delivered as push
// constants and sampled textures bound ad hoc by the pass renderer, not
// through a persistent descriptor set.
func (r *RHI) CreateMaterial(material *resources.Material) (interface{}, error) {
	name := "material"
	if material.Template != nil {
		name = material.Template.Name
	}
	return &vulkanMaterialBinding{name: name}, nil
}

func (r *RHI) DestroyMaterial(backend interface{}) {}

func (r *RHI) RegisterMaterial(h handle.Handle, backend interface{}) {
	if mb, ok := backend.(*vulkanMaterialBinding); ok {
		r.materials[h] = mb
	}
}

// CreateRenderPass builds a vk.RenderPass from config's attachment list,
// generalizing renderpass.go's hardcoded 2-attachment layout to an
// arbitrary ordered attachment set, with load/store/layout transitions
// chosen per PassPosition the same way the original single-pass bootstrap
// chose them relative to "has previous/next pass" (renderpass.go).
func (r *RHI) CreateRenderPass(config resources.RenderPassConfig, position resources.PassPosition) (interface{}, error) {
	hasPrev := position == resources.PassPositionMiddle || position == resources.PassPositionLast
	hasNext := position == resources.PassPositionFirst || position == resources.PassPositionMiddle

	descriptions := make([]vk.AttachmentDescription, 0, len(config.Attachments))
	colorRefs := make([]vk.AttachmentReference, 0, len(config.Attachments))
	var depthRef *vk.AttachmentReference
	var clearDepth float32
	var clearStencil uint32

	for i, a := range config.Attachments {
		if a.IsDepth() {
			clearDepth = a.ClearDepth
			clearStencil = a.ClearStencil
			desc := vk.AttachmentDescription{
				Format:         r.context.Device.DepthFormat,
				Samples:        vk.SampleCount1Bit,
				LoadOp:         loadOpToVk(a.LoadOp),
				StoreOp:        storeOpToVk(a.StoreOp),
				StencilLoadOp:  vk.AttachmentLoadOpDontCare,
				StencilStoreOp: vk.AttachmentStoreOpDontCare,
				InitialLayout:  vk.ImageLayoutUndefined,
				FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
			}
			descriptions = append(descriptions, desc)
			ref := vk.AttachmentReference{Attachment: uint32(i), Layout: vk.ImageLayoutDepthStencilAttachmentOptimal}
			depthRef = &ref
			continue
		}

		desc := vk.AttachmentDescription{
			Format:         textureFormatToVk(a.Format, r),
			Samples:        vk.SampleCount1Bit,
			LoadOp:         loadOpToVk(a.LoadOp),
			StoreOp:        storeOpToVk(a.StoreOp),
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		}
		if hasPrev {
			desc.InitialLayout = vk.ImageLayoutColorAttachmentOptimal
		}
		if !hasNext {
			desc.FinalLayout = vk.ImageLayoutPresentSrc
		}
		descriptions = append(descriptions, desc)
		colorRefs = append(colorRefs, vk.AttachmentReference{Attachment: uint32(i), Layout: vk.ImageLayoutColorAttachmentOptimal})
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorRefs)),
		PColorAttachments:    colorRefs,
	}
	if depthRef != nil {
		subpass.PDepthStencilAttachment = depthRef
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(descriptions)),
		PAttachments:    descriptions,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var vkPass vk.RenderPass
	if res := vk.CreateRenderPass(r.context.Device.LogicalDevice, &createInfo, r.context.Allocator, &vkPass); !VulkanResultIsSuccess(res) {
		return nil, fmt.Errorf("%w: vkCreateRenderPass failed: %s", core.ErrBackendTransient, VulkanResultString(res, true))
	}
	return &VulkanRenderPass{
		Handle:      vkPass,
		HasPrevPass: hasPrev,
		HasNextPass: hasNext,
		Depth:       clearDepth,
		Stencil:     clearStencil,
		State:       READY,
	}, nil
}

func (r *RHI) DestroyRenderPass(backend interface{}) {
	vrp, ok := backend.(*VulkanRenderPass)
	if !ok || vrp == nil {
		return
	}
	vrp.RenderpassDestroy(r.context)
}

func (r *RHI) RegisterRenderPass(h handle.Handle, backend interface{}) {
	if vrp, ok := backend.(*VulkanRenderPass); ok {
		r.renderPasses[h] = vrp
		delete(r.framebuffers, h)
	}
}

func loadOpToVk(op resources.LoadOp) vk.AttachmentLoadOp {
	switch op {
	case resources.LoadOpClear:
		return vk.AttachmentLoadOpClear
	case resources.LoadOpDontCare:
		return vk.AttachmentLoadOpDontCare
	default:
		return vk.AttachmentLoadOpLoad
	}
}

func storeOpToVk(op resources.StoreOp) vk.AttachmentStoreOp {
	if op == resources.StoreOpDontCare {
		return vk.AttachmentStoreOpDontCare
	}
	return vk.AttachmentStoreOpStore
}

func textureFormatToVk(f resources.TextureFormat, r *RHI) vk.Format {
	switch f {
	case resources.FormatRGBA8Unorm:
		return vk.FormatR8g8b8a8Unorm
	case resources.FormatBGRA8Unorm:
		return vk.FormatB8g8r8a8Unorm
	case resources.FormatRGBA16Float:
		return vk.FormatR16g16b16a16Sfloat
	case resources.FormatD32Float:
		return vk.FormatD32Sfloat
	case resources.FormatD24UnormS8Uint:
		return vk.FormatD24UnormS8Uint
	case resources.FormatSwapchainDepthSentinel:
		return r.context.Device.DepthFormat
	default:
		return r.context.Swapchain.ImageFormat.Format
	}
}

// CreateRenderState builds a graphics pipeline from config's registered
// recipe, resolving its ShaderHandles against r.shaders and its
// VertexAttributes into a vertex input layout (resources/renderstate.go).
func (r *RHI) CreateRenderState(config resources.RenderStateConfig, pass handle.Handle) (interface{}, error) {
	vrp, ok := r.renderPasses[pass]
	if !ok {
		return nil, fmt.Errorf("%w: render pass not registered for render state %q", core.ErrHandleInvalid, config.Name)
	}

	stages := make([]vk.PipelineShaderStageCreateInfo, 0, len(config.ShaderHandles))
	for _, sh := range config.ShaderHandles {
		backend, ok := r.shaders[sh]
		if !ok {
			return nil, fmt.Errorf("%w: shader handle not registered for render state %q", core.ErrHandleInvalid, config.Name)
		}
		stages = append(stages, backend.stageInfo)
	}

	attributes, stride := vertexAttributesToVk(config.VertexAttributes)

	pipeline, err := NewGraphicsPipeline(
		r.context, vrp,
		stride,
		uint32(len(attributes)), attributes,
		0, nil,
		uint32(len(stages)), stages,
		vk.Viewport{Width: float32(r.context.FramebufferWidth), Height: float32(r.context.FramebufferHeight), MinDepth: 0, MaxDepth: 1},
		vk.Rect2D{Extent: vk.Extent2D{Width: r.context.FramebufferWidth, Height: r.context.FramebufferHeight}},
		cullModeForClass(config.MaterialClass),
		false,
		config.PassType != resources.RenderPassUI,
		0, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrBackendTransient, err.Error())
	}
	return pipeline, nil
}

func (r *RHI) DestroyRenderState(backend interface{}) {
	pipeline, ok := backend.(*VulkanPipeline)
	if !ok || pipeline == nil {
		return
	}
	pipeline.Destroy(r.context)
}

func (r *RHI) RegisterRenderState(h handle.Handle, backend interface{}) {
	if pipeline, ok := backend.(*VulkanPipeline); ok {
		r.renderStates[h] = pipeline
	}
}

func cullModeForClass(class resources.MaterialClass) metadata.FaceCullMode {
	if class == resources.MaterialClassUI {
		return metadata.FaceCullModeNone
	}
	return metadata.FaceCullModeBack
}

func vertexAttributesToVk(attrs []resources.VertexAttribute) ([]vk.VertexInputAttributeDescription, uint32) {
	out := make([]vk.VertexInputAttributeDescription, len(attrs))
	var stride uint32
	for i, a := range attrs {
		out[i] = vk.VertexInputAttributeDescription{
			Location: uint32(i),
			Binding:  0,
			Format:   vertexAttributeTypeToVk(a.Type),
			Offset:   a.Offset,
		}
		end := a.Offset + attributeVkSize(a.Type)
		if end > stride {
			stride = end
		}
	}
	return out, stride
}

func vertexAttributeTypeToVk(t resources.VertexAttributeType) vk.Format {
	switch t {
	case resources.AttrFloat32x2:
		return vk.FormatR32g32Sfloat
	case resources.AttrFloat32x4:
		return vk.FormatR32g32b32a32Sfloat
	default:
		return vk.FormatR32g32b32Sfloat
	}
}

func attributeVkSize(t resources.VertexAttributeType) uint32 {
	switch t {
	case resources.AttrFloat32x2:
		return 2 * 4
	case resources.AttrFloat32x4:
		return 4 * 4
	default:
		return 3 * 4
	}
}

// CreateRenderTarget allocates a standalone image the render graph can
// import (e.g. an offscreen post-process target); the swapchain's own
// color/depth images are exposed separately through
// GetCurrentColorRenderTargetHandle/GetDepthRenderTargetHandle.
func (r *RHI) CreateRenderTarget(config resources.RenderTargetConfig) (interface{}, error) {
	usage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) | vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	format := textureFormatToVk(config.Format, r)
	if config.Usage == resources.RenderTargetUsageDepthStencil {
		usage = vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}

	width, height := config.Width, config.Height
	if config.SizingPolicy == resources.SizingRelativeToViewport {
		width, height = r.context.FramebufferWidth, r.context.FramebufferHeight
	}

	img, err := ImageCreate(r.context, vk.ImageType2d, width, height, format,
		vk.ImageTilingOptimal, usage, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), true, aspect)
	if err != nil || img == nil {
		return nil, fmt.Errorf("%w: render target image creation failed", core.ErrBackendTransient)
	}
	return img, nil
}

func (r *RHI) ReleaseRenderTarget(backend interface{}) {
	img, ok := backend.(*VulkanImage)
	if !ok || img == nil {
		return
	}
	img.ImageDestroy(r.context)
}

// GetCurrentColorRenderTargetHandle and GetDepthRenderTargetHandle name the
// swapchain's own, not render-graph-imported, attachments. They are fixed
// sentinel handles: this backend owns exactly one swapchain and one depth
// buffer, recreated in place on resize rather than reallocated under a new
// handle.
func (r *RHI) GetCurrentColorRenderTargetHandle() handle.Handle {
	return handle.Handle{Index: uint32(r.context.ImageIndex) + 100, Generation: 1}
}

func (r *RHI) GetDepthRenderTargetHandle() handle.Handle {
	return r.depthTarget
}
