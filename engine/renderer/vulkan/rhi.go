package vulkan

// rhi.go is the engine/rhi.RHI implementation for this backend. It wraps
// VulkanRenderer's device/swapchain bootstrap for the frame lifecycle and
// adapts the fixed single-renderpass assumption the rest of this package
// carries into a data-driven one: render passes, render states, meshes,
// materials and shaders are all created from the resources.*Config structs
// the render graph and resource systems hand it, and tracked in handle-keyed
// registries populated through the Register* calls (engine/rhi.RHI docs).
import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/voidarchitect/corevk/engine/core"
	"github.com/voidarchitect/corevk/engine/handle"
	"github.com/voidarchitect/corevk/engine/platform"
	"github.com/voidarchitect/corevk/engine/resources"
)

// RHI adapts *VulkanRenderer to the engine/rhi.RHI contract.
type RHI struct {
	*VulkanRenderer

	renderPasses map[handle.Handle]*VulkanRenderPass
	renderStates map[handle.Handle]*VulkanPipeline
	shaders      map[handle.Handle]*vulkanShaderBackend
	meshes       map[handle.Handle]*vulkanMeshBuffers
	materials    map[handle.Handle]*vulkanMaterialBinding

	framebuffers map[handle.Handle]*VulkanFramebuffer

	currentPass        handle.Handle
	currentRenderState handle.Handle
	currentFramebuffer *VulkanFramebuffer
	currentCmd         *VulkanCommandBuffer

	depthTarget handle.Handle
}

// NewRHI boots the Vulkan device/swapchain via VulkanRenderer.Initialize and
// returns an adapter ready to back the render graph.
func NewRHI(p *platform.Platform, appName string, width, height uint32) (*RHI, error) {
	renderer := New(p)
	if err := renderer.Initialize(appName, width, height); err != nil {
		return nil, err
	}
	return &RHI{
		VulkanRenderer: renderer,
		renderPasses:   make(map[handle.Handle]*VulkanRenderPass),
		renderStates:   make(map[handle.Handle]*VulkanPipeline),
		shaders:        make(map[handle.Handle]*vulkanShaderBackend),
		meshes:         make(map[handle.Handle]*vulkanMeshBuffers),
		materials:      make(map[handle.Handle]*vulkanMaterialBinding),
		framebuffers:   make(map[handle.Handle]*VulkanFramebuffer),
		depthTarget:    handle.Handle{Index: 1, Generation: 1},
	}, nil
}

// Resize recreates the swapchain and invalidates any cached framebuffers,
// which are rebuilt lazily on the next BeginRenderPass.
func (r *RHI) Resize(width, height uint32) error {
	r.context.FramebufferWidth = width
	r.context.FramebufferHeight = height
	r.context.FramebufferSizeGeneration++
	r.recreateSwapchain()
	for h, fb := range r.framebuffers {
		fb.Destroy(r.context)
		delete(r.framebuffers, h)
	}
	return nil
}

// WaitIdle blocks on the logical device.
func (r *RHI) WaitIdle() error {
	if res := vk.DeviceWaitIdle(r.context.Device.LogicalDevice); !VulkanResultIsSuccess(res) {
		return fmt.Errorf("vkDeviceWaitIdle failed: %s", VulkanResultString(res, true))
	}
	return nil
}

func (r *RHI) BeginFrame(dt float64) (bool, error) {
	if err := r.VulkanRenderer.BeginFrame(dt); err != nil {
		return false, nil
	}
	r.currentCmd = r.context.GraphicsCommandBuffers[r.context.ImageIndex]
	return true, nil
}

func (r *RHI) EndFrame(dt float64) (bool, error) {
	if err := r.VulkanRenderer.EndFrame(dt); err != nil {
		return false, nil
	}
	r.currentCmd = nil
	return true, nil
}

// BeginRenderPass resolves pass to its registered backend object, builds
// (or reuses) the framebuffer for the given target set against the current
// swapchain image, and records vkCmdBeginRenderPass.
func (r *RHI) BeginRenderPass(pass handle.Handle, targets []handle.Handle) error {
	vrp, ok := r.renderPasses[pass]
	if !ok {
		return fmt.Errorf("%w: render pass not registered", core.ErrHandleInvalid)
	}

	fb, err := r.framebufferFor(pass, vrp, targets)
	if err != nil {
		return err
	}

	beginInfo := vk.RenderPassBeginInfo{
		SType:      vk.StructureTypeRenderPassBeginInfo,
		RenderPass: vrp.Handle,
		Framebuffer: fb.Handle,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: r.context.FramebufferWidth, Height: r.context.FramebufferHeight},
		},
	}
	clearValues := make([]vk.ClearValue, fb.AttachmentCount)
	clearValues[0].SetColor([]float32{0, 0, 0, 1})
	if fb.AttachmentCount > 1 {
		clearValues[1].SetDepthStencil(vrp.Depth, vrp.Stencil)
	}
	beginInfo.ClearValueCount = fb.AttachmentCount
	beginInfo.PClearValues = clearValues
	beginInfo.Deref()

	vk.CmdBeginRenderPass(r.currentCmd.Handle, &beginInfo, vk.SubpassContentsInline)
	r.currentCmd.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
	r.currentPass = pass
	r.currentFramebuffer = fb
	return nil
}

func (r *RHI) EndRenderPass() error {
	if r.currentCmd == nil {
		return fmt.Errorf("%w: EndRenderPass called outside a frame", core.ErrHandleInvalid)
	}
	vk.CmdEndRenderPass(r.currentCmd.Handle)
	r.currentCmd.State = COMMAND_BUFFER_STATE_RECORDING
	r.currentPass = handle.Invalid
	r.currentFramebuffer = nil
	return nil
}

func (r *RHI) framebufferFor(pass handle.Handle, vrp *VulkanRenderPass, targets []handle.Handle) (*VulkanFramebuffer, error) {
	if fb, ok := r.framebuffers[pass]; ok {
		return fb, nil
	}

	views := make([]vk.ImageView, 0, len(targets)+1)
	views = append(views, r.context.Swapchain.Views[r.context.ImageIndex])
	if r.context.Swapchain.DepthAttachment != nil {
		views = append(views, r.context.Swapchain.DepthAttachment.View)
	}

	fbCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      vrp.Handle,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           r.context.FramebufferWidth,
		Height:          r.context.FramebufferHeight,
		Layers:          1,
	}

	var vkFb vk.Framebuffer
	if res := vk.CreateFramebuffer(r.context.Device.LogicalDevice, &fbCreateInfo, r.context.Allocator, &vkFb); !VulkanResultIsSuccess(res) {
		return nil, fmt.Errorf("%w: vkCreateFramebuffer failed: %s", core.ErrBackendTransient, VulkanResultString(res, true))
	}
	fb := &VulkanFramebuffer{Handle: vkFb, Attachments: views, AttachmentCount: uint32(len(views))}
	r.framebuffers[pass] = fb
	return fb, nil
}

func (r *RHI) BindRenderState(state handle.Handle) error {
	pipeline, ok := r.renderStates[state]
	if !ok {
		return fmt.Errorf("%w: render state not registered", core.ErrHandleInvalid)
	}
	pipeline.Bind(r.currentCmd, vk.PipelineBindPointGraphics)
	r.currentRenderState = state
	return nil
}

// BindMaterial has no descriptor-set rewiring left to do beyond binding the
// render state: material-level push data is delivered through PushConstants
// in this backend, following the teacher's original push-constant-only
// material model.
func (r *RHI) BindMaterial(material, state handle.Handle) error {
	if _, ok := r.materials[material]; !ok {
		return fmt.Errorf("%w: material not registered", core.ErrHandleInvalid)
	}
	return r.BindRenderState(state)
}

func (r *RHI) BindMesh(mesh handle.Handle) (bool, error) {
	buffers, ok := r.meshes[mesh]
	if !ok {
		return false, nil
	}
	offsets := []vk.DeviceSize{0}
	vk.CmdBindVertexBuffers(r.currentCmd.Handle, 0, 1, []vk.Buffer{buffers.vertex.Handle}, offsets)
	vk.CmdBindIndexBuffer(r.currentCmd.Handle, buffers.index.Handle, 0, vk.IndexTypeUint32)
	return true, nil
}

func (r *RHI) PushConstants(stage resources.ShaderStage, size uint32, data []byte) error {
	if r.currentCmd == nil {
		return fmt.Errorf("%w: PushConstants called outside a render pass", core.ErrHandleInvalid)
	}
	pipeline, ok := r.renderStates[r.currentRenderState]
	if !ok {
		return fmt.Errorf("%w: no render state bound", core.ErrHandleInvalid)
	}
	vk.CmdPushConstants(r.currentCmd.Handle, pipeline.PipelineLayout, shaderStageFlags(stage), 0, size, unsafe.Pointer(&data[0]))
	return nil
}

func (r *RHI) DrawIndexed(indexCount, indexOffset, vertexOffset, instanceCount, firstInstance uint32) error {
	vk.CmdDrawIndexed(r.currentCmd.Handle, indexCount, instanceCount, indexOffset, int32(vertexOffset), firstInstance)
	return nil
}

func shaderStageFlags(stage resources.ShaderStage) vk.ShaderStageFlags {
	switch stage {
	case resources.ShaderStageVertex:
		return vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	case resources.ShaderStagePixel:
		return vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	case resources.ShaderStageCompute:
		return vk.ShaderStageFlags(vk.ShaderStageComputeBit)
	default:
		return vk.ShaderStageFlags(vk.ShaderStageVertexBit) | vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	}
}
