package vulkan

// buffer.go fills in the buffer creation/upload path that VulkanBuffer
// (declared in context.go) never grew in this codebase: geometry.go only
// ever got as far as the internal bookkeeping struct. Grounded on the same
// create/allocate/bind sequence ImageCreate already follows for images, and
// on command_buffer.go's AllocateAndBeginSingleUse for the staged upload.

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/voidarchitect/corevk/engine/core"
)

func bufferCreate(context *VulkanContext, size uint64, usage vk.BufferUsageFlags, memoryFlags vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	buf := &VulkanBuffer{Usage: usage}

	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &createInfo, context.Allocator, &buf.Handle); !VulkanResultIsSuccess(res) {
		return nil, fmt.Errorf("%w: vkCreateBuffer failed: %s", core.ErrBackendTransient, VulkanResultString(res, true))
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buf.Handle, &requirements)
	requirements.Deref()
	buf.MemoryRequirements = requirements

	memoryType := context.FindMemoryIndex(requirements.MemoryTypeBits, uint32(memoryFlags))
	if memoryType == -1 {
		vk.DestroyBuffer(context.Device.LogicalDevice, buf.Handle, context.Allocator)
		return nil, fmt.Errorf("%w: no suitable memory type for buffer", core.ErrBackendTransient)
	}
	buf.MemoryIndex = memoryType
	buf.MemoryPropertyFlags = uint32(memoryFlags)

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &buf.Memory); !VulkanResultIsSuccess(res) {
		vk.DestroyBuffer(context.Device.LogicalDevice, buf.Handle, context.Allocator)
		return nil, fmt.Errorf("%w: vkAllocateMemory failed: %s", core.ErrBackendTransient, VulkanResultString(res, true))
	}
	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buf.Handle, buf.Memory, 0); !VulkanResultIsSuccess(res) {
		return nil, fmt.Errorf("%w: vkBindBufferMemory failed: %s", core.ErrBackendTransient, VulkanResultString(res, true))
	}
	return buf, nil
}

// bufferLoadData maps host-visible memory directly and copies data in;
// callers that need a device-local buffer instead go through
// bufferUploadViaStaging.
func bufferLoadData(context *VulkanContext, buf *VulkanBuffer, data []byte) error {
	var mapped unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, buf.Memory, 0, vk.DeviceSize(len(data)), 0, &mapped); !VulkanResultIsSuccess(res) {
		return fmt.Errorf("%w: vkMapMemory failed: %s", core.ErrBackendTransient, VulkanResultString(res, true))
	}
	dst := unsafe.Slice((*byte)(mapped), len(data))
	copy(dst, data)
	vk.UnmapMemory(context.Device.LogicalDevice, buf.Memory)
	return nil
}

// bufferUploadViaStaging creates a host-visible staging buffer, copies data
// into it, then records a one-time command buffer copying it into dst
// (expected device-local).
func bufferUploadViaStaging(context *VulkanContext, pool vk.CommandPool, queue vk.Queue, dst *VulkanBuffer, data []byte) error {
	staging, err := bufferCreate(context, uint64(len(data)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return err
	}
	defer bufferDestroy(context, staging)

	if err := bufferLoadData(context, staging, data); err != nil {
		return err
	}

	cmd, err := AllocateAndBeginSingleUse(context, pool)
	if err != nil {
		return err
	}
	region := vk.BufferCopy{SrcOffset: 0, DstOffset: 0, Size: vk.DeviceSize(len(data))}
	vk.CmdCopyBuffer(cmd.Handle, staging.Handle, dst.Handle, 1, []vk.BufferCopy{region})
	return cmd.EndSingleUse(context, pool, queue)
}

func bufferDestroy(context *VulkanContext, buf *VulkanBuffer) {
	if buf == nil {
		return
	}
	if buf.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, buf.Memory, context.Allocator)
		buf.Memory = nil
	}
	if buf.Handle != nil {
		vk.DestroyBuffer(context.Device.LogicalDevice, buf.Handle, context.Allocator)
		buf.Handle = nil
	}
}
