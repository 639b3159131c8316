// Package vulkan implements chain.Capabilities and chain.CommandRecorder
// against a real Vulkan device via github.com/goki/vulkan. It owns no
// instance, physical device, surface, or swapchain: those are an external
// collaborator's responsibility, so DeviceContext
// is constructed from handles the caller already has open.
package vulkan

import (
	"strconv"

	vk "github.com/goki/vulkan"

	"github.com/slangchain/filterchain/internal/chainerr"
	"github.com/slangchain/filterchain/internal/corelog"
)

/**
 * @brief The handles this backend needs from an already-initialized
 * Vulkan device. The caller owns their lifetime; Destroy on the backend
 * types never touches these.
 */
type DeviceContext struct {
	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device
	Allocator      *vk.AllocationCallbacks
	GraphicsQueue  vk.Queue

	// uploadPool backs the short-lived single-use command buffers
	// UploadImageData needs to copy staging data into a device-local
	// image. It is this backend's own pool, separate from whatever pool
	// the caller allocates its per-frame CommandRecorder buffers from:
	// this is a one-time init-time path, not the per-frame stream.
	uploadPool vk.CommandPool

	memoryProperties vk.PhysicalDeviceMemoryProperties
}

// NewDeviceContext captures a device's memory properties once so
// FindMemoryIndex doesn't re-query the driver on every allocation, and
// opens the small command pool UploadImageData uses.
func NewDeviceContext(physical vk.PhysicalDevice, logical vk.Device, allocator *vk.AllocationCallbacks, graphicsQueue vk.Queue, graphicsQueueFamily uint32) (*DeviceContext, error) {
	dc := &DeviceContext{
		PhysicalDevice: physical,
		LogicalDevice:  logical,
		Allocator:      allocator,
		GraphicsQueue:  graphicsQueue,
	}
	vk.GetPhysicalDeviceMemoryProperties(physical, &dc.memoryProperties)
	dc.memoryProperties.Deref()

	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: graphicsQueueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
	}
	if res := vk.CreateCommandPool(logical, &poolInfo, allocator, &dc.uploadPool); res != vk.Success {
		return nil, checkResult(res, "creating upload command pool")
	}
	return dc, nil
}

// Close releases the upload command pool. It does not touch any handle
// the caller passed to NewDeviceContext.
func (dc *DeviceContext) Close() {
	if dc.uploadPool != nil {
		vk.DestroyCommandPool(dc.LogicalDevice, dc.uploadPool, dc.Allocator)
		dc.uploadPool = nil
	}
}

// FindMemoryIndex returns the first memory type satisfying both
// typeFilter's bitmask and propertyFlags, or -1 if none does.
func (dc *DeviceContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	for i := uint32(0); i < dc.memoryProperties.MemoryTypeCount; i++ {
		dc.memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(dc.memoryProperties.MemoryTypes[i].PropertyFlags)&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	corelog.Warn("unable to find a suitable Vulkan memory type")
	return -1
}

func checkResult(res vk.Result, action string) error {
	if res != vk.Success {
		return chainerr.New(chainerr.DeviceLost, action+" failed with Vulkan result "+vkResultString(res))
	}
	return nil
}

func vkResultString(res vk.Result) string {
	switch res {
	case vk.ErrorOutOfHostMemory:
		return "ErrorOutOfHostMemory"
	case vk.ErrorOutOfDeviceMemory:
		return "ErrorOutOfDeviceMemory"
	case vk.ErrorDeviceLost:
		return "ErrorDeviceLost"
	default:
		return "code " + strconv.Itoa(int(res))
	}
}
