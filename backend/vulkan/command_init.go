package vulkan

import vk "github.com/goki/vulkan"

// allocateAndBeginSingleUse allocates a primary command buffer from the
// device's upload pool and begins one-time-submit recording, mirroring
// the allocate/begin/submit/free shape of a short-lived init command.
func (dc *DeviceContext) allocateAndBeginSingleUse() (vk.CommandBuffer, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        dc.uploadPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	buffers := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(dc.LogicalDevice, &allocInfo, buffers); res != vk.Success {
		return nil, checkResult(res, "allocating single-use command buffer")
	}
	cb := buffers[0]

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(cb, &beginInfo); res != vk.Success {
		vk.FreeCommandBuffers(dc.LogicalDevice, dc.uploadPool, 1, buffers)
		return nil, checkResult(res, "beginning single-use command buffer")
	}
	return cb, nil
}

// endSingleUseAndSubmit ends recording, submits cb to the graphics queue,
// waits for it to finish, and frees it.
func (dc *DeviceContext) endSingleUseAndSubmit(cb vk.CommandBuffer) error {
	if res := vk.EndCommandBuffer(cb); res != vk.Success {
		return checkResult(res, "ending single-use command buffer")
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb},
	}
	if res := vk.QueueSubmit(dc.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, nil); res != vk.Success {
		return checkResult(res, "submitting single-use command buffer")
	}
	if res := vk.QueueWaitIdle(dc.GraphicsQueue); res != vk.Success {
		return checkResult(res, "waiting for single-use command buffer")
	}

	vk.FreeCommandBuffers(dc.LogicalDevice, dc.uploadPool, 1, []vk.CommandBuffer{cb})
	return nil
}
