package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/slangchain/filterchain/chain"
	"github.com/slangchain/filterchain/internal/chainerr"
	"github.com/slangchain/filterchain/preset"
)

func (dc *DeviceContext) Name() string { return "vulkan" }

// ClosestFormat resolves to whichever Vulkan format the requested nominal
// format maps to; this backend does not query device format support
// tables and simply trusts vkFormatFor's fixed mapping.
func (dc *DeviceContext) ClosestFormat(nominal preset.Format, usage chain.ImageUsage) preset.Format {
	if nominal == preset.FormatUnknown {
		return preset.FormatR8G8B8A8Unorm
	}
	return nominal
}

func imageAspect() vk.ImageAspectFlags { return vk.ImageAspectFlags(vk.ImageAspectColorBit) }

func (dc *DeviceContext) transitionLayout(cb vk.CommandBuffer, img *Image, oldLayout, newLayout vk.ImageLayout, srcAccess, dstAccess vk.AccessFlagBits, srcStage, dstStage vk.PipelineStageFlagBits) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.Handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     imageAspect(),
			BaseMipLevel:   0,
			LevelCount:     img.mipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		SrcAccessMask: vk.AccessFlags(srcAccess),
		DstAccessMask: vk.AccessFlags(dstAccess),
	}
	vk.CmdPipelineBarrier(cb, vk.PipelineStageFlags(srcStage), vk.PipelineStageFlags(dstStage), 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

// UploadImageData copies tightly packed pixel data into img through a
// temporary host-visible staging buffer, used once per LUT at chain
// construction.
func (dc *DeviceContext) UploadImageData(image chain.Image, pixels []byte) error {
	img, ok := image.(*Image)
	if !ok {
		return chainerr.New(chainerr.InvalidParameter, "UploadImageData given an image not created by this backend")
	}

	var staging vk.Buffer
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(len(pixels)),
		Usage:       vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		SharingMode: vk.SharingModeExclusive,
	}
	if res := vk.CreateBuffer(dc.LogicalDevice, &bufferInfo, dc.Allocator, &staging); res != vk.Success {
		return checkResult(res, "creating staging buffer")
	}
	defer vk.DestroyBuffer(dc.LogicalDevice, staging, dc.Allocator)

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dc.LogicalDevice, staging, &requirements)
	requirements.Deref()

	memoryType := dc.FindMemoryIndex(requirements.MemoryTypeBits, uint32(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if memoryType == -1 {
		return chainerr.New(chainerr.AllocationFailed, "no host-visible memory type for staging buffer")
	}

	var stagingMemory vk.DeviceMemory
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	if res := vk.AllocateMemory(dc.LogicalDevice, &allocInfo, dc.Allocator, &stagingMemory); res != vk.Success {
		return checkResult(res, "allocating staging buffer memory")
	}
	defer vk.FreeMemory(dc.LogicalDevice, stagingMemory, dc.Allocator)

	if res := vk.BindBufferMemory(dc.LogicalDevice, staging, stagingMemory, 0); res != vk.Success {
		return checkResult(res, "binding staging buffer memory")
	}

	var mapped unsafe.Pointer
	if res := vk.MapMemory(dc.LogicalDevice, stagingMemory, 0, vk.DeviceSize(len(pixels)), 0, &mapped); res != vk.Success {
		return checkResult(res, "mapping staging buffer memory")
	}
	vk.Memcopy(mapped, pixels)
	vk.UnmapMemory(dc.LogicalDevice, stagingMemory)

	cb, err := dc.allocateAndBeginSingleUse()
	if err != nil {
		return err
	}

	dc.transitionLayout(cb, img, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal,
		0, vk.AccessTransferWriteBit, vk.PipelineStageTopOfPipeBit, vk.PipelineStageTransferBit)

	region := vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     imageAspect(),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{Width: img.width, Height: img.height, Depth: 1},
	}
	vk.CmdCopyBufferToImage(cb, staging, img.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})

	dc.transitionLayout(cb, img, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal,
		vk.AccessTransferWriteBit, vk.AccessShaderReadBit, vk.PipelineStageTransferBit, vk.PipelineStageFragmentShaderBit)

	return dc.endSingleUseAndSubmit(cb)
}
