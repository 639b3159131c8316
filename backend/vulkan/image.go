package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/slangchain/filterchain/chain"
	"github.com/slangchain/filterchain/internal/chainerr"
	"github.com/slangchain/filterchain/preset"
)

/**
 * @brief A device-resident 2D image plus the view the rest of the backend
 * binds against. Mirrors the shape of a plain Vulkan image wrapper, scoped
 * down to what the filter chain needs: one mip chain, one array layer, no
 * depth/stencil aspect.
 */
type Image struct {
	dc *DeviceContext

	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView

	width, height uint32
	format        preset.Format
	vkFormat      vk.Format
	mipLevels     uint32
}

func imageUsageFlags(usage chain.ImageUsage) vk.ImageUsageFlagBits {
	var flags vk.ImageUsageFlagBits
	if usage&chain.UsageSample != 0 {
		flags |= vk.ImageUsageSampledBit
	}
	if usage&chain.UsageRenderTarget != 0 {
		flags |= vk.ImageUsageColorAttachmentBit
	}
	if usage&chain.UsageStorage != 0 {
		flags |= vk.ImageUsageStorageBit
	}
	// Mip generation blits between levels of the same image, so both
	// transfer directions are needed whenever UsageMipGen is set.
	if usage&chain.UsageMipGen != 0 {
		flags |= vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit
	}
	return flags
}

// CreateImage allocates a device-local color image with the requested
// extent, format, and mip chain depth.
func (dc *DeviceContext) CreateImage(desc chain.ImageDescriptor) (chain.Image, error) {
	mipLevels := desc.MipLevels
	if mipLevels == 0 {
		mipLevels = 1
	}
	vkFormat := vkFormatFor(desc.Format)

	img := &Image{dc: dc, width: desc.Width, height: desc.Height, format: desc.Format, vkFormat: vkFormat, mipLevels: mipLevels}

	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  desc.Width,
			Height: desc.Height,
			Depth:  1,
		},
		MipLevels:     mipLevels,
		ArrayLayers:   1,
		Format:        vkFormat,
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         vk.ImageUsageFlags(imageUsageFlags(desc.Usage) | vk.ImageUsageTransferDstBit),
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}
	if res := vk.CreateImage(dc.LogicalDevice, &createInfo, dc.Allocator, &img.Handle); res != vk.Success {
		return nil, checkResult(res, "creating image")
	}

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dc.LogicalDevice, img.Handle, &requirements)
	requirements.Deref()

	memoryType := dc.FindMemoryIndex(requirements.MemoryTypeBits, uint32(vk.MemoryPropertyDeviceLocalBit))
	if memoryType == -1 {
		vk.DestroyImage(dc.LogicalDevice, img.Handle, dc.Allocator)
		return nil, chainerr.New(chainerr.AllocationFailed, "no device-local memory type fits this image")
	}

	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	if res := vk.AllocateMemory(dc.LogicalDevice, &allocInfo, dc.Allocator, &img.Memory); res != vk.Success {
		vk.DestroyImage(dc.LogicalDevice, img.Handle, dc.Allocator)
		return nil, checkResult(res, "allocating image memory")
	}
	if res := vk.BindImageMemory(dc.LogicalDevice, img.Handle, img.Memory, 0); res != vk.Success {
		img.Destroy()
		return nil, checkResult(res, "binding image memory")
	}

	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   vkFormat,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     mipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	if res := vk.CreateImageView(dc.LogicalDevice, &viewInfo, dc.Allocator, &img.View); res != vk.Success {
		img.Destroy()
		return nil, checkResult(res, "creating image view")
	}

	return img, nil
}

func (img *Image) Width() uint32         { return img.width }
func (img *Image) Height() uint32        { return img.height }
func (img *Image) Format() preset.Format { return img.format }
func (img *Image) MipLevels() uint32     { return img.mipLevels }

func (img *Image) Destroy() {
	if img.View != nil {
		vk.DestroyImageView(img.dc.LogicalDevice, img.View, img.dc.Allocator)
		img.View = nil
	}
	if img.Memory != nil {
		vk.FreeMemory(img.dc.LogicalDevice, img.Memory, img.dc.Allocator)
		img.Memory = nil
	}
	if img.Handle != nil {
		vk.DestroyImage(img.dc.LogicalDevice, img.Handle, img.dc.Allocator)
		img.Handle = nil
	}
}
