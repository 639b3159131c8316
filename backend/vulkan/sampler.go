package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/slangchain/filterchain/chain"
)

// Sampler wraps a single vk.Sampler handle. The SamplerCache in package
// chain interns these by chain.SamplerKey so at most MaxSamplerEntries
// ever exist per chain.
type Sampler struct {
	dc     *DeviceContext
	Handle vk.Sampler
}

// CreateSampler builds a sampler for one (wrap, min, mag, mip) combination.
func (dc *DeviceContext) CreateSampler(key chain.SamplerKey) (chain.Sampler, error) {
	addressMode := vkWrapMode(key.Wrap)
	createInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MinFilter:               vkFilter(key.Min),
		MagFilter:               vkFilter(key.Mag),
		AddressModeU:            addressMode,
		AddressModeV:            addressMode,
		AddressModeW:            addressMode,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		BorderColor:             vk.BorderColorFloatTransparentBlack,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vkMipMode(key.Mip),
		MipLodBias:              0,
		MinLod:                  0,
		MaxLod:                  vk.LodClampNone,
	}

	s := &Sampler{dc: dc}
	if res := vk.CreateSampler(dc.LogicalDevice, &createInfo, dc.Allocator, &s.Handle); res != vk.Success {
		return nil, checkResult(res, "creating sampler")
	}
	return s, nil
}

func (s *Sampler) Destroy() {
	if s.Handle != nil {
		vk.DestroySampler(s.dc.LogicalDevice, s.Handle, s.dc.Allocator)
		s.Handle = nil
	}
}
