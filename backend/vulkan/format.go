package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/slangchain/filterchain/preset"
)

// vkFormatFor maps a nominal preset.Format to its Vulkan equivalent.
// Every chain.Capabilities.ClosestFormat call in this backend resolves to
// one of these, so the mapping is total.
func vkFormatFor(f preset.Format) vk.Format {
	switch f {
	case preset.FormatR16G16B16A16Sfloat:
		return vk.FormatR16g16b16a16Sfloat
	case preset.FormatR32G32B32A32Sfloat:
		return vk.FormatR32g32b32a32Sfloat
	case preset.FormatR8Unorm:
		return vk.FormatR8Unorm
	case preset.FormatR16Sfloat:
		return vk.FormatR16Sfloat
	case preset.FormatR8G8B8A8Unorm, preset.FormatUnknown:
		fallthrough
	default:
		return vk.FormatR8g8b8a8Unorm
	}
}

func vkWrapMode(w preset.WrapMode) vk.SamplerAddressMode {
	switch w {
	case preset.WrapClampToEdge:
		return vk.SamplerAddressModeClampToEdge
	case preset.WrapRepeat:
		return vk.SamplerAddressModeRepeat
	case preset.WrapMirroredRepeat:
		return vk.SamplerAddressModeMirroredRepeat
	case preset.WrapClampToBorder:
		fallthrough
	default:
		return vk.SamplerAddressModeClampToBorder
	}
}

func vkFilter(f preset.FilterMode) vk.Filter {
	if f == preset.FilterNearest {
		return vk.FilterNearest
	}
	return vk.FilterLinear
}

func vkMipMode(m preset.MipFilter) vk.SamplerMipmapMode {
	if m == preset.MipNearest {
		return vk.SamplerMipmapModeNearest
	}
	return vk.SamplerMipmapModeLinear
}
