package software

import (
	"encoding/binary"
	"math"

	"github.com/slangchain/filterchain/chain"
	"github.com/slangchain/filterchain/internal/chainerr"
	"github.com/slangchain/filterchain/preset"
)

// Sampler is the software backend's chain.Sampler: sampling parameters are
// consulted by nothing (Draw always nearest-samples), but the value is
// still interned by chain.SamplerCache so MaxSamplerEntries is exercised
// the same as a real backend.
type Sampler struct {
	Key chain.SamplerKey
}

// Pipeline is the software backend's chain.Pipeline. It carries no
// executable code: the software backend's Draw ignores shader bytecode
// entirely (see package doc).
type Pipeline struct {
	TargetFormat preset.Format
}

func (p *Pipeline) Destroy() {}

// Device implements chain.Capabilities with no GPU device underneath.
type Device struct{}

func NewDevice() *Device { return &Device{} }

func (d *Device) Name() string { return "software" }

func (d *Device) CreateImage(desc chain.ImageDescriptor) (chain.Image, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, chainerr.New(chainerr.AllocationFailed, "cannot create a zero-sized image")
	}
	return newImage(desc.Width, desc.Height, desc.Format, desc.MipLevels), nil
}

func (d *Device) CreateSampler(key chain.SamplerKey) (chain.Sampler, error) {
	return &Sampler{Key: key}, nil
}

func (d *Device) CreatePipeline(desc chain.PipelineDescriptor) (chain.Pipeline, error) {
	return &Pipeline{TargetFormat: desc.TargetFormat}, nil
}

// ClosestFormat always honors the caller's nominal format: the software
// backend has no device-imposed format restrictions.
func (d *Device) ClosestFormat(nominal preset.Format, usage chain.ImageUsage) preset.Format {
	if nominal == preset.FormatUnknown {
		return preset.FormatR8G8B8A8Unorm
	}
	return nominal
}

// channelsFor reports how many color channels a format carries.
func channelsFor(format preset.Format) int {
	switch format {
	case preset.FormatR8Unorm, preset.FormatR16Sfloat:
		return 1
	default:
		return 4
	}
}

// isUnorm reports whether a format's on-disk representation is an 8-bit
// unsigned normalized integer per channel; every other format is treated
// as packed float32 per channel in this reference backend (see package
// doc: the software backend is not a bit-exact GPU format emulator).
func isUnorm(format preset.Format) bool {
	return format == preset.FormatR8G8B8A8Unorm || format == preset.FormatR8Unorm
}

// UploadImageData decodes tightly packed pixel data into img's base mip
// level, used once at LUT load time.
func (d *Device) UploadImageData(img chain.Image, pixels []byte) error {
	si, ok := img.(*Image)
	if !ok {
		return chainerr.New(chainerr.InvalidParameter, "UploadImageData given an image not created by this device")
	}

	channels := channelsFor(si.format)
	bytesPerChannel := 4
	if isUnorm(si.format) {
		bytesPerChannel = 1
	}
	stride := channels * bytesPerChannel
	count := int(si.width) * int(si.height)
	if len(pixels) < count*stride {
		return chainerr.New(chainerr.InvalidParameter, "pixel data shorter than width*height*stride")
	}

	dst := si.mips[0]
	for i := 0; i < count; i++ {
		base := i * stride
		var rgba [4]float32
		rgba[3] = 1
		for c := 0; c < channels; c++ {
			off := base + c*bytesPerChannel
			if isUnorm(si.format) {
				rgba[c] = float32(pixels[off]) / 255
			} else {
				rgba[c] = math.Float32frombits(binary.LittleEndian.Uint32(pixels[off:]))
			}
		}
		copy(dst[i*4:i*4+4], rgba[:])
	}
	return nil
}
