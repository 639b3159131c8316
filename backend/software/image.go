// Package software implements chain.Capabilities and chain.CommandRecorder
// purely in Go, with no GPU device. It exists so the filter chain runtime
// can be exercised deterministically and byte-exactly in tests: every
// image is an in-memory float32 RGBA buffer, and Draw resamples whichever
// texture is bound to the lowest slot into the current render target.
// It deliberately does not interpret shader bytecode — running actual
// slang-derived shader code is out of scope — so it is not a
// stand-in for a real rendering backend, only for the scheduling and
// resource-management logic around one.
package software

import "github.com/slangchain/filterchain/preset"

// Image is the software backend's chain.Image: a stack of mip levels,
// each a tightly packed, row-major float32 RGBA buffer in [0, 1] (for
// Unorm formats) or arbitrary range (for Sfloat formats).
type Image struct {
	width, height uint32
	format        preset.Format
	mips          [][]float32 // mips[i] has length mipWidth(i)*mipHeight(i)*4
}

func mipDim(base, level uint32) uint32 {
	d := base >> level
	if d == 0 {
		d = 1
	}
	return d
}

func newImage(width, height uint32, format preset.Format, mipLevels uint32) *Image {
	if mipLevels == 0 {
		mipLevels = 1
	}
	mips := make([][]float32, mipLevels)
	for i := range mips {
		w, h := mipDim(width, uint32(i)), mipDim(height, uint32(i))
		mips[i] = make([]float32, int(w)*int(h)*4)
	}
	return &Image{width: width, height: height, format: format, mips: mips}
}

func (img *Image) Width() uint32      { return img.width }
func (img *Image) Height() uint32     { return img.height }
func (img *Image) Format() preset.Format { return img.format }
func (img *Image) MipLevels() uint32  { return uint32(len(img.mips)) }
func (img *Image) Destroy()           { img.mips = nil }

// Mip0 exposes the base level's RGBA buffer, read-only by convention, for
// test assertions.
func (img *Image) Mip0() []float32 { return img.mips[0] }

func (img *Image) mipSize(level uint32) (uint32, uint32) {
	return mipDim(img.width, level), mipDim(img.height, level)
}
