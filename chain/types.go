// Package chain implements the filter chain runtime: the
// per-pass scheduling, resource/layout management, reflection-driven
// binding, framebuffer sizing/recycling, history/feedback management, and
// the frame driver that ties them together. It is polymorphic over the
// graphics backend through the Capabilities interface (capability.go);
// backend/vulkan and backend/software both implement it.
package chain

import "github.com/slangchain/filterchain/preset"

// Viewport is the caller-supplied output rectangle, applied only to the
// final pass.
type Viewport struct {
	X, Y          float32
	Width, Height uint32
}

// Options configures chain construction.
type Options struct {
	// ForceNoMipmaps overrides every pass's mipmap=true to false.
	ForceNoMipmaps bool
	// ForceNativeHLSLPipeline selects the HLSL path over DXIL on
	// D3D12-family backends; ignored by backends that don't recognize it.
	ForceNativeHLSLPipeline bool
	// DisableCache skips the persistent pipeline-object cache.
	DisableCache bool
	// GLSLVersion is a target GLSL version hint for GL backends.
	GLSLVersion uint16
	// UseDSA prefers direct-state-access GL paths.
	UseDSA bool
	// DebugHUD lays out frame timing (frame count, last and average frame
	// time) as glyph quads returned by Chain.HUDQuads for the backend to
	// draw. Never affects pixel output when false.
	DebugHUD bool
	// DebugHUDFontPath is the .fnt bitmap font descriptor DebugHUD loads.
	// Ignored when DebugHUD is false. A chain with DebugHUD set but an
	// empty path renders without a HUD rather than failing construction.
	DebugHUDFontPath string
	// CacheDir is the directory the pipeline-object cache is stored under.
	// Defaults to an OS temp subdirectory when empty.
	CacheDir string
	// VertexBytecode is the full-screen-quad vertex shader every pass's
	// pipeline shares. Backends that synthesize clip-space positions from
	// the vertex index instead of a bound vertex buffer
	// require exactly one of these per chain, not one per pass.
	VertexBytecode []byte
}

// FrameOptions configures one Frame call.
type FrameOptions struct {
	ClearHistory   bool
	FrameDirection int32
}

// normalizedFrameDirection maps any int32 to {-1, +1}, with 0 treated as
// +1.
func normalizedFrameDirection(d int32) int32 {
	if d < 0 {
		return -1
	}
	return 1
}

// ImageUsage is a bitset of how an image will be used, consulted by
// Capabilities.ClosestFormat when picking a device-supported format.
type ImageUsage uint8

const (
	UsageSample ImageUsage = 1 << iota
	UsageRenderTarget
	UsageMipGen
	UsageStorage
)

// ImageDescriptor fully describes an intermediate image to be created
// through Capabilities.CreateImage.
type ImageDescriptor struct {
	Width, Height uint32
	Format        preset.Format
	MipLevels     uint32
	Usage         ImageUsage
}

// SamplerKey is the sampler cache's canonical key.
type SamplerKey struct {
	Wrap   preset.WrapMode
	Min    preset.FilterMode
	Mag    preset.FilterMode
	Mip    preset.MipFilter
}
