package chain

import "github.com/slangchain/filterchain/preset"

// Image is an opaque backend-owned 2D texture plus the metadata the core
// needs without reaching into backend internals.
type Image interface {
	Width() uint32
	Height() uint32
	Format() preset.Format
	MipLevels() uint32
	Destroy()
}

// Sampler is an opaque backend-owned sampler handle.
type Sampler interface{}

// Pipeline is an opaque backend-owned pipeline state object for one pass.
type Pipeline interface {
	Destroy()
}

// PipelineDescriptor is everything a backend needs to build a Pipeline for
// one pass: the shader bytecode for each stage and the render target
// format it will draw into.
type PipelineDescriptor struct {
	VertexBytecode   []byte
	FragmentBytecode []byte
	TargetFormat     preset.Format
	CacheKey         string
}

// Capabilities is the polymorphism seam the filter chain core is written
// against: {create-image, create-sampler, create-pipeline,
// record-draw, record-transition, generate-mipmaps}. Each backend supplies
// exactly these operations; the core's frame algorithm (frame_driver.go)
// has exactly one implementation parameterized over this interface.
type Capabilities interface {
	Name() string
	CreateImage(desc ImageDescriptor) (Image, error)
	CreateSampler(key SamplerKey) (Sampler, error)
	CreatePipeline(desc PipelineDescriptor) (Pipeline, error)
	// ClosestFormat resolves a nominal format to the closest one the
	// device supports for the given usage, per the tie-break rules in
	// (prefer exact bit-width, then the caller's format over
	// any promoted one).
	ClosestFormat(nominal preset.Format, usage ImageUsage) preset.Format
	// UploadImageData copies tightly-packed pixel data into img, used once
	// at LUT load time. It does not participate in
	// the per-frame command stream.
	UploadImageData(img Image, pixels []byte) error
}

// CommandRecorder is the caller-owned command stream the frame driver
// records into. All side effects of Frame are confined to
// calls made against this interface.
type CommandRecorder interface {
	TransitionToShaderRead(img Image)
	TransitionToRenderTarget(img Image)
	BindPipeline(p Pipeline)
	BindTexture(slot uint32, img Image, s Sampler)
	SetUniformData(ubo []byte, pushConstant []byte)
	SetViewport(x, y float32, w, h uint32)
	// Draw records a full-screen quad (4 vertices, triangle strip).
	Draw()
	GenerateMipmaps(img Image)
	// Blit records a scaled copy of src into dst, used for the
	// active-pass-count==0 direct-blit path.
	Blit(src Image, dst Image, vp Viewport)
}
