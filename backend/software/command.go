package software

import "github.com/slangchain/filterchain/chain"

type boundTexture struct {
	img     *Image
	sampler *Sampler
}

// Recorder implements chain.CommandRecorder by performing every "draw"
// as an immediate, synchronous resample — there is no command buffer to
// defer into, which is exactly what makes this backend useful for tests.
type Recorder struct {
	target   *Image
	vpX, vpY float32
	vpW, vpH uint32
	textures map[uint32]*boundTexture

	LastUBO          []byte
	LastPushConstant []byte
}

func NewRecorder() *Recorder {
	return &Recorder{textures: make(map[uint32]*boundTexture)}
}

func (r *Recorder) TransitionToShaderRead(img chain.Image) {}

func (r *Recorder) TransitionToRenderTarget(img chain.Image) {
	r.target = img.(*Image)
}

func (r *Recorder) BindPipeline(p chain.Pipeline) {}

func (r *Recorder) BindTexture(slot uint32, img chain.Image, s chain.Sampler) {
	sampler, _ := s.(*Sampler)
	r.textures[slot] = &boundTexture{img: img.(*Image), sampler: sampler}
}

func (r *Recorder) SetUniformData(ubo []byte, pushConstant []byte) {
	r.LastUBO = ubo
	r.LastPushConstant = pushConstant
}

func (r *Recorder) SetViewport(x, y float32, w, h uint32) {
	r.vpX, r.vpY, r.vpW, r.vpH = x, y, w, h
}

// primaryTexture returns the texture bound to the lowest slot number,
// this backend's stand-in for "the shader's main input" since it does
// not execute real shader code (see package doc).
func (r *Recorder) primaryTexture() *boundTexture {
	var best *boundTexture
	var bestSlot uint32
	first := true
	for slot, tex := range r.textures {
		if first || slot < bestSlot {
			best, bestSlot, first = tex, slot, false
		}
	}
	return best
}

func (r *Recorder) Draw() {
	if r.target == nil {
		return
	}
	tex := r.primaryTexture()
	if tex == nil {
		return
	}
	resized := resizeNearest(tex.img.mips[0], tex.img.width, tex.img.height, r.vpW, r.vpH)
	copy(r.target.mips[0], resized)
}

func (r *Recorder) GenerateMipmaps(img chain.Image) {
	si := img.(*Image)
	for lvl := 1; lvl < len(si.mips); lvl++ {
		srcW, srcH := si.mipSize(uint32(lvl - 1))
		down, _, _ := boxDownsample(si.mips[lvl-1], srcW, srcH)
		copy(si.mips[lvl], down)
	}
}

func (r *Recorder) Blit(src, dst chain.Image, vp chain.Viewport) {
	s := src.(*Image)
	d := dst.(*Image)
	w, h := vp.Width, vp.Height
	if w == 0 {
		w = d.width
	}
	if h == 0 {
		h = d.height
	}
	resized := resizeNearest(s.mips[0], s.width, s.height, w, h)
	copy(d.mips[0], resized)
}
