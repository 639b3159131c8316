package chain_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/slangchain/filterchain/backend/software"
	"github.com/slangchain/filterchain/chain"
	"github.com/slangchain/filterchain/internal/chainerr"
	"github.com/slangchain/filterchain/preset"
	"github.com/slangchain/filterchain/reflect"
)

func passthroughShader(path string) reflect.ShaderSource {
	return reflect.ShaderSource{
		Path:     path,
		Bytecode: []byte("frag:" + path),
		Reflection: reflect.Reflection{
			Textures: []reflect.TextureSlot{{Name: "Source", Slot: 0}},
		},
	}
}

func newIdentityChain(t *testing.T) (*chain.Chain, *software.Device) {
	t.Helper()
	dev := software.NewDevice()
	compiler := reflect.NewStaticCompiler([]reflect.ShaderSource{passthroughShader("pass0.slang")})
	p := &preset.Preset{
		Passes: []preset.Pass{{ShaderPath: "pass0.slang", Format: preset.FormatR8G8B8A8Unorm, Scale: preset.DefaultScaleRule()}},
	}
	c, err := chain.New(dev, compiler, nil, software.NewRecorder(), p, chain.Options{DisableCache: true})
	if err != nil {
		t.Fatalf("chain.New: %v", err)
	}
	return c, dev
}

func fillInput(img *software.Image, r, g, b, a float32) {
	buf := img.Mip0()
	for i := 0; i+3 < len(buf); i += 4 {
		buf[i], buf[i+1], buf[i+2], buf[i+3] = r, g, b, a
	}
}

// A one-pass, no-scale chain should reproduce the input in the output,
// since the software backend's Draw resamples the sole bound texture.
func TestIdentityPass(t *testing.T) {
	c, dev := newIdentityChain(t)
	defer c.Destroy()

	inputIface, err := dev.CreateImage(chain.ImageDescriptor{Width: 4, Height: 4, Format: preset.FormatR8G8B8A8Unorm, MipLevels: 1, Usage: chain.UsageSample})
	if err != nil {
		t.Fatalf("CreateImage input: %v", err)
	}
	input := inputIface.(*software.Image)
	fillInput(input, 0.25, 0.5, 0.75, 1.0)

	outputIface, err := dev.CreateImage(chain.ImageDescriptor{Width: 4, Height: 4, Format: preset.FormatR8G8B8A8Unorm, MipLevels: 1, Usage: chain.UsageRenderTarget})
	if err != nil {
		t.Fatalf("CreateImage output: %v", err)
	}
	output := outputIface.(*software.Image)

	rec := software.NewRecorder()
	vp := chain.Viewport{Width: 4, Height: 4}
	if err := c.Frame(rec, input, output, vp, 0, nil, chain.FrameOptions{}); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	got := output.Mip0()
	if got[0] != 0.25 || got[1] != 0.5 || got[2] != 0.75 || got[3] != 1.0 {
		t.Fatalf("identity pass did not reproduce input, got %v", got[:4])
	}
}

// activePassCount == 0 takes the direct-blit path and must still
// reproduce the input, skipping every configured pass.
func TestDisableAllPasses(t *testing.T) {
	c, dev := newIdentityChain(t)
	defer c.Destroy()

	input := mustImage(t, dev, 4, 4, preset.FormatR8G8B8A8Unorm, chain.UsageSample)
	fillInput(input, 1, 1, 1, 1)
	output := mustImage(t, dev, 4, 4, preset.FormatR8G8B8A8Unorm, chain.UsageRenderTarget)

	c.SetActivePassCount(0)
	rec := software.NewRecorder()
	if err := c.Frame(rec, input, output, chain.Viewport{Width: 4, Height: 4}, 0, nil, chain.FrameOptions{}); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if output.Mip0()[0] != 1 {
		t.Fatalf("disabled chain should blit input straight through")
	}
}

// A pass scaled to half the source resolution that is also the final pass
// draws into the caller's output image at the full viewport.
func TestScalePass(t *testing.T) {
	dev := software.NewDevice()
	compiler := reflect.NewStaticCompiler([]reflect.ShaderSource{passthroughShader("half.slang")})
	p := &preset.Preset{
		Passes: []preset.Pass{{
			ShaderPath: "half.slang",
			Format:     preset.FormatR8G8B8A8Unorm,
			Scale: preset.ScaleRule{
				X: preset.ScaleAxis{Kind: preset.ScaleSource, Factor: 0.5},
				Y: preset.ScaleAxis{Kind: preset.ScaleSource, Factor: 0.5},
			},
		}},
	}
	c, err := chain.New(dev, compiler, nil, software.NewRecorder(), p, chain.Options{DisableCache: true})
	if err != nil {
		t.Fatalf("chain.New: %v", err)
	}
	defer c.Destroy()

	input := mustImage(t, dev, 8, 8, preset.FormatR8G8B8A8Unorm, chain.UsageSample)
	output := mustImage(t, dev, 8, 8, preset.FormatR8G8B8A8Unorm, chain.UsageRenderTarget)

	rec := software.NewRecorder()
	if err := c.Frame(rec, input, output, chain.Viewport{Width: 8, Height: 8}, 0, nil, chain.FrameOptions{}); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	// The sole pass is also the last pass, so its target is the
	// caller-owned output sized at the viewport, not the scaled 4x4
	// intermediate - only multi-pass chains expose an intermediate size.
	if output.Width() != 8 || output.Height() != 8 {
		t.Fatalf("final pass output should be the caller's output image unchanged, got %dx%d", output.Width(), output.Height())
	}
}

// A two-pass chain where pass 1 samples pass 0's output by alias must
// carry the input pixel through pass 0's output into pass 1.
func TestTwoPassChainWithAlias(t *testing.T) {
	dev := software.NewDevice()
	compiler := reflect.NewStaticCompiler([]reflect.ShaderSource{
		passthroughShader("pass0.slang"),
		{
			Path:     "pass1.slang",
			Bytecode: []byte("frag:pass1"),
			Reflection: reflect.Reflection{
				Textures: []reflect.TextureSlot{{Name: "downsample", Slot: 0}},
			},
		},
	})
	p := &preset.Preset{
		Passes: []preset.Pass{
			{ShaderPath: "pass0.slang", Format: preset.FormatR8G8B8A8Unorm, Alias: "downsample", Scale: preset.DefaultScaleRule()},
			{ShaderPath: "pass1.slang", Format: preset.FormatR8G8B8A8Unorm, Scale: preset.DefaultScaleRule()},
		},
	}
	c, err := chain.New(dev, compiler, nil, software.NewRecorder(), p, chain.Options{DisableCache: true})
	if err != nil {
		t.Fatalf("chain.New: %v", err)
	}
	defer c.Destroy()
	if c.PassCount() != 2 {
		t.Fatalf("expected 2 passes, got %d", c.PassCount())
	}

	input := mustImage(t, dev, 4, 4, preset.FormatR8G8B8A8Unorm, chain.UsageSample)
	fillInput(input, 0.1, 0.2, 0.3, 0.4)
	output := mustImage(t, dev, 4, 4, preset.FormatR8G8B8A8Unorm, chain.UsageRenderTarget)

	rec := software.NewRecorder()
	if err := c.Frame(rec, input, output, chain.Viewport{Width: 4, Height: 4}, 0, nil, chain.FrameOptions{}); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	// Neither pass scales or otherwise transforms its input, so the
	// software backend's identity resample carries the original pixel
	// through both passes unchanged.
	got := output.Mip0()
	if got[0] != 0.1 || got[1] != 0.2 || got[2] != 0.3 || got[3] != 0.4 {
		t.Fatalf("expected the two-pass chain to reproduce the input pixel, got %v", got[:4])
	}
}

// A pass reading OriginalHistory0 renders successfully on the first frame,
// when the binding falls back to a 1x1 image, and on later frames, when it
// binds the previous frame's Original copy. Only Frame's error result is
// checked; the bound history image itself is not inspected.
func TestHistoryFallbackThenReal(t *testing.T) {
	dev := software.NewDevice()
	compiler := reflect.NewStaticCompiler([]reflect.ShaderSource{{
		Path:     "history.slang",
		Bytecode: []byte("frag:history"),
		Reflection: reflect.Reflection{
			Textures: []reflect.TextureSlot{
				{Name: "Source", Slot: 0},
				{Name: "OriginalHistory0", Slot: 1},
			},
		},
	}})
	p := &preset.Preset{Passes: []preset.Pass{{ShaderPath: "history.slang", Format: preset.FormatR8G8B8A8Unorm}}}
	c, err := chain.New(dev, compiler, nil, software.NewRecorder(), p, chain.Options{DisableCache: true})
	if err != nil {
		t.Fatalf("chain.New: %v", err)
	}
	defer c.Destroy()

	input := mustImage(t, dev, 2, 2, preset.FormatR8G8B8A8Unorm, chain.UsageSample)
	output := mustImage(t, dev, 2, 2, preset.FormatR8G8B8A8Unorm, chain.UsageRenderTarget)
	rec := software.NewRecorder()

	for frame := uint64(0); frame < 3; frame++ {
		if err := c.Frame(rec, input, output, chain.Viewport{Width: 2, Height: 2}, frame, nil, chain.FrameOptions{}); err != nil {
			t.Fatalf("Frame %d: %v", frame, err)
		}
	}
}

// Parameters can only be set for names the preset declared, and sweeping
// a value across frames must be observable via GetParameter immediately
// and must reach the pass's packed uniform buffer at its reflected offset
// on the very next Frame call.
func TestParameterSweep(t *testing.T) {
	dev := software.NewDevice()
	compiler := reflect.NewStaticCompiler([]reflect.ShaderSource{{
		Path:     "pass0.slang",
		Bytecode: []byte("frag:pass0.slang"),
		Reflection: reflect.Reflection{
			Textures:   []reflect.TextureSlot{{Name: "Source", Slot: 0}},
			UBOMembers: []reflect.UniformMember{{Name: "strength", Offset: 0, Type: reflect.UniformFloat32}},
			UBOSize:    4,
		},
	}})
	p := &preset.Preset{
		Passes:     []preset.Pass{{ShaderPath: "pass0.slang", Format: preset.FormatR8G8B8A8Unorm}},
		Parameters: []preset.Parameter{{Name: "strength", Default: 0.5}},
	}
	rec := software.NewRecorder()
	c, err := chain.New(dev, compiler, nil, rec, p, chain.Options{DisableCache: true})
	if err != nil {
		t.Fatalf("chain.New: %v", err)
	}
	defer c.Destroy()

	if v, ok := c.GetParameter("strength"); !ok || v != 0.5 {
		t.Fatalf("expected default 0.5, got %v ok=%v", v, ok)
	}

	input := mustImage(t, dev, 2, 2, preset.FormatR8G8B8A8Unorm, chain.UsageSample)
	fillInput(input, 0.9, 0.8, 0.7, 0.6)
	output := mustImage(t, dev, 2, 2, preset.FormatR8G8B8A8Unorm, chain.UsageRenderTarget)

	for frame, v := range []float32{0.0, 0.25, 0.75, 1.0} {
		if err := c.SetParameter("strength", v); err != nil {
			t.Fatalf("SetParameter(%v): %v", v, err)
		}
		got, _ := c.GetParameter("strength")
		if got != v {
			t.Fatalf("GetParameter after SetParameter(%v) = %v", v, got)
		}

		if err := c.Frame(rec, input, output, chain.Viewport{Width: 2, Height: 2}, uint64(frame), nil, chain.FrameOptions{}); err != nil {
			t.Fatalf("Frame: %v", err)
		}
		packed := math.Float32frombits(binary.LittleEndian.Uint32(rec.LastUBO[0:4]))
		if packed != v {
			t.Fatalf("expected strength=%v packed into the UBO, got %v", v, packed)
		}
		// The software backend ignores uniform data when resampling, so
		// the swept parameter never changes the rendered pixel - only
		// that it was correctly staged into the UBO.
		if out := output.Mip0(); out[0] != 0.9 || out[1] != 0.8 || out[2] != 0.7 || out[3] != 0.6 {
			t.Fatalf("expected the identity pass to still reproduce the input pixel, got %v", out[:4])
		}
	}

	err = c.SetParameter("does-not-exist", 1)
	if !chainerr.Is(err, chainerr.UnknownParameter) {
		t.Fatalf("expected UnknownParameter, got %v", err)
	}
}

func mustImage(t *testing.T, dev *software.Device, w, h uint32, format preset.Format, usage chain.ImageUsage) *software.Image {
	t.Helper()
	img, err := dev.CreateImage(chain.ImageDescriptor{Width: w, Height: h, Format: format, MipLevels: 1, Usage: usage})
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	return img.(*software.Image)
}
