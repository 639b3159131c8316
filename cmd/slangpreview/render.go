//go:build preview

package main

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/slangchain/filterchain/backend/software"
	"github.com/slangchain/filterchain/chain"
	"github.com/slangchain/filterchain/preset"
	"github.com/slangchain/filterchain/reflect"
)

// buildChain stands in for real slang cross-compilation the same way
// slangbench's does: a fixed single-texture, no-uniform reflection for
// every distinct shader path the preset references.
func buildChain(dev *software.Device, p *preset.Preset) (*chain.Chain, error) {
	sources := make([]reflect.ShaderSource, 0, len(p.Passes))
	seen := make(map[string]bool, len(p.Passes))
	for _, pass := range p.Passes {
		if seen[pass.ShaderPath] {
			continue
		}
		seen[pass.ShaderPath] = true
		sources = append(sources, reflect.ShaderSource{
			Path:     pass.ShaderPath,
			Bytecode: []byte("frag:" + pass.ShaderPath),
			Reflection: reflect.Reflection{
				Textures: []reflect.TextureSlot{{Name: "Source", Slot: 0}},
			},
		})
	}
	compiler := reflect.NewStaticCompiler(sources)
	return chain.New(dev, compiler, nil, software.NewRecorder(), p, chain.Options{DisableCache: true})
}

func loadInput(dev *software.Device, path string) (*software.Image, uint32, uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, err
	}

	bounds := src.Bounds()
	width, height := uint32(bounds.Dx()), uint32(bounds.Dy())
	pixels := make([]byte, int(width)*int(height)*4)
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, g, b, a := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := (y*int(width) + x) * 4
			pixels[off] = byte(r >> 8)
			pixels[off+1] = byte(g >> 8)
			pixels[off+2] = byte(b >> 8)
			pixels[off+3] = byte(a >> 8)
		}
	}

	imgIface, err := dev.CreateImage(chain.ImageDescriptor{
		Width: width, Height: height, Format: preset.FormatR8G8B8A8Unorm, MipLevels: 1, Usage: chain.UsageSample,
	})
	if err != nil {
		return nil, 0, 0, err
	}
	img := imgIface.(*software.Image)
	if err := dev.UploadImageData(img, pixels); err != nil {
		return nil, 0, 0, err
	}
	return img, width, height, nil
}

func renderFrame(c *chain.Chain, dev *software.Device, input *software.Image, width, height uint32, outputPath string) error {
	outIface, err := dev.CreateImage(chain.ImageDescriptor{Width: width, Height: height, Format: input.Format(), MipLevels: 1, Usage: chain.UsageRenderTarget})
	if err != nil {
		return err
	}
	output := outIface.(*software.Image)
	defer output.Destroy()

	rec := software.NewRecorder()
	vp := chain.Viewport{Width: width, Height: height}
	if err := c.Frame(rec, input, output, vp, 0, nil, chain.FrameOptions{}); err != nil {
		return err
	}

	w, h := int(output.Width()), int(output.Height())
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := output.Mip0()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := (y*w + x) * 4
			out.SetRGBA(x, y, rgbaFromFloat(buf[off], buf[off+1], buf[off+2], buf[off+3]))
		}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, out)
}

func rgbaFromFloat(r, g, b, a float32) color.RGBA {
	clamp := func(v float32) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v * 255)
	}
	return color.RGBA{R: clamp(r), G: clamp(g), B: clamp(b), A: clamp(a)}
}
