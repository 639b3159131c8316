// Command slangbench renders a single input image through a slang preset
// using the software backend and writes the result to disk. It exists to
// exercise the filter chain runtime end to end without a GPU, the way the
// original engine's bundled testbed exercises the renderer end to end
// without a real game.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/image/draw"

	"github.com/slangchain/filterchain/backend/software"
	"github.com/slangchain/filterchain/chain"
	"github.com/slangchain/filterchain/internal/corelog"
	"github.com/slangchain/filterchain/preset"
	"github.com/slangchain/filterchain/reflect"
)

func main() {
	presetPath := flag.String("preset", "", "path to a TOML slang preset")
	inputPath := flag.String("input", "", "path to an input PNG image")
	outputPath := flag.String("output", "out.png", "path to write the filtered PNG image")
	watch := flag.Bool("watch", false, "reload the preset and re-render whenever it changes on disk")
	scaleWidth := flag.Uint("scale-width", 0, "resample the input to this width before rendering (0 keeps the native size)")
	scaleHeight := flag.Uint("scale-height", 0, "resample the input to this height before rendering (0 keeps the native size)")
	flag.Parse()

	if *presetPath == "" || *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: slangbench -preset preset.toml -input in.png [-output out.png] [-watch] [-scale-width N -scale-height N]")
		os.Exit(2)
	}

	if err := run(*presetPath, *inputPath, *outputPath, *watch, uint32(*scaleWidth), uint32(*scaleHeight)); err != nil {
		corelog.Error("slangbench failed", "err", err)
		os.Exit(1)
	}
}

func run(presetPath, inputPath, outputPath string, watch bool, scaleWidth, scaleHeight uint32) error {
	dev := software.NewDevice()

	p, err := preset.Load(presetPath)
	if err != nil {
		return fmt.Errorf("loading preset: %w", err)
	}

	inputImg, width, height, err := loadImage(dev, inputPath, scaleWidth, scaleHeight)
	if err != nil {
		return fmt.Errorf("loading input image: %w", err)
	}

	c, err := buildChain(dev, p)
	if err != nil {
		return err
	}
	defer c.Destroy()

	if err := renderOnce(c, inputImg, width, height, outputPath); err != nil {
		return err
	}

	if !watch {
		return nil
	}

	w, err := preset.Watch(presetPath)
	if err != nil {
		return fmt.Errorf("watching preset: %w", err)
	}
	defer w.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	corelog.Info("watching preset for changes", "path", presetPath)
	for {
		select {
		case <-sigCh:
			return nil
		case reloaded := <-w.Updates():
			c.Destroy()
			c, err = buildChain(dev, reloaded)
			if err != nil {
				corelog.Error("rebuilding chain after preset reload failed", "err", err)
				continue
			}
			if err := renderOnce(c, inputImg, width, height, outputPath); err != nil {
				corelog.Error("re-render after preset reload failed", "err", err)
			} else {
				corelog.Info("re-rendered after preset reload")
			}
		case err := <-w.Errors():
			corelog.Warn("preset reload error", "err", err)
		}
	}
}

// buildChain compiles p with a fixed passthrough shader table: real
// slang-to-bytecode cross-compilation is the external collaborator the
// runtime expects (reflect.Compiler), and this demo stands in for one
// with a single-texture, no-uniform reflection for every pass's shader
// path so any preset referencing plain fragment shaders renders.
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

func loadImage(dev *software.Device, path string, scaleWidth, scaleHeight uint32) (*software.Image, uint32, uint32, error) {
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

	if scaleWidth != 0 || scaleHeight != 0 {
		targetW, targetH := width, height
		if scaleWidth != 0 {
			targetW = scaleWidth
		}
		if scaleHeight != 0 {
			targetH = scaleHeight
		}
		resized := image.NewRGBA(image.Rect(0, 0, int(targetW), int(targetH)))
		draw.ApproxBiLinear.Scale(resized, resized.Bounds(), src, bounds, draw.Src, nil)
		src = resized
		bounds = resized.Bounds()
		width, height = targetW, targetH
	}

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

func renderOnce(c *chain.Chain, input *software.Image, width, height uint32, outputPath string) error {
	dev := software.NewDevice()
	outIface, err := dev.CreateImage(chain.ImageDescriptor{Width: width, Height: height, Format: input.Format(), MipLevels: 1, Usage: chain.UsageRenderTarget})
	if err != nil {
		return err
	}
	output := outIface.(*software.Image)
	defer output.Destroy()

	rec := software.NewRecorder()
	vp := chain.Viewport{Width: width, Height: height}
	if err := c.Frame(rec, input, output, vp, 0, nil, chain.FrameOptions{}); err != nil {
		return fmt.Errorf("rendering frame: %w", err)
	}

	return writePNG(output, outputPath)
}

func writePNG(img *software.Image, path string) error {
	w, h := int(img.Width()), int(img.Height())
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := img.Mip0()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := (y*w + x) * 4
			out.SetRGBA(x, y, rgbaFromFloat(buf[off], buf[off+1], buf[off+2], buf[off+3]))
		}
	}

	f, err := os.Create(path)
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
