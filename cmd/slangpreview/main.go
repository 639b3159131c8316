//go:build preview

// Command slangpreview opens a live window over a preset/input pair and
// re-renders with the chain built at startup whenever Space is pressed
// (Escape quits), the way the original engine's platform package owns a
// window for the renderer to draw into. The preset is loaded once and is
// not watched or reloaded. It still never touches a swapchain: every
// frame is rendered off-window through the software backend and the
// window exists only to host interaction (re-render, quit) and report
// timing in its title.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/slangchain/filterchain/backend/software"
	"github.com/slangchain/filterchain/internal/corelog"
	"github.com/slangchain/filterchain/preset"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	presetPath := flag.String("preset", "", "path to a TOML slang preset")
	inputPath := flag.String("input", "", "path to an input PNG image")
	outputPath := flag.String("output", "preview.png", "path the rendered frame is written to on every reload")
	flag.Parse()

	if *presetPath == "" || *inputPath == "" {
		fmt.Fprintln(os.Stderr, "usage: slangpreview -preset preset.toml -input in.png [-output preview.png]")
		os.Exit(2)
	}

	if err := run(*presetPath, *inputPath, *outputPath); err != nil {
		corelog.Error("slangpreview failed", "err", err)
		os.Exit(1)
	}
}

func run(presetPath, inputPath, outputPath string) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initializing glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // no GL/Vulkan context: we only present via PNG reload

	window, err := glfw.CreateWindow(480, 320, "slangpreview", nil, nil)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}

	dev := software.NewDevice()
	p, err := preset.Load(presetPath)
	if err != nil {
		return fmt.Errorf("loading preset: %w", err)
	}

	input, width, height, err := loadInput(dev, inputPath)
	if err != nil {
		return fmt.Errorf("loading input: %w", err)
	}

	c, err := buildChain(dev, p)
	if err != nil {
		return err
	}
	defer c.Destroy()

	reload := make(chan struct{}, 1)
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape {
			w.SetShouldClose(true)
			return
		}
		if key == glfw.KeySpace && action == glfw.Press {
			select {
			case reload <- struct{}{}:
			default:
			}
		}
	})

	if err := renderFrame(c, dev, input, width, height, outputPath); err != nil {
		return err
	}
	window.SetTitle(fmt.Sprintf("slangpreview - %s", outputPath))

	for !window.ShouldClose() {
		glfw.PollEvents()
		select {
		case <-reload:
			if err := renderFrame(c, dev, input, width, height, outputPath); err != nil {
				corelog.Warn("re-render failed", "err", err)
				continue
			}
			stats := c.FrameStats()
			window.SetTitle(fmt.Sprintf("slangpreview - frame %d - last %s", stats.Count, stats.LastFrame))
		default:
		}
	}

	return nil
}
