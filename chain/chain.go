package chain

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/slangchain/filterchain/internal/chainerr"
	"github.com/slangchain/filterchain/internal/corelog"
	"github.com/slangchain/filterchain/preset"
	"github.com/slangchain/filterchain/reflect"
)

// Chain is a fully constructed filter chain: one preset, compiled against
// one device, ready to render frames. It owns every
// intermediate resource the preset needs and is safe for concurrent
// SetParameter/GetParameter calls, but Frame itself is single-writer —
// concurrent Frame calls on the same Chain serialize rather than race.
type Chain struct {
	ID uuid.UUID

	caps          Capabilities
	plan          *CompiledPlan
	pool          *FramebufferPool
	samplers      *SamplerCache
	driver        *FrameDriver
	params        *ParameterRegistry
	pipelineCache *PipelineCache
	pipelines     []Pipeline
	luts          []LoadedLut
	timer         *frameTimer
	hud           *DebugHUD

	mu sync.Mutex
}

// New compiles p against caps and allocates every resource the chain
// needs up front: shader bytecode and bindings (via shaders), LUT images
// (via lutDecoder and initRec), and pipeline state objects. Unless
// opts.DisableCache is set it opens the pipeline-cache directory, and each
// PipelineDescriptor carries its CacheKey, but New itself neither reads nor
// writes cache entries: every pipeline comes from caps.CreatePipeline.
func New(caps Capabilities, shaders reflect.Compiler, lutDecoder LutDecoder, initRec CommandRecorder, p *preset.Preset, opts Options) (*Chain, error) {
	id := uuid.New()
	log := corelog.With("chain", id.String())

	if opts.ForceNoMipmaps {
		for i := range p.Passes {
			p.Passes[i].Mipmap = false
		}
	}

	compiler := NewCompiler(shaders)
	plan, err := compiler.Compile(p, caps)
	if err != nil {
		log.Error("compiling preset failed", "err", err)
		return nil, err
	}
	log.Info("compiled preset", "passes", len(plan.Passes), "history_depth", plan.HistoryDepth)

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "filterchain-pipeline-cache")
	}
	pipelineCache, err := NewPipelineCache(cacheDir, opts.DisableCache)
	if err != nil {
		return nil, err
	}

	pool := NewFramebufferPool(caps, plan)
	samplers := NewSamplerCache(caps)

	pipelines := make([]Pipeline, len(plan.Passes))
	for i := range plan.Passes {
		passPlan := &plan.Passes[i]
		key := CacheKey(caps.Name(), passPlan.Bytecode, passPlan.TargetFormat)
		desc := PipelineDescriptor{
			VertexBytecode:   opts.VertexBytecode,
			FragmentBytecode: passPlan.Bytecode,
			TargetFormat:     passPlan.TargetFormat,
			CacheKey:         key,
		}
		pipeline, err := caps.CreatePipeline(desc)
		if err != nil {
			destroyPipelines(pipelines[:i])
			return nil, chainerr.Wrap(chainerr.ShaderCompile, "creating pipeline for pass", err)
		}
		pipelines[i] = pipeline
	}

	luts, err := NewLutLoader(caps, samplers, lutDecoder).LoadAll(initRec, p.Luts)
	if err != nil {
		destroyPipelines(pipelines)
		pool.Destroy()
		return nil, err
	}

	driver := NewFrameDriver(caps, plan, pool, samplers, pipelines, luts)

	var hud *DebugHUD
	if opts.DebugHUD && opts.DebugHUDFontPath != "" {
		hud, err = NewDebugHUD(opts.DebugHUDFontPath)
		if err != nil {
			log.Warn("loading debug HUD font failed, continuing without a HUD", "err", err)
			hud = nil
		}
	}

	return &Chain{
		ID:            id,
		caps:          caps,
		plan:          plan,
		pool:          pool,
		samplers:      samplers,
		driver:        driver,
		params:        NewParameterRegistry(plan.Parameters, len(plan.Passes)),
		pipelineCache: pipelineCache,
		pipelines:     pipelines,
		luts:          luts,
		timer:         newFrameTimer(),
		hud:           hud,
	}, nil
}

// HUDQuads returns the current debug overlay as textured glyph quads
// anchored at (originX, originY), or nil if DebugHUD was not enabled or
// its font failed to load. Backends are responsible for drawing these;
// the runtime only lays out text and never rasterizes it.
func (c *Chain) HUDQuads(originX, originY float32) []GlyphQuad {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hud == nil {
		return nil
	}
	return c.hud.Layout(FormatFrameStats(c.timer.stats()), originX, originY)
}

func destroyPipelines(pipelines []Pipeline) {
	for _, p := range pipelines {
		if p != nil {
			p.Destroy()
		}
	}
}

// Frame renders one frame. It is not reentrant: calling Frame from within
// a callback invoked by Frame (there are none in this API, but a backend
// wrapping CommandRecorder must not call back into Chain) deadlocks by
// design rather than corrupting shared state.
func (c *Chain) Frame(rec CommandRecorder, input, output Image, viewport Viewport, frameCount uint64, mvp *[16]float32, opts FrameOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rec == nil || input == nil || output == nil {
		return chainerr.New(chainerr.InvalidParameter, "Frame requires a non-nil command recorder, input image, and output image")
	}
	if viewport.Width == 0 || viewport.Height == 0 {
		return chainerr.New(chainerr.InvalidParameter, "Frame requires a non-zero viewport")
	}

	m := IdentityMat4()
	if mvp != nil {
		m = *mvp
	}

	started := time.Now()
	err := c.driver.RunFrame(rec, input, output, viewport, frameCount, m, c.params.Snapshot(), c.params.ActivePassCount(), opts)
	c.timer.record(time.Since(started))
	return err
}

// SetParameter updates a user parameter. Fails with UnknownParameter if
// the preset never declared name.
func (c *Chain) SetParameter(name string, value float32) error {
	return c.params.Set(name, value)
}

// GetParameter reads a user parameter's current value.
func (c *Chain) GetParameter(name string) (float32, bool) {
	return c.params.Get(name)
}

// SetActivePassCount changes how many leading passes run on the next
// Frame call, clamping n to the chain's compiled pass count.
func (c *Chain) SetActivePassCount(n uint32) {
	c.params.SetActivePassCount(n)
}

// ActivePassCount returns how many leading passes currently run.
func (c *Chain) ActivePassCount() uint32 {
	return c.params.ActivePassCount()
}

// PassCount is the total number of passes the chain was compiled with.
func (c *Chain) PassCount() int {
	return len(c.plan.Passes)
}

// FrameStats reports recent Frame call timing.
func (c *Chain) FrameStats() FrameStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer.stats()
}

// Destroy releases every GPU resource the chain owns: pipelines,
// intermediate images, history/feedback images, LUTs, cached samplers,
// and the 1x1 fallback image.
func (c *Chain) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	destroyPipelines(c.pipelines)
	for _, lut := range c.luts {
		lut.Image.Destroy()
	}
	c.pool.Destroy()
	for _, s := range c.samplers.entries {
		if d, ok := s.(interface{ Destroy() }); ok {
			d.Destroy()
		}
	}
	if c.driver.blackImage != nil {
		c.driver.blackImage.Destroy()
	}
}
