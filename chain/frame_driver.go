package chain

import (
	"strconv"

	"github.com/slangchain/filterchain/internal/chainerr"
	"github.com/slangchain/filterchain/preset"
)

// FrameDriver runs the single per-frame algorithm the whole runtime is
// built around: it is written once, against Capabilities
// and CommandRecorder, and never varies per backend.
type FrameDriver struct {
	caps      Capabilities
	plan      *CompiledPlan
	pool      *FramebufferPool
	samplers  *SamplerCache
	pipelines []Pipeline
	luts      []LoadedLut

	blackImage Image // lazily created fallback for feedback reads before a pass has ever produced output
}

func NewFrameDriver(caps Capabilities, plan *CompiledPlan, pool *FramebufferPool, samplers *SamplerCache, pipelines []Pipeline, luts []LoadedLut) *FrameDriver {
	return &FrameDriver{caps: caps, plan: plan, pool: pool, samplers: samplers, pipelines: pipelines, luts: luts}
}

func mipFilterFor(mipmap bool) preset.MipFilter {
	if mipmap {
		return preset.MipLinear
	}
	return preset.MipUnspecified
}

func (d *FrameDriver) samplerFor(pass *preset.Pass) (Sampler, error) {
	return d.samplers.Get(SamplerKey{
		Wrap: pass.WrapMode,
		Min:  pass.FilterMin,
		Mag:  pass.FilterMag,
		Mip:  mipFilterFor(pass.Mipmap),
	})
}

func (d *FrameDriver) fallbackImage() (Image, error) {
	if d.blackImage != nil {
		return d.blackImage, nil
	}
	img, err := d.caps.CreateImage(ImageDescriptor{
		Width: 1, Height: 1, Format: preset.FormatR8G8B8A8Unorm, MipLevels: 1, Usage: UsageSample,
	})
	if err != nil {
		return nil, chainerr.Wrap(chainerr.AllocationFailed, "creating feedback fallback image", err)
	}
	if err := d.caps.UploadImageData(img, []byte{0, 0, 0, 0}); err != nil {
		img.Destroy()
		return nil, err
	}
	d.blackImage = img
	return img, nil
}

// resolveTextureBinding returns the image and sampler a pass's texture
// binding should be bound to for this frame.
func (d *FrameDriver) resolveTextureBinding(tb TextureBinding, pass *preset.Pass, input, source Image) (Image, Sampler, error) {
	sampler, err := d.samplerFor(pass)
	if err != nil {
		return nil, nil, err
	}

	switch tb.Semantic.Kind {
	case TexOriginal:
		return input, sampler, nil
	case TexSource:
		return source, sampler, nil
	case TexOriginalHistory:
		img := d.pool.HistorySlot(tb.Semantic.Index)
		if img == nil {
			img, err = d.fallbackImage()
			if err != nil {
				return nil, nil, err
			}
		}
		return img, sampler, nil
	case TexPassOutput:
		img := d.pool.PassOutput(int(tb.Semantic.Index))
		if img == nil {
			return nil, nil, chainerr.New(chainerr.InvalidBinding, "pass output "+strconv.Itoa(int(tb.Semantic.Index))+" sampled before it was produced")
		}
		return img, sampler, nil
	case TexPassFeedback:
		img := d.pool.FeedbackPrevious(int(tb.Semantic.Index))
		if img == nil {
			img, err = d.fallbackImage()
			if err != nil {
				return nil, nil, err
			}
		}
		return img, sampler, nil
	case TexUser:
		lut := d.luts[tb.Semantic.Index]
		return lut.Image, lut.Sampler, nil
	default:
		return nil, nil, chainerr.New(chainerr.InvalidBinding, "unresolvable texture semantic")
	}
}

func (d *FrameDriver) textureSizeOf(tb TextureSemantic, input, source Image) (Size, bool) {
	dim := func(img Image) (Size, bool) {
		if img == nil {
			return Size{}, false
		}
		return Size{Width: img.Width(), Height: img.Height()}, true
	}
	switch tb.Kind {
	case TexOriginal:
		return dim(input)
	case TexSource:
		return dim(source)
	case TexOriginalHistory:
		return dim(d.pool.HistorySlot(tb.Index))
	case TexPassOutput:
		return dim(d.pool.PassOutput(int(tb.Index)))
	case TexPassFeedback:
		return dim(d.pool.FeedbackPrevious(int(tb.Index)))
	case TexUser:
		if int(tb.Index) >= len(d.luts) {
			return Size{}, false
		}
		return dim(d.luts[tb.Index].Image)
	default:
		return Size{}, false
	}
}

// RunFrame renders one frame. output is the
// caller-owned final render target; input is the Original/Source image
// for pass 0. Any error returned leaves no logical state mutated beyond
// what had already completed: the history ring and feedback pairs are
// only advanced after every pass has succeeded.
func (d *FrameDriver) RunFrame(
	rec CommandRecorder,
	input Image,
	output Image,
	viewport Viewport,
	frameCount uint64,
	mvp [16]float32,
	params map[string]float32,
	activePassCount uint32,
	opts FrameOptions,
) error {
	if rec == nil || input == nil || output == nil {
		return chainerr.New(chainerr.InvalidParameter, "RunFrame requires a non-nil command recorder, input image, and output image")
	}
	if viewport.Width == 0 || viewport.Height == 0 {
		return chainerr.New(chainerr.InvalidParameter, "RunFrame requires a non-zero viewport")
	}
	if int(activePassCount) > len(d.plan.Passes) {
		return chainerr.New(chainerr.InvalidParameter, "active pass count exceeds the compiled plan's pass count")
	}

	if opts.ClearHistory {
		d.pool.ClearHistory()
	}
	frameDirection := normalizedFrameDirection(opts.FrameDirection)

	inputSize := Size{Width: input.Width(), Height: input.Height()}
	viewportSize := Size{Width: viewport.Width, Height: viewport.Height}

	if activePassCount == 0 {
		rec.TransitionToShaderRead(input)
		rec.TransitionToRenderTarget(output)
		rec.Blit(input, output, viewport)
	} else {
		sourceImg := input
		sourceSize := inputSize
		lastIndex := int(activePassCount) - 1
		var feedbackDone []int

		for i := 0; i < int(activePassCount); i++ {
			passPlan := &d.plan.Passes[i]
			outSize := resolveSize(passPlan.Pass.Scale, sourceSize, viewportSize)

			mipLevels := uint32(1)
			usage := UsageRenderTarget | UsageSample
			if passPlan.Pass.Mipmap {
				mipLevels = mipLevelsFor(outSize.Width, outSize.Height)
				usage |= UsageMipGen
			}

			isFeedback := d.plan.FeedbackPasses[i]

			var targetImg Image
			var err error
			switch {
			case i == lastIndex:
				targetImg = output
			case isFeedback:
				// A pool-owned feedback pass renders into the other half
				// of its ping-pong pair, never the slot FeedbackPrevious
				// is about to be sampled from this same frame.
				targetImg, err = d.pool.EnsureFeedbackTarget(i, outSize, passPlan.TargetFormat, mipLevels, usage)
				if err != nil {
					return err
				}
			default:
				targetImg, err = d.pool.EnsurePassOutput(i, outSize, passPlan.TargetFormat, mipLevels, usage)
				if err != nil {
					return err
				}
			}

			frameCtx := FrameContext{
				FrameCount:        frameCount,
				FrameDirection:    frameDirection,
				OutputSize:        outSize,
				FinalViewportSize: viewportSize,
				MVP:               mvp,
				Parameters:        params,
				TextureSize: func(sem TextureSemantic) (Size, bool) {
					return d.textureSizeOf(sem, input, sourceImg)
				},
			}
			ubo, pc := PackUniforms(passPlan.Bindings, passPlan, frameCtx)

			rec.TransitionToRenderTarget(targetImg)
			rec.BindPipeline(d.pipelines[i])
			for _, tb := range passPlan.Bindings.Textures {
				img, sampler, err := d.resolveTextureBinding(tb, passPlan.Pass, input, sourceImg)
				if err != nil {
					return err
				}
				rec.TransitionToShaderRead(img)
				rec.BindTexture(tb.Slot, img, sampler)
			}
			rec.SetUniformData(ubo, pc)

			if i == lastIndex {
				rec.SetViewport(viewport.X, viewport.Y, viewport.Width, viewport.Height)
			} else {
				rec.SetViewport(0, 0, outSize.Width, outSize.Height)
			}
			rec.Draw()

			if passPlan.Pass.Mipmap && i != lastIndex {
				rec.GenerateMipmaps(targetImg)
			}

			if isFeedback {
				feedbackDone = append(feedbackDone, i)
			}

			sourceImg = targetImg
			sourceSize = outSize
		}

		for _, i := range feedbackDone {
			if i == lastIndex {
				d.pool.CommitFeedbackExternal(i, output)
			} else {
				d.pool.CommitFeedback(i)
			}
		}
	}

	histFormat := d.caps.ClosestFormat(preset.FormatR8G8B8A8Unorm, UsageRenderTarget|UsageSample)
	histSlot, err := d.pool.EnsureNextHistorySlot(inputSize, histFormat, 1, UsageRenderTarget|UsageSample)
	if err != nil {
		return err
	}
	rec.TransitionToRenderTarget(histSlot)
	rec.TransitionToShaderRead(input)
	rec.Blit(input, histSlot, Viewport{Width: inputSize.Width, Height: inputSize.Height})
	d.pool.RotateHistory()

	return nil
}
