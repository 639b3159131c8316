package chain

import (
	"math/bits"

	"golang.org/x/exp/constraints"

	"github.com/slangchain/filterchain/preset"
)

// Size is a resolved, non-zero image extent.
type Size struct {
	Width, Height uint32
}

// clampMin returns v clamped up to at least min, shared by every scale
// rule so a pass can never resolve to a zero-sized image.
func clampMin[T constraints.Ordered](v, min T) T {
	if v < min {
		return min
	}
	return v
}

func applyScaleAxis(axis preset.ScaleAxis, sourceDim, viewportDim uint32) uint32 {
	switch axis.Kind {
	case preset.ScaleAbsolute:
		return clampMin(axis.Value, 1)
	case preset.ScaleViewport:
		return clampMin(uint32(float32(viewportDim)*axis.Factor), 1)
	case preset.ScaleSource:
		fallthrough
	default:
		return clampMin(uint32(float32(sourceDim)*axis.Factor), 1)
	}
}

// resolveSize applies a pass's scale rule against the chain's source and
// viewport extents. sourceSize is the previous pass's
// output size (or the input image size for pass 0).
func resolveSize(rule preset.ScaleRule, sourceSize, viewportSize Size) Size {
	return Size{
		Width:  applyScaleAxis(rule.X, sourceSize.Width, viewportSize.Width),
		Height: applyScaleAxis(rule.Y, sourceSize.Height, viewportSize.Height),
	}
}

// mipLevelsFor returns floor(log2(max(w,h)))+1, the full mip chain depth
// for a 2D image of the given extent.
func mipLevelsFor(w, h uint32) uint32 {
	largest := w
	if h > largest {
		largest = h
	}
	if largest == 0 {
		return 1
	}
	return uint32(bits.Len32(largest))
}

// ensureImage implements the pool's lazy resize-or-recreate rule: an
// existing image is reused verbatim when its descriptor already matches,
// and destroyed and replaced otherwise.
func ensureImage(caps Capabilities, existing Image, desc ImageDescriptor) (Image, error) {
	if existing != nil &&
		existing.Width() == desc.Width &&
		existing.Height() == desc.Height &&
		existing.Format() == desc.Format &&
		existing.MipLevels() == desc.MipLevels {
		return existing, nil
	}
	if existing != nil {
		existing.Destroy()
	}
	return caps.CreateImage(desc)
}

// feedbackPair holds the two images backing a pass that participates in
// one-frame-delayed feedback. A pool-owned feedback pass renders into
// bufs[pendingIdx] while bufs[activeIdx] still holds the previous frame's
// output for PassFeedback%u reads in the same frame: reusing a single
// image slot for both would overwrite the data a pass is still sampling.
// externalCurrent/externalPrevious instead track a caller-owned image
// (the final pass, whose render target is the caller's own output) where
// the pool does not own the image's lifetime or distinctness.
type feedbackPair struct {
	bufs       [2]Image
	activeIdx  int
	pendingIdx int
	hasOutput  bool

	external         bool
	externalCurrent  Image
	externalPrevious Image
}

// FramebufferPool owns every intermediate image the chain needs across
// frames: each pass's output, the Original history ring, and the
// feedback pairs for passes other shaders sample via PassFeedback%u.
type FramebufferPool struct {
	caps Capabilities

	passOutputs []Image
	passSizes   []Size

	history     []Image // ring, len == HistoryDepth+1
	historyHead int      // index of the most recently pushed frame

	feedback map[int]*feedbackPair
}

// NewFramebufferPool allocates the bookkeeping (not the images themselves,
// which are created lazily by Ensure* on first use) for a compiled plan.
func NewFramebufferPool(caps Capabilities, plan *CompiledPlan) *FramebufferPool {
	ringLen := int(plan.HistoryDepth) + 1
	feedback := make(map[int]*feedbackPair, len(plan.FeedbackPasses))
	for idx := range plan.FeedbackPasses {
		feedback[idx] = &feedbackPair{}
	}
	return &FramebufferPool{
		caps:        caps,
		passOutputs: make([]Image, len(plan.Passes)),
		passSizes:   make([]Size, len(plan.Passes)),
		history:     make([]Image, ringLen),
		historyHead: ringLen - 1,
		feedback:    feedback,
	}
}

// EnsurePassOutput resizes-or-recreates pass i's output image to size and
// returns it.
func (p *FramebufferPool) EnsurePassOutput(i int, size Size, format preset.Format, mipLevels uint32, usage ImageUsage) (Image, error) {
	desc := ImageDescriptor{Width: size.Width, Height: size.Height, Format: format, MipLevels: mipLevels, Usage: usage}
	img, err := ensureImage(p.caps, p.passOutputs[i], desc)
	if err != nil {
		return nil, err
	}
	p.passOutputs[i] = img
	p.passSizes[i] = size
	return img, nil
}

// PassOutput returns pass i's current output image, or nil if it has never
// been produced.
func (p *FramebufferPool) PassOutput(i int) Image { return p.passOutputs[i] }

// PassSize returns the last size EnsurePassOutput resolved for pass i.
func (p *FramebufferPool) PassSize(i int) Size { return p.passSizes[i] }

// HistoryLen is H+1, the number of slots in the ring.
func (p *FramebufferPool) HistoryLen() int { return len(p.history) }

// HistorySlot returns the ring slot that OriginalHistory[k] should be
// bound to for the frame about to be rendered (k==0 is the most recently
// completed frame's Original).
func (p *FramebufferPool) HistorySlot(k uint32) Image {
	n := len(p.history)
	idx := ((p.historyHead-int(k))%n + n) % n
	return p.history[idx]
}

// EnsureNextHistorySlot resizes-or-recreates the ring slot that the next
// RotateHistory call makes OriginalHistory0, so the caller can blit into it.
func (p *FramebufferPool) EnsureNextHistorySlot(size Size, format preset.Format, mipLevels uint32, usage ImageUsage) (Image, error) {
	n := len(p.history)
	next := (p.historyHead + 1) % n
	desc := ImageDescriptor{Width: size.Width, Height: size.Height, Format: format, MipLevels: mipLevels, Usage: usage}
	img, err := ensureImage(p.caps, p.history[next], desc)
	if err != nil {
		return nil, err
	}
	p.history[next] = img
	return img, nil
}

// RotateHistory advances the ring head, making the image last written via
// EnsureNextHistorySlot the new OriginalHistory[0].
func (p *FramebufferPool) RotateHistory() {
	p.historyHead = (p.historyHead + 1) % len(p.history)
}

// FeedbackCurrent returns the image a feedback-participating pass most
// recently produced, or nil before its first frame.
func (p *FramebufferPool) FeedbackCurrent(passIndex int) Image {
	fp := p.feedback[passIndex]
	if fp == nil {
		return nil
	}
	if fp.external {
		return fp.externalCurrent
	}
	if !fp.hasOutput {
		return nil
	}
	return fp.bufs[fp.activeIdx]
}

// FeedbackPrevious returns the image PassFeedback%u should sample this
// frame: the output the pass produced one frame ago. It is nil only
// before that pass has completed its first frame.
func (p *FramebufferPool) FeedbackPrevious(passIndex int) Image {
	fp := p.feedback[passIndex]
	if fp == nil {
		return nil
	}
	if fp.external {
		return fp.externalPrevious
	}
	if !fp.hasOutput {
		return nil
	}
	return fp.bufs[fp.activeIdx]
}

// EnsureFeedbackTarget resizes-or-recreates and returns the buffer a
// pool-owned feedback pass should render into this frame: whichever of
// the two ping-pong slots does not currently hold FeedbackPrevious, so
// that read stays valid while this frame's render target is written.
// CommitFeedback must be called after the pass finishes drawing to
// promote this buffer to FeedbackPrevious for the next frame.
func (p *FramebufferPool) EnsureFeedbackTarget(passIndex int, size Size, format preset.Format, mipLevels uint32, usage ImageUsage) (Image, error) {
	fp := p.feedback[passIndex]
	targetIdx := 0
	if fp.hasOutput {
		targetIdx = 1 - fp.activeIdx
	}
	desc := ImageDescriptor{Width: size.Width, Height: size.Height, Format: format, MipLevels: mipLevels, Usage: usage}
	img, err := ensureImage(p.caps, fp.bufs[targetIdx], desc)
	if err != nil {
		return nil, err
	}
	fp.bufs[targetIdx] = img
	fp.pendingIdx = targetIdx
	p.passOutputs[passIndex] = img
	p.passSizes[passIndex] = size
	return img, nil
}

// CommitFeedback promotes a pool-owned feedback pass's just-rendered
// ping-pong buffer to FeedbackPrevious, after the pass has finished
// drawing for this frame.
func (p *FramebufferPool) CommitFeedback(passIndex int) {
	fp := p.feedback[passIndex]
	if fp == nil {
		return
	}
	fp.activeIdx = fp.pendingIdx
	fp.hasOutput = true
}

// CommitFeedbackExternal records a caller-owned image (the final pass's
// output) as this frame's feedback output, for passes where the pool does
// not own the render target's lifetime or distinctness.
func (p *FramebufferPool) CommitFeedbackExternal(passIndex int, produced Image) {
	fp := p.feedback[passIndex]
	if fp == nil {
		return
	}
	fp.external = true
	fp.externalPrevious = fp.externalCurrent
	fp.externalCurrent = produced
}

// ClearHistory destroys every ring slot and feedback image without
// destroying the pass outputs, used by FrameOptions.ClearHistory.
func (p *FramebufferPool) ClearHistory() {
	for i, img := range p.history {
		if img != nil {
			img.Destroy()
			p.history[i] = nil
		}
	}
	for _, fp := range p.feedback {
		for i, img := range fp.bufs {
			if img != nil {
				img.Destroy()
				fp.bufs[i] = nil
			}
		}
		fp.activeIdx, fp.pendingIdx, fp.hasOutput = 0, 0, false
		// externalCurrent/externalPrevious are caller-owned: the pool
		// forgets its references to them without destroying anything.
		fp.external, fp.externalCurrent, fp.externalPrevious = false, nil, nil
	}
}

// Destroy releases every image the pool owns.
func (p *FramebufferPool) Destroy() {
	for i, img := range p.passOutputs {
		if img != nil {
			img.Destroy()
			p.passOutputs[i] = nil
		}
	}
	p.ClearHistory()
}
