package chain

import (
	"fmt"

	"github.com/fzipp/bmfont"

	"github.com/slangchain/filterchain/internal/chainerr"
)

// GlyphQuad is one character of laid-out HUD text: a destination
// rectangle in framebuffer pixels and the matching source rectangle in
// the font atlas page named by Page. Backends draw these as textured
// quads against their own atlas binding; the runtime never rasterizes
// text itself.
type GlyphQuad struct {
	DstX, DstY          float32
	DstW, DstH          float32
	SrcX, SrcY          uint16
	SrcW, SrcH          uint16
	Page                string
}

// kernPair is our own lookup key, built from whatever pair type the
// font package's Kerning map uses, so Layout never depends on that
// type's name directly.
type kernPair struct{ first, second uint32 }

// DebugHUD lays out ASCII text against a bitmap font atlas loaded from
// a .fnt descriptor. It never touches a device: callers (typically a
// backend-specific overlay renderer) turn its Layout() output into
// textured quads.
type DebugHUD struct {
	lineHeight int32
	baseline   int32
	glyphs     map[rune]bmfont.Char
	kerning    map[kernPair]int16
	pages      map[int]string
}

// NewDebugHUD loads fntPath and indexes it for Layout calls.
func NewDebugHUD(fntPath string) (*DebugHUD, error) {
	font, err := bmfont.Load(fntPath)
	if err != nil {
		return nil, chainerr.Wrap(chainerr.Io, "loading debug HUD font", err)
	}

	glyphs := make(map[rune]bmfont.Char, len(font.Descriptor.Chars))
	for _, c := range font.Descriptor.Chars {
		glyphs[rune(c.ID)] = c
	}

	pages := make(map[int]string, len(font.Descriptor.Pages))
	for _, p := range font.Descriptor.Pages {
		pages[p.ID] = p.File
	}

	kerning := make(map[kernPair]int16, len(font.Descriptor.Kerning))
	for p, k := range font.Descriptor.Kerning {
		kerning[kernPair{first: p.First, second: p.Second}] = int16(k.Amount)
	}

	return &DebugHUD{
		lineHeight: int32(font.Descriptor.Common.LineHeight),
		baseline:   int32(font.Descriptor.Common.Base),
		glyphs:     glyphs,
		kerning:    kerning,
		pages:      pages,
	}, nil
}

// Layout places text starting at (originX, originY), top-left of the
// first line, and returns one GlyphQuad per drawable glyph. Glyphs
// missing from the atlas are skipped rather than rejected: a HUD
// overlay degrading a missing character is preferable to failing the
// frame it reports on.
func (h *DebugHUD) Layout(text string, originX, originY float32) []GlyphQuad {
	quads := make([]GlyphQuad, 0, len(text))

	x, y := originX, originY
	var prev rune
	for i, r := range text {
		if r == '\n' {
			x = originX
			y += float32(h.lineHeight)
			prev = 0
			continue
		}

		g, ok := h.glyphs[r]
		if !ok {
			prev = r
			continue
		}

		if i > 0 && prev != 0 {
			if amount, ok := h.kerning[kernPair{first: uint32(prev), second: uint32(r)}]; ok {
				x += float32(amount)
			}
		}

		quads = append(quads, GlyphQuad{
			DstX: x + float32(g.XOffset),
			DstY: y + float32(g.YOffset),
			DstW: float32(g.Width),
			DstH: float32(g.Height),
			SrcX: uint16(g.X), SrcY: uint16(g.Y),
			SrcW: uint16(g.Width), SrcH: uint16(g.Height),
			Page: h.pages[int(g.Page)],
		})

		x += float32(g.XAdvance)
		prev = r
	}

	return quads
}

// FormatFrameStats renders FrameStats the way the HUD displays them:
// one line each for the last and rolling-average frame time.
func FormatFrameStats(s FrameStats) string {
	return fmt.Sprintf("frame %d\nlast  %s\navg   %s", s.Count, s.LastFrame, s.AverageFrame)
}
