package chain

import (
	"testing"

	"github.com/fzipp/bmfont"
)

func TestFormatFrameStats(t *testing.T) {
	got := FormatFrameStats(FrameStats{Count: 42})
	if got == "" {
		t.Fatalf("expected non-empty formatted stats")
	}
}

func newTestHUD() *DebugHUD {
	return &DebugHUD{
		lineHeight: 16,
		baseline:   12,
		glyphs: map[rune]bmfont.Char{
			'A': {ID: 'A', X: 0, Y: 0, Width: 8, Height: 10, XAdvance: 9, Page: 0},
			'V': {ID: 'V', X: 8, Y: 0, Width: 8, Height: 10, XAdvance: 9, Page: 0},
		},
		kerning: map[kernPair]int16{
			{first: 'A', second: 'V'}: -2,
		},
		pages: map[int]string{0: "hud.png"},
	}
}

func TestDebugHUDLayoutBasic(t *testing.T) {
	h := newTestHUD()
	quads := h.Layout("AV", 0, 0)
	if len(quads) != 2 {
		t.Fatalf("expected 2 glyph quads, got %d", len(quads))
	}
	if quads[0].Page != "hud.png" {
		t.Fatalf("expected page hud.png, got %q", quads[0].Page)
	}
	// The second glyph's advance should be reduced by the A/V kern pair.
	if quads[1].DstX >= quads[0].DstX+float32(h.glyphs['A'].XAdvance) {
		t.Fatalf("expected kerning to pull V left of A's plain advance, got %v", quads[1].DstX)
	}
}

func TestDebugHUDLayoutSkipsUnknownGlyphs(t *testing.T) {
	h := newTestHUD()
	quads := h.Layout("AxV", 0, 0)
	if len(quads) != 2 {
		t.Fatalf("expected unknown glyph 'x' to be skipped, got %d quads", len(quads))
	}
}

func TestDebugHUDLayoutHandlesNewlines(t *testing.T) {
	h := newTestHUD()
	quads := h.Layout("A\nA", 0, 0)
	if len(quads) != 2 {
		t.Fatalf("expected 2 quads, got %d", len(quads))
	}
	if quads[1].DstY != float32(h.lineHeight) {
		t.Fatalf("expected second line to start at lineHeight, got %v", quads[1].DstY)
	}
}
