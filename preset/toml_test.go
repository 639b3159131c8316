package preset

import "testing"

const sampleDoc = `
[[pass]]
shader = "blur.slang"
scale_type_x = "source"
scale_x = 0.5
scale_type_y = "source"
scale_y = 0.5
format = "R8G8B8A8_UNORM"
alias = "blurred"

[[pass]]
shader = "composite.slang"
format = "R8G8B8A8_UNORM"

[[parameter]]
name = "strength"
default = 0.75

[[lut]]
name = "lut_color"
path = "luts/color.png"
wrap_mode = "clamp_to_edge"
filter = "linear"
`

func TestDecodeValidPreset(t *testing.T) {
	p, err := Decode([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(p.Passes) != 2 {
		t.Fatalf("expected 2 passes, got %d", len(p.Passes))
	}
	if p.Passes[0].Scale.X.Kind != ScaleSource || p.Passes[0].Scale.X.Factor != 0.5 {
		t.Fatalf("unexpected scale rule: %+v", p.Passes[0].Scale)
	}
	if p.Passes[0].Alias != "blurred" {
		t.Fatalf("expected alias blurred, got %q", p.Passes[0].Alias)
	}
	if len(p.Parameters) != 1 || p.Parameters[0].Default != 0.75 {
		t.Fatalf("unexpected parameters: %+v", p.Parameters)
	}
	if len(p.Luts) != 1 || p.Luts[0].WrapMode != WrapClampToEdge {
		t.Fatalf("unexpected luts: %+v", p.Luts)
	}
	if idx := p.AliasIndex("blurred"); idx != 0 {
		t.Fatalf("expected AliasIndex(blurred) == 0, got %d", idx)
	}
	if idx := p.AliasIndex("nope"); idx != -1 {
		t.Fatalf("expected AliasIndex(nope) == -1, got %d", idx)
	}
}

func TestDecodeDefaultsScaleToIdentity(t *testing.T) {
	doc := `
[[pass]]
shader = "noop.slang"
`
	p, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Passes[0].Scale.X.Factor != 1.0 || p.Passes[0].Scale.Y.Factor != 1.0 {
		t.Fatalf("expected default scale factor 1.0, got %+v", p.Passes[0].Scale)
	}
}

func TestDecodeRejectsDuplicateAlias(t *testing.T) {
	doc := `
[[pass]]
shader = "a.slang"
alias = "x"

[[pass]]
shader = "b.slang"
alias = "x"
`
	if _, err := Decode([]byte(doc)); err == nil {
		t.Fatalf("expected a duplicate-alias error")
	}
}

func TestDecodeRejectsUnknownFormat(t *testing.T) {
	doc := `
[[pass]]
shader = "a.slang"
format = "NOT_A_FORMAT"
`
	if _, err := Decode([]byte(doc)); err == nil {
		t.Fatalf("expected an invalid-format error")
	}
}

func TestDecodeRejectsDuplicateParameterName(t *testing.T) {
	doc := `
[[pass]]
shader = "a.slang"

[[parameter]]
name = "strength"
default = 1

[[parameter]]
name = "strength"
default = 2
`
	if _, err := Decode([]byte(doc)); err == nil {
		t.Fatalf("expected a duplicate-parameter error")
	}
}
