package chain

import (
	"testing"

	"github.com/slangchain/filterchain/internal/chainerr"
	"github.com/slangchain/filterchain/reflect"
)

func baseCtx() bindContext {
	return bindContext{
		passIndex:    1,
		passCount:    3,
		aliasToIndex: map[string]int{"blur": 0},
		paramNames:   map[string]bool{"strength": true},
		lutIndex:     map[string]uint32{"lut0": 0},
	}
}

func TestResolveTextureSemanticBuiltins(t *testing.T) {
	ctx := baseCtx()
	cases := map[string]TextureSemanticKind{
		"Original": TexOriginal,
		"Source":   TexSource,
	}
	for name, want := range cases {
		sem, err := resolveTextureSemantic(name, ctx)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if sem.Kind != want {
			t.Fatalf("%s: got kind %v want %v", name, sem.Kind, want)
		}
	}
}

func TestResolveTextureSemanticAlias(t *testing.T) {
	sem, err := resolveTextureSemantic("blur", baseCtx())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sem.Kind != TexPassOutput || sem.Index != 0 {
		t.Fatalf("expected PassOutput0, got %+v", sem)
	}
}

func TestResolveTextureSemanticAliasNotEarlier(t *testing.T) {
	ctx := baseCtx()
	ctx.aliasToIndex["late"] = 2 // not earlier than passIndex 1
	_, err := resolveTextureSemantic("late", ctx)
	if !chainerr.Is(err, chainerr.InvalidBinding) {
		t.Fatalf("expected InvalidBinding, got %v", err)
	}
}

func TestResolveTextureSemanticHistoryOutOfRange(t *testing.T) {
	_, err := resolveTextureSemantic("OriginalHistory9", baseCtx())
	if !chainerr.Is(err, chainerr.InvalidBinding) {
		t.Fatalf("expected InvalidBinding for history depth beyond max, got %v", err)
	}
}

func TestResolveTextureSemanticPassOutputMustBeEarlier(t *testing.T) {
	// passIndex is 1; PassOutput1 refers to itself, which is not earlier.
	_, err := resolveTextureSemantic("PassOutput1", baseCtx())
	if !chainerr.Is(err, chainerr.InvalidBinding) {
		t.Fatalf("expected InvalidBinding, got %v", err)
	}
}

func TestResolveTextureSemanticLut(t *testing.T) {
	sem, err := resolveTextureSemantic("lut0", baseCtx())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sem.Kind != TexUser || sem.Index != 0 {
		t.Fatalf("expected TexUser index 0, got %+v", sem)
	}
}

func TestResolveTextureSemanticUnmapped(t *testing.T) {
	_, err := resolveTextureSemantic("NoSuchThing", baseCtx())
	if !chainerr.Is(err, chainerr.InvalidBinding) {
		t.Fatalf("expected InvalidBinding, got %v", err)
	}
}

func TestResolveUniformSemanticTextureSize(t *testing.T) {
	sem, err := resolveUniformSemantic("SourceSize", baseCtx())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sem.Kind != UniTextureSize || sem.TextureOf.Kind != TexSource {
		t.Fatalf("expected TextureSize(Source), got %+v", sem)
	}
}

func TestResolveUniformSemanticUserParameter(t *testing.T) {
	sem, err := resolveUniformSemantic("strength", baseCtx())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sem.Kind != UniUserParameter || sem.ParamName != "strength" {
		t.Fatalf("expected UserParameter(strength), got %+v", sem)
	}
}

func TestBindRejectsOversizedTextureSlot(t *testing.T) {
	b := NewBinder()
	refl := &reflect.Reflection{
		Textures: []reflect.TextureSlot{{Name: "Source", Slot: MaxTextureBindings}},
	}
	_, _, err := b.Bind(refl, baseCtx())
	if !chainerr.Is(err, chainerr.InvalidBinding) {
		t.Fatalf("expected InvalidBinding for out-of-range slot, got %v", err)
	}
}

func TestBindTracksHistoryAndFeedbackRequirements(t *testing.T) {
	b := NewBinder()
	refl := &reflect.Reflection{
		Textures: []reflect.TextureSlot{
			{Name: "OriginalHistory2", Slot: 0},
			{Name: "PassFeedback0", Slot: 1},
		},
	}
	_, req, err := b.Bind(refl, baseCtx())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !req.HasHistory || req.MaxHistoryIndex != 2 {
		t.Fatalf("expected HasHistory with max index 2, got %+v", req)
	}
	if len(req.FeedbackIndices) != 1 || req.FeedbackIndices[0] != 0 {
		t.Fatalf("expected feedback index 0, got %v", req.FeedbackIndices)
	}
}
