package chain

import (
	"strconv"
	"strings"

	"github.com/slangchain/filterchain/internal/chainerr"
	"github.com/slangchain/filterchain/reflect"
)

// Hard limits on chain shape: bounding these keeps the ring and binding
// tables fixed-size and gives InvalidBinding a concrete trigger beyond
// "whatever the preset happens to reference".
const (
	MaxHistoryDepth     uint32 = 8
	MaxPasses           uint32 = 32
	MaxUserParameters   uint32 = 128
	MaxTextureBindings  uint32 = 31
)

// bindContext is the information the binder needs beyond a single pass's
// own reflection: everything about the preset as a whole.
type bindContext struct {
	passIndex    int
	passCount    int
	aliasToIndex map[string]int // alias name -> defining pass index
	paramNames   map[string]bool
	lutIndex     map[string]uint32 // lut name -> index into the preset's Luts slice
}

// Binder translates one pass's reflection into a BindingTable. It also
// reports which OriginalHistory/PassFeedback indices this pass's shader
// references, so the compiler can compute the global history depth and
// feedback set.
type Binder struct{}

func NewBinder() *Binder { return &Binder{} }

// Requirements is what a single pass's bound shader demands of the rest
// of the chain.
type Requirements struct {
	MaxHistoryIndex  uint32 // -1 encoded as 0 with HasHistory=false
	HasHistory       bool
	FeedbackIndices  []uint32 // pass indices this shader reads via PassFeedback%u
}

// Bind builds the binding table for one pass. aliasToIndex must contain
// every pass's alias (the full preset is static, so later passes can
// legally be consulted when building an earlier pass's context only for
// validating its own references — an alias must exist among *earlier*
// passes, which Bind enforces via passIndex).
func (b *Binder) Bind(refl *reflect.Reflection, ctx bindContext) (BindingTable, Requirements, error) {
	table := BindingTable{
		UBOSize:          refl.UBOSize,
		PushConstantSize: refl.PushConstantSize,
	}
	var req Requirements

	for _, tex := range refl.Textures {
		sem, err := resolveTextureSemantic(tex.Name, ctx)
		if err != nil {
			return BindingTable{}, Requirements{}, err
		}
		if tex.Slot >= MaxTextureBindings {
			return BindingTable{}, Requirements{}, chainerr.New(chainerr.InvalidBinding,
				"texture slot "+strconv.Itoa(int(tex.Slot))+" exceeds the maximum of "+strconv.Itoa(int(MaxTextureBindings)))
		}
		table.Textures = append(table.Textures, TextureBinding{Slot: tex.Slot, Semantic: sem})
		trackRequirement(&req, sem)
	}

	ubo, err := bindUniformMembers(refl.UBOMembers, ctx)
	if err != nil {
		return BindingTable{}, Requirements{}, err
	}
	table.UBO = ubo

	pc, err := bindUniformMembers(refl.PushConstantMembers, ctx)
	if err != nil {
		return BindingTable{}, Requirements{}, err
	}
	table.PushConstant = pc

	for _, u := range ubo {
		if u.Semantic.Kind == UniTextureSize {
			trackRequirement(&req, u.Semantic.TextureOf)
		}
	}
	for _, u := range pc {
		if u.Semantic.Kind == UniTextureSize {
			trackRequirement(&req, u.Semantic.TextureOf)
		}
	}

	return table, req, nil
}

func trackRequirement(req *Requirements, sem TextureSemantic) {
	switch sem.Kind {
	case TexOriginalHistory:
		if !req.HasHistory || sem.Index > req.MaxHistoryIndex {
			req.MaxHistoryIndex = sem.Index
		}
		req.HasHistory = true
	case TexPassFeedback:
		req.FeedbackIndices = append(req.FeedbackIndices, sem.Index)
	}
}

func bindUniformMembers(members []reflect.UniformMember, ctx bindContext) ([]UniformBinding, error) {
	out := make([]UniformBinding, 0, len(members))
	for _, m := range members {
		sem, err := resolveUniformSemantic(m.Name, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, UniformBinding{Offset: m.Offset, Type: m.Type, Semantic: sem})
	}
	return out, nil
}

func resolveTextureSemantic(name string, ctx bindContext) (TextureSemantic, error) {
	switch name {
	case "Original":
		return TextureSemantic{Kind: TexOriginal}, nil
	case "Source":
		return TextureSemantic{Kind: TexSource}, nil
	}

	if idx, ok := indexedSuffix(name, "OriginalHistory"); ok {
		if idx > MaxHistoryDepth {
			return TextureSemantic{}, chainerr.New(chainerr.InvalidBinding,
				"OriginalHistory"+strconv.Itoa(int(idx))+" exceeds the maximum history depth")
		}
		return TextureSemantic{Kind: TexOriginalHistory, Index: idx}, nil
	}
	if idx, ok := indexedSuffix(name, "PassOutput"); ok {
		if int(idx) >= ctx.passIndex {
			return TextureSemantic{}, chainerr.New(chainerr.InvalidBinding,
				"PassOutput"+strconv.Itoa(int(idx))+" referenced by pass "+strconv.Itoa(ctx.passIndex)+" is not an earlier pass")
		}
		return TextureSemantic{Kind: TexPassOutput, Index: idx}, nil
	}
	if idx, ok := indexedSuffix(name, "PassFeedback"); ok {
		if int(idx) >= ctx.passCount {
			return TextureSemantic{}, chainerr.New(chainerr.InvalidBinding,
				"PassFeedback"+strconv.Itoa(int(idx))+" references a pass outside the plan")
		}
		return TextureSemantic{Kind: TexPassFeedback, Index: idx}, nil
	}
	if definedAt, ok := ctx.aliasToIndex[name]; ok {
		if definedAt >= ctx.passIndex {
			return TextureSemantic{}, chainerr.New(chainerr.InvalidBinding,
				"alias "+name+" does not refer to an earlier pass")
		}
		return TextureSemantic{Kind: TexPassOutput, Index: uint32(definedAt)}, nil
	}
	if idx, ok := ctx.lutIndex[name]; ok {
		return TextureSemantic{Kind: TexUser, Index: idx}, nil
	}
	return TextureSemantic{}, chainerr.New(chainerr.InvalidBinding, "unmapped texture semantic \""+name+"\"")
}

func resolveUniformSemantic(name string, ctx bindContext) (UniformSemantic, error) {
	switch name {
	case "MVP":
		return UniformSemantic{Kind: UniMVP}, nil
	case "OutputSize":
		return UniformSemantic{Kind: UniOutputSize}, nil
	case "FinalViewportSize":
		return UniformSemantic{Kind: UniFinalViewportSize}, nil
	case "FrameCount":
		return UniformSemantic{Kind: UniFrameCount}, nil
	case "FrameDirection":
		return UniformSemantic{Kind: UniFrameDirection}, nil
	}

	if strings.HasSuffix(name, "Size") {
		base := strings.TrimSuffix(name, "Size")
		if sem, err := resolveTextureSemantic(base, ctx); err == nil {
			return UniformSemantic{Kind: UniTextureSize, TextureOf: sem}, nil
		}
	}

	if ctx.paramNames[name] {
		return UniformSemantic{Kind: UniUserParameter, ParamName: name}, nil
	}

	return UniformSemantic{}, chainerr.New(chainerr.InvalidBinding, "unmapped uniform member \""+name+"\"")
}

// indexedSuffix reports whether name is prefix followed by a base-10
// integer with no sign, e.g. indexedSuffix("PassOutput3", "PassOutput")
// -> (3, true).
func indexedSuffix(name, prefix string) (uint32, bool) {
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	rest := name[len(prefix):]
	if rest == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
