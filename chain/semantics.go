package chain

import "github.com/slangchain/filterchain/reflect"

// TextureSemanticKind enumerates the built-in texture semantics a shader
// may sample.
type TextureSemanticKind uint8

const (
	TexOriginal TextureSemanticKind = iota
	TexSource
	TexOriginalHistory
	TexPassOutput
	TexPassFeedback
	TexUser
)

// TextureSemantic identifies one concrete texture binding: a kind plus,
// for the indexed kinds, which index (history depth, pass index, or LUT
// index).
type TextureSemantic struct {
	Kind  TextureSemanticKind
	Index uint32
}

// UniformSemanticKind enumerates the built-in uniform semantics
// plus the user-parameter and per-texture-size escape
// hatches.
type UniformSemanticKind uint8

const (
	UniMVP UniformSemanticKind = iota
	UniOutputSize
	UniFinalViewportSize
	UniFrameCount
	UniFrameDirection
	UniTextureSize // the "*Size" companion of a TextureSemantic
	UniUserParameter
)

// UniformSemantic identifies one concrete uniform value.
type UniformSemantic struct {
	Kind      UniformSemanticKind
	TextureOf TextureSemantic // valid when Kind == UniTextureSize
	ParamName string          // valid when Kind == UniUserParameter
}

// TextureBinding is one resolved texture/sampler slot in a pass's binding
// table.
type TextureBinding struct {
	Slot     uint32
	Semantic TextureSemantic
}

// UniformBinding is one resolved uniform-buffer or push-constant member in
// a pass's binding table.
type UniformBinding struct {
	Offset   uint64
	Type     reflect.UniformType
	Semantic UniformSemantic
}

// BindingTable is the fixed, per-pass mapping from shader reflection to
// concrete semantics, computed once at construction and consulted
// unchanged every frame.
type BindingTable struct {
	Textures         []TextureBinding
	UBO              []UniformBinding
	PushConstant     []UniformBinding
	UBOSize          uint64
	PushConstantSize uint64
}
