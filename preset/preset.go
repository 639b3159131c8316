// Package preset holds the in-memory representation of a slang shader
// preset: an ordered list of passes plus global parameters
// and lookup textures. Preset *parsing* from text formats is an external
// collaborator by design; this package defines the data the
// parser must produce and ships one concrete decoder (toml.go) along with
// an optional live-reload watcher (watch.go).
package preset

// WrapMode mirrors the sampler cache's wrap axis.
type WrapMode uint8

const (
	WrapClampToBorder WrapMode = iota
	WrapClampToEdge
	WrapRepeat
	WrapMirroredRepeat
)

func WrapModeFromString(s string) (WrapMode, error) {
	switch s {
	case "", "clamp_to_border":
		return WrapClampToBorder, nil
	case "clamp_to_edge":
		return WrapClampToEdge, nil
	case "repeat":
		return WrapRepeat, nil
	case "mirrored_repeat":
		return WrapMirroredRepeat, nil
	default:
		return 0, newParseError("wrap mode", s)
	}
}

// FilterMode is the min/mag filter.
type FilterMode uint8

const (
	FilterLinear FilterMode = iota
	FilterNearest
)

func FilterModeFromString(s string) (FilterMode, error) {
	switch s {
	case "", "linear":
		return FilterLinear, nil
	case "nearest":
		return FilterNearest, nil
	default:
		return 0, newParseError("filter mode", s)
	}
}

// MipFilter is the mip filter, which additionally allows Unspecified.
type MipFilter uint8

const (
	MipUnspecified MipFilter = iota
	MipLinear
	MipNearest
)

func MipFilterFromString(s string) (MipFilter, error) {
	switch s {
	case "", "unspecified":
		return MipUnspecified, nil
	case "linear":
		return MipLinear, nil
	case "nearest":
		return MipNearest, nil
	default:
		return 0, newParseError("mip filter", s)
	}
}

// Format is the nominal pixel format requested by a pass.
// The planner resolves this to the closest device-supported format.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatR8G8B8A8Unorm
	FormatR16G16B16A16Sfloat
	FormatR32G32B32A32Sfloat
	FormatR8Unorm
	FormatR16Sfloat
)

func FormatFromString(s string) (Format, error) {
	switch s {
	case "", "R8G8B8A8_UNORM":
		return FormatR8G8B8A8Unorm, nil
	case "R16G16B16A16_SFLOAT":
		return FormatR16G16B16A16Sfloat, nil
	case "R32G32B32A32_SFLOAT":
		return FormatR32G32B32A32Sfloat, nil
	case "R8_UNORM":
		return FormatR8Unorm, nil
	case "R16_SFLOAT":
		return FormatR16Sfloat, nil
	default:
		return 0, newParseError("format", s)
	}
}

// ScaleKind is the per-axis scale rule variant.
type ScaleKind uint8

const (
	ScaleSource ScaleKind = iota
	ScaleViewport
	ScaleAbsolute
)

// ScaleAxis is one axis (X or Y) of a pass's scale rule.
type ScaleAxis struct {
	Kind   ScaleKind
	Factor float32 // used when Kind is ScaleSource or ScaleViewport
	Value  uint32  // used when Kind is ScaleAbsolute
}

// ScaleRule is the X/Y scale rule pair for a pass.
type ScaleRule struct {
	X ScaleAxis
	Y ScaleAxis
}

// DefaultScaleRule is Source×1.0, the identity scaling. The TOML decoder
// gives an undeclared axis this same factor; a zero-valued ScaleRule is
// Source×0, which resolves to a 1x1 image.
func DefaultScaleRule() ScaleRule {
	return ScaleRule{
		X: ScaleAxis{Kind: ScaleSource, Factor: 1.0},
		Y: ScaleAxis{Kind: ScaleSource, Factor: 1.0},
	}
}

// Parameter is a user-exposed shader parameter with its preset default.
type Parameter struct {
	Name    string
	Default float32
}

// Lut is a lookup texture declared by the preset, loaded once at
// construction and immutable thereafter.
type Lut struct {
	Name      string
	Path      string
	WrapMode  WrapMode
	Filter    FilterMode
	Mipmap    bool
}

// Pass is a single fragment-shader stage.
type Pass struct {
	// ShaderPath is the slang source reference the external cross-compiler
	// resolves; this package does not interpret it.
	ShaderPath string
	Scale      ScaleRule
	Format     Format
	WrapMode   WrapMode
	FilterMin  FilterMode
	FilterMag  FilterMode
	Mipmap     bool
	// Alias is the name downstream passes use to sample this pass's output.
	// Empty means the pass has no alias and can only be sampled as
	// PassOutput<index>.
	Alias string
	// FrameCountMod is the modulus applied to the global frame index for
	// the FrameCount uniform semantic (0 means "use the raw index").
	FrameCountMod uint32
}

// Preset is the compiled-from-text, immutable-after-parse preset tree.
type Preset struct {
	Passes     []Pass
	Parameters []Parameter
	Luts       []Lut
}

// AliasIndex returns the pass index whose Alias equals name, or -1.
func (p *Preset) AliasIndex(name string) int {
	for i := range p.Passes {
		if p.Passes[i].Alias == name {
			return i
		}
	}
	return -1
}

type parseError struct {
	field string
	value string
}

func (e *parseError) Error() string {
	return "preset: invalid " + e.field + " value " + "\"" + e.value + "\""
}

func newParseError(field, value string) error {
	return &parseError{field: field, value: value}
}
