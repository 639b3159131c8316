package preset

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// tomlPreset is the on-disk shape decoded with pelletier/go-toml: decode
// into a permissive intermediate form, validate it, then transform it
// into the runtime type.
type tomlPreset struct {
	Passes     []tomlPass      `toml:"pass"`
	Parameters []tomlParameter `toml:"parameter"`
	Luts       []tomlLut       `toml:"lut"`
}

type tomlPass struct {
	Shader        string  `toml:"shader"`
	ScaleTypeX    string  `toml:"scale_type_x"`
	ScaleX        float32 `toml:"scale_x"`
	ScaleTypeY    string  `toml:"scale_type_y"`
	ScaleY        float32 `toml:"scale_y"`
	Format        string  `toml:"format"`
	WrapMode      string  `toml:"wrap_mode"`
	FilterMin     string  `toml:"filter_min"`
	FilterMag     string  `toml:"filter_mag"`
	Mipmap        bool    `toml:"mipmap_input"`
	Alias         string  `toml:"alias"`
	FrameCountMod uint32  `toml:"frame_count_mod"`
}

type tomlParameter struct {
	Name    string  `toml:"name"`
	Default float32 `toml:"default"`
}

type tomlLut struct {
	Name     string `toml:"name"`
	Path     string `toml:"path"`
	WrapMode string `toml:"wrap_mode"`
	Filter   string `toml:"filter"`
	Mipmap   bool   `toml:"mipmap"`
}

// Validate checks for duplicate names the way
// engine/assets/loaders/shader.go's tmpShaderConfig.Validate does.
func (t *tomlPreset) Validate() error {
	seen := make(map[string]bool, len(t.Parameters))
	for _, p := range t.Parameters {
		if seen[p.Name] {
			return fmt.Errorf("preset: duplicate parameter name %q", p.Name)
		}
		seen[p.Name] = true
	}
	aliases := make(map[string]bool, len(t.Passes))
	for _, p := range t.Passes {
		if p.Alias == "" {
			continue
		}
		if aliases[p.Alias] {
			return fmt.Errorf("preset: duplicate pass alias %q", p.Alias)
		}
		aliases[p.Alias] = true
	}
	return nil
}

func parseScaleAxis(kind, factor string, f float32) (ScaleAxis, error) {
	switch kind {
	case "", "source":
		v := f
		if v == 0 {
			v = 1.0
		}
		return ScaleAxis{Kind: ScaleSource, Factor: v}, nil
	case "viewport":
		v := f
		if v == 0 {
			v = 1.0
		}
		return ScaleAxis{Kind: ScaleViewport, Factor: v}, nil
	case "absolute":
		return ScaleAxis{Kind: ScaleAbsolute, Value: uint32(f)}, nil
	default:
		return ScaleAxis{}, newParseError("scale_type"+factor, kind)
	}
}

// ToPreset transforms the decoded TOML document into a Preset, the way
// tmpShaderConfig.TransformToShaderConfig does for shaders.
func (t *tomlPreset) ToPreset() (*Preset, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	out := &Preset{
		Passes:     make([]Pass, len(t.Passes)),
		Parameters: make([]Parameter, len(t.Parameters)),
		Luts:       make([]Lut, len(t.Luts)),
	}

	for i, tp := range t.Passes {
		sx, err := parseScaleAxis(tp.ScaleTypeX, "_x", tp.ScaleX)
		if err != nil {
			return nil, err
		}
		sy, err := parseScaleAxis(tp.ScaleTypeY, "_y", tp.ScaleY)
		if err != nil {
			return nil, err
		}
		format, err := FormatFromString(tp.Format)
		if err != nil {
			return nil, err
		}
		wrap, err := WrapModeFromString(tp.WrapMode)
		if err != nil {
			return nil, err
		}
		fmin, err := FilterModeFromString(tp.FilterMin)
		if err != nil {
			return nil, err
		}
		fmag, err := FilterModeFromString(tp.FilterMag)
		if err != nil {
			return nil, err
		}
		out.Passes[i] = Pass{
			ShaderPath:    tp.Shader,
			Scale:         ScaleRule{X: sx, Y: sy},
			Format:        format,
			WrapMode:      wrap,
			FilterMin:     fmin,
			FilterMag:     fmag,
			Mipmap:        tp.Mipmap,
			Alias:         tp.Alias,
			FrameCountMod: tp.FrameCountMod,
		}
	}

	for i, tparam := range t.Parameters {
		out.Parameters[i] = Parameter{Name: tparam.Name, Default: tparam.Default}
	}

	for i, tl := range t.Luts {
		wrap, err := WrapModeFromString(tl.WrapMode)
		if err != nil {
			return nil, err
		}
		filter, err := FilterModeFromString(tl.Filter)
		if err != nil {
			return nil, err
		}
		out.Luts[i] = Lut{
			Name:     tl.Name,
			Path:     tl.Path,
			WrapMode: wrap,
			Filter:   filter,
			Mipmap:   tl.Mipmap,
		}
	}

	return out, nil
}

// Load reads and decodes a TOML preset file from disk.
func Load(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("preset: read %s: %w", path, err)
	}
	return Decode(data)
}

// Decode parses raw TOML bytes into a Preset.
func Decode(data []byte) (*Preset, error) {
	var doc tomlPreset
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("preset: decode: %w", err)
	}
	return doc.ToPreset()
}
