package chain

import (
	"strconv"

	"github.com/slangchain/filterchain/internal/chainerr"
	"github.com/slangchain/filterchain/preset"
	"github.com/slangchain/filterchain/reflect"
)

// PassPlan is one pass fully resolved against a preset and a device: its
// compiled bytecode, the render target format the device will actually
// back it with, and the fixed binding table its shader will read every
// frame.
type PassPlan struct {
	Index        int
	Pass         *preset.Pass
	Bytecode     []byte
	TargetFormat preset.Format
	Bindings     BindingTable
}

// CompiledPlan is the output of compiling a preset against a device: every
// pass resolved, plus the chain-wide requirements the binder discovered.
type CompiledPlan struct {
	Passes []PassPlan
	// HistoryDepth is H, the maximum OriginalHistory index referenced by
	// any pass's shader. The history ring must hold H+1 slots (indices
	// 0..H) since OriginalHistory0 is itself a stored frame.
	HistoryDepth uint32
	// FeedbackPasses is the set of pass indices some shader reads via
	// PassFeedback%u; those passes must keep their previous-frame output
	// alive across calls to Frame.
	FeedbackPasses map[int]bool
	// Parameters maps every preset-declared parameter name to its default
	// value, the initial contents of the ParameterRegistry.
	Parameters map[string]float32
}

// Compiler turns a Preset plus a device's Capabilities into a CompiledPlan,
// invoking a reflect.Compiler for each pass's shader and a Binder to
// resolve its reflection into semantics.
type Compiler struct {
	shaders reflect.Compiler
	binder  *Binder
}

func NewCompiler(shaders reflect.Compiler) *Compiler {
	return &Compiler{shaders: shaders, binder: NewBinder()}
}

func (c *Compiler) Compile(p *preset.Preset, caps Capabilities) (*CompiledPlan, error) {
	if len(p.Passes) == 0 {
		return nil, chainerr.New(chainerr.InvalidParameter, "preset has no passes")
	}
	if uint32(len(p.Passes)) > MaxPasses {
		return nil, chainerr.New(chainerr.InvalidParameter, "preset has more than the maximum of "+strconv.Itoa(int(MaxPasses))+" passes")
	}
	if uint32(len(p.Parameters)) > MaxUserParameters {
		return nil, chainerr.New(chainerr.InvalidParameter, "preset declares more than the maximum of "+strconv.Itoa(int(MaxUserParameters))+" parameters")
	}

	aliasToIndex := make(map[string]int, len(p.Passes))
	for i := range p.Passes {
		alias := p.Passes[i].Alias
		if alias == "" {
			continue
		}
		if _, dup := aliasToIndex[alias]; dup {
			return nil, chainerr.New(chainerr.InvalidBinding, "duplicate pass alias \""+alias+"\"")
		}
		aliasToIndex[alias] = i
	}

	paramNames := make(map[string]bool, len(p.Parameters))
	parameters := make(map[string]float32, len(p.Parameters))
	for _, param := range p.Parameters {
		paramNames[param.Name] = true
		parameters[param.Name] = param.Default
	}

	lutIndex := make(map[string]uint32, len(p.Luts))
	for i, lut := range p.Luts {
		if _, dup := lutIndex[lut.Name]; dup {
			return nil, chainerr.New(chainerr.InvalidBinding, "duplicate lut name \""+lut.Name+"\"")
		}
		lutIndex[lut.Name] = uint32(i)
	}

	plan := &CompiledPlan{
		Passes:         make([]PassPlan, len(p.Passes)),
		FeedbackPasses: make(map[int]bool),
		Parameters:     parameters,
	}

	for i := range p.Passes {
		pass := &p.Passes[i]

		bytecode, refl, err := c.shaders.Compile(pass)
		if err != nil {
			return nil, chainerr.Wrap(chainerr.ShaderCompile, "compiling pass "+strconv.Itoa(i), err)
		}

		ctx := bindContext{
			passIndex:    i,
			passCount:    len(p.Passes),
			aliasToIndex: aliasToIndex,
			paramNames:   paramNames,
			lutIndex:     lutIndex,
		}
		bindings, req, err := c.binder.Bind(refl, ctx)
		if err != nil {
			return nil, chainerr.Wrap(chainerr.InvalidBinding, "binding pass "+strconv.Itoa(i), err)
		}

		if req.HasHistory && req.MaxHistoryIndex > plan.HistoryDepth {
			plan.HistoryDepth = req.MaxHistoryIndex
		}
		for _, idx := range req.FeedbackIndices {
			plan.FeedbackPasses[int(idx)] = true
		}

		usage := UsageRenderTarget | UsageSample
		if pass.Mipmap {
			usage |= UsageMipGen
		}
		target := caps.ClosestFormat(pass.Format, usage)

		plan.Passes[i] = PassPlan{
			Index:        i,
			Pass:         pass,
			Bytecode:     bytecode,
			TargetFormat: target,
			Bindings:     bindings,
		}
	}

	return plan, nil
}
