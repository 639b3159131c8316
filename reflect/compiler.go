package reflect

import "github.com/slangchain/filterchain/preset"

// Compiler is the external collaborator that turns a pass's slang source
// reference into target-API bytecode plus its Reflection.
// Real implementations cross-compile slang -> SPIR-V -> a target bytecode;
// that pipeline is out of scope here.
type Compiler interface {
	Compile(pass *preset.Pass) (bytecode []byte, refl *Reflection, err error)
}

// ShaderSource is one entry in a StaticCompiler's table: the declared
// reflection for a single shader path, as if it had already been
// cross-compiled and reflected.
type ShaderSource struct {
	Path       string
	Bytecode   []byte
	Reflection Reflection
}

// StaticCompiler implements Compiler by looking up a pass's ShaderPath in a
// fixed table. It stands in for real slang cross-compilation in tests and
// in the bundled example (reflect.Compiler is the seam a real
// slang-to-SPIR-V-to-target pipeline would implement instead).
type StaticCompiler struct {
	sources map[string]ShaderSource
}

// NewStaticCompiler builds a StaticCompiler from a list of shader sources.
func NewStaticCompiler(sources []ShaderSource) *StaticCompiler {
	m := make(map[string]ShaderSource, len(sources))
	for _, s := range sources {
		m[s.Path] = s
	}
	return &StaticCompiler{sources: m}
}

// ErrUnknownShader is returned when a pass references a shader path the
// StaticCompiler has no entry for.
type ErrUnknownShader struct{ Path string }

func (e *ErrUnknownShader) Error() string {
	return "reflect: no shader source registered for path " + e.Path
}

func (c *StaticCompiler) Compile(pass *preset.Pass) ([]byte, *Reflection, error) {
	src, ok := c.sources[pass.ShaderPath]
	if !ok {
		return nil, nil, &ErrUnknownShader{Path: pass.ShaderPath}
	}
	refl := src.Reflection
	return src.Bytecode, &refl, nil
}
