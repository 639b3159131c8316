// Package reflect models shader reflection data: the uniform buffer
// members, push-constant members, and texture/sampler slots a compiled
// shader declares. Real slang-to-target cross-compilation
// is out of scope; this package only defines the shape the
// binder consumes and the Compiler seam real cross-compilers plug into.
package reflect

// UniformType is the scalar/vector/matrix width of a uniform member,
// mirroring the widths requires the packer to honor.
type UniformType uint8

const (
	UniformFloat32 UniformType = iota
	UniformInt32
	UniformUint32
	UniformVec2
	UniformVec4
	UniformMat4
)

// Size returns the member's size in bytes.
func (t UniformType) Size() uint64 {
	switch t {
	case UniformFloat32, UniformInt32, UniformUint32:
		return 4
	case UniformVec2:
		return 8
	case UniformVec4:
		return 16
	case UniformMat4:
		return 64
	default:
		return 0
	}
}

// UniformMember is one named member of a uniform buffer or push-constant
// range, with the byte offset reflection assigned it.
type UniformMember struct {
	Name   string
	Offset uint64
	Type   UniformType
}

// TextureSlot is a declared sampler/texture binding.
type TextureSlot struct {
	Name string
	Slot uint32
}

// Reflection is everything the binder needs from one compiled shader pass:
// its uniform buffer layout, its push-constant layout, and its texture
// slots.
type Reflection struct {
	UBOMembers           []UniformMember
	UBOSize              uint64
	PushConstantMembers  []UniformMember
	PushConstantSize     uint64
	Textures             []TextureSlot
}
