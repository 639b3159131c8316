package chain

import (
	"encoding/binary"
	"math"

	"github.com/slangchain/filterchain/reflect"
)

// IdentityMat4 is the default MVP used when a caller does not supply one
//: a full-screen quad already in clip space needs no
// transform.
func IdentityMat4() [16]float32 {
	return [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// FrameContext carries every per-frame value the uniform packer can write
// into a pass's binding table. TextureSize resolves a
// built-in texture semantic to its current extent; it returns ok=false for
// a semantic that has not produced an image yet (e.g. feedback on the
// first frame), in which case the packer writes a zero size.
type FrameContext struct {
	FrameCount        uint64
	FrameDirection    int32
	OutputSize        Size
	FinalViewportSize Size
	MVP               [16]float32
	Parameters        map[string]float32
	TextureSize       func(TextureSemantic) (Size, bool)
}

// sizeVec4 builds the (width, height, 1/width, 1/height) companion vector
// for a texture, with the reciprocal of zero defined as zero rather than
// +Inf.
func sizeVec4(s Size) [4]float32 {
	inv := func(v uint32) float32 {
		if v == 0 {
			return 0
		}
		return 1 / float32(v)
	}
	return [4]float32{float32(s.Width), float32(s.Height), inv(s.Width), inv(s.Height)}
}

func writeFloat32(buf []byte, offset uint64, v float32) {
	binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
}

func writeInt32(buf []byte, offset uint64, v int32) {
	binary.LittleEndian.PutUint32(buf[offset:], uint32(v))
}

func writeUint32(buf []byte, offset uint64, v uint32) {
	binary.LittleEndian.PutUint32(buf[offset:], v)
}

func writeVec4(buf []byte, offset uint64, v [4]float32) {
	for i, f := range v {
		writeFloat32(buf, offset+uint64(i)*4, f)
	}
}

func writeMat4(buf []byte, offset uint64, m [16]float32) {
	for i, f := range m {
		writeFloat32(buf, offset+uint64(i)*4, f)
	}
}

// resolvedFrameCount applies a pass's frame_count_mod wraparound
//: FrameCountMod == 0 means unmodded.
func resolvedFrameCount(frameCount uint64, mod uint32) uint32 {
	if mod == 0 {
		return uint32(frameCount)
	}
	return uint32(frameCount % uint64(mod))
}

func packMembers(members []UniformBinding, size uint64, frameCountMod uint32, ctx FrameContext) []byte {
	buf := make([]byte, size)
	for _, m := range members {
		switch m.Semantic.Kind {
		case UniMVP:
			writeMat4(buf, m.Offset, ctx.MVP)
		case UniOutputSize:
			writeVec4(buf, m.Offset, sizeVec4(ctx.OutputSize))
		case UniFinalViewportSize:
			writeVec4(buf, m.Offset, sizeVec4(ctx.FinalViewportSize))
		case UniFrameCount:
			writeScalar(buf, m.Offset, m.Type, float32(resolvedFrameCount(ctx.FrameCount, frameCountMod)))
		case UniFrameDirection:
			writeInt32(buf, m.Offset, ctx.FrameDirection)
		case UniTextureSize:
			var sz Size
			if ctx.TextureSize != nil {
				if s, ok := ctx.TextureSize(m.Semantic.TextureOf); ok {
					sz = s
				}
			}
			writeVec4(buf, m.Offset, sizeVec4(sz))
		case UniUserParameter:
			writeScalar(buf, m.Offset, m.Type, ctx.Parameters[m.Semantic.ParamName])
		}
		// Members without a matching case here cannot occur: the binder
		// rejects any uniform name it cannot resolve at construction time,
		// so every member in a live BindingTable already has a semantic.
	}
	return buf
}

// writeScalar writes a single logical value honoring the reflected
// member's declared width, so e.g. FrameCount reflected as UniformUint32
// is written as a raw uint32 while one reflected as UniformFloat32 is
// written as a float.
func writeScalar(buf []byte, offset uint64, t reflect.UniformType, v float32) {
	switch t {
	case reflect.UniformInt32:
		writeInt32(buf, offset, int32(v))
	case reflect.UniformUint32:
		writeUint32(buf, offset, uint32(v))
	default:
		writeFloat32(buf, offset, v)
	}
}

// PackUniforms writes a pass's UBO and push-constant staging buffers for
// one frame. Reflected members with no corresponding write
// above are impossible by construction (see packMembers) and so are left
// zero-filled, matching a freshly allocated buffer.
func PackUniforms(table BindingTable, pass *PassPlan, ctx FrameContext) (ubo []byte, pushConstant []byte) {
	mod := pass.Pass.FrameCountMod
	ubo = packMembers(table.UBO, table.UBOSize, mod, ctx)
	pushConstant = packMembers(table.PushConstant, table.PushConstantSize, mod, ctx)
	return ubo, pushConstant
}
