package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/slangchain/filterchain/chain"
	"github.com/slangchain/filterchain/internal/chainerr"
)

// maxUBOBytes bounds the scratch uniform buffer Recorder keeps around;
// reflected UBOs for a single pass are small structs of built-in and
// user-parameter scalars, nowhere near this.
const maxUBOBytes = 4096

// maxDescriptorSets bounds how many descriptor sets Recorder's pool can
// hand out before a frame. One set per pass comfortably fits under
// chain.MaxPasses.
const maxDescriptorSets = chain.MaxPasses

/**
 * @brief Records one frame's draw calls into a caller-owned
 * vk.CommandBuffer. Recorder allocates its own descriptor pool and a
 * small per-frame uniform buffer — neither is the "command stream" the
 * filter chain stays out of owning; both are private
 * bookkeeping this backend needs to issue the draws the core's frame
 * driver requests.
 */
type Recorder struct {
	dc     *DeviceContext
	cb     vk.CommandBuffer
	target *Image

	descriptorPool vk.DescriptorPool
	uboBuffer      vk.Buffer
	uboMemory      vk.DeviceMemory
	uboMapped      unsafe.Pointer

	currentPipeline  *Pipeline
	pendingTextures  map[uint32]*textureBinding
	pendingPush      []byte
	vpX, vpY         float32
	vpW, vpH         uint32
}

type textureBinding struct {
	view    vk.ImageView
	sampler vk.Sampler
}

// NewRecorder allocates the descriptor pool and uniform buffer a frame's
// worth of draws will reuse, and wraps cb, which the caller must already
// have allocated and begun recording into.
func NewRecorder(dc *DeviceContext, cb vk.CommandBuffer) (*Recorder, error) {
	r := &Recorder{dc: dc, cb: cb, pendingTextures: make(map[uint32]*textureBinding)}

	poolSizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: maxDescriptorSets * chain.MaxTextureBindings},
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
		MaxSets:       maxDescriptorSets,
	}
	if res := vk.CreateDescriptorPool(dc.LogicalDevice, &poolInfo, dc.Allocator, &r.descriptorPool); res != vk.Success {
		return nil, checkResult(res, "creating descriptor pool")
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        maxUBOBytes,
		Usage:       vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		SharingMode: vk.SharingModeExclusive,
	}
	if res := vk.CreateBuffer(dc.LogicalDevice, &bufferInfo, dc.Allocator, &r.uboBuffer); res != vk.Success {
		r.Destroy()
		return nil, checkResult(res, "creating uniform buffer")
	}
	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dc.LogicalDevice, r.uboBuffer, &requirements)
	requirements.Deref()
	memType := dc.FindMemoryIndex(requirements.MemoryTypeBits, uint32(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if memType == -1 {
		r.Destroy()
		return nil, chainerr.New(chainerr.AllocationFailed, "no host-visible memory type for uniform buffer")
	}
	allocInfo := vk.MemoryAllocateInfo{SType: vk.StructureTypeMemoryAllocateInfo, AllocationSize: requirements.Size, MemoryTypeIndex: uint32(memType)}
	if res := vk.AllocateMemory(dc.LogicalDevice, &allocInfo, dc.Allocator, &r.uboMemory); res != vk.Success {
		r.Destroy()
		return nil, checkResult(res, "allocating uniform buffer memory")
	}
	if res := vk.BindBufferMemory(dc.LogicalDevice, r.uboBuffer, r.uboMemory, 0); res != vk.Success {
		r.Destroy()
		return nil, checkResult(res, "binding uniform buffer memory")
	}
	if res := vk.MapMemory(dc.LogicalDevice, r.uboMemory, 0, maxUBOBytes, 0, &r.uboMapped); res != vk.Success {
		r.Destroy()
		return nil, checkResult(res, "mapping uniform buffer memory")
	}

	return r, nil
}

func (r *Recorder) Destroy() {
	if r.uboMapped != nil {
		vk.UnmapMemory(r.dc.LogicalDevice, r.uboMemory)
		r.uboMapped = nil
	}
	if r.uboMemory != nil {
		vk.FreeMemory(r.dc.LogicalDevice, r.uboMemory, r.dc.Allocator)
		r.uboMemory = nil
	}
	if r.uboBuffer != nil {
		vk.DestroyBuffer(r.dc.LogicalDevice, r.uboBuffer, r.dc.Allocator)
		r.uboBuffer = nil
	}
	if r.descriptorPool != nil {
		vk.DestroyDescriptorPool(r.dc.LogicalDevice, r.descriptorPool, r.dc.Allocator)
		r.descriptorPool = nil
	}
}

func barrierLayouts(toRenderTarget bool) (old, new_ vk.ImageLayout, srcAccess, dstAccess vk.AccessFlagBits, srcStage, dstStage vk.PipelineStageFlagBits) {
	if toRenderTarget {
		return vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutColorAttachmentOptimal,
			vk.AccessShaderReadBit, vk.AccessColorAttachmentWriteBit,
			vk.PipelineStageFragmentShaderBit, vk.PipelineStageColorAttachmentOutputBit
	}
	return vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutShaderReadOnlyOptimal,
		vk.AccessColorAttachmentWriteBit, vk.AccessShaderReadBit,
		vk.PipelineStageColorAttachmentOutputBit, vk.PipelineStageFragmentShaderBit
}

func (r *Recorder) TransitionToShaderRead(image chain.Image) {
	img := image.(*Image)
	old, new_, srcA, dstA, srcS, dstS := barrierLayouts(false)
	r.dc.transitionLayout(r.cb, img, old, new_, srcA, dstA, srcS, dstS)
}

func (r *Recorder) TransitionToRenderTarget(image chain.Image) {
	img := image.(*Image)
	r.target = img
	old, new_, srcA, dstA, srcS, dstS := barrierLayouts(true)
	r.dc.transitionLayout(r.cb, img, old, new_, srcA, dstA, srcS, dstS)
}

func (r *Recorder) BindPipeline(p chain.Pipeline) {
	r.currentPipeline = p.(*Pipeline)
	vk.CmdBindPipeline(r.cb, vk.PipelineBindPointGraphics, r.currentPipeline.Handle)
	r.pendingTextures = make(map[uint32]*textureBinding)
}

func (r *Recorder) BindTexture(slot uint32, image chain.Image, sampler chain.Sampler) {
	img := image.(*Image)
	s := sampler.(*Sampler)
	r.pendingTextures[slot] = &textureBinding{view: img.View, sampler: s.Handle}
}

func (r *Recorder) SetUniformData(ubo []byte, pushConstant []byte) {
	if len(ubo) > 0 {
		n := len(ubo)
		if n > maxUBOBytes {
			n = maxUBOBytes
		}
		dst := unsafe.Slice((*byte)(r.uboMapped), maxUBOBytes)
		copy(dst, ubo[:n])
	}
	r.pendingPush = pushConstant
}

func (r *Recorder) SetViewport(x, y float32, w, h uint32) {
	r.vpX, r.vpY, r.vpW, r.vpH = x, y, w, h
	viewport := vk.Viewport{X: x, Y: y, Width: float32(w), Height: float32(h), MinDepth: 0, MaxDepth: 1}
	scissor := vk.Rect2D{Offset: vk.Offset2D{X: int32(x), Y: int32(y)}, Extent: vk.Extent2D{Width: w, Height: h}}
	vk.CmdSetViewport(r.cb, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(r.cb, 0, 1, []vk.Rect2D{scissor})
}

func (r *Recorder) bindDescriptorSet() {
	if r.currentPipeline == nil || len(r.pendingTextures) == 0 {
		return
	}
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     r.descriptorPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{r.currentPipeline.SetLayout},
	}
	sets := make([]vk.DescriptorSet, 1)
	if res := vk.AllocateDescriptorSets(r.dc.LogicalDevice, &allocInfo, sets); res != vk.Success {
		return
	}

	imageInfos := make([]vk.DescriptorImageInfo, 0, len(r.pendingTextures))
	for _, tex := range r.pendingTextures {
		imageInfos = append(imageInfos, vk.DescriptorImageInfo{
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			ImageView:   tex.view,
			Sampler:     tex.sampler,
		})
	}
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          sets[0],
		DstBinding:      0,
		DescriptorCount: uint32(len(imageInfos)),
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo:      imageInfos,
	}
	vk.UpdateDescriptorSets(r.dc.LogicalDevice, 1, []vk.WriteDescriptorSet{write}, 0, nil)
	vk.CmdBindDescriptorSets(r.cb, vk.PipelineBindPointGraphics, r.currentPipeline.Layout, 0, 1, sets, 0, nil)
}

func (r *Recorder) Draw() {
	if r.currentPipeline == nil {
		return
	}
	r.bindDescriptorSet()
	if len(r.pendingPush) > 0 {
		n := len(r.pendingPush)
		if n > maxPushConstantBytes {
			n = maxPushConstantBytes
		}
		vk.CmdPushConstants(r.cb, r.currentPipeline.Layout, vk.ShaderStageFlags(vk.ShaderStageFragmentBit), 0, uint32(n), unsafe.Pointer(&r.pendingPush[0]))
	}
	// Full-screen quad as a 4-vertex triangle strip; the vertex shader
	// synthesizes clip-space positions from gl_VertexIndex.
	vk.CmdDraw(r.cb, 4, 1, 0, 0)
}

func (r *Recorder) GenerateMipmaps(image chain.Image) {
	img := image.(*Image)
	for level := uint32(1); level < img.mipLevels; level++ {
		srcW, srcH := mipDim32(img.width, level-1), mipDim32(img.height, level-1)
		dstW, dstH := mipDim32(img.width, level), mipDim32(img.height, level)

		blit := vk.ImageBlit{
			SrcSubresource: vk.ImageSubresourceLayers{AspectMask: imageAspect(), MipLevel: level - 1, LayerCount: 1},
			DstSubresource: vk.ImageSubresourceLayers{AspectMask: imageAspect(), MipLevel: level, LayerCount: 1},
		}
		blit.SrcOffsets[1] = vk.Offset3D{X: int32(srcW), Y: int32(srcH), Z: 1}
		blit.DstOffsets[1] = vk.Offset3D{X: int32(dstW), Y: int32(dstH), Z: 1}

		vk.CmdBlitImage(r.cb,
			img.Handle, vk.ImageLayoutTransferSrcOptimal,
			img.Handle, vk.ImageLayoutTransferDstOptimal,
			1, []vk.ImageBlit{blit}, vk.FilterLinear)
	}
}

func mipDim32(base, level uint32) uint32 {
	d := base >> level
	if d == 0 {
		d = 1
	}
	return d
}

func (r *Recorder) Blit(src, dst chain.Image, vp chain.Viewport) {
	s := src.(*Image)
	d := dst.(*Image)
	w, h := vp.Width, vp.Height
	if w == 0 {
		w = d.width
	}
	if h == 0 {
		h = d.height
	}
	blit := vk.ImageBlit{
		SrcSubresource: vk.ImageSubresourceLayers{AspectMask: imageAspect(), LayerCount: 1},
		DstSubresource: vk.ImageSubresourceLayers{AspectMask: imageAspect(), LayerCount: 1},
	}
	blit.SrcOffsets[1] = vk.Offset3D{X: int32(s.width), Y: int32(s.height), Z: 1}
	blit.DstOffsets[1] = vk.Offset3D{X: int32(w), Y: int32(h), Z: 1}
	vk.CmdBlitImage(r.cb,
		s.Handle, vk.ImageLayoutTransferSrcOptimal,
		d.Handle, vk.ImageLayoutTransferDstOptimal,
		1, []vk.ImageBlit{blit}, vk.FilterLinear)
}
