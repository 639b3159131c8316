package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/slangchain/filterchain/chain"
	"github.com/slangchain/filterchain/internal/chainerr"
)

// maxPushConstantBytes bounds the push-constant range every pipeline
// layout reserves. Real slang-derived push constant blocks are small
// (a handful of per-pass scalars); this is generous headroom, not a
// protocol limit.
const maxPushConstantBytes = 256

/**
 * @brief Holds a pipeline and the layout (descriptor set + push constant
 * range) every pass shares. Binding-table-specific wiring happens at
 * BindTexture/SetUniformData time through a single combined-image-sampler
 * array, not through a per-pass-shaped descriptor set layout — the chain
 * core has no notion of Vulkan descriptor sets, so the backend exposes
 * one that is wide enough for any pass.
 */
type Pipeline struct {
	dc             *DeviceContext
	Handle         vk.Pipeline
	Layout         vk.PipelineLayout
	SetLayout      vk.DescriptorSetLayout
	vertexModule   vk.ShaderModule
	fragmentModule vk.ShaderModule
}

func createShaderModule(dc *DeviceContext, code []byte) (vk.ShaderModule, error) {
	info := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceToUint32(code),
	}
	var module vk.ShaderModule
	if res := vk.CreateShaderModule(dc.LogicalDevice, &info, dc.Allocator, &module); res != vk.Success {
		return nil, checkResult(res, "creating shader module")
	}
	return module, nil
}

// sliceToUint32 reinterprets a little-endian SPIR-V byte blob as the
// uint32 words vk.ShaderModuleCreateInfo.PCode expects.
func sliceToUint32(code []byte) []uint32 {
	out := make([]uint32, len(code)/4)
	for i := range out {
		out[i] = uint32(code[i*4]) | uint32(code[i*4+1])<<8 | uint32(code[i*4+2])<<16 | uint32(code[i*4+3])<<24
	}
	return out
}

// CreatePipeline builds a graphics pipeline for one pass using dynamic
// rendering (no VkRenderPass/VkFramebuffer ownership, consistent with
// this backend never owning presentation resources). VertexBytecode must
// be supplied by the caller: generating a full-screen-quad SPIR-V module
// is outside the filter chain's own responsibility.
func (dc *DeviceContext) CreatePipeline(desc chain.PipelineDescriptor) (chain.Pipeline, error) {
	if len(desc.VertexBytecode) == 0 {
		return nil, chainerr.New(chainerr.InvalidParameter, "vulkan backend requires a caller-supplied vertex shader module")
	}
	if len(desc.FragmentBytecode) == 0 {
		return nil, chainerr.New(chainerr.InvalidParameter, "pass has no fragment bytecode")
	}

	p := &Pipeline{dc: dc}

	var err error
	if p.vertexModule, err = createShaderModule(dc, desc.VertexBytecode); err != nil {
		return nil, err
	}
	if p.fragmentModule, err = createShaderModule(dc, desc.FragmentBytecode); err != nil {
		p.Destroy()
		return nil, err
	}

	setLayoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings: []vk.DescriptorSetLayoutBinding{{
			Binding:         0,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: chain.MaxTextureBindings,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		}},
	}
	if res := vk.CreateDescriptorSetLayout(dc.LogicalDevice, &setLayoutInfo, dc.Allocator, &p.SetLayout); res != vk.Success {
		p.Destroy()
		return nil, checkResult(res, "creating descriptor set layout")
	}

	layoutInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{p.SetLayout},
		PushConstantRangeCount: 1,
		PPushConstantRanges: []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
			Offset:     0,
			Size:       maxPushConstantBytes,
		}},
	}
	if res := vk.CreatePipelineLayout(dc.LogicalDevice, &layoutInfo, dc.Allocator, &p.Layout); res != vk.Success {
		p.Destroy()
		return nil, checkResult(res, "creating pipeline layout")
	}

	stages := []vk.PipelineShaderStageCreateInfo{
		{SType: vk.StructureTypePipelineShaderStageCreateInfo, Stage: vk.ShaderStageVertexBit, Module: p.vertexModule, PName: safeString("main")},
		{SType: vk.StructureTypePipelineShaderStageCreateInfo, Stage: vk.ShaderStageFragmentBit, Module: p.fragmentModule, PName: safeString("main")},
	}

	vertexInput := vk.PipelineVertexInputStateCreateInfo{SType: vk.StructureTypePipelineVertexInputStateCreateInfo}
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: vk.PrimitiveTopologyTriangleStrip,
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: 2,
		PDynamicStates:    []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor},
	}
	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(vk.CullModeNone),
		FrontFace:   vk.FrontFaceCounterClockwise,
		LineWidth:   1.0,
	}
	multisample := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}
	blendAttachment := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{blendAttachment},
	}

	targetFormat := vkFormatFor(desc.TargetFormat)
	renderingInfo := vk.PipelineRenderingCreateInfo{
		SType:                   vk.StructureTypePipelineRenderingCreateInfo,
		ColorAttachmentCount:    1,
		PColorAttachmentFormats: []vk.Format{targetFormat},
	}

	createInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		PNext:               unsafe.Pointer(&renderingInfo),
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisample,
		PColorBlendState:    &colorBlend,
		PDynamicState:       &dynamicState,
		Layout:              p.Layout,
	}

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(dc.LogicalDevice, nil, 1, []vk.GraphicsPipelineCreateInfo{createInfo}, dc.Allocator, pipelines); res != vk.Success {
		p.Destroy()
		return nil, checkResult(res, "creating graphics pipeline")
	}
	p.Handle = pipelines[0]

	return p, nil
}

func (p *Pipeline) Destroy() {
	if p.Handle != nil {
		vk.DestroyPipeline(p.dc.LogicalDevice, p.Handle, p.dc.Allocator)
		p.Handle = nil
	}
	if p.Layout != nil {
		vk.DestroyPipelineLayout(p.dc.LogicalDevice, p.Layout, p.dc.Allocator)
		p.Layout = nil
	}
	if p.SetLayout != nil {
		vk.DestroyDescriptorSetLayout(p.dc.LogicalDevice, p.SetLayout, p.dc.Allocator)
		p.SetLayout = nil
	}
	if p.vertexModule != nil {
		vk.DestroyShaderModule(p.dc.LogicalDevice, p.vertexModule, p.dc.Allocator)
		p.vertexModule = nil
	}
	if p.fragmentModule != nil {
		vk.DestroyShaderModule(p.dc.LogicalDevice, p.fragmentModule, p.dc.Allocator)
		p.fragmentModule = nil
	}
}
