package render

import (
	"log/slog"

	"github.com/Pradene/scop/internal/gpu"
	"github.com/Pradene/scop/internal/mesh"
	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

var uniformBinding = core1_0.DescriptorSetLayoutBinding{
	Binding:         0,
	DescriptorType:  core1_0.DescriptorTypeUniformBuffer,
	DescriptorCount: 1,
	StageFlags:      core1_0.StageVertex,
}

func vertexBindings() []core1_0.VertexInputBindingDescription {
	return []core1_0.VertexInputBindingDescription{
		{
			Binding:   0,
			Stride:    mesh.VertexStride,
			InputRate: core1_0.VertexInputRateVertex,
		},
	}
}

// vertexAttributes describes position, normal and color at locations 0, 1
// and 2.
func vertexAttributes() []core1_0.VertexInputAttributeDescription {
	return []core1_0.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   0,
		},
		{
			Binding:  0,
			Location: 1,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   12,
		},
		{
			Binding:  0,
			Location: 2,
			Format:   core1_0.FormatR32G32B32SignedFloat,
			Offset:   24,
		},
	}
}

func renderPassInfo(colorFormat, depthFormat core1_0.Format) core1_0.RenderPassCreateInfo {
	return core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         colorFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpStore,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
			{
				Format:         depthFormat,
				Samples:        core1_0.Samples1,
				LoadOp:         core1_0.AttachmentLoadOpClear,
				StoreOp:        core1_0.AttachmentStoreOpDontCare,
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  core1_0.ImageLayoutUndefined,
				FinalLayout:    core1_0.ImageLayoutDepthStencilAttachmentOptimal,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
				DepthStencilAttachment: &core1_0.AttachmentReference{
					Attachment: 1,
					Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput | core1_0.PipelineStageEarlyFragmentTests,
				DstAccessMask: core1_0.AccessColorAttachmentWrite | core1_0.AccessDepthStencilAttachmentWrite,
			},
		},
	}
}

// pipelineInfo describes the mesh pipeline. Viewport and scissor are
// dynamic, so the pipeline survives swapchain resizes.
func pipelineInfo(vert, frag core1_0.ShaderModule, layout core1_0.PipelineLayout, renderPass core1_0.RenderPass) core1_0.GraphicsPipelineCreateInfo {
	return core1_0.GraphicsPipelineCreateInfo{
		Stages: []core1_0.PipelineShaderStageCreateInfo{
			{
				Stage:  core1_0.StageVertex,
				Module: vert,
				Name:   "main",
			},
			{
				Stage:  core1_0.StageFragment,
				Module: frag,
				Name:   "main",
			},
		},
		VertexInputState: &core1_0.PipelineVertexInputStateCreateInfo{
			VertexBindingDescriptions:   vertexBindings(),
			VertexAttributeDescriptions: vertexAttributes(),
		},
		InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
			Topology:               core1_0.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: false,
		},
		ViewportState: &core1_0.PipelineViewportStateCreateInfo{
			Viewports: []core1_0.Viewport{{}},
			Scissors:  []core1_0.Rect2D{{}},
		},
		RasterizationState: &core1_0.PipelineRasterizationStateCreateInfo{
			DepthClampEnable:        false,
			RasterizerDiscardEnable: false,

			PolygonMode: core1_0.PolygonModeFill,
			CullMode:    core1_0.CullModeBack,
			FrontFace:   core1_0.FrontFaceClockwise,

			DepthBiasEnable: false,

			LineWidth: 1.0,
		},
		MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
			SampleShadingEnable:  false,
			RasterizationSamples: core1_0.Samples1,
			MinSampleShading:     1.0,
		},
		DepthStencilState: &core1_0.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  true,
			DepthWriteEnable: true,
			DepthCompareOp:   core1_0.CompareOpLess,
		},
		ColorBlendState: &core1_0.PipelineColorBlendStateCreateInfo{
			LogicOpEnabled: false,
			LogicOp:        core1_0.LogicOpCopy,

			Attachments: []core1_0.PipelineColorBlendAttachmentState{
				{
					BlendEnabled:   false,
					ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
				},
			},
		},
		DynamicState: &core1_0.PipelineDynamicStateCreateInfo{
			DynamicStates: []core1_0.DynamicState{core1_0.DynamicStateViewport, core1_0.DynamicStateScissor},
		},
		Layout:            layout,
		RenderPass:        renderPass,
		Subpass:           0,
		BasePipelineIndex: -1,
	}
}

// Pipeline owns the render pass, descriptor set layout, pipeline layout and
// graphics pipeline used to draw the mesh.
type Pipeline struct {
	device  *gpu.Device
	shaders ShaderSet

	colorFormat core1_0.Format
	depthFormat core1_0.Format

	cache     *gpu.PipelineCache
	cachePath string

	setLayout  *gpu.DescriptorSetLayout
	layout     *gpu.PipelineLayout
	renderPass *gpu.RenderPass
	pipeline   *gpu.Pipeline
}

func newPipeline(device *gpu.Device, shaders ShaderSet, colorFormat, depthFormat core1_0.Format, cachePath string) (*Pipeline, error) {
	p := &Pipeline{
		device:      device,
		shaders:     shaders,
		depthFormat: depthFormat,
		cachePath:   cachePath,
	}

	adapter := device.Adapter()
	initial := readPipelineCache(cachePath, cacheIdentity{
		VendorID: adapter.VendorID,
		DeviceID: adapter.DeviceID,
		UUID:     adapter.PipelineCacheUUID,
	})

	var err error
	p.cache, err = device.CreatePipelineCache(initial)
	if err != nil && initial != nil {
		Logger().Warn("pipeline cache rejected by driver", slog.Any("error", err))
		p.cache, err = device.CreatePipelineCache(nil)
	}
	if err != nil {
		Logger().Warn("pipeline cache disabled", slog.Any("error", err))
		p.cache = nil
	}

	p.setLayout, err = device.CreateDescriptorSetLayout(uniformBinding)
	if err != nil {
		p.destroy()
		return nil, errors.Mark(err, ErrPipelineCreation)
	}

	p.layout, err = device.CreatePipelineLayout(p.setLayout)
	if err != nil {
		p.destroy()
		return nil, errors.Mark(err, ErrPipelineCreation)
	}

	if err = p.Rebuild(colorFormat); err != nil {
		p.destroy()
		return nil, err
	}
	return p, nil
}

// Rebuild recreates the render pass and the graphics pipeline for a new
// swapchain color format. The device must be idle.
func (p *Pipeline) Rebuild(colorFormat core1_0.Format) error {
	start := hrtime.Now()

	p.device.DestroyPipeline(p.pipeline)
	p.device.DestroyRenderPass(p.renderPass)
	p.pipeline, p.renderPass = nil, nil

	renderPass, err := p.device.CreateRenderPass(renderPassInfo(colorFormat, p.depthFormat))
	if err != nil {
		return errors.Mark(err, ErrPipelineCreation)
	}

	pipeline, err := p.buildPipeline(renderPass)
	if err != nil {
		p.device.DestroyRenderPass(renderPass)
		return errors.Mark(err, ErrPipelineCreation)
	}

	p.colorFormat = colorFormat
	p.renderPass = renderPass
	p.pipeline = pipeline

	Logger().Debug("pipeline built",
		slog.Int("colorFormat", int(colorFormat)),
		slog.Int("depthFormat", int(p.depthFormat)),
		slog.Duration("took", hrtime.Since(start)))
	return nil
}

func (p *Pipeline) buildPipeline(renderPass *gpu.RenderPass) (*gpu.Pipeline, error) {
	vert, err := p.device.CreateShaderModule(p.shaders.Vertex)
	if err != nil {
		return nil, errors.Wrap(err, "vertex shader")
	}
	defer p.device.DestroyShaderModule(vert)

	frag, err := p.device.CreateShaderModule(p.shaders.Fragment)
	if err != nil {
		return nil, errors.Wrap(err, "fragment shader")
	}
	defer p.device.DestroyShaderModule(frag)

	return p.device.CreateGraphicsPipeline(p.cache, pipelineInfo(vert.Handle(), frag.Handle(), p.layout.Handle(), renderPass.Handle()))
}

// renderPassFor returns the render pass framebuffers of the given color
// format must use, rebuilding the pipeline when the format changed.
func (p *Pipeline) renderPassFor(colorFormat core1_0.Format) (*gpu.RenderPass, error) {
	if colorFormat != p.colorFormat || p.renderPass == nil {
		Logger().Info("swapchain format changed, rebuilding pipeline",
			slog.Int("from", int(p.colorFormat)),
			slog.Int("to", int(colorFormat)))
		if err := p.Rebuild(colorFormat); err != nil {
			return nil, err
		}
	}
	return p.renderPass, nil
}

// destroy persists the pipeline cache and releases everything p owns.
func (p *Pipeline) destroy() {
	if p.cache != nil && p.cachePath != "" {
		data, err := p.device.PipelineCacheData(p.cache)
		if err == nil {
			err = writePipelineCache(p.cachePath, data)
		}
		if err != nil {
			Logger().Warn("pipeline cache not saved", slog.Any("error", err))
		}
	}

	p.device.DestroyPipeline(p.pipeline)
	p.device.DestroyRenderPass(p.renderPass)
	p.device.DestroyPipelineLayout(p.layout)
	p.device.DestroyDescriptorSetLayout(p.setLayout)
	p.device.DestroyPipelineCache(p.cache)
	p.pipeline, p.renderPass, p.layout, p.setLayout, p.cache = nil, nil, nil, nil, nil
}
