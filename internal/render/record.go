package render

import (
	"github.com/Pradene/scop/internal/gpu"
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// commandEncoder is the recording surface of *gpu.CommandBuffer.
type commandEncoder interface {
	Begin() error
	End() error
	BeginRenderPass(renderPass *gpu.RenderPass, framebuffer *gpu.Framebuffer, area core1_0.Rect2D, clear []core1_0.ClearValue) error
	EndRenderPass()
	BindPipeline(pipeline *gpu.Pipeline)
	BindVertexBuffer(buffer *gpu.Buffer)
	BindIndexBuffer(buffer *gpu.Buffer, indexType core1_0.IndexType)
	SetViewport(viewport core1_0.Viewport)
	SetScissor(scissor core1_0.Rect2D)
	BindDescriptorSet(layout *gpu.PipelineLayout, set gpu.DescriptorSet)
	DrawIndexed(indexCount int)
}

var clearValues = []core1_0.ClearValue{
	core1_0.ClearValueFloat{0, 0, 0, 1},
	core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0},
}

// drawTarget is everything one frame's draw refers to.
type drawTarget struct {
	renderPass  *gpu.RenderPass
	framebuffer *gpu.Framebuffer
	extent      core1_0.Extent2D

	pipeline *gpu.Pipeline
	layout   *gpu.PipelineLayout
	set      gpu.DescriptorSet

	vertices   *gpu.Buffer
	indices    *gpu.Buffer
	indexCount int
}

// recordDraw records a single indexed draw of the mesh into enc, which must
// have been reset.
func recordDraw(enc commandEncoder, t drawTarget) error {
	if err := enc.Begin(); err != nil {
		return err
	}

	area := core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: 0, Y: 0},
		Extent: t.extent,
	}
	if err := enc.BeginRenderPass(t.renderPass, t.framebuffer, area, clearValues); err != nil {
		return err
	}

	enc.BindPipeline(t.pipeline)
	enc.BindVertexBuffer(t.vertices)
	enc.BindIndexBuffer(t.indices, core1_0.IndexTypeUInt32)
	enc.SetViewport(core1_0.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(t.extent.Width),
		Height:   float32(t.extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	enc.SetScissor(area)
	enc.BindDescriptorSet(t.layout, t.set)
	enc.DrawIndexed(t.indexCount)
	enc.EndRenderPass()

	return errors.Wrap(enc.End(), "finish frame commands")
}
