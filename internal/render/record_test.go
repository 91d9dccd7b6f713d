package render

import (
	"testing"

	"github.com/Pradene/scop/internal/gpu"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
)

type fakeEncoder struct {
	calls []string

	area      core1_0.Rect2D
	clear     []core1_0.ClearValue
	viewport  core1_0.Viewport
	scissor   core1_0.Rect2D
	indexType core1_0.IndexType
	drawn     int

	endErr error
}

func (e *fakeEncoder) Begin() error {
	e.calls = append(e.calls, "begin")
	return nil
}

func (e *fakeEncoder) End() error {
	e.calls = append(e.calls, "end")
	return e.endErr
}

func (e *fakeEncoder) BeginRenderPass(renderPass *gpu.RenderPass, framebuffer *gpu.Framebuffer, area core1_0.Rect2D, clear []core1_0.ClearValue) error {
	e.calls = append(e.calls, "beginRenderPass")
	e.area, e.clear = area, clear
	return nil
}

func (e *fakeEncoder) EndRenderPass() {
	e.calls = append(e.calls, "endRenderPass")
}

func (e *fakeEncoder) BindPipeline(pipeline *gpu.Pipeline) {
	e.calls = append(e.calls, "bindPipeline")
}

func (e *fakeEncoder) BindVertexBuffer(buffer *gpu.Buffer) {
	e.calls = append(e.calls, "bindVertexBuffer")
}

func (e *fakeEncoder) BindIndexBuffer(buffer *gpu.Buffer, indexType core1_0.IndexType) {
	e.calls = append(e.calls, "bindIndexBuffer")
	e.indexType = indexType
}

func (e *fakeEncoder) SetViewport(viewport core1_0.Viewport) {
	e.calls = append(e.calls, "setViewport")
	e.viewport = viewport
}

func (e *fakeEncoder) SetScissor(scissor core1_0.Rect2D) {
	e.calls = append(e.calls, "setScissor")
	e.scissor = scissor
}

func (e *fakeEncoder) BindDescriptorSet(layout *gpu.PipelineLayout, set gpu.DescriptorSet) {
	e.calls = append(e.calls, "bindDescriptorSet")
}

func (e *fakeEncoder) DrawIndexed(indexCount int) {
	e.calls = append(e.calls, "drawIndexed")
	e.drawn = indexCount
}

func testTarget() drawTarget {
	return drawTarget{
		extent:     core1_0.Extent2D{Width: 1280, Height: 720},
		indexCount: 36,
	}
}

func TestRecordDrawOrder(t *testing.T) {
	enc := &fakeEncoder{}
	require.NoError(t, recordDraw(enc, testTarget()))

	assert.Equal(t, []string{
		"begin",
		"beginRenderPass",
		"bindPipeline",
		"bindVertexBuffer",
		"bindIndexBuffer",
		"setViewport",
		"setScissor",
		"bindDescriptorSet",
		"drawIndexed",
		"endRenderPass",
		"end",
	}, enc.calls)
}

func TestRecordDrawState(t *testing.T) {
	enc := &fakeEncoder{}
	require.NoError(t, recordDraw(enc, testTarget()))

	extent := core1_0.Extent2D{Width: 1280, Height: 720}
	assert.Equal(t, core1_0.Rect2D{Extent: extent}, enc.area)
	assert.Equal(t, enc.area, enc.scissor)
	assert.Equal(t, core1_0.Viewport{Width: 1280, Height: 720, MaxDepth: 1}, enc.viewport)
	assert.Equal(t, core1_0.IndexTypeUInt32, enc.indexType)
	assert.Equal(t, 36, enc.drawn)

	require.Len(t, enc.clear, 2)
	assert.Equal(t, core1_0.ClearValueFloat{0, 0, 0, 1}, enc.clear[0])
	assert.Equal(t, core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0}, enc.clear[1])
}

func TestRecordDrawEndFailure(t *testing.T) {
	enc := &fakeEncoder{endErr: errors.New("out of device memory")}
	err := recordDraw(enc, testTarget())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of device memory")
}
