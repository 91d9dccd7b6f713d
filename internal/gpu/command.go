package gpu

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

type CommandPool struct {
	device *Device
	handle core1_0.CommandPool
}

// CreateCommandPool creates a pool on the graphics family whose buffers can
// be reset individually.
func (d *Device) CreateCommandPool() (*CommandPool, error) {
	handle, _, err := d.driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		QueueFamilyIndex: *d.adapter.Queues.GraphicsFamily,
		Flags:            core1_0.CommandPoolCreateResetBuffer,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create command pool")
	}

	d.retain()
	return &CommandPool{device: d, handle: handle}, nil
}

// DestroyCommandPool destroys p and every buffer still allocated from it.
func (d *Device) DestroyCommandPool(p *CommandPool) {
	if p == nil || p.device == nil {
		return
	}

	d.driver.DestroyCommandPool(p.handle, nil)
	p.device = nil
	d.release()
}

// CommandBuffer is a primary command buffer. Its methods record into it.
type CommandBuffer struct {
	device *Device
	handle core1_0.CommandBuffer
}

// AllocateCommandBuffers allocates count primary buffers from pool.
func (d *Device) AllocateCommandBuffers(pool *CommandPool, count int) ([]*CommandBuffer, error) {
	handles, _, err := d.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        pool.handle,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "allocate %d command buffers", count)
	}

	buffers := make([]*CommandBuffer, len(handles))
	for i, handle := range handles {
		buffers[i] = &CommandBuffer{device: d, handle: handle}
	}
	return buffers, nil
}

// FreeCommandBuffers returns buffers to their pool.
func (d *Device) FreeCommandBuffers(buffers ...*CommandBuffer) {
	handles := make([]core1_0.CommandBuffer, 0, len(buffers))
	for _, buffer := range buffers {
		if buffer == nil || buffer.device == nil {
			continue
		}
		handles = append(handles, buffer.handle)
		buffer.device = nil
	}

	if len(handles) > 0 {
		d.driver.FreeCommandBuffers(handles...)
	}
}

// Submit queues cb on the graphics queue. It waits on wait at the color
// attachment output stage, then signals signal and fence.
func (d *Device) Submit(cb *CommandBuffer, wait, signal *Semaphore, fence *Fence) error {
	info := core1_0.SubmitInfo{
		CommandBuffers: []core1_0.CommandBuffer{cb.handle},
	}
	if wait != nil {
		info.WaitSemaphores = []core1_0.Semaphore{wait.handle}
		info.WaitDstStageMask = []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput}
	}
	if signal != nil {
		info.SignalSemaphores = []core1_0.Semaphore{signal.handle}
	}

	var fenceHandle *core1_0.Fence
	if fence != nil {
		fenceHandle = &fence.handle
	}

	_, err := d.driver.QueueSubmit(d.GraphicsQueue(), fenceHandle, info)
	return errors.Wrap(err, "submit to graphics queue")
}

// SubmitOnce records a one-time command buffer with record, submits it to
// the graphics queue and waits for the queue to go idle. The buffer is
// freed on every path.
func (d *Device) SubmitOnce(pool *CommandPool, record func(cb *CommandBuffer) error) error {
	buffers, err := d.AllocateCommandBuffers(pool, 1)
	if err != nil {
		return err
	}
	cb := buffers[0]
	defer d.FreeCommandBuffers(cb)

	if err = cb.begin(core1_0.CommandBufferUsageOneTimeSubmit); err != nil {
		return err
	}
	if err = record(cb); err != nil {
		return err
	}
	if err = cb.End(); err != nil {
		return err
	}

	if err = d.Submit(cb, nil, nil, nil); err != nil {
		return err
	}

	_, err = d.driver.QueueWaitIdle(d.GraphicsQueue())
	return errors.Wrap(err, "wait for graphics queue")
}

// CopyBuffer copies size bytes from the start of src to the start of dst
// and waits for the copy to finish.
func (d *Device) CopyBuffer(pool *CommandPool, src, dst *Buffer, size int) error {
	return d.SubmitOnce(pool, func(cb *CommandBuffer) error {
		err := d.driver.CmdCopyBuffer(cb.handle, src.handle, dst.handle, core1_0.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		})
		return errors.Wrap(err, "record buffer copy")
	})
}

// Reset discards everything recorded into cb.
func (cb *CommandBuffer) Reset() error {
	_, err := cb.device.driver.ResetCommandBuffer(cb.handle, 0)
	return errors.Wrap(err, "reset command buffer")
}

// Begin starts recording for a buffer that is re-recorded every frame.
func (cb *CommandBuffer) Begin() error {
	return cb.begin(0)
}

func (cb *CommandBuffer) begin(flags core1_0.CommandBufferUsageFlags) error {
	_, err := cb.device.driver.BeginCommandBuffer(cb.handle, core1_0.CommandBufferBeginInfo{
		Flags: flags,
	})
	return errors.Wrap(err, "begin command buffer")
}

func (cb *CommandBuffer) End() error {
	_, err := cb.device.driver.EndCommandBuffer(cb.handle)
	return errors.Wrap(err, "end command buffer")
}

func (cb *CommandBuffer) BeginRenderPass(renderPass *RenderPass, framebuffer *Framebuffer, area core1_0.Rect2D, clear []core1_0.ClearValue) error {
	err := cb.device.driver.CmdBeginRenderPass(cb.handle, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  renderPass.handle,
			Framebuffer: framebuffer.handle,
			RenderArea:  area,
			ClearValues: clear,
		})
	return errors.Wrap(err, "begin render pass")
}

func (cb *CommandBuffer) EndRenderPass() {
	cb.device.driver.CmdEndRenderPass(cb.handle)
}

func (cb *CommandBuffer) BindPipeline(pipeline *Pipeline) {
	cb.device.driver.CmdBindPipeline(cb.handle, core1_0.PipelineBindPointGraphics, pipeline.handle)
}

func (cb *CommandBuffer) BindVertexBuffer(buffer *Buffer) {
	cb.device.driver.CmdBindVertexBuffers(cb.handle, 0, []core1_0.Buffer{buffer.handle}, []int{0})
}

func (cb *CommandBuffer) BindIndexBuffer(buffer *Buffer, indexType core1_0.IndexType) {
	cb.device.driver.CmdBindIndexBuffer(cb.handle, buffer.handle, 0, indexType)
}

func (cb *CommandBuffer) SetViewport(viewport core1_0.Viewport) {
	cb.device.driver.CmdSetViewport(cb.handle, viewport)
}

func (cb *CommandBuffer) SetScissor(scissor core1_0.Rect2D) {
	cb.device.driver.CmdSetScissor(cb.handle, scissor)
}

func (cb *CommandBuffer) BindDescriptorSet(layout *PipelineLayout, set DescriptorSet) {
	cb.device.driver.CmdBindDescriptorSets(cb.handle, core1_0.PipelineBindPointGraphics, layout.handle, 0,
		[]core1_0.DescriptorSet{set.handle}, nil)
}

func (cb *CommandBuffer) DrawIndexed(indexCount int) {
	cb.device.driver.CmdDrawIndexed(cb.handle, indexCount, 1, 0, 0, 0)
}
