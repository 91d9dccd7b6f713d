package gpu

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

type RenderPass struct {
	device *Device
	handle core1_0.RenderPass
}

func (r *RenderPass) Handle() core1_0.RenderPass {
	return r.handle
}

func (d *Device) CreateRenderPass(info core1_0.RenderPassCreateInfo) (*RenderPass, error) {
	handle, _, err := d.driver.CreateRenderPass(nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}

	d.retain()
	return &RenderPass{device: d, handle: handle}, nil
}

func (d *Device) DestroyRenderPass(r *RenderPass) {
	if r == nil || r.device == nil {
		return
	}

	d.driver.DestroyRenderPass(r.handle, nil)
	r.device = nil
	d.release()
}

type Framebuffer struct {
	device *Device
	handle core1_0.Framebuffer
}

func (f *Framebuffer) Handle() core1_0.Framebuffer {
	return f.handle
}

// CreateFramebuffer binds attachments, in attachment order, to renderPass.
func (d *Device) CreateFramebuffer(renderPass *RenderPass, extent core1_0.Extent2D, attachments ...*ImageView) (*Framebuffer, error) {
	views := make([]core1_0.ImageView, 0, len(attachments))
	for _, attachment := range attachments {
		views = append(views, attachment.handle)
	}

	handle, _, err := d.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  renderPass.handle,
		Layers:      1,
		Attachments: views,
		Width:       extent.Width,
		Height:      extent.Height,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create framebuffer")
	}

	d.retain()
	return &Framebuffer{device: d, handle: handle}, nil
}

func (d *Device) DestroyFramebuffer(f *Framebuffer) {
	if f == nil || f.device == nil {
		return
	}

	d.driver.DestroyFramebuffer(f.handle, nil)
	f.device = nil
	d.release()
}
