package gpu

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// Swapchain wraps a swapchain and the images it owns.
type Swapchain struct {
	device *Device
	handle khr_swapchain.Swapchain
	images []core1_0.Image
	format core1_0.Format
}

// ImageCount returns the number of presentable images.
func (s *Swapchain) ImageCount() int {
	return len(s.images)
}

// CreateSwapchain creates a swapchain on the device's surface. The Surface
// field of info is filled in by the device.
func (d *Device) CreateSwapchain(info khr_swapchain.SwapchainCreateInfo) (*Swapchain, error) {
	info.Surface = d.instance.surface

	handle, _, err := d.swapchainDriver.CreateSwapchain(nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "create swapchain")
	}

	images, _, err := d.swapchainDriver.GetSwapchainImages(handle)
	if err != nil {
		d.swapchainDriver.DestroySwapchain(handle, nil)
		return nil, errors.Wrap(err, "get swapchain images")
	}

	d.retain()
	return &Swapchain{device: d, handle: handle, images: images, format: info.ImageFormat}, nil
}

// CreateSwapchainViews creates one color view per swapchain image, in image
// order. On failure the views already created are destroyed.
func (d *Device) CreateSwapchainViews(s *Swapchain) ([]*ImageView, error) {
	views := make([]*ImageView, 0, len(s.images))
	for idx, image := range s.images {
		view, err := d.createView(image, s.format, core1_0.ImageAspectColor)
		if err != nil {
			for _, created := range views {
				d.DestroyImageView(created)
			}
			return nil, errors.Wrapf(err, "swapchain image %d", idx)
		}
		views = append(views, view)
	}
	return views, nil
}

// DestroySwapchain destroys s. Views created from it must be destroyed first.
func (d *Device) DestroySwapchain(s *Swapchain) {
	if s == nil || s.device == nil {
		return
	}

	d.swapchainDriver.DestroySwapchain(s.handle, nil)
	s.images = nil
	s.device = nil
	d.release()
}

// AcquireNextImage waits for the next presentable image and signals
// acquired once it can be rendered to. An out of date swapchain is reported
// through the status with a nil error.
func (d *Device) AcquireNextImage(s *Swapchain, acquired *Semaphore) (int, Status, error) {
	imageIndex, res, err := d.swapchainDriver.AcquireNextImage(s.handle, common.NoTimeout, &acquired.handle, nil)
	switch {
	case res == khr_swapchain.VKErrorOutOfDate:
		return -1, StatusOutOfDate, nil
	case err != nil:
		return -1, StatusOK, errors.Wrap(err, "acquire swapchain image")
	case res == khr_swapchain.VKSuboptimal:
		return imageIndex, StatusSuboptimal, nil
	}
	return imageIndex, StatusOK, nil
}

// Present queues imageIndex for presentation once wait is signaled.
func (d *Device) Present(s *Swapchain, imageIndex int, wait *Semaphore) (Status, error) {
	res, err := d.swapchainDriver.QueuePresent(d.PresentQueue(), khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{wait.handle},
		Swapchains:     []khr_swapchain.Swapchain{s.handle},
		ImageIndices:   []int{imageIndex},
	})
	switch {
	case res == khr_swapchain.VKErrorOutOfDate:
		return StatusOutOfDate, nil
	case res == khr_swapchain.VKSuboptimal:
		return StatusSuboptimal, nil
	case err != nil:
		return StatusOK, errors.Wrap(err, "present")
	}
	return StatusOK, nil
}
