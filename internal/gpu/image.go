package gpu

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Image is a device-local 2D image with its memory.
type Image struct {
	device *Device
	handle core1_0.Image
	memory core1_0.DeviceMemory
	format core1_0.Format
}

// ImageView wraps a view of an Image or of a swapchain image.
type ImageView struct {
	device *Device
	handle core1_0.ImageView
}

// Handle returns the native view.
func (v *ImageView) Handle() core1_0.ImageView {
	return v.handle
}

// CreateImage creates a single-sample, optimally tiled 2D image in
// device-local memory.
func (d *Device) CreateImage(extent core1_0.Extent2D, format core1_0.Format, usage core1_0.ImageUsageFlags) (*Image, error) {
	handle, _, err := d.driver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        core1_0.ImageTilingOptimal,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create image")
	}

	requirements := d.driver.GetImageMemoryRequirements(handle)
	memoryType, err := d.adapter.FindMemoryType(requirements.MemoryTypeBits, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		d.driver.DestroyImage(handle, nil)
		return nil, err
	}

	memory, _, err := d.driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	})
	if err != nil {
		d.driver.DestroyImage(handle, nil)
		return nil, errors.Wrap(err, "allocate image memory")
	}

	if _, err = d.driver.BindImageMemory(handle, memory, 0); err != nil {
		d.driver.DestroyImage(handle, nil)
		d.driver.FreeMemory(memory, nil)
		return nil, errors.Wrap(err, "bind image memory")
	}

	d.retain()
	return &Image{device: d, handle: handle, memory: memory, format: format}, nil
}

// DestroyImage destroys the image and frees its memory.
func (d *Device) DestroyImage(i *Image) {
	if i == nil || i.device == nil {
		return
	}

	d.driver.DestroyImage(i.handle, nil)
	d.driver.FreeMemory(i.memory, nil)
	i.device = nil
	d.release()
}

// CreateImageView creates a 2D view over image covering the given aspect.
func (d *Device) CreateImageView(image *Image, aspect core1_0.ImageAspectFlags) (*ImageView, error) {
	return d.createView(image.handle, image.format, aspect)
}

func (d *Device) createView(image core1_0.Image, format core1_0.Format, aspect core1_0.ImageAspectFlags) (*ImageView, error) {
	handle, _, err := d.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create image view")
	}

	d.retain()
	return &ImageView{device: d, handle: handle}, nil
}

// DestroyImageView destroys v. It is safe to call more than once.
func (d *Device) DestroyImageView(v *ImageView) {
	if v == nil || v.device == nil {
		return
	}

	d.driver.DestroyImageView(v.handle, nil)
	v.device = nil
	d.release()
}
