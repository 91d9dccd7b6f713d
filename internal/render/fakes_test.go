package render

import (
	"github.com/Pradene/scop/internal/gpu"
	"github.com/Pradene/scop/internal/selection"
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// fakeBufferDevice keeps buffer contents in memory.
type fakeBufferDevice struct {
	contents map[*gpu.Buffer][]byte
	usage    map[*gpu.Buffer]core1_0.BufferUsageFlags
	props    map[*gpu.Buffer]core1_0.MemoryPropertyFlags

	created   int
	destroyed int
	copies    int

	failCopy bool
}

func newFakeBufferDevice() *fakeBufferDevice {
	return &fakeBufferDevice{
		contents: map[*gpu.Buffer][]byte{},
		usage:    map[*gpu.Buffer]core1_0.BufferUsageFlags{},
		props:    map[*gpu.Buffer]core1_0.MemoryPropertyFlags{},
	}
}

func (f *fakeBufferDevice) CreateBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (*gpu.Buffer, error) {
	b := new(gpu.Buffer)
	f.contents[b] = make([]byte, size)
	f.usage[b] = usage
	f.props[b] = properties
	f.created++
	return b, nil
}

func (f *fakeBufferDevice) WriteBuffer(b *gpu.Buffer, offset int, data []byte) error {
	copy(f.contents[b][offset:], data)
	return nil
}

func (f *fakeBufferDevice) MapBuffer(b *gpu.Buffer) ([]byte, error) {
	return f.contents[b], nil
}

func (f *fakeBufferDevice) CopyBuffer(pool *gpu.CommandPool, src, dst *gpu.Buffer, size int) error {
	if f.failCopy {
		return errors.New("queue lost")
	}
	f.copies++
	copy(f.contents[dst][:size], f.contents[src][:size])
	return nil
}

func (f *fakeBufferDevice) DestroyBuffer(b *gpu.Buffer) {
	if b == nil {
		return
	}
	if _, ok := f.contents[b]; !ok {
		return
	}
	delete(f.contents, b)
	f.destroyed++
}

func (f *fakeBufferDevice) live() int {
	return len(f.contents)
}

// fakeSwapchainDevice counts live objects and logs teardown order.
type fakeSwapchainDevice struct {
	support  selection.SurfaceSupport
	width    int
	height   int
	families selection.QueueFamilyIndices

	imageCount int
	failAt     string

	swapchainInfos []khr_swapchain.SwapchainCreateInfo
	live           map[string]int
	log            []string
}

func newFakeSwapchainDevice() *fakeSwapchainDevice {
	graphics := 0
	return &fakeSwapchainDevice{
		support: selection.SurfaceSupport{
			Capabilities: khr_surface.SurfaceCapabilities{
				CurrentExtent:  core1_0.Extent2D{Width: 800, Height: 600},
				MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
				MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
				MinImageCount:  2,
			},
			Formats: []khr_surface.SurfaceFormat{
				{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
			},
			PresentModes: []khr_surface.PresentMode{khr_surface.PresentModeFIFO},
		},
		width:      800,
		height:     600,
		families:   selection.QueueFamilyIndices{GraphicsFamily: &graphics, PresentFamily: &graphics},
		imageCount: 3,
		live:       map[string]int{},
	}
}

func (f *fakeSwapchainDevice) fail(what string) error {
	if f.failAt == what {
		return errors.Newf("%s failed", what)
	}
	return nil
}

func (f *fakeSwapchainDevice) SurfaceSupport() (selection.SurfaceSupport, error) {
	return f.support, nil
}

func (f *fakeSwapchainDevice) DrawableSize() (int, int) {
	return f.width, f.height
}

func (f *fakeSwapchainDevice) QueueFamilies() selection.QueueFamilyIndices {
	return f.families
}

func (f *fakeSwapchainDevice) WaitIdle() error {
	f.log = append(f.log, "idle")
	return nil
}

func (f *fakeSwapchainDevice) CreateSwapchain(info khr_swapchain.SwapchainCreateInfo) (*gpu.Swapchain, error) {
	if err := f.fail("swapchain"); err != nil {
		return nil, err
	}
	f.swapchainInfos = append(f.swapchainInfos, info)
	f.live["swapchain"]++
	return new(gpu.Swapchain), nil
}

func (f *fakeSwapchainDevice) CreateSwapchainViews(s *gpu.Swapchain) ([]*gpu.ImageView, error) {
	views := make([]*gpu.ImageView, f.imageCount)
	for i := range views {
		views[i] = new(gpu.ImageView)
	}
	f.live["view"] += f.imageCount
	return views, nil
}

func (f *fakeSwapchainDevice) DestroySwapchain(s *gpu.Swapchain) {
	if s == nil {
		return
	}
	f.live["swapchain"]--
	f.log = append(f.log, "swapchain")
}

func (f *fakeSwapchainDevice) CreateImage(extent core1_0.Extent2D, format core1_0.Format, usage core1_0.ImageUsageFlags) (*gpu.Image, error) {
	if err := f.fail("image"); err != nil {
		return nil, err
	}
	f.live["image"]++
	return new(gpu.Image), nil
}

func (f *fakeSwapchainDevice) DestroyImage(i *gpu.Image) {
	if i == nil {
		return
	}
	f.live["image"]--
	f.log = append(f.log, "image")
}

func (f *fakeSwapchainDevice) CreateImageView(image *gpu.Image, aspect core1_0.ImageAspectFlags) (*gpu.ImageView, error) {
	f.live["view"]++
	return new(gpu.ImageView), nil
}

func (f *fakeSwapchainDevice) DestroyImageView(v *gpu.ImageView) {
	if v == nil {
		return
	}
	f.live["view"]--
	f.log = append(f.log, "view")
}

func (f *fakeSwapchainDevice) CreateFramebuffer(renderPass *gpu.RenderPass, extent core1_0.Extent2D, attachments ...*gpu.ImageView) (*gpu.Framebuffer, error) {
	if err := f.fail("framebuffer"); err != nil {
		return nil, err
	}
	f.live["framebuffer"]++
	return new(gpu.Framebuffer), nil
}

func (f *fakeSwapchainDevice) DestroyFramebuffer(fb *gpu.Framebuffer) {
	if fb == nil {
		return
	}
	f.live["framebuffer"]--
	f.log = append(f.log, "framebuffer")
}

func (f *fakeSwapchainDevice) totalLive() int {
	total := 0
	for _, n := range f.live {
		total += n
	}
	return total
}
