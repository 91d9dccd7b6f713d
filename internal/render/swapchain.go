package render

import (
	"log/slog"

	"github.com/Pradene/scop/internal/gpu"
	"github.com/Pradene/scop/internal/selection"
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// swapchainDevice is the part of *gpu.Device the swapchain manager uses.
type swapchainDevice interface {
	SurfaceSupport() (selection.SurfaceSupport, error)
	DrawableSize() (int, int)
	QueueFamilies() selection.QueueFamilyIndices
	WaitIdle() error

	CreateSwapchain(info khr_swapchain.SwapchainCreateInfo) (*gpu.Swapchain, error)
	CreateSwapchainViews(s *gpu.Swapchain) ([]*gpu.ImageView, error)
	DestroySwapchain(s *gpu.Swapchain)

	CreateImage(extent core1_0.Extent2D, format core1_0.Format, usage core1_0.ImageUsageFlags) (*gpu.Image, error)
	DestroyImage(i *gpu.Image)
	CreateImageView(image *gpu.Image, aspect core1_0.ImageAspectFlags) (*gpu.ImageView, error)
	DestroyImageView(v *gpu.ImageView)

	CreateFramebuffer(renderPass *gpu.RenderPass, extent core1_0.Extent2D, attachments ...*gpu.ImageView) (*gpu.Framebuffer, error)
	DestroyFramebuffer(f *gpu.Framebuffer)
}

// SwapchainState is one generation of the swapchain and everything sized to
// it. It has one view and one framebuffer per swapchain image.
type SwapchainState struct {
	Format      khr_surface.SurfaceFormat
	PresentMode khr_surface.PresentMode
	Extent      core1_0.Extent2D

	swapchain    *gpu.Swapchain
	views        []*gpu.ImageView
	depthImage   *gpu.Image
	depthView    *gpu.ImageView
	framebuffers []*gpu.Framebuffer
}

// ImageCount returns the number of swapchain images.
func (s *SwapchainState) ImageCount() int {
	return len(s.views)
}

// Framebuffer returns the framebuffer for swapchain image idx.
func (s *SwapchainState) Framebuffer(idx int) *gpu.Framebuffer {
	return s.framebuffers[idx]
}

type swapchainManager struct {
	device        swapchainDevice
	depthFormat   core1_0.Format
	renderPassFor func(core1_0.Format) (*gpu.RenderPass, error)

	state *SwapchainState
	// stale is set while the drawable has no area. No state exists then and
	// frames are skipped until a recreate succeeds.
	stale bool

	recreations int
}

func newSwapchainManager(device swapchainDevice, depthFormat core1_0.Format, renderPassFor func(core1_0.Format) (*gpu.RenderPass, error)) *swapchainManager {
	return &swapchainManager{
		device:        device,
		depthFormat:   depthFormat,
		renderPassFor: renderPassFor,
	}
}

// surfaceFormat returns the format a swapchain built now would use.
func (m *swapchainManager) surfaceFormat() (khr_surface.SurfaceFormat, error) {
	support, err := m.device.SurfaceSupport()
	if err != nil {
		return khr_surface.SurfaceFormat{}, errors.Mark(err, ErrSwapchainCreation)
	}
	if len(support.Formats) == 0 {
		return khr_surface.SurfaceFormat{}, errors.Wrap(ErrSwapchainCreation, "surface reports no formats")
	}
	return selection.ChooseSurfaceFormat(support.Formats), nil
}

// build creates a new state from the current surface. A drawable without
// area leaves the manager stale and returns nil.
func (m *swapchainManager) build() error {
	support, err := m.device.SurfaceSupport()
	if err != nil {
		return errors.Mark(err, ErrSwapchainCreation)
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return errors.Wrap(ErrSwapchainCreation, "surface reports no formats or present modes")
	}

	width, height := m.device.DrawableSize()
	extent := selection.ChooseExtent(support.Capabilities, width, height)
	if width == 0 || height == 0 || extent.Width == 0 || extent.Height == 0 {
		m.stale = true
		Logger().Debug("drawable has no area, swapchain deferred",
			slog.Int("width", width),
			slog.Int("height", height))
		return nil
	}

	state := &SwapchainState{
		Format:      selection.ChooseSurfaceFormat(support.Formats),
		PresentMode: selection.ChoosePresentMode(support.PresentModes),
		Extent:      extent,
	}
	sharingMode, families := selection.SharingMode(m.device.QueueFamilies())

	state.swapchain, err = m.device.CreateSwapchain(khr_swapchain.SwapchainCreateInfo{
		MinImageCount:    selection.ChooseImageCount(support.Capabilities.MinImageCount, support.Capabilities.MaxImageCount),
		ImageFormat:      state.Format.Format,
		ImageColorSpace:  state.Format.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: families,

		PreTransform:   support.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    state.PresentMode,
		Clipped:        true,
	})
	if err != nil {
		return errors.Mark(err, ErrSwapchainCreation)
	}

	if err = m.populate(state); err != nil {
		m.destroyState(state)
		return errors.Mark(err, ErrSwapchainCreation)
	}

	m.state = state
	m.stale = false
	Logger().Info("swapchain built",
		slog.Int("width", extent.Width),
		slog.Int("height", extent.Height),
		slog.Int("images", state.ImageCount()),
		slog.Int("format", int(state.Format.Format)),
		slog.Int("presentMode", int(state.PresentMode)))
	return nil
}

// populate creates the views, the depth attachment and the framebuffers of
// a state whose swapchain exists.
func (m *swapchainManager) populate(state *SwapchainState) error {
	var err error
	state.views, err = m.device.CreateSwapchainViews(state.swapchain)
	if err != nil {
		return err
	}

	state.depthImage, err = m.device.CreateImage(state.Extent, m.depthFormat, core1_0.ImageUsageDepthStencilAttachment)
	if err != nil {
		return errors.Wrap(err, "depth image")
	}
	state.depthView, err = m.device.CreateImageView(state.depthImage, core1_0.ImageAspectDepth)
	if err != nil {
		return errors.Wrap(err, "depth view")
	}

	renderPass, err := m.renderPassFor(state.Format.Format)
	if err != nil {
		return err
	}

	for idx, view := range state.views {
		framebuffer, err := m.device.CreateFramebuffer(renderPass, state.Extent, view, state.depthView)
		if err != nil {
			return errors.Wrapf(err, "framebuffer %d", idx)
		}
		state.framebuffers = append(state.framebuffers, framebuffer)
	}
	return nil
}

// destroyState tears state down in reverse build order. Anything state
// never got is skipped.
func (m *swapchainManager) destroyState(state *SwapchainState) {
	for _, framebuffer := range state.framebuffers {
		m.device.DestroyFramebuffer(framebuffer)
	}
	state.framebuffers = nil

	for _, view := range state.views {
		m.device.DestroyImageView(view)
	}
	state.views = nil

	m.device.DestroyImageView(state.depthView)
	m.device.DestroyImage(state.depthImage)
	state.depthView, state.depthImage = nil, nil

	m.device.DestroySwapchain(state.swapchain)
	state.swapchain = nil
}

// recreate waits for the device to go idle, destroys the current state and
// builds a new one for the current surface.
func (m *swapchainManager) recreate() error {
	if err := m.device.WaitIdle(); err != nil {
		return err
	}

	if m.state != nil {
		m.destroyState(m.state)
		m.state = nil
	}

	if err := m.build(); err != nil {
		return err
	}
	if m.state != nil {
		m.recreations++
	}
	return nil
}

// ready reports whether there is a state frames can render into.
func (m *swapchainManager) ready() bool {
	return m.state != nil && !m.stale
}

func (m *swapchainManager) destroy() {
	if m.state != nil {
		m.destroyState(m.state)
		m.state = nil
	}
}
