package render

import (
	"testing"

	"github.com/Pradene/scop/internal/gpu"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

type renderPassRecorder struct {
	formats []core1_0.Format
}

func (r *renderPassRecorder) renderPassFor(format core1_0.Format) (*gpu.RenderPass, error) {
	r.formats = append(r.formats, format)
	return new(gpu.RenderPass), nil
}

func newTestManager(device *fakeSwapchainDevice) (*swapchainManager, *renderPassRecorder) {
	passes := &renderPassRecorder{}
	return newSwapchainManager(device, core1_0.FormatD32SignedFloat, passes.renderPassFor), passes
}

func TestSwapchainBuild(t *testing.T) {
	device := newFakeSwapchainDevice()
	m, passes := newTestManager(device)

	require.NoError(t, m.build())
	require.True(t, m.ready())

	state := m.state
	assert.Equal(t, 3, state.ImageCount())
	assert.Len(t, state.framebuffers, state.ImageCount())
	assert.Equal(t, core1_0.Extent2D{Width: 800, Height: 600}, state.Extent)
	assert.Equal(t, core1_0.FormatB8G8R8A8SRGB, state.Format.Format)
	assert.Equal(t, khr_surface.PresentModeFIFO, state.PresentMode)

	require.Len(t, device.swapchainInfos, 1)
	info := device.swapchainInfos[0]
	assert.Equal(t, 3, info.MinImageCount)
	assert.Equal(t, core1_0.SharingModeExclusive, info.ImageSharingMode)
	assert.Empty(t, info.QueueFamilyIndices)
	assert.True(t, info.Clipped)

	assert.Equal(t, []core1_0.Format{core1_0.FormatB8G8R8A8SRGB}, passes.formats)
	assert.Equal(t, map[string]int{"swapchain": 1, "view": 4, "image": 1, "framebuffer": 3}, device.live)
}

func TestSwapchainConcurrentSharing(t *testing.T) {
	device := newFakeSwapchainDevice()
	present := 1
	device.families.PresentFamily = &present
	m, _ := newTestManager(device)

	require.NoError(t, m.build())
	info := device.swapchainInfos[0]
	assert.Equal(t, core1_0.SharingModeConcurrent, info.ImageSharingMode)
	assert.Equal(t, []int{0, 1}, info.QueueFamilyIndices)
}

func TestSwapchainRecreateIsIdempotent(t *testing.T) {
	device := newFakeSwapchainDevice()
	m, _ := newTestManager(device)
	require.NoError(t, m.build())
	before := device.totalLive()

	for i := 0; i < 3; i++ {
		require.NoError(t, m.recreate())
		assert.Equal(t, before, device.totalLive(), "recreation %d", i+1)
		assert.Len(t, m.state.framebuffers, m.state.ImageCount())
	}
	assert.Equal(t, 3, m.recreations)

	m.destroy()
	assert.Zero(t, device.totalLive())
	assert.False(t, m.ready())
}

func TestSwapchainTeardownOrder(t *testing.T) {
	device := newFakeSwapchainDevice()
	m, _ := newTestManager(device)
	require.NoError(t, m.build())

	device.log = nil
	require.NoError(t, m.recreate())

	assert.Equal(t, []string{
		"idle",
		"framebuffer", "framebuffer", "framebuffer",
		"view", "view", "view",
		"view", "image",
		"swapchain",
	}, device.log)
}

func TestSwapchainRecreateFollowsImageCount(t *testing.T) {
	device := newFakeSwapchainDevice()
	m, _ := newTestManager(device)
	require.NoError(t, m.build())

	device.imageCount = 2
	device.support.Capabilities.CurrentExtent = core1_0.Extent2D{Width: 1024, Height: 768}
	require.NoError(t, m.recreate())

	assert.Equal(t, 2, m.state.ImageCount())
	assert.Len(t, m.state.framebuffers, 2)
	assert.Equal(t, core1_0.Extent2D{Width: 1024, Height: 768}, m.state.Extent)
}

func TestSwapchainZeroDrawableDefers(t *testing.T) {
	device := newFakeSwapchainDevice()
	m, _ := newTestManager(device)
	require.NoError(t, m.build())

	device.width, device.height = 0, 0
	require.NoError(t, m.recreate())
	assert.False(t, m.ready())
	assert.True(t, m.stale)
	assert.Nil(t, m.state)
	assert.Zero(t, device.totalLive())
	assert.Zero(t, m.recreations)

	device.width, device.height = 640, 480
	require.NoError(t, m.recreate())
	assert.True(t, m.ready())
	assert.False(t, m.stale)
	assert.Equal(t, 1, m.recreations)
}

func TestSwapchainFormatChangeRebuildsRenderPass(t *testing.T) {
	device := newFakeSwapchainDevice()
	m, passes := newTestManager(device)
	require.NoError(t, m.build())

	unorm := khr_surface.SurfaceFormat{Format: core1_0.FormatR8G8B8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	device.support.Formats = []khr_surface.SurfaceFormat{unorm}
	require.NoError(t, m.recreate())

	assert.Equal(t, []core1_0.Format{core1_0.FormatB8G8R8A8SRGB, core1_0.FormatR8G8B8A8UnsignedNormalized}, passes.formats)
	assert.Equal(t, unorm, m.state.Format)
}

func TestSwapchainBuildFailureReleasesEverything(t *testing.T) {
	for _, stage := range []string{"swapchain", "image", "framebuffer"} {
		t.Run(stage, func(t *testing.T) {
			device := newFakeSwapchainDevice()
			device.failAt = stage
			m, _ := newTestManager(device)

			err := m.build()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSwapchainCreation))
			assert.Zero(t, device.totalLive())
			assert.Nil(t, m.state)
		})
	}
}

func TestSwapchainNoFormats(t *testing.T) {
	device := newFakeSwapchainDevice()
	device.support.Formats = nil
	m, _ := newTestManager(device)

	assert.True(t, errors.Is(m.build(), ErrSwapchainCreation))
	_, err := m.surfaceFormat()
	assert.True(t, errors.Is(err, ErrSwapchainCreation))
}
