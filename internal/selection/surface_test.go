package selection

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	unorm := khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	rgba := khr_surface.SurfaceFormat{Format: core1_0.FormatR8G8B8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}

	assert.Equal(t, unorm, ChooseSurfaceFormat([]khr_surface.SurfaceFormat{unorm, rgba}))
	assert.Equal(t, preferred, ChooseSurfaceFormat([]khr_surface.SurfaceFormat{unorm, rgba, preferred}))
	assert.Equal(t, preferred, ChooseSurfaceFormat([]khr_surface.SurfaceFormat{preferred}))
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, khr_surface.PresentModeFIFO, ChoosePresentMode([]khr_surface.PresentMode{khr_surface.PresentModeFIFO}))
	assert.Equal(t, khr_surface.PresentModeMailbox, ChoosePresentMode([]khr_surface.PresentMode{khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox}))
	assert.Equal(t, khr_surface.PresentModeFIFO, ChoosePresentMode([]khr_surface.PresentMode{khr_surface.PresentModeImmediate, khr_surface.PresentModeFIFO}))
}

func TestChooseExtent(t *testing.T) {
	caps := khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: 1280, Height: 720},
		MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
	}
	assert.Equal(t, core1_0.Extent2D{Width: 1280, Height: 720}, ChooseExtent(caps, 800, 600))

	caps.CurrentExtent = core1_0.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32}
	assert.Equal(t, core1_0.Extent2D{Width: 800, Height: 600}, ChooseExtent(caps, 800, 600))
	assert.Equal(t, core1_0.Extent2D{Width: 4096, Height: 1}, ChooseExtent(caps, 9000, 0))

	caps.CurrentExtent = core1_0.Extent2D{Width: -1, Height: -1}
	assert.Equal(t, core1_0.Extent2D{Width: 640, Height: 480}, ChooseExtent(caps, 640, 480))
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		min, max, want int
	}{
		{2, 0, 3},
		{2, 2, 2},
		{2, 8, 3},
		{3, 3, 3},
		{1, 0, 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ChooseImageCount(tt.min, tt.max), "min=%d max=%d", tt.min, tt.max)
	}
}

func TestSharingMode(t *testing.T) {
	zero, one := 0, 1

	mode, families := SharingMode(QueueFamilyIndices{GraphicsFamily: &zero, PresentFamily: &zero})
	assert.Equal(t, core1_0.SharingModeExclusive, mode)
	assert.Nil(t, families)

	mode, families = SharingMode(QueueFamilyIndices{GraphicsFamily: &zero, PresentFamily: &one})
	assert.Equal(t, core1_0.SharingModeConcurrent, mode)
	assert.Equal(t, []int{0, 1}, families)
}

func TestChooseDepthFormat(t *testing.T) {
	onlyPacked := func(format core1_0.Format) core1_0.FormatFeatureFlags {
		if format == core1_0.FormatD24UnsignedNormalizedS8UnsignedInt {
			return core1_0.FormatFeatureDepthStencilAttachment
		}
		return 0
	}
	format, err := ChooseDepthFormat(onlyPacked)
	require.NoError(t, err)
	assert.Equal(t, core1_0.FormatD24UnsignedNormalizedS8UnsignedInt, format)
	assert.True(t, HasStencil(format))

	all := func(core1_0.Format) core1_0.FormatFeatureFlags {
		return core1_0.FormatFeatureDepthStencilAttachment
	}
	format, err = ChooseDepthFormat(all)
	require.NoError(t, err)
	assert.Equal(t, core1_0.FormatD32SignedFloat, format)
	assert.False(t, HasStencil(format))

	_, err = ChooseDepthFormat(func(core1_0.Format) core1_0.FormatFeatureFlags { return 0 })
	assert.True(t, errors.Is(err, ErrNoDepthFormat))
}
