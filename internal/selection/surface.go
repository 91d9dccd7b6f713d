package selection

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

// ErrNoDepthFormat is returned when none of the depth candidates can be used
// as an optimal-tiling depth attachment.
var ErrNoDepthFormat = errors.New("no supported depth format")

// DepthCandidates are tried in order by ChooseDepthFormat.
var DepthCandidates = []core1_0.Format{
	core1_0.FormatD32SignedFloat,
	core1_0.FormatD32SignedFloatS8UnsignedInt,
	core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
}

// SurfaceSupport is what the surface reports for one adapter.
type SurfaceSupport struct {
	Capabilities khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

// ChooseSurfaceFormat prefers B8G8R8A8 sRGB in the sRGB non-linear color
// space wherever it appears in formats, and falls back to the first entry.
// formats must not be empty.
func ChooseSurfaceFormat(formats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range formats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return formats[0]
}

// ChoosePresentMode prefers mailbox and otherwise uses FIFO, which every
// surface supports.
func ChoosePresentMode(modes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, mode := range modes {
		if mode == khr_surface.PresentModeMailbox {
			return mode
		}
	}

	return khr_surface.PresentModeFIFO
}

// ChooseExtent returns the surface's current extent unless the surface leaves
// the size to the application, in which case the drawable size is clamped to
// the supported range.
func ChooseExtent(caps khr_surface.SurfaceCapabilities, drawableWidth, drawableHeight int) core1_0.Extent2D {
	if uint32(caps.CurrentExtent.Width) != math.MaxUint32 {
		return caps.CurrentExtent
	}

	return core1_0.Extent2D{
		Width:  clamp(drawableWidth, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(drawableHeight, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum, capped at the
// maximum when the surface has one. A maximum of 0 means unbounded.
func ChooseImageCount(minCount, maxCount int) int {
	count := minCount + 1
	if maxCount > 0 && count > maxCount {
		count = maxCount
	}
	return count
}

// SharingMode returns exclusive sharing when one family handles both roles,
// and concurrent sharing across both families otherwise.
func SharingMode(indices QueueFamilyIndices) (core1_0.SharingMode, []int) {
	if !indices.IsComplete() || indices.Shared() {
		return core1_0.SharingModeExclusive, nil
	}

	return core1_0.SharingModeConcurrent, []int{*indices.GraphicsFamily, *indices.PresentFamily}
}

// ChooseDepthFormat returns the first of DepthCandidates whose optimal tiling
// features include depth-stencil attachment.
func ChooseDepthFormat(optimalFeatures func(core1_0.Format) core1_0.FormatFeatureFlags) (core1_0.Format, error) {
	for _, format := range DepthCandidates {
		if optimalFeatures(format)&core1_0.FormatFeatureDepthStencilAttachment != 0 {
			return format, nil
		}
	}

	return 0, ErrNoDepthFormat
}

// HasStencil reports whether a depth format carries a stencil aspect.
func HasStencil(format core1_0.Format) bool {
	return format == core1_0.FormatD32SignedFloatS8UnsignedInt || format == core1_0.FormatD24UnsignedNormalizedS8UnsignedInt
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
