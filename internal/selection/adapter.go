// Package selection holds the pure decision rules used while bringing up the
// renderer: adapter scoring, queue family resolution, swapchain parameters,
// depth format and memory type choice.
//
// Every function here takes plain data gathered from the driver, so the rules
// can be exercised without a GPU.
package selection

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// DiscreteBonus is added to the score of discrete GPUs.
const DiscreteBonus = 1000

// ErrNoSuitableAdapter is returned when no candidate adapter passes the
// eligibility rules.
var ErrNoSuitableAdapter = errors.New("no suitable GPU adapter")

// Requirements lists what an adapter must provide beyond the fixed rules.
type Requirements struct {
	// GeometryShader disqualifies adapters that lack the geometry shader
	// feature. The pipeline does not use one; the gate is kept as a
	// capability floor and can be relaxed from configuration.
	GeometryShader bool
	// Extensions are device extensions that must all be present.
	// VK_KHR_swapchain is always required and need not be listed.
	Extensions []string
}

// DefaultRequirements returns the requirements used when none are configured.
func DefaultRequirements() Requirements {
	return Requirements{GeometryShader: true}
}

// QueueFamily describes the capabilities of one queue family that matter to
// the renderer.
type QueueFamily struct {
	Graphics bool
	Present  bool
}

// QueueFamilyIndices names the families chosen for graphics and presentation.
// Either may be unset, and both may point to the same family.
type QueueFamilyIndices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

// IsComplete reports whether both roles are covered.
func (i QueueFamilyIndices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

// Shared reports whether graphics and presentation use one family.
func (i QueueFamilyIndices) Shared() bool {
	return i.IsComplete() && *i.GraphicsFamily == *i.PresentFamily
}

func (i QueueFamilyIndices) String() string {
	describe := func(p *int) string {
		if p == nil {
			return "none"
		}
		return fmt.Sprint(*p)
	}
	return fmt.Sprintf("graphics=%s present=%s", describe(i.GraphicsFamily), describe(i.PresentFamily))
}

// AdapterCaps is everything the selector knows about one physical device.
type AdapterCaps struct {
	Name                string
	Discrete            bool
	MaxImageDimension2D int
	GeometryShader      bool
	QueueFamilies       []QueueFamily
	Extensions          map[string]bool
	Surface             SurfaceSupport
}

// ResolveQueueFamilies scans families in index order and returns the first
// graphics-capable family and the first present-capable family.
func ResolveQueueFamilies(families []QueueFamily) QueueFamilyIndices {
	var indices QueueFamilyIndices
	for i, family := range families {
		idx := i
		if family.Graphics && indices.GraphicsFamily == nil {
			indices.GraphicsFamily = &idx
		}
		if family.Present && indices.PresentFamily == nil {
			indices.PresentFamily = &idx
		}
		if indices.IsComplete() {
			break
		}
	}
	return indices
}

// Disqualify returns the reason caps cannot be used, or the empty string when
// the adapter is eligible.
func Disqualify(caps AdapterCaps, req Requirements) string {
	if req.GeometryShader && !caps.GeometryShader {
		return "missing geometry shader feature"
	}

	indices := ResolveQueueFamilies(caps.QueueFamilies)
	if indices.GraphicsFamily == nil {
		return "no graphics queue family"
	}
	if indices.PresentFamily == nil {
		return "no queue family can present to the surface"
	}

	if !caps.Extensions[khr_swapchain.ExtensionName] {
		return "missing extension " + khr_swapchain.ExtensionName
	}
	for _, ext := range req.Extensions {
		if !caps.Extensions[ext] {
			return "missing extension " + ext
		}
	}

	if len(caps.Surface.Formats) == 0 {
		return "surface reports no formats"
	}
	if len(caps.Surface.PresentModes) == 0 {
		return "surface reports no present modes"
	}

	return ""
}

// ScoreAdapter rates an adapter. Ineligible adapters score 0. Eligible ones
// score their maximum 2D image dimension plus DiscreteBonus when discrete.
func ScoreAdapter(caps AdapterCaps, req Requirements) int {
	if Disqualify(caps, req) != "" {
		return 0
	}

	score := caps.MaxImageDimension2D
	if caps.Discrete {
		score += DiscreteBonus
	}
	return score
}

// PickAdapter returns the index of the highest scoring eligible adapter.
// Ties go to the adapter listed first.
func PickAdapter(candidates []AdapterCaps, req Requirements) (int, error) {
	best, bestScore := -1, -1
	for i, caps := range candidates {
		if Disqualify(caps, req) != "" {
			continue
		}
		if score := ScoreAdapter(caps, req); score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 {
		return -1, errors.Wrapf(ErrNoSuitableAdapter, "%d candidate(s) examined", len(candidates))
	}
	return best, nil
}

// UniqueFamilies lists the distinct family indices in indices, graphics first.
func UniqueFamilies(indices QueueFamilyIndices) []int {
	if !indices.IsComplete() {
		return nil
	}

	families := []int{*indices.GraphicsFamily}
	if *indices.PresentFamily != *indices.GraphicsFamily {
		families = append(families, *indices.PresentFamily)
	}
	return families
}
