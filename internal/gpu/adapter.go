package gpu

import (
	"github.com/Pradene/scop/internal/selection"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// Adapter is a physical device together with the capabilities gathered for
// it at startup.
type Adapter struct {
	instance *Instance
	handle   core1_0.PhysicalDevice

	Caps   selection.AdapterCaps
	Queues selection.QueueFamilyIndices

	VendorID          uint32
	DeviceID          uint32
	PipelineCacheUUID uuid.UUID
	MemoryTypes       []core1_0.MemoryType
}

func queryAdapter(inst *Instance, device core1_0.PhysicalDevice) (*Adapter, error) {
	properties, err := inst.driver.GetPhysicalDeviceProperties(device)
	if err != nil {
		return nil, errors.Wrap(err, "query device properties")
	}

	features := inst.driver.GetPhysicalDeviceFeatures(device)

	extensions, _, err := inst.driver.EnumerateDeviceExtensionProperties(device)
	if err != nil {
		return nil, errors.Wrapf(err, "query extensions of %s", properties.DriverName)
	}

	a := &Adapter{
		instance: inst,
		handle:   device,
		Caps: selection.AdapterCaps{
			Name:                properties.DriverName,
			Discrete:            properties.DriverType == core1_0.PhysicalDeviceTypeDiscreteGPU,
			MaxImageDimension2D: int(properties.Limits.MaxImageDimension2D),
			GeometryShader:      features != nil && features.GeometryShader,
			Extensions:          make(map[string]bool, len(extensions)),
		},
		VendorID:          uint32(properties.VendorID),
		DeviceID:          uint32(properties.DeviceID),
		PipelineCacheUUID: properties.PipelineCacheUUID,
	}
	for name := range extensions {
		a.Caps.Extensions[name] = true
	}

	for idx, family := range inst.driver.GetPhysicalDeviceQueueFamilyProperties(device) {
		present, _, err := inst.surfaceDriver.GetPhysicalDeviceSurfaceSupport(inst.surface, device, idx)
		if err != nil {
			return nil, errors.Wrapf(err, "query present support of family %d", idx)
		}
		a.Caps.QueueFamilies = append(a.Caps.QueueFamilies, selection.QueueFamily{
			Graphics: family.QueueFlags&core1_0.QueueGraphics != 0,
			Present:  present,
		})
	}
	a.Queues = selection.ResolveQueueFamilies(a.Caps.QueueFamilies)

	if a.Caps.Extensions[khr_swapchain.ExtensionName] {
		a.Caps.Surface, err = a.SurfaceSupport()
		if err != nil {
			return nil, err
		}
	}

	a.MemoryTypes = inst.driver.GetPhysicalDeviceMemoryProperties(device).MemoryTypes
	return a, nil
}

// Name is the human readable device name.
func (a *Adapter) Name() string {
	return a.Caps.Name
}

// SurfaceSupport queries the surface capabilities, formats and present modes
// for this adapter. The result changes with the window size, so it is
// queried again on every swapchain build.
func (a *Adapter) SurfaceSupport() (selection.SurfaceSupport, error) {
	var support selection.SurfaceSupport
	surfaceDriver, surface := a.instance.surfaceDriver, a.instance.surface

	caps, _, err := surfaceDriver.GetPhysicalDeviceSurfaceCapabilities(surface, a.handle)
	if err != nil {
		return support, errors.Wrap(err, "query surface capabilities")
	}
	support.Capabilities = *caps

	support.Formats, _, err = surfaceDriver.GetPhysicalDeviceSurfaceFormats(surface, a.handle)
	if err != nil {
		return support, errors.Wrap(err, "query surface formats")
	}

	support.PresentModes, _, err = surfaceDriver.GetPhysicalDeviceSurfacePresentModes(surface, a.handle)
	if err != nil {
		return support, errors.Wrap(err, "query present modes")
	}

	return support, nil
}

// OptimalTilingFeatures reports the optimal tiling features of format.
func (a *Adapter) OptimalTilingFeatures(format core1_0.Format) core1_0.FormatFeatureFlags {
	return a.instance.driver.GetPhysicalDeviceFormatProperties(a.handle, format).OptimalTilingFeatures
}

// FindMemoryType resolves a memory type index for a resource's type filter.
func (a *Adapter) FindMemoryType(typeFilter uint32, required core1_0.MemoryPropertyFlags) (int, error) {
	return selection.FindMemoryType(typeFilter, a.MemoryTypes, required)
}
