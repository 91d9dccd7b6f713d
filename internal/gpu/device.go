package gpu

import (
	"log/slog"
	"sync/atomic"

	"github.com/Pradene/scop/internal/selection"
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// Device is the logical device and the root of every GPU object's lifetime.
//
// The device starts with one reference, owned by whoever called NewDevice.
// Every child object created through it takes another reference and gives it
// back when destroyed. The native device, the surface and the instance are
// torn down when the last reference is released, so children can never
// outlive the device they were created from.
type Device struct {
	instance *Instance
	adapter  *Adapter

	driver          core1_0.CoreDeviceDriver
	swapchainDriver khr_swapchain.ExtensionDriver

	graphicsQueue core1_0.Queue
	presentQueue  core1_0.Queue

	refs   atomic.Int64
	closed atomic.Bool
}

// NewDevice creates a logical device on adapter with one queue from each
// distinct family the adapter resolved. The device takes ownership of inst.
func NewDevice(inst *Instance, adapter *Adapter) (*Device, error) {
	if !adapter.Queues.IsComplete() {
		return nil, errors.Mark(errors.Newf("adapter %s has incomplete queue families (%s)", adapter.Name(), adapter.Queues), ErrDeviceCreation)
	}

	var queueInfos []core1_0.DeviceQueueCreateInfo
	for _, family := range selection.UniqueFamilies(adapter.Queues) {
		queueInfos = append(queueInfos, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: family,
			QueuePriorities:  []float32{1.0},
		})
	}

	extensionNames := []string{khr_swapchain.ExtensionName}
	if adapter.Caps.Extensions[khr_portability_subset.ExtensionName] {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	handle, _, err := inst.driver.CreateDevice(adapter.handle, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueInfos,
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "create device on %s", adapter.Name()), ErrDeviceCreation)
	}

	// vkDestroyDevice lives on the device loader, so a handle whose driver
	// cannot be built is left to instance teardown.
	driver, err := inst.driver.BuildDeviceDriver(handle)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "build device driver on %s", adapter.Name()), ErrDeviceCreation)
	}

	swapchainDriver := khr_swapchain.CreateExtensionDriverFromCoreDriver(driver)
	if swapchainDriver == nil {
		driver.DestroyDevice(nil)
		return nil, errors.Mark(errors.Newf("device extension %s not active on %s", khr_swapchain.ExtensionName, adapter.Name()), ErrDeviceCreation)
	}

	d := &Device{
		instance:        inst,
		adapter:         adapter,
		driver:          driver,
		swapchainDriver: swapchainDriver,
		graphicsQueue:   driver.GetQueue(*adapter.Queues.GraphicsFamily, 0),
		presentQueue:    driver.GetQueue(*adapter.Queues.PresentFamily, 0),
	}
	d.refs.Store(1)

	logger().Debug("logical device created",
		slog.String("adapter", adapter.Name()),
		slog.Int("queues", len(queueInfos)))
	return d, nil
}

// Adapter returns the physical device backing d.
func (d *Device) Adapter() *Adapter {
	return d.adapter
}

// GraphicsQueue returns the queue draws are submitted to.
func (d *Device) GraphicsQueue() core1_0.Queue {
	return d.graphicsQueue
}

// PresentQueue returns the queue used for presentation. It is the graphics
// queue when one family serves both roles.
func (d *Device) PresentQueue() core1_0.Queue {
	return d.presentQueue
}

// QueueFamilies returns the graphics and present family indices.
func (d *Device) QueueFamilies() selection.QueueFamilyIndices {
	return d.adapter.Queues
}

// SurfaceSupport re-queries the surface for the device's adapter.
func (d *Device) SurfaceSupport() (selection.SurfaceSupport, error) {
	return d.adapter.SurfaceSupport()
}

// DrawableSize reports the window's drawable size in pixels.
func (d *Device) DrawableSize() (int, int) {
	return d.instance.window.DrawableSize()
}

// WaitIdle blocks until the device has finished all submitted work.
func (d *Device) WaitIdle() error {
	if d.driver == nil {
		return ErrDeviceClosed
	}
	_, err := d.driver.DeviceWaitIdle()
	return errors.Wrap(err, "wait for device idle")
}

// Live returns the number of child objects still holding the device.
func (d *Device) Live() int {
	n := d.refs.Load()
	if !d.closed.Load() {
		n--
	}
	return int(n)
}

// Close gives up the root reference. The device is destroyed immediately if
// no children are alive, otherwise when the last one is destroyed.
func (d *Device) Close() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}

	if live := d.refs.Load() - 1; live > 0 {
		logger().Warn("device closed with live objects", slog.Int64("live", live))
	}
	d.release()
}

func (d *Device) retain() {
	d.refs.Add(1)
}

func (d *Device) release() {
	if d.refs.Add(-1) > 0 {
		return
	}

	if d.driver != nil {
		d.driver.DestroyDevice(nil)
		d.driver = nil
	}
	if d.instance != nil {
		d.instance.destroy()
	}
	logger().Debug("logical device destroyed")
}
