package gpu

import "github.com/cockroachdb/errors"

var (
	// ErrInstanceCreation marks failures while creating the Vulkan instance,
	// its debug messenger or the window surface.
	ErrInstanceCreation = errors.New("vulkan instance creation failed")
	// ErrDeviceCreation marks failures while creating the logical device.
	ErrDeviceCreation = errors.New("logical device creation failed")
	// ErrDeviceClosed is returned by operations attempted after the device
	// has been destroyed.
	ErrDeviceClosed = errors.New("device is closed")
)

// Status classifies the swapchain results that are recoverable by
// recreating the swapchain.
type Status int

const (
	StatusOK Status = iota
	StatusSuboptimal
	StatusOutOfDate
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out of date"
	default:
		return "unknown"
	}
}

// NeedsRecreate reports whether the swapchain should be rebuilt.
func (s Status) NeedsRecreate() bool {
	return s != StatusOK
}
