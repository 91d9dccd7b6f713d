package gpu

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

type Semaphore struct {
	device *Device
	handle core1_0.Semaphore
}

func (d *Device) CreateSemaphore() (*Semaphore, error) {
	handle, _, err := d.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, errors.Wrap(err, "create semaphore")
	}

	d.retain()
	return &Semaphore{device: d, handle: handle}, nil
}

func (d *Device) DestroySemaphore(s *Semaphore) {
	if s == nil || s.device == nil {
		return
	}

	d.driver.DestroySemaphore(s.handle, nil)
	s.device = nil
	d.release()
}

type Fence struct {
	device *Device
	handle core1_0.Fence
}

// CreateFence creates a fence, already signaled when signaled is true.
func (d *Device) CreateFence(signaled bool) (*Fence, error) {
	var info core1_0.FenceCreateInfo
	if signaled {
		info.Flags = core1_0.FenceCreateSignaled
	}

	handle, _, err := d.driver.CreateFence(nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "create fence")
	}

	d.retain()
	return &Fence{device: d, handle: handle}, nil
}

func (d *Device) DestroyFence(f *Fence) {
	if f == nil || f.device == nil {
		return
	}

	d.driver.DestroyFence(f.handle, nil)
	f.device = nil
	d.release()
}

// WaitFence blocks without timeout until f is signaled.
func (d *Device) WaitFence(f *Fence) error {
	_, err := d.driver.WaitForFences(true, common.NoTimeout, f.handle)
	return errors.Wrap(err, "wait for fence")
}

// ResetFence returns f to the unsignaled state.
func (d *Device) ResetFence(f *Fence) error {
	_, err := d.driver.ResetFences(f.handle)
	return errors.Wrap(err, "reset fence")
}
