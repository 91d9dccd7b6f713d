package gpu

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Buffer is a buffer handle with its dedicated memory allocation.
type Buffer struct {
	device *Device
	handle core1_0.Buffer
	memory core1_0.DeviceMemory
	size   int
	mapped []byte
}

// Handle returns the native buffer.
func (b *Buffer) Handle() core1_0.Buffer {
	return b.handle
}

// CreateBuffer creates a buffer of size bytes backed by memory with the given
// properties. Nothing is leaked if any step fails.
func (d *Device) CreateBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (*Buffer, error) {
	if size <= 0 {
		return nil, errors.Newf("invalid buffer size %d", size)
	}

	handle, _, err := d.driver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create buffer")
	}

	requirements := d.driver.GetBufferMemoryRequirements(handle)
	memoryType, err := d.adapter.FindMemoryType(requirements.MemoryTypeBits, properties)
	if err != nil {
		d.driver.DestroyBuffer(handle, nil)
		return nil, err
	}

	memory, _, err := d.driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	})
	if err != nil {
		d.driver.DestroyBuffer(handle, nil)
		return nil, errors.Wrapf(err, "allocate %d bytes of buffer memory", requirements.Size)
	}

	if _, err = d.driver.BindBufferMemory(handle, memory, 0); err != nil {
		d.driver.DestroyBuffer(handle, nil)
		d.driver.FreeMemory(memory, nil)
		return nil, errors.Wrap(err, "bind buffer memory")
	}

	d.retain()
	return &Buffer{device: d, handle: handle, memory: memory, size: size}, nil
}

// WriteBuffer copies data into a host-visible buffer at offset. A buffer that
// is persistently mapped is written through its mapping, others are mapped
// for the duration of the copy.
func (d *Device) WriteBuffer(b *Buffer, offset int, data []byte) error {
	if offset < 0 || offset+len(data) > b.size {
		return errors.Newf("write of %d bytes at offset %d overflows %d byte buffer", len(data), offset, b.size)
	}

	if b.mapped != nil {
		copy(b.mapped[offset:], data)
		return nil
	}

	ptr, _, err := d.driver.MapMemory(b.memory, offset, len(data), 0)
	if err != nil {
		return errors.Wrap(err, "map buffer memory")
	}
	defer d.driver.UnmapMemory(b.memory)

	copy(unsafe.Slice((*byte)(ptr), len(data)), data)
	return nil
}

// MapBuffer maps the whole buffer until it is destroyed and returns the
// mapping. Mapping twice returns the same slice.
func (d *Device) MapBuffer(b *Buffer) ([]byte, error) {
	if b.mapped != nil {
		return b.mapped, nil
	}

	ptr, _, err := d.driver.MapMemory(b.memory, 0, b.size, 0)
	if err != nil {
		return nil, errors.Wrap(err, "map buffer memory")
	}

	b.mapped = unsafe.Slice((*byte)(ptr), b.size)
	return b.mapped, nil
}

// DestroyBuffer unmaps, destroys and frees b. It is safe to call more than
// once.
func (d *Device) DestroyBuffer(b *Buffer) {
	if b == nil || b.device == nil {
		return
	}

	if b.mapped != nil {
		d.driver.UnmapMemory(b.memory)
		b.mapped = nil
	}
	d.driver.DestroyBuffer(b.handle, nil)
	d.driver.FreeMemory(b.memory, nil)

	b.device = nil
	d.release()
}
