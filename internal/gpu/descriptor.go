package gpu

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// DescriptorPool owns the descriptor sets allocated from it. Sets are freed
// together with the pool.
type DescriptorPool struct {
	device *Device
	handle core1_0.DescriptorPool
}

// DescriptorSet is a set allocated from a DescriptorPool.
type DescriptorSet struct {
	handle core1_0.DescriptorSet
}

// CreateDescriptorPool creates a pool able to hold maxSets sets drawing from
// sizes.
func (d *Device) CreateDescriptorPool(maxSets int, sizes ...core1_0.DescriptorPoolSize) (*DescriptorPool, error) {
	handle, _, err := d.driver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets:   maxSets,
		PoolSizes: sizes,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor pool")
	}

	d.retain()
	return &DescriptorPool{device: d, handle: handle}, nil
}

func (d *Device) DestroyDescriptorPool(p *DescriptorPool) {
	if p == nil || p.device == nil {
		return
	}

	d.driver.DestroyDescriptorPool(p.handle, nil)
	p.device = nil
	d.release()
}

// AllocateDescriptorSets allocates count sets of the same layout.
func (d *Device) AllocateDescriptorSets(pool *DescriptorPool, layout *DescriptorSetLayout, count int) ([]DescriptorSet, error) {
	layouts := make([]core1_0.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = layout.handle
	}

	handles, _, err := d.driver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: pool.handle,
		SetLayouts:     layouts,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "allocate %d descriptor sets", count)
	}

	sets := make([]DescriptorSet, len(handles))
	for i, handle := range handles {
		sets[i] = DescriptorSet{handle: handle}
	}
	return sets, nil
}

// BindUniformBuffer points binding of set at the first size bytes of buffer.
func (d *Device) BindUniformBuffer(set DescriptorSet, binding int, buffer *Buffer, size int) error {
	err := d.driver.UpdateDescriptorSets([]core1_0.WriteDescriptorSet{
		{
			DstSet:          set.handle,
			DstBinding:      binding,
			DstArrayElement: 0,

			DescriptorType: core1_0.DescriptorTypeUniformBuffer,

			BufferInfo: []core1_0.DescriptorBufferInfo{
				{
					Buffer: buffer.handle,
					Offset: 0,
					Range:  size,
				},
			},
		},
	}, nil)
	return errors.Wrap(err, "update descriptor set")
}
