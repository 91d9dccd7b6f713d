package render

import (
	"log/slog"

	"github.com/Pradene/scop/internal/gpu"
	"github.com/Pradene/scop/internal/mesh"
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// bufferDevice is the part of *gpu.Device the resource manager uses.
type bufferDevice interface {
	CreateBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (*gpu.Buffer, error)
	WriteBuffer(b *gpu.Buffer, offset int, data []byte) error
	MapBuffer(b *gpu.Buffer) ([]byte, error)
	CopyBuffer(pool *gpu.CommandPool, src, dst *gpu.Buffer, size int) error
	DestroyBuffer(b *gpu.Buffer)
}

const hostCoherent = core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent

// ResourceStats describes what the resource manager holds.
type ResourceStats struct {
	BytesUploaded  int
	GeometryBytes  int
	UniformBuffers int
	IndexCount     int
}

type resourceManager struct {
	device bufferDevice
	pool   *gpu.CommandPool

	vertices   *gpu.Buffer
	indices    *gpu.Buffer
	indexCount int

	uniforms []*gpu.Buffer
	mapped   [][]byte

	stats ResourceStats
}

func newResourceManager(device bufferDevice, pool *gpu.CommandPool) *resourceManager {
	return &resourceManager{device: device, pool: pool}
}

// uploadStaged copies data into a new device-local buffer through a
// host-visible staging buffer. The staging buffer is gone when it returns.
func (r *resourceManager) uploadStaged(data []byte, usage core1_0.BufferUsageFlags) (*gpu.Buffer, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrBufferCreation, "nothing to upload")
	}

	staging, err := r.device.CreateBuffer(len(data), core1_0.BufferUsageTransferSrc, hostCoherent)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "staging buffer"), ErrBufferCreation)
	}
	defer r.device.DestroyBuffer(staging)

	if err = r.device.WriteBuffer(staging, 0, data); err != nil {
		return nil, errors.Mark(err, ErrBufferCreation)
	}

	target, err := r.device.CreateBuffer(len(data), usage|core1_0.BufferUsageTransferDst, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, errors.Mark(err, ErrBufferCreation)
	}

	if err = r.device.CopyBuffer(r.pool, staging, target, len(data)); err != nil {
		r.device.DestroyBuffer(target)
		return nil, errors.Mark(err, ErrBufferCreation)
	}

	r.stats.BytesUploaded += len(data)
	return target, nil
}

func (r *resourceManager) uploadMesh(m *mesh.Mesh) error {
	vertexData, indexData := m.VertexBytes(), m.IndexBytes()

	var err error
	r.vertices, err = r.uploadStaged(vertexData, core1_0.BufferUsageVertexBuffer)
	if err != nil {
		return errors.Wrap(err, "vertex buffer")
	}

	r.indices, err = r.uploadStaged(indexData, core1_0.BufferUsageIndexBuffer)
	if err != nil {
		return errors.Wrap(err, "index buffer")
	}

	r.indexCount = len(m.Indices)
	r.stats.GeometryBytes = len(vertexData) + len(indexData)
	r.stats.IndexCount = r.indexCount

	Logger().Debug("mesh uploaded",
		slog.Int("vertices", len(m.Vertices)),
		slog.Int("indices", r.indexCount),
		slog.Int("bytes", r.stats.GeometryBytes))
	return nil
}

// createUniforms creates one persistently mapped uniform buffer per frame
// slot.
func (r *resourceManager) createUniforms(count int) error {
	for i := 0; i < count; i++ {
		buffer, err := r.device.CreateBuffer(uniformSize, core1_0.BufferUsageUniformBuffer, hostCoherent)
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "uniform buffer %d", i), ErrBufferCreation)
		}
		r.uniforms = append(r.uniforms, buffer)

		mapped, err := r.device.MapBuffer(buffer)
		if err != nil {
			return errors.Mark(errors.Wrapf(err, "uniform buffer %d", i), ErrBufferCreation)
		}
		r.mapped = append(r.mapped, mapped)
	}

	r.stats.UniformBuffers = len(r.uniforms)
	return nil
}

// writeUniform stores payload in the slot's uniform buffer. The slot's
// fence must have been waited on.
func (r *resourceManager) writeUniform(slot int, payload UniformPayload) {
	copy(r.mapped[slot], payload.Bytes())
}

func (r *resourceManager) destroy() {
	for _, buffer := range r.uniforms {
		r.device.DestroyBuffer(buffer)
	}
	r.uniforms, r.mapped = nil, nil

	r.device.DestroyBuffer(r.indices)
	r.device.DestroyBuffer(r.vertices)
	r.indices, r.vertices = nil, nil
}

// descriptors holds one descriptor set per frame slot, each bound to that
// slot's uniform buffer.
type descriptors struct {
	pool *gpu.DescriptorPool
	sets []gpu.DescriptorSet
}

func newDescriptors(device *gpu.Device, layout *gpu.DescriptorSetLayout, uniforms []*gpu.Buffer) (*descriptors, error) {
	pool, err := device.CreateDescriptorPool(len(uniforms), core1_0.DescriptorPoolSize{
		Type:            core1_0.DescriptorTypeUniformBuffer,
		DescriptorCount: len(uniforms),
	})
	if err != nil {
		return nil, err
	}
	d := &descriptors{pool: pool}

	d.sets, err = device.AllocateDescriptorSets(pool, layout, len(uniforms))
	if err != nil {
		device.DestroyDescriptorPool(pool)
		return nil, err
	}

	for i, set := range d.sets {
		if err = device.BindUniformBuffer(set, 0, uniforms[i], uniformSize); err != nil {
			device.DestroyDescriptorPool(pool)
			return nil, errors.Wrapf(err, "bind uniform buffer %d", i)
		}
	}
	return d, nil
}

func (d *descriptors) destroy(device *gpu.Device) {
	device.DestroyDescriptorPool(d.pool)
	d.pool, d.sets = nil, nil
}
