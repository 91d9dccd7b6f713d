package gpu

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

type ShaderModule struct {
	device *Device
	handle core1_0.ShaderModule
}

func (s *ShaderModule) Handle() core1_0.ShaderModule {
	return s.handle
}

// CreateShaderModule creates a module from SPIR-V words.
func (d *Device) CreateShaderModule(code []uint32) (*ShaderModule, error) {
	handle, _, err := d.driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create shader module")
	}

	d.retain()
	return &ShaderModule{device: d, handle: handle}, nil
}

func (d *Device) DestroyShaderModule(s *ShaderModule) {
	if s == nil || s.device == nil {
		return
	}

	d.driver.DestroyShaderModule(s.handle, nil)
	s.device = nil
	d.release()
}

type DescriptorSetLayout struct {
	device *Device
	handle core1_0.DescriptorSetLayout
}

func (d *Device) CreateDescriptorSetLayout(bindings ...core1_0.DescriptorSetLayoutBinding) (*DescriptorSetLayout, error) {
	handle, _, err := d.driver.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{
		Bindings: bindings,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor set layout")
	}

	d.retain()
	return &DescriptorSetLayout{device: d, handle: handle}, nil
}

func (d *Device) DestroyDescriptorSetLayout(l *DescriptorSetLayout) {
	if l == nil || l.device == nil {
		return
	}

	d.driver.DestroyDescriptorSetLayout(l.handle, nil)
	l.device = nil
	d.release()
}

type PipelineLayout struct {
	device *Device
	handle core1_0.PipelineLayout
}

func (p *PipelineLayout) Handle() core1_0.PipelineLayout {
	return p.handle
}

func (d *Device) CreatePipelineLayout(setLayouts ...*DescriptorSetLayout) (*PipelineLayout, error) {
	handles := make([]core1_0.DescriptorSetLayout, 0, len(setLayouts))
	for _, layout := range setLayouts {
		handles = append(handles, layout.handle)
	}

	handle, _, err := d.driver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{
		SetLayouts: handles,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline layout")
	}

	d.retain()
	return &PipelineLayout{device: d, handle: handle}, nil
}

func (d *Device) DestroyPipelineLayout(p *PipelineLayout) {
	if p == nil || p.device == nil {
		return
	}

	d.driver.DestroyPipelineLayout(p.handle, nil)
	p.device = nil
	d.release()
}

// PipelineCache is a driver pipeline cache whose contents can be persisted.
type PipelineCache struct {
	device *Device
	handle core1_0.PipelineCache
}

// CreatePipelineCache creates a cache seeded with initial, which may be nil.
func (d *Device) CreatePipelineCache(initial []byte) (*PipelineCache, error) {
	handle, _, err := d.driver.CreatePipelineCache(nil, core1_0.PipelineCacheCreateInfo{
		InitialData: initial,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create pipeline cache")
	}

	d.retain()
	return &PipelineCache{device: d, handle: handle}, nil
}

// PipelineCacheData returns the serialized cache, header included.
func (d *Device) PipelineCacheData(c *PipelineCache) ([]byte, error) {
	data, _, err := d.driver.GetPipelineCacheData(c.handle)
	return data, errors.Wrap(err, "read pipeline cache data")
}

func (d *Device) DestroyPipelineCache(c *PipelineCache) {
	if c == nil || c.device == nil {
		return
	}

	d.driver.DestroyPipelineCache(c.handle, nil)
	c.device = nil
	d.release()
}

type Pipeline struct {
	device *Device
	handle core1_0.Pipeline
}

// CreateGraphicsPipeline builds one graphics pipeline. cache may be nil.
func (d *Device) CreateGraphicsPipeline(cache *PipelineCache, info core1_0.GraphicsPipelineCreateInfo) (*Pipeline, error) {
	var cacheHandle *core1_0.PipelineCache
	if cache != nil {
		cacheHandle = &cache.handle
	}

	pipelines, _, err := d.driver.CreateGraphicsPipelines(cacheHandle, nil, info)
	if err != nil {
		return nil, errors.Wrap(err, "create graphics pipeline")
	}

	d.retain()
	return &Pipeline{device: d, handle: pipelines[0]}, nil
}

func (d *Device) DestroyPipeline(p *Pipeline) {
	if p == nil || p.device == nil {
		return
	}

	d.driver.DestroyPipeline(p.handle, nil)
	p.device = nil
	d.release()
}
