package render

import (
	"path/filepath"
	"testing"

	"github.com/Pradene/scop/internal/gpu"
	"github.com/Pradene/scop/internal/selection"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

type fakeAdapterSource struct {
	adapters []*gpu.Adapter
	err      error
}

func (s fakeAdapterSource) Adapters() ([]*gpu.Adapter, error) {
	return s.adapters, s.err
}

func usableAdapter(name string, discrete bool) *gpu.Adapter {
	family := 0
	return &gpu.Adapter{
		Caps: selection.AdapterCaps{
			Name:                name,
			Discrete:            discrete,
			MaxImageDimension2D: 8192,
			GeometryShader:      true,
			QueueFamilies:       []selection.QueueFamily{{Graphics: true, Present: true}},
			Extensions:          map[string]bool{khr_swapchain.ExtensionName: true},
			Surface: selection.SurfaceSupport{
				Formats:      []khr_surface.SurfaceFormat{{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}},
				PresentModes: []khr_surface.PresentMode{khr_surface.PresentModeFIFO},
			},
		},
		Queues: selection.QueueFamilyIndices{GraphicsFamily: &family, PresentFamily: &family},
	}
}

func TestPickAdapter(t *testing.T) {
	integrated := usableAdapter("integrated", false)
	discrete := usableAdapter("discrete", true)

	chosen, err := pickAdapter(fakeAdapterSource{adapters: []*gpu.Adapter{integrated, discrete}}, selection.DefaultRequirements())
	require.NoError(t, err)
	assert.Same(t, discrete, chosen)
}

func TestPickAdapterErrors(t *testing.T) {
	req := selection.DefaultRequirements()

	_, err := pickAdapter(fakeAdapterSource{err: errors.New("enumerate failed")}, req)
	assert.True(t, errors.Is(err, ErrDeviceCreation))

	noSwapchain := usableAdapter("bare", true)
	noSwapchain.Caps.Extensions = map[string]bool{}
	_, err = pickAdapter(fakeAdapterSource{adapters: []*gpu.Adapter{noSwapchain}}, req)
	assert.True(t, errors.Is(err, ErrNoSuitableAdapter))

	_, err = pickAdapter(fakeAdapterSource{}, req)
	assert.True(t, errors.Is(err, ErrNoSuitableAdapter))
}

type fakePoolDevice struct {
	err error
}

func (d fakePoolDevice) CreateCommandPool() (*gpu.CommandPool, error) {
	if d.err != nil {
		return nil, d.err
	}
	return &gpu.CommandPool{}, nil
}

func TestCreateCommandPool(t *testing.T) {
	pool, err := createCommandPool(fakePoolDevice{})
	require.NoError(t, err)
	assert.NotNil(t, pool)

	_, err = createCommandPool(fakePoolDevice{err: errors.New("out of host memory")})
	assert.True(t, errors.Is(err, ErrDeviceCreation))
}

type fakeSlotDevice struct {
	allocErr     error
	semaphoreErr error
	fenceErr     error

	// failAfter lets that many semaphores succeed before semaphoreErr applies.
	failAfter  int
	semaphores int
	fences     []bool
}

func (d *fakeSlotDevice) AllocateCommandBuffers(pool *gpu.CommandPool, count int) ([]*gpu.CommandBuffer, error) {
	if d.allocErr != nil {
		return nil, d.allocErr
	}
	buffers := make([]*gpu.CommandBuffer, count)
	for i := range buffers {
		buffers[i] = &gpu.CommandBuffer{}
	}
	return buffers, nil
}

func (d *fakeSlotDevice) CreateSemaphore() (*gpu.Semaphore, error) {
	if d.semaphoreErr != nil && d.semaphores >= d.failAfter {
		return nil, d.semaphoreErr
	}
	d.semaphores++
	return &gpu.Semaphore{}, nil
}

func (d *fakeSlotDevice) CreateFence(signaled bool) (*gpu.Fence, error) {
	if d.fenceErr != nil {
		return nil, d.fenceErr
	}
	d.fences = append(d.fences, signaled)
	return &gpu.Fence{}, nil
}

func TestCreateSlots(t *testing.T) {
	device := &fakeSlotDevice{}
	slots, err := createSlots(device, &gpu.CommandPool{}, MaxFramesInFlight)
	require.NoError(t, err)
	require.Len(t, slots, MaxFramesInFlight)

	for _, slot := range slots {
		assert.NotNil(t, slot.commands)
		assert.NotNil(t, slot.imageAcquired)
		assert.NotNil(t, slot.renderFinished)
		assert.NotNil(t, slot.inFlight)
	}
	assert.Equal(t, 2*MaxFramesInFlight, device.semaphores)
	for _, signaled := range device.fences {
		assert.True(t, signaled, "fences start signaled so the first wait returns")
	}
}

func TestCreateSlotsErrors(t *testing.T) {
	pool := &gpu.CommandPool{}

	_, err := createSlots(&fakeSlotDevice{allocErr: errors.New("no memory")}, pool, MaxFramesInFlight)
	assert.True(t, errors.Is(err, ErrBufferCreation))

	_, err = createSlots(&fakeSlotDevice{semaphoreErr: errors.New("no memory")}, pool, MaxFramesInFlight)
	assert.True(t, errors.Is(err, ErrSyncCreation))

	_, err = createSlots(&fakeSlotDevice{fenceErr: errors.New("no memory")}, pool, MaxFramesInFlight)
	assert.True(t, errors.Is(err, ErrSyncCreation))
}

func TestCreateSlotsKeepsPartialSlots(t *testing.T) {
	device := &fakeSlotDevice{semaphoreErr: errors.New("no memory"), failAfter: 3}
	slots, err := createSlots(device, &gpu.CommandPool{}, MaxFramesInFlight)
	require.Error(t, err)
	require.Len(t, slots, MaxFramesInFlight)

	assert.NotNil(t, slots[0].imageAcquired)
	assert.NotNil(t, slots[0].renderFinished)
	assert.NotNil(t, slots[1].imageAcquired)
	assert.Nil(t, slots[1].renderFinished)
}

func TestLoadShaderUnreadable(t *testing.T) {
	dir := t.TempDir()

	// A directory exists but cannot be read as a file.
	_, err := loadSPIRV(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShaderNotFound))

	_, err = loadSPIRV(filepath.Join(dir, "missing.spv"))
	assert.True(t, errors.Is(err, ErrShaderNotFound))
}
