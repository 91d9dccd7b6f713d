package render

import (
	"log/slog"
	"time"

	"github.com/Pradene/scop/internal/camera"
	"github.com/Pradene/scop/internal/gpu"
	"github.com/Pradene/scop/internal/mesh"
	"github.com/Pradene/scop/internal/selection"
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
)

type Options struct {
	ApplicationName string
	Validation      bool
	Requirements    selection.Requirements

	// Shaders are used as given when both stages are set. Otherwise they
	// are loaded from ShaderDir.
	Shaders   ShaderSet
	ShaderDir string

	// PipelineCachePath persists the pipeline cache between runs when set.
	PipelineCachePath string

	Camera camera.Camera
}

// frameSlot is the per-frame state the scheduler cycles through.
type frameSlot struct {
	imageAcquired  *gpu.Semaphore
	renderFinished *gpu.Semaphore
	inFlight       *gpu.Fence
	commands       *gpu.CommandBuffer
}

// Stats is a snapshot of the context for logging.
type Stats struct {
	Adapter   string
	Frames    FrameStats
	Resources ResourceStats
}

// Context renders one mesh into one window. It must be used from the thread
// that created it.
type Context struct {
	instance *gpu.Instance
	device   *gpu.Device
	adapter  *gpu.Adapter

	pool        *gpu.CommandPool
	resources   *resourceManager
	pipeline    *Pipeline
	swapchain   *swapchainManager
	descriptors *descriptors
	slots       []frameSlot
	scheduler   *frameScheduler

	camera camera.Camera
	center mgl32.Vec3
}

// Initialize brings up everything needed to draw m into window: instance,
// adapter, device, geometry, pipeline, swapchain and frame slots. On error
// everything created so far is released.
func Initialize(window gpu.Window, m *mesh.Mesh, opts Options) (*Context, error) {
	c := &Context{
		camera:    opts.Camera,
		center:    m.Center,
		scheduler: newFrameScheduler(MaxFramesInFlight),
	}
	if err := c.init(window, m, opts); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Context) init(window gpu.Window, m *mesh.Mesh, opts Options) error {
	shaders := opts.Shaders
	if len(shaders.Vertex) == 0 || len(shaders.Fragment) == 0 {
		var err error
		if shaders, err = LoadShaders(opts.ShaderDir); err != nil {
			return err
		}
	}

	var err error
	c.instance, err = gpu.NewInstance(window, gpu.InstanceOptions{
		ApplicationName: opts.ApplicationName,
		Validation:      opts.Validation,
	})
	if err != nil {
		return err
	}

	if c.adapter, err = pickAdapter(c.instance, opts.Requirements); err != nil {
		return err
	}

	c.device, err = gpu.NewDevice(c.instance, c.adapter)
	if err != nil {
		return err
	}
	c.instance = nil

	depthFormat, err := selection.ChooseDepthFormat(c.adapter.OptimalTilingFeatures)
	if err != nil {
		return err
	}

	if c.pool, err = createCommandPool(c.device); err != nil {
		return err
	}

	c.resources = newResourceManager(c.device, c.pool)
	if err = c.resources.uploadMesh(m); err != nil {
		return err
	}
	if err = c.resources.createUniforms(MaxFramesInFlight); err != nil {
		return err
	}

	c.swapchain = newSwapchainManager(c.device, depthFormat, nil)
	format, err := c.swapchain.surfaceFormat()
	if err != nil {
		return err
	}

	c.pipeline, err = newPipeline(c.device, shaders, format.Format, depthFormat, opts.PipelineCachePath)
	if err != nil {
		return err
	}
	c.swapchain.renderPassFor = c.pipeline.renderPassFor

	if err = c.swapchain.build(); err != nil {
		return err
	}

	if c.descriptors, err = newDescriptors(c.device, c.pipeline.setLayout, c.resources.uniforms); err != nil {
		return errors.Mark(err, ErrBufferCreation)
	}

	c.slots, err = createSlots(c.device, c.pool, MaxFramesInFlight)
	if err != nil {
		return err
	}

	Logger().Info("renderer ready",
		slog.String("adapter", c.adapter.Name()),
		slog.Int("depthFormat", int(depthFormat)),
		slog.Bool("stencil", selection.HasStencil(depthFormat)),
		slog.Int("uploaded", c.resources.stats.BytesUploaded))
	return nil
}

type adapterSource interface {
	Adapters() ([]*gpu.Adapter, error)
}

func pickAdapter(source adapterSource, req selection.Requirements) (*gpu.Adapter, error) {
	adapters, err := source.Adapters()
	if err != nil {
		return nil, errors.Mark(err, ErrDeviceCreation)
	}

	caps := make([]selection.AdapterCaps, len(adapters))
	for i, adapter := range adapters {
		caps[i] = adapter.Caps
		if reason := selection.Disqualify(adapter.Caps, req); reason != "" {
			Logger().Debug("adapter rejected",
				slog.String("name", adapter.Name()),
				slog.String("reason", reason))
		}
	}

	idx, err := selection.PickAdapter(caps, req)
	if err != nil {
		return nil, errors.Wrapf(err, "%d adapters considered", len(adapters))
	}

	chosen := adapters[idx]
	Logger().Info("adapter selected",
		slog.String("name", chosen.Name()),
		slog.Bool("discrete", chosen.Caps.Discrete),
		slog.Int("score", selection.ScoreAdapter(chosen.Caps, req)),
		slog.String("queues", chosen.Queues.String()))
	return chosen, nil
}

type poolDevice interface {
	CreateCommandPool() (*gpu.CommandPool, error)
}

func createCommandPool(device poolDevice) (*gpu.CommandPool, error) {
	pool, err := device.CreateCommandPool()
	if err != nil {
		return nil, errors.Mark(err, ErrDeviceCreation)
	}
	return pool, nil
}

// slotDevice is the part of *gpu.Device frame slots are created from.
type slotDevice interface {
	AllocateCommandBuffers(pool *gpu.CommandPool, count int) ([]*gpu.CommandBuffer, error)
	CreateSemaphore() (*gpu.Semaphore, error)
	CreateFence(signaled bool) (*gpu.Fence, error)
}

// createSlots returns whatever slots it got through even on error, so that
// Close can release them.
func createSlots(device slotDevice, pool *gpu.CommandPool, count int) ([]frameSlot, error) {
	buffers, err := device.AllocateCommandBuffers(pool, count)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "frame command buffers"), ErrBufferCreation)
	}

	slots := make([]frameSlot, count)
	for i := range slots {
		slot := &slots[i]
		slot.commands = buffers[i]

		if slot.imageAcquired, err = device.CreateSemaphore(); err != nil {
			return slots, errors.Mark(errors.Wrapf(err, "slot %d image semaphore", i), ErrSyncCreation)
		}
		if slot.renderFinished, err = device.CreateSemaphore(); err != nil {
			return slots, errors.Mark(errors.Wrapf(err, "slot %d render semaphore", i), ErrSyncCreation)
		}
		if slot.inFlight, err = device.CreateFence(true); err != nil {
			return slots, errors.Mark(errors.Wrapf(err, "slot %d fence", i), ErrSyncCreation)
		}
	}
	return slots, nil
}

// DrawFrame renders one frame with the mesh rotated to where it is after
// elapsed. Out of date swapchains are recreated and the frame skipped
// without error. Any returned error is marked with ErrFrame.
func (c *Context) DrawFrame(elapsed time.Duration) error {
	return c.scheduler.drawFrame(c, elapsed)
}

// Resize rebuilds the swapchain for the window's current drawable size.
func (c *Context) Resize() error {
	return c.scheduler.recreate(c)
}

func (c *Context) Stats() Stats {
	var s Stats
	if c.adapter != nil {
		s.Adapter = c.adapter.Name()
	}
	s.Frames = c.scheduler.stats
	if c.resources != nil {
		s.Resources = c.resources.stats
	}
	return s
}

// Close waits for the GPU to finish and releases everything in reverse
// creation order. It is safe to call more than once.
func (c *Context) Close() {
	if c.instance != nil {
		c.instance.Close()
		c.instance = nil
	}
	if c.device == nil {
		return
	}

	if err := c.device.WaitIdle(); err != nil {
		Logger().Warn("wait for device idle before shutdown", slog.Any("error", err))
	}

	for i := range c.slots {
		slot := &c.slots[i]
		c.device.DestroyFence(slot.inFlight)
		c.device.DestroySemaphore(slot.renderFinished)
		c.device.DestroySemaphore(slot.imageAcquired)
		c.device.FreeCommandBuffers(slot.commands)
	}
	c.slots = nil

	if c.descriptors != nil {
		c.descriptors.destroy(c.device)
	}
	if c.swapchain != nil {
		c.swapchain.destroy()
	}
	if c.pipeline != nil {
		c.pipeline.destroy()
	}
	if c.resources != nil {
		c.resources.destroy()
	}
	c.device.DestroyCommandPool(c.pool)

	c.device.Close()
	c.device = nil
	Logger().Info("renderer shut down", slog.Int("frames", c.scheduler.stats.Drawn))
}

func (c *Context) ready() bool {
	return c.swapchain.ready()
}

func (c *Context) recreate() error {
	return c.swapchain.recreate()
}

func (c *Context) waitFrame(slot int) error {
	return c.device.WaitFence(c.slots[slot].inFlight)
}

func (c *Context) acquire(slot int) (int, gpu.Status, error) {
	return c.device.AcquireNextImage(c.swapchain.state.swapchain, c.slots[slot].imageAcquired)
}

// abandon replaces the slot's image-acquired semaphore, which an acquire
// left with a signal nothing will wait on.
func (c *Context) abandon(slot int) error {
	if err := c.device.WaitIdle(); err != nil {
		return err
	}

	fresh, err := c.device.CreateSemaphore()
	if err != nil {
		return err
	}
	c.device.DestroySemaphore(c.slots[slot].imageAcquired)
	c.slots[slot].imageAcquired = fresh
	return nil
}

func (c *Context) resetFrame(slot int) error {
	return c.device.ResetFence(c.slots[slot].inFlight)
}

func (c *Context) writeUniforms(slot int, elapsed time.Duration) {
	extent := c.swapchain.state.Extent
	c.resources.writeUniform(slot, UniformPayload{
		Model: ModelMatrix(c.center, elapsed),
		View:  c.camera.View(),
		Proj:  c.camera.Projection(float32(extent.Width) / float32(extent.Height)),
	})
}

func (c *Context) record(slot, image int) error {
	cb := c.slots[slot].commands
	if err := cb.Reset(); err != nil {
		return err
	}

	state := c.swapchain.state
	return recordDraw(cb, drawTarget{
		renderPass:  c.pipeline.renderPass,
		framebuffer: state.Framebuffer(image),
		extent:      state.Extent,
		pipeline:    c.pipeline.pipeline,
		layout:      c.pipeline.layout,
		set:         c.descriptors.sets[slot],
		vertices:    c.resources.vertices,
		indices:     c.resources.indices,
		indexCount:  c.resources.indexCount,
	})
}

func (c *Context) submit(slot int) error {
	s := c.slots[slot]
	return c.device.Submit(s.commands, s.imageAcquired, s.renderFinished, s.inFlight)
}

func (c *Context) present(slot, image int) (gpu.Status, error) {
	return c.device.Present(c.swapchain.state.swapchain, image, c.slots[slot].renderFinished)
}
