// Package window opens the SDL2 window the renderer presents to and turns
// SDL events into the few the host loop cares about.
package window

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"
)

type Options struct {
	Title  string
	Width  int
	Height int
}

// Window is a resizable SDL2 window with Vulkan support. It satisfies
// gpu.Window.
type Window struct {
	handle *sdl.Window
}

// Open initializes the SDL video subsystem and creates the window. Close
// must be called on the same thread.
func Open(opts Options) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "init sdl video")
	}

	handle, err := sdl.CreateWindow(opts.Title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(opts.Width), int32(opts.Height),
		sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}

	return &Window{handle: handle}, nil
}

func (w *Window) InstanceProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.handle.VulkanGetInstanceExtensions()
}

func (w *Window) CreateSurface(instance core1_0.Instance, surfaceDriver khr_surface.ExtensionDriver) (khr_surface.Surface, error) {
	surface, err := vkng_sdl2.CreateSurface(instance, surfaceDriver, w.handle)
	return surface, errors.Wrap(err, "create window surface")
}

// DrawableSize returns the drawable size in pixels. It is 0x0 while the
// window is minimized.
func (w *Window) DrawableSize() (int, int) {
	if w.Minimized() {
		return 0, 0
	}
	width, height := w.handle.VulkanGetDrawableSize()
	return int(width), int(height)
}

func (w *Window) Minimized() bool {
	return w.handle.GetFlags()&sdl.WINDOW_MINIMIZED != 0
}

// SetTitle replaces the window title.
func (w *Window) SetTitle(title string) {
	w.handle.SetTitle(title)
}

// Poll drains the SDL event queue and appends the events the host loop
// handles to events.
func (w *Window) Poll(events []Event) []Event {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		if ev, ok := translate(e); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Close destroys the window and shuts SDL down.
func (w *Window) Close() {
	if w.handle != nil {
		_ = w.handle.Destroy()
		w.handle = nil
	}
	sdl.Quit()
}
