package window

import "github.com/veandco/go-sdl2/sdl"

type EventKind int

const (
	EventClose EventKind = iota
	EventResize
	EventMinimize
	EventRestore
)

func (k EventKind) String() string {
	switch k {
	case EventClose:
		return "close"
	case EventResize:
		return "resize"
	case EventMinimize:
		return "minimize"
	case EventRestore:
		return "restore"
	}
	return "unknown"
}

// Event is a window event. Width and Height are set for EventResize only.
type Event struct {
	Kind   EventKind
	Width  int
	Height int
}

func translate(e sdl.Event) (Event, bool) {
	switch e := e.(type) {
	case *sdl.QuitEvent:
		return Event{Kind: EventClose}, true
	case *sdl.KeyboardEvent:
		if e.State == sdl.PRESSED && e.Keysym.Sym == sdl.K_ESCAPE {
			return Event{Kind: EventClose}, true
		}
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_CLOSE:
			return Event{Kind: EventClose}, true
		case sdl.WINDOWEVENT_MINIMIZED:
			return Event{Kind: EventMinimize}, true
		case sdl.WINDOWEVENT_RESTORED:
			return Event{Kind: EventRestore}, true
		// SIZE_CHANGED follows every RESIZED and also covers size changes
		// SDL made itself.
		case sdl.WINDOWEVENT_SIZE_CHANGED:
			return Event{Kind: EventResize, Width: int(e.Data1), Height: int(e.Data2)}, true
		}
	}
	return Event{}, false
}
