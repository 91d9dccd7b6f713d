package render

import (
	"log/slog"
	"time"

	"github.com/Pradene/scop/internal/gpu"
	"github.com/cockroachdb/errors"
)

// MaxFramesInFlight is the number of frames the CPU may record ahead of the
// GPU.
const MaxFramesInFlight = 2

type SlotState int

const (
	SlotIdle SlotState = iota
	SlotAcquiring
	SlotRecording
	SlotSubmitted
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "idle"
	case SlotAcquiring:
		return "acquiring"
	case SlotRecording:
		return "recording"
	case SlotSubmitted:
		return "submitted"
	}
	return "unknown"
}

// FrameStats counts what the scheduler did since startup.
type FrameStats struct {
	Drawn       int
	Skipped     int
	Recreations int
}

// frameBackend performs the GPU side of each scheduler step for one slot.
type frameBackend interface {
	// ready reports whether a swapchain exists to draw into.
	ready() bool
	recreate() error

	waitFrame(slot int) error
	acquire(slot int) (int, gpu.Status, error)
	// abandon undoes a successful acquire whose image will not be
	// rendered, leaving the slot's semaphores unsignaled.
	abandon(slot int) error
	resetFrame(slot int) error
	writeUniforms(slot int, elapsed time.Duration)
	record(slot, image int) error
	submit(slot int) error
	present(slot, image int) (gpu.Status, error)
}

type frameScheduler struct {
	states  []SlotState
	current int

	// pendingRecreate is set by a present that reported the swapchain as
	// out of date or suboptimal.
	pendingRecreate bool

	stats FrameStats
}

func newFrameScheduler(slots int) *frameScheduler {
	return &frameScheduler{states: make([]SlotState, slots)}
}

func (s *frameScheduler) advance() {
	s.current = (s.current + 1) % len(s.states)
}

// drawFrame runs one frame on the current slot. It returns nil without
// drawing when the swapchain had to be recreated or has no area.
func (s *frameScheduler) drawFrame(b frameBackend, elapsed time.Duration) error {
	if s.pendingRecreate || !b.ready() {
		if err := s.recreate(b); err != nil {
			return err
		}
		if !b.ready() {
			s.stats.Skipped++
			return nil
		}
	}

	slot := s.current

	if err := b.waitFrame(slot); err != nil {
		return errors.Mark(err, ErrFrame)
	}
	s.states[slot] = SlotAcquiring

	image, status, err := b.acquire(slot)
	if err != nil {
		s.states[slot] = SlotIdle
		return errors.Mark(err, ErrFrame)
	}
	if status.NeedsRecreate() {
		s.states[slot] = SlotIdle
		Logger().Debug("swapchain needs recreation on acquire", slog.String("status", status.String()))

		if status == gpu.StatusSuboptimal {
			if err = b.abandon(slot); err != nil {
				return errors.Mark(err, ErrFrame)
			}
		}
		if err = s.recreate(b); err != nil {
			return err
		}
		s.stats.Skipped++
		return nil
	}

	if err = b.resetFrame(slot); err != nil {
		return errors.Mark(err, ErrFrame)
	}
	b.writeUniforms(slot, elapsed)

	s.states[slot] = SlotRecording
	if err = b.record(slot, image); err != nil {
		return errors.Mark(err, ErrFrame)
	}
	if err = b.submit(slot); err != nil {
		return errors.Mark(err, ErrFrame)
	}
	s.states[slot] = SlotSubmitted

	status, err = b.present(slot, image)
	if err != nil {
		return errors.Mark(err, ErrFrame)
	}
	if status.NeedsRecreate() {
		Logger().Debug("swapchain needs recreation on present", slog.String("status", status.String()))
		s.pendingRecreate = true
	}

	s.advance()
	s.stats.Drawn++
	return nil
}

func (s *frameScheduler) recreate(b frameBackend) error {
	if err := b.recreate(); err != nil {
		return errors.Mark(err, ErrFrame)
	}
	s.pendingRecreate = false
	// recreate waits for the device to go idle, so every fence has signaled.
	for i := range s.states {
		s.states[i] = SlotIdle
	}
	if b.ready() {
		s.stats.Recreations++
	}
	return nil
}
