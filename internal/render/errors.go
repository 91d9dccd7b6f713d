package render

import (
	"github.com/Pradene/scop/internal/gpu"
	"github.com/Pradene/scop/internal/selection"
	"github.com/cockroachdb/errors"
)

// Startup failures. Initialize marks every error it returns with one of
// these, so callers can tell them apart with errors.Is.
var (
	ErrNoSuitableAdapter    = selection.ErrNoSuitableAdapter
	ErrNoSuitableMemoryType = selection.ErrNoSuitableMemoryType
	ErrNoDepthFormat        = selection.ErrNoDepthFormat
	ErrInstanceCreation     = gpu.ErrInstanceCreation
	ErrDeviceCreation       = gpu.ErrDeviceCreation

	// ErrShaderNotFound covers shader files that are missing or unreadable.
	ErrShaderNotFound    = errors.New("shader not found")
	ErrMalformedShader   = errors.New("malformed SPIR-V")
	ErrSwapchainCreation = errors.New("swapchain creation failed")
	ErrPipelineCreation  = errors.New("pipeline creation failed")
	ErrBufferCreation    = errors.New("buffer creation failed")
	ErrSyncCreation      = errors.New("synchronization object creation failed")
)

// ErrFrame marks unrecoverable failures while drawing a frame: submit,
// present and command buffer begin/end errors other than an out of date
// swapchain.
var ErrFrame = errors.New("frame failed")
