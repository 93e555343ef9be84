package renderer

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrIncompleteFramebuffer is wrapped by every IncompleteFramebufferError.
var ErrIncompleteFramebuffer = errors.New("incomplete framebuffer")

// IncompleteFramebufferError reports a framebuffer whose attachments cannot be rendered into
// together. It is a setup error and fatal to the caller.
type IncompleteFramebufferError struct {
	Framebuffer string
	Reason      string
}

func (e *IncompleteFramebufferError) Error() string {
	return fmt.Sprintf("framebuffer %q is incomplete: %s", e.Framebuffer, e.Reason)
}

func (e *IncompleteFramebufferError) Unwrap() error {
	return ErrIncompleteFramebuffer
}

// ErrorClass classifies a GPU error raised while rendering a frame.
type ErrorClass int

const (
	ErrorClassUnknown ErrorClass = iota
	ErrorClassValidation
	ErrorClassOutOfMemory
	ErrorClassInternal
)

func (c ErrorClass) String() string {
	switch c {
	case ErrorClassValidation:
		return "validation"
	case ErrorClassOutOfMemory:
		return "out-of-memory"
	case ErrorClassInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// GPUError is a runtime error raised by the backend during a frame. Runtime errors are logged at
// the end of the frame and never stop it.
type GPUError struct {
	Class ErrorClass
	Op    string
	Err   error
}

func (e *GPUError) Error() string {
	return fmt.Sprintf("%s error in %s: %v", e.Class, e.Op, e.Err)
}

func (e *GPUError) Unwrap() error {
	return e.Err
}

// newGPUError wraps a backend error with the class reported by WebGPU.
func newGPUError(op string, err error) *GPUError {
	var gpuErr *GPUError
	if errors.As(err, &gpuErr) {
		return gpuErr
	}
	return &GPUError{Class: classify(err), Op: op, Err: err}
}

func classify(err error) ErrorClass {
	var wErr *wgpu.Error
	if !errors.As(err, &wErr) {
		return ErrorClassUnknown
	}
	switch wErr.Type {
	case wgpu.ErrorTypeValidation:
		return ErrorClassValidation
	case wgpu.ErrorTypeOutOfMemory:
		return ErrorClassOutOfMemory
	case wgpu.ErrorTypeInternal:
		return ErrorClassInternal
	default:
		return ErrorClassUnknown
	}
}
