package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// TextureFormat is the pixel format of a registry resource.
type TextureFormat int

const (
	FormatRGBA8 TextureFormat = iota + 1
	FormatRGBA32Float
	FormatDepth24
	FormatDepth32Float

	// FormatSurface is the swapchain format chosen by the backend.
	FormatSurface
)

func (f TextureFormat) String() string {
	switch f {
	case FormatRGBA8:
		return "rgba8"
	case FormatRGBA32Float:
		return "rgba32f"
	case FormatDepth24:
		return "depth24"
	case FormatDepth32Float:
		return "depth32f"
	case FormatSurface:
		return "surface"
	default:
		return fmt.Sprintf("TextureFormat(%d)", int(f))
	}
}

// IsDepth reports whether the format holds depth rather than color.
func (f TextureFormat) IsDepth() bool {
	return f == FormatDepth24 || f == FormatDepth32Float
}

// WGPU maps the format to its WebGPU equivalent.
//
// Parameters:
//   - surface: the swapchain format substituted for FormatSurface
//
// Returns:
//   - wgpu.TextureFormat: the WebGPU format
func (f TextureFormat) WGPU(surface wgpu.TextureFormat) wgpu.TextureFormat {
	switch f {
	case FormatRGBA8:
		return wgpu.TextureFormatRGBA8Unorm
	case FormatRGBA32Float:
		return wgpu.TextureFormatRGBA32Float
	case FormatDepth24:
		return wgpu.TextureFormatDepth24Plus
	case FormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	case FormatSurface:
		return surface
	default:
		return wgpu.TextureFormatUndefined
	}
}

// FilterMode selects texel filtering when a resource is sampled.
type FilterMode int

const (
	FilterNearest FilterMode = iota
	FilterLinear
)

// WrapMode selects addressing outside [0, 1].
type WrapMode int

const (
	WrapClampToEdge WrapMode = iota
	WrapRepeat

	// WrapClampToBorder has no WebGPU equivalent and samples as clamp-to-edge.
	WrapClampToBorder
)

func (w WrapMode) wgpu() wgpu.AddressMode {
	if w == WrapRepeat {
		return wgpu.AddressModeRepeat
	}
	return wgpu.AddressModeClampToEdge
}

func (f FilterMode) wgpu() wgpu.FilterMode {
	if f == FilterLinear {
		return wgpu.FilterModeLinear
	}
	return wgpu.FilterModeNearest
}

// ResourceHandle identifies a registry resource. Zero is invalid.
type ResourceHandle uint32

// FramebufferHandle identifies a framebuffer.
type FramebufferHandle uint32

// ScreenFramebuffer names the visible surface.
const ScreenFramebuffer FramebufferHandle = 0

// AttachmentPoint is a slot of a framebuffer.
type AttachmentPoint int

const (
	Color0 AttachmentPoint = iota
	Color1
	Color2
	Color3
	Depth
)

// MaxColorAttachments is the number of color points a framebuffer has.
const MaxColorAttachments = 4

func (a AttachmentPoint) String() string {
	if a == Depth {
		return "depth"
	}
	return fmt.Sprintf("color%d", int(a))
}

// ResourceDesc describes a texture or render target owned by the registry.
type ResourceDesc struct {
	Handle ResourceHandle

	// Label is "name#uuid", unique per process.
	Label string
	Name  string

	Format        TextureFormat
	Width, Height int
	Filter        FilterMode
	Wrap          WrapMode

	// Compare marks a depth resource sampled through a comparison sampler.
	Compare bool

	// Static marks an uploaded texture; static resources are valid inputs to any pass.
	Static bool
}

// FramebufferDesc is a named set of attachment points.
type FramebufferDesc struct {
	Handle      FramebufferHandle
	Label       string
	Attachments map[AttachmentPoint]ResourceHandle

	Width, Height int
}

// ColorPoints returns the bound color points in order.
func (f FramebufferDesc) ColorPoints() []AttachmentPoint {
	out := make([]AttachmentPoint, 0, MaxColorAttachments)
	for p := Color0; p <= Color3; p++ {
		if _, ok := f.Attachments[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Writes returns every resource the framebuffer renders into.
func (f FramebufferDesc) Writes() []ResourceHandle {
	out := make([]ResourceHandle, 0, len(f.Attachments))
	for _, p := range f.ColorPoints() {
		out = append(out, f.Attachments[p])
	}
	if d, ok := f.Attachments[Depth]; ok {
		out = append(out, d)
	}
	return out
}
