package renderer

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU backend rendering to a window surface.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeRecording selects the in-memory backend that records every call.
	BackendTypeRecording
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	PresentModeUncapped
)

// ClearFlags selects which attachments a pass clears when it begins.
type ClearFlags int

const (
	ClearColor ClearFlags = 1 << iota
	ClearDepth
)

// PassTarget describes the render target of one pass.
type PassTarget struct {
	Name        string
	Framebuffer FramebufferHandle
	Clear       ClearFlags
	ClearValue  wgpu.Color
}

// Viewport is a pixel rectangle of the current target.
type Viewport struct {
	X, Y, Width, Height int
}

// DrawCall is one indexed draw.
type DrawCall struct {
	// Pipeline is the key of a registered pipeline (its program name).
	Pipeline string

	// Mesh is the name of a created mesh.
	Mesh string

	Instances uint32

	// Uniforms is the program uniform struct for this draw.
	Uniforms []byte

	// Storage maps storage variable names to their contents for the frame.
	Storage map[string][]byte

	// Textures maps static sampler units to the resources sampled through them.
	Textures map[int]ResourceHandle
}

// Backend is the GPU API behind a Renderer. Calls happen on the render thread in the order
// BeginFrame, then for each pass BeginPass, SetViewport and Draw calls, EndPass, then EndFrame.
// Runtime errors raised along the way are collected and returned by DrainErrors.
type Backend interface {
	// SurfaceSize retrieves the size of the visible surface in pixels.
	SurfaceSize() (width, height int)

	// SurfaceFormat retrieves the swapchain format.
	SurfaceFormat() wgpu.TextureFormat

	// CreateTexture allocates a texture or render target. Pixels are uploaded when non-nil.
	//
	// Parameters:
	//   - desc: the resource description
	//   - pixels: tightly packed RGBA8 rows, or nil
	//
	// Returns:
	//   - error: an error if allocation fails
	CreateTexture(desc ResourceDesc, pixels []byte) error

	// SetFramebuffer records the attachments of a framebuffer, replacing a previous version.
	//
	// Parameters:
	//   - desc: the framebuffer description with every attachment resolved
	//
	// Returns:
	//   - error: an error if the attachments cannot be used together
	SetFramebuffer(desc FramebufferDesc) error

	// CreateMesh uploads the vertex and index buffers of a mesh.
	//
	// Parameters:
	//   - m: the mesh
	//
	// Returns:
	//   - error: an error if buffer creation fails
	CreateMesh(m model.Model) error

	// RegisterPipeline creates the GPU pipeline of a linked program.
	//
	// Parameters:
	//   - p: the pipeline description
	//
	// Returns:
	//   - error: a *shader.CompileError or *shader.LinkError
	RegisterPipeline(p pipeline.Pipeline) error

	// BeginFrame acquires the surface and starts recording a frame.
	BeginFrame() error

	// BeginPass starts a render pass on a framebuffer.
	BeginPass(target PassTarget) error

	// SetViewport restricts subsequent draws of the current pass.
	SetViewport(v Viewport)

	// Draw encodes one indexed draw in the current pass.
	Draw(d DrawCall) error

	// EndPass finishes the current pass.
	EndPass() error

	// EndFrame submits the frame and presents the surface.
	EndFrame() error

	// DrainErrors returns and clears the runtime errors raised since the previous call.
	DrainErrors() []error

	// Release frees every GPU object.
	Release()
}
