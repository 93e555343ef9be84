package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Surface is the presentation target handed to NewRenderer. window.Window satisfies it.
type Surface interface {
	// SurfaceDescriptor returns the platform surface descriptor, nil for headless surfaces.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// HeadlessSurface is a Surface with a size and no platform window.
type HeadlessSurface struct {
	W, H int
}

func (s HeadlessSurface) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (s HeadlessSurface) Width() int                                 { return s.W }
func (s HeadlessSurface) Height() int                                { return s.H }

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     Backend
	registry    Registry
	programs    shader.ProgramSet
	logger      common.Logger

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	maxDraws             int
}

// Renderer defines the interface for the rendering system.
//
// The Renderer owns the backend, the resource registry and the program set. Passes reach the GPU
// only through it: programs are registered against the framebuffer they render into, and draws
// name their pipeline, mesh and sampled resources by key.
type Renderer interface {
	// Backend retrieves the backend the renderer drives.
	Backend() Backend

	// Registry retrieves the resource registry.
	Registry() Registry

	// Programs retrieves the linked program set.
	Programs() shader.ProgramSet

	// Logger retrieves the logger runtime errors are reported to.
	Logger() common.Logger

	// RegisterProgram adds a linked program to the program set and creates its pipeline for the
	// given framebuffer. Color and depth formats come from the framebuffer's attachments.
	//
	// Parameters:
	//   - program: the linked program
	//   - target: the framebuffer the pipeline renders into
	//   - opts: pipeline state options applied after the target formats
	//
	// Returns:
	//   - pipeline.Pipeline: the registered pipeline
	//   - error: a *shader.CompileError or *shader.LinkError from the backend, or an error if the
	//     target is unknown or the program is already registered
	RegisterProgram(program shader.Program, target FramebufferHandle, opts ...pipeline.PipelineBuilderOption) (pipeline.Pipeline, error)

	// Pipeline retrieves the cached Pipeline associated with the given key, nil if not found.
	//
	// Parameters:
	//   - key: the pipeline key, equal to the program name
	//
	// Returns:
	//   - pipeline.Pipeline: the pipeline or nil
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves the entire cache of Pipelines.
	Pipelines() map[string]pipeline.Pipeline

	// CreateMesh uploads a mesh, keyed by its name.
	CreateMesh(m model.Model) error

	BeginFrame() error
	BeginPass(target PassTarget) error
	SetViewport(v Viewport)
	Draw(d DrawCall) error
	EndPass() error
	EndFrame() error

	// CheckErrors drains the runtime errors raised since the previous check and logs each with
	// its error class. Nothing is rolled back.
	//
	// Returns:
	//   - []error: the drained errors
	CheckErrors() []error

	// Release frees every GPU object.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the specified backend and configuration options.
// The WebGPU backend panics if no adapter or device can be acquired; callers treat the panic
// as a setup failure.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - surface: the presentation surface and its size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, surface Surface, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		programs:      shader.NewProgramSet(),
		logger:        common.NewNopLogger(),
		presentMode:   PresentModeVSync,
		maxDraws:      pipeline.DefaultMaxDraws,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	if r.backend == nil {
		switch backendType {
		case BackendTypeRecording:
			r.backend = NewRecordingBackend(surface.Width(), surface.Height())
		case BackendTypeWGPU:
			fallthrough
		default:
			w := newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter)
			w.SetPresentMode(r.presentMode)
			w.ConfigureSurface(surface.Width(), surface.Height())
			r.backend = w
		}
	}

	r.registry = NewRegistry(r.backend)
	return r
}

func (r *renderer) Backend() Backend {
	return r.backend
}

func (r *renderer) Registry() Registry {
	return r.registry
}

func (r *renderer) Programs() shader.ProgramSet {
	return r.programs
}

func (r *renderer) Logger() common.Logger {
	return r.logger
}

func (r *renderer) RegisterProgram(program shader.Program, target FramebufferHandle, opts ...pipeline.PipelineBuilderOption) (pipeline.Pipeline, error) {
	fb, ok := r.registry.Framebuffer(target)
	if !ok {
		return nil, fmt.Errorf("program %q targets unknown framebuffer %d", program.Name(), target)
	}

	targetOpts := []pipeline.PipelineBuilderOption{pipeline.WithMaxDraws(r.maxDraws)}
	surfaceFormat := r.backend.SurfaceFormat()
	if target == ScreenFramebuffer {
		targetOpts = append(targetOpts, pipeline.WithColorTargets(surfaceFormat))
	} else {
		colors := make([]wgpu.TextureFormat, 0, MaxColorAttachments)
		for _, p := range fb.ColorPoints() {
			res, _ := r.registry.Resource(fb.Attachments[p])
			colors = append(colors, res.Format.WGPU(surfaceFormat))
		}
		targetOpts = append(targetOpts, pipeline.WithColorTargets(colors...))
		if h, ok := fb.Attachments[Depth]; ok {
			res, _ := r.registry.Resource(h)
			targetOpts = append(targetOpts, pipeline.WithDepthTarget(res.Format.WGPU(surfaceFormat)))
		}
	}

	if err := r.programs.Register(program); err != nil {
		return nil, err
	}
	p := pipeline.NewPipeline(program, append(targetOpts, opts...)...)
	if err := r.backend.RegisterPipeline(p); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.pipelineCache[p.PipelineKey()] = p
	r.mu.Unlock()
	r.logger.Debugf("registered pipeline %s -> %s (%d color targets)", p.PipelineKey(), fb.Label, len(p.ColorFormats()))
	return p, nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache
}

func (r *renderer) CreateMesh(m model.Model) error {
	if err := r.backend.CreateMesh(m); err != nil {
		return fmt.Errorf("failed to create mesh %q: %w", m.Name(), err)
	}
	return nil
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) BeginPass(target PassTarget) error {
	return r.backend.BeginPass(target)
}

func (r *renderer) SetViewport(v Viewport) {
	r.backend.SetViewport(v)
}

func (r *renderer) Draw(d DrawCall) error {
	return r.backend.Draw(d)
}

func (r *renderer) EndPass() error {
	return r.backend.EndPass()
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) CheckErrors() []error {
	errs := r.backend.DrainErrors()
	for _, err := range errs {
		class := ErrorClassUnknown
		if gpuErr, ok := err.(*GPUError); ok {
			class = gpuErr.Class
		}
		r.logger.Errorf("GPU %s error: %v", class, err)
	}
	return errs
}

func (r *renderer) Release() {
	r.backend.Release()
}
