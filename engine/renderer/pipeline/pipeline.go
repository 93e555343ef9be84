package pipeline

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultMaxDraws is the number of draws per frame a pipeline's uniform buffer has room for when
// WithMaxDraws is not given.
const DefaultMaxDraws = 64

// UniformAlignment is the dynamic offset alignment of per-draw uniform copies.
const UniformAlignment = 256

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	program shader.Program

	renderPipeline *wgpu.RenderPipeline

	colorFormats []wgpu.TextureFormat
	depthFormat  wgpu.TextureFormat

	depthTestEnabled  bool
	depthWriteEnabled bool
	depthCompare      wgpu.CompareFunction
	blendEnabled      bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState

	maxDraws int
}

// Pipeline is the fixed-function state a linked program is drawn with: its target formats,
// depth and blend state, and the number of draws per frame it supports. The backend creates the
// GPU object once and stores it with SetRenderPipeline.
type Pipeline interface {
	// PipelineKey retrieves the key draws refer to the pipeline by, the program name.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// Program retrieves the linked program.
	//
	// Returns:
	//   - shader.Program: the program
	Program() shader.Program

	// Pipeline retrieves the backend pipeline object, nil until registered.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the render pipeline
	Pipeline() *wgpu.RenderPipeline

	// ColorFormats retrieves the color target formats in attachment order.
	ColorFormats() []wgpu.TextureFormat

	// DepthFormat retrieves the depth target format, TextureFormatUndefined when the target has
	// no depth attachment.
	DepthFormat() wgpu.TextureFormat

	DepthTestEnabled() bool

	DepthWriteEnabled() bool

	// DepthCompare retrieves the depth comparison, CompareFunctionAlways when depth testing is off.
	DepthCompare() wgpu.CompareFunction

	BlendEnabled() bool

	CullMode() wgpu.CullMode

	Topology() wgpu.PrimitiveTopology

	FrontFace() wgpu.FrontFace

	WriteMask() wgpu.ColorWriteMask

	BlendState() *wgpu.BlendState

	// MaxDraws retrieves how many draws per frame the pipeline accepts.
	MaxDraws() int

	// UniformStride retrieves the distance between per-draw uniform copies.
	//
	// Returns:
	//   - uint64: the program uniform size rounded up to UniformAlignment
	UniformStride() uint64

	// SetRenderPipeline stores the backend pipeline object.
	//
	// Parameters:
	//   - p: the render pipeline
	SetRenderPipeline(p *wgpu.RenderPipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a Pipeline for a linked program. Depth testing and writing are enabled with a
// less-equal comparison, culling is off, topology is a triangle list and blending is disabled.
//
// Parameters:
//   - program: the linked program
//   - opts: builder options
//
// Returns:
//   - Pipeline: the pipeline
func NewPipeline(program shader.Program, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		program:           program,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		depthCompare:      wgpu.CompareFunctionLessEqual,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		maxDraws:          DefaultMaxDraws,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.program.Name()
}

func (p *pipeline) Program() shader.Program {
	return p.program
}

func (p *pipeline) Pipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) ColorFormats() []wgpu.TextureFormat {
	return p.colorFormats
}

func (p *pipeline) DepthFormat() wgpu.TextureFormat {
	return p.depthFormat
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled && p.depthFormat != wgpu.TextureFormatUndefined
}

func (p *pipeline) DepthCompare() wgpu.CompareFunction {
	if !p.depthTestEnabled {
		return wgpu.CompareFunctionAlways
	}
	return p.depthCompare
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) MaxDraws() int {
	return p.maxDraws
}

func (p *pipeline) UniformStride() uint64 {
	size := p.program.UniformSize()
	if size == 0 {
		return 0
	}
	return (size + UniformAlignment - 1) / UniformAlignment * UniformAlignment
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}
