// Package deferred assembles the demo's deferred shading pipeline: the offscreen targets, the
// programs and the fixed pass order from the shadow map to the debug strips.
package deferred

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// Pass names in execution order.
const (
	PassShadow         = "shadow"
	PassGBuffer        = "gbuffer"
	PassLighting       = "lighting"
	PassSobel          = "sobel"
	PassCoc            = "coc"
	PassBlurVertical   = "blur_vertical"
	PassBlurHorizontal = "blur_horizontal"
	PassGamma          = "gamma"
	PassLightMarkers   = "light_markers"
	PassDebugBlit      = "debug_blit"
)

// Scene constants.
const (
	// CubeInstances cubes are drawn on a 2x2 grid GridSpacing apart.
	CubeInstances        = 4
	GridSpacing  float32 = 2

	// DefaultSpecularPower is the exponent written to the G-buffer when the state holds none.
	DefaultSpecularPower float32 = 30

	// DefaultMarkerSize is the light marker radius in pixels.
	DefaultMarkerSize = 6
)

// Assets are the loaded inputs of the pipeline.
type Assets struct {
	// Shaders maps a source name from ShaderFiles to its WGSL text.
	Shaders map[string]string

	Diffuse  common.TextureStagingData
	Specular common.TextureStagingData
}

// Deferred is the assembled pipeline.
type Deferred struct {
	renderer  renderer.Renderer
	graph     framegraph.Graph
	resources *Resources
	uniforms  map[string]*uniforms
	logger    common.Logger

	shadowResolution int
	markerSize       int
}

// New builds the pipeline: registry resources, meshes, programs with their static sampler units,
// and the validated pass graph. Every error is a setup failure.
//
// Parameters:
//   - r: the renderer
//   - assets: the shader sources and surface textures
//   - opts: variadic list of BuilderOption functions
//
// Returns:
//   - *Deferred: the pipeline
//   - error: an *renderer.IncompleteFramebufferError, *shader.CompileError, *shader.LinkError,
//     *framegraph.OrderError, or a resource creation error
func New(r renderer.Renderer, assets Assets, opts ...BuilderOption) (*Deferred, error) {
	d := &Deferred{
		renderer:         r,
		logger:           r.Logger(),
		shadowResolution: light.ShadowMapResolution,
		markerSize:       DefaultMarkerSize,
	}
	for _, opt := range opts {
		opt(d)
	}

	width, height := r.Backend().SurfaceSize()
	res, err := createResources(r.Registry(), width, height, d.shadowResolution, assets.Diffuse, assets.Specular)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline resources: %w", err)
	}
	d.resources = res

	for _, m := range []model.Model{model.Cube(), model.Plane(), model.Quad()} {
		if err := r.CreateMesh(m); err != nil {
			return nil, err
		}
	}

	if d.uniforms, err = registerPrograms(r, res, assets.Shaders); err != nil {
		return nil, err
	}
	d.uniforms[ProgramObject].setFloat("specularPower", DefaultSpecularPower)
	d.uniforms[ProgramBlit].setInt("isDepth", 0)

	d.graph = framegraph.NewGraph(r, framegraph.WithLogger(d.logger))
	for _, p := range d.passes() {
		if err := d.graph.AddPass(p); err != nil {
			return nil, err
		}
	}
	if err := d.graph.Validate(); err != nil {
		return nil, err
	}

	d.logger.Debugf("deferred pipeline ready: %dx%d, shadow map %d, passes %v", width, height, d.shadowResolution, d.graph.Names())
	return d, nil
}

// Render runs one frame of the pass graph.
//
// Parameters:
//   - state: the frame state
//
// Returns:
//   - framegraph.Report: the passes run and the errors logged along the way
func (d *Deferred) Render(state *frame.State) framegraph.Report {
	return d.graph.Execute(state)
}

// Graph retrieves the pass graph.
func (d *Deferred) Graph() framegraph.Graph {
	return d.graph
}

// Resources retrieves the pipeline textures and framebuffers.
func (d *Deferred) Resources() *Resources {
	return d.resources
}
