package deferred

import (
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
)

// Program names. Each is also the pipeline key draws refer to.
const (
	ProgramObject           = "object"
	ProgramShadow           = "shadow"
	ProgramPointLight       = "point_light"
	ProgramSpotLight        = "spot_light"
	ProgramDirectionalLight = "directional_light"
	ProgramSobel            = "sobel"
	ProgramCoc              = "coc"
	ProgramBlur             = "blur"
	ProgramGamma            = "gamma"
	ProgramLightMarker      = "light_marker"
	ProgramBlit             = "blit"
)

// programDesc names the shader files of one program, the framebuffer it renders into and its
// static sampler units.
type programDesc struct {
	name     string
	vertex   string
	fragment string
	geometry string

	target func(*Resources) renderer.FramebufferHandle
	units  map[string]int
	opts   []pipeline.PipelineBuilderOption

	// uniforms lists the uniform fields resolved after link.
	uniforms []string
}

var gbufferUnits = map[string]int{"ColorBuffer": 0, "NormalBuffer": 1, "DepthBuffer": 2}

var lightOpts = []pipeline.PipelineBuilderOption{
	pipeline.WithAdditiveBlend(),
	pipeline.WithDepthTest(false),
	pipeline.WithDepthWrite(false),
}

var fxOpts = []pipeline.PipelineBuilderOption{
	pipeline.WithDepthTest(false),
	pipeline.WithDepthWrite(false),
}

func programDescs() []programDesc {
	shadowFB := func(r *Resources) renderer.FramebufferHandle { return r.ShadowFB }
	gbufferFB := func(r *Resources) renderer.FramebufferHandle { return r.GBufferFB }
	lightFB := func(r *Resources) renderer.FramebufferHandle { return r.LightFB }
	fxFB := func(r *Resources) renderer.FramebufferHandle { return r.FXFB }
	screen := func(*Resources) renderer.FramebufferHandle { return renderer.ScreenFramebuffer }

	return []programDesc{
		{
			name: ProgramShadow, vertex: "shadow.vert", fragment: "shadow.frag",
			target:   shadowFB,
			uniforms: []string{"objectToLightScreen", "objectToLight", "GridSpacing"},
		},
		{
			name: ProgramObject, vertex: "object.vert", fragment: "object.frag", geometry: "object.geom",
			target:   gbufferFB,
			units:    map[string]int{"Diffuse": 0, "Diffuse2": 1},
			uniforms: []string{"MVP", "Camera", "Time", "specularPower", "GridSpacing"},
		},
		{
			name: ProgramPointLight, vertex: "blit.vert", fragment: "point_light.frag",
			target: lightFB, units: gbufferUnits, opts: lightOpts,
			uniforms: []string{"ScreenToWorld", "Camera", "pointLightPosition", "pointLightColor", "pointLightIntensity"},
		},
		{
			name: ProgramSpotLight, vertex: "blit.vert", fragment: "spot_light.frag",
			target: lightFB, opts: lightOpts,
			units: map[string]int{"ColorBuffer": 0, "NormalBuffer": 1, "DepthBuffer": 2, "Shadow": 3},
			uniforms: []string{
				"ScreenToWorld", "worldToLightScreen", "Camera", "spotLightPosition", "spotLightDirection",
				"spotLightColor", "spotLightIntensity", "spotLightAngle", "bias", "castShadow",
			},
		},
		{
			name: ProgramDirectionalLight, vertex: "blit.vert", fragment: "directional_light.frag",
			target: lightFB, units: gbufferUnits, opts: lightOpts,
			uniforms: []string{"ScreenToWorld", "Camera", "directionalLightDirection", "directionalLightColor", "directionalLightIntensity"},
		},
		{
			name: ProgramSobel, vertex: "blit.vert", fragment: "sobel.frag",
			target: fxFB, units: map[string]int{"Texture": 0}, opts: fxOpts,
			uniforms: []string{"Factor"},
		},
		{
			name: ProgramCoc, vertex: "blit.vert", fragment: "coc.frag",
			target: fxFB, units: map[string]int{"Texture": 0}, opts: fxOpts,
			uniforms: []string{"ScreenToView", "Focus"},
		},
		{
			name: ProgramBlur, vertex: "blit.vert", fragment: "blur.frag",
			target: fxFB, units: map[string]int{"Texture": 0}, opts: fxOpts,
			uniforms: []string{"Direction", "SampleCount"},
		},
		{
			name: ProgramGamma, vertex: "blit.vert", fragment: "gamma.frag",
			target: screen, units: map[string]int{"Texture": 0}, opts: fxOpts,
			uniforms: []string{"Gamma"},
		},
		{
			name: ProgramLightMarker, vertex: "light_marker.vert", fragment: "light_marker.frag",
			target: screen, opts: fxOpts,
			uniforms: []string{"MVP", "SpriteWidth", "SpriteHeight"},
		},
		{
			name: ProgramBlit, vertex: "blit.vert", fragment: "blit.frag",
			target: screen, units: map[string]int{"Texture": 0}, opts: fxOpts,
			uniforms: []string{"isDepth"},
		},
	}
}

// ShaderFiles lists the shader sources every program needs, without the .wgsl extension. The
// loader reads each from <dir>/<name>.wgsl.
//
// Returns:
//   - []string: the sorted, de-duplicated source names
func ShaderFiles() []string {
	seen := make(map[string]bool)
	for _, d := range programDescs() {
		for _, f := range []string{d.vertex, d.fragment, d.geometry} {
			if f != "" {
				seen[f] = true
			}
		}
	}
	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// registerPrograms compiles, links and registers every program against its framebuffer, then
// binds its static sampler units and resolves its uniform slots.
func registerPrograms(r renderer.Renderer, res *Resources, sources map[string]string) (map[string]*uniforms, error) {
	blocks := make(map[string]*uniforms)
	for _, d := range programDescs() {
		src := func(key string) (string, error) {
			if key == "" {
				return "", nil
			}
			s, ok := sources[key]
			if !ok {
				return "", fmt.Errorf("program %s: shader source %s.wgsl was not loaded", d.name, key)
			}
			return s, nil
		}
		vs, err := src(d.vertex)
		if err != nil {
			return nil, err
		}
		fs, err := src(d.fragment)
		if err != nil {
			return nil, err
		}
		gs, err := src(d.geometry)
		if err != nil {
			return nil, err
		}

		p, err := shader.CompileAndLink(d.name, vs, fs, gs)
		if err != nil {
			return nil, err
		}
		if _, err := r.RegisterProgram(p, d.target(res), d.opts...); err != nil {
			return nil, err
		}
		for semantic, unit := range d.units {
			if err := r.Programs().BindSampler(d.name, semantic, unit); err != nil {
				return nil, err
			}
		}

		u, err := newUniforms(r.Programs(), d.name, d.uniforms...)
		if err != nil {
			return nil, err
		}
		blocks[d.name] = u
	}
	return blocks, nil
}
