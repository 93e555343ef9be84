package framegraph

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const copyVertex = `//@oxy:include quad
@vertex
fn vs_main(in: QuadInput) -> QuadOutput {
    var out: QuadOutput;
    out.clip = vec4<f32>(in.position, 0.0, 1.0);
    out.uv = in.position * 0.5 + vec2<f32>(0.5);
    return out;
}
`

const copyFragment = `//@oxy:include quad
struct CopyParams {
    Gain: f32,
};
@group(0) @binding(0) var<uniform> u: CopyParams;
@group(1) @binding(0) var Texture: texture_2d<f32>;

@fragment
fn fs_main(in: QuadOutput) -> @location(0) vec4<f32> {
    return textureLoad(Texture, vec2<i32>(floor(in.clip.xy)), 0) * u.Gain;
}
`

// chain is a three pass graph: fill writes a, copy reads a into b through a retarget of the
// shared framebuffer, present reads b onto the screen.
type chain struct {
	r       renderer.Renderer
	backend *renderer.RecordingBackend
	errOut  *bytes.Buffer

	a, b, tex renderer.ResourceHandle
	fb        renderer.FramebufferHandle
	block     *shader.UniformBlock
}

func newChain(t *testing.T) *chain {
	t.Helper()
	c := &chain{backend: renderer.NewRecordingBackend(64, 64), errOut: &bytes.Buffer{}}
	logger := common.NewWriterLogger("test", false, &bytes.Buffer{}, c.errOut)
	c.r = renderer.NewRenderer(renderer.BackendTypeRecording, renderer.HeadlessSurface{W: 64, H: 64},
		renderer.WithBackend(c.backend), renderer.WithLogger(logger))

	reg := c.r.Registry()
	var err error
	c.a, err = reg.CreateColorTarget("a", 64, 64, renderer.FormatRGBA8)
	require.NoError(t, err)
	c.b, err = reg.CreateColorTarget("b", 64, 64, renderer.FormatRGBA8)
	require.NoError(t, err)
	c.tex, err = reg.CreateTexture("bricks", common.TextureStagingData{Pixels: make([]byte, 4*4*4), Width: 4, Height: 4})
	require.NoError(t, err)
	c.fb, err = reg.CreateFramebuffer("fx", map[renderer.AttachmentPoint]renderer.ResourceHandle{renderer.Color0: c.a})
	require.NoError(t, err)

	require.NoError(t, c.r.CreateMesh(model.Quad()))
	for _, target := range []struct {
		name string
		fb   renderer.FramebufferHandle
	}{{"copy", c.fb}, {"present", renderer.ScreenFramebuffer}} {
		p, err := shader.CompileAndLink(target.name, copyVertex, copyFragment, "")
		require.NoError(t, err)
		require.NoError(t, p.BindSampler("Texture", 0))
		_, err = c.r.RegisterProgram(p, target.fb)
		require.NoError(t, err)
	}
	prog, _ := c.r.Programs().Program("copy")
	c.block = shader.NewUniformBlock(prog)
	return c
}

func (c *chain) draw(pipeline string, src renderer.ResourceHandle) func(*PassContext) error {
	return func(ctx *PassContext) error {
		return ctx.Draw(renderer.DrawCall{
			Pipeline:  pipeline,
			Mesh:      model.QuadName,
			Instances: 1,
			Uniforms:  c.block.Bytes(),
			Textures:  map[int]renderer.ResourceHandle{0: src},
		})
	}
}

func (c *chain) graph(t *testing.T) Graph {
	t.Helper()
	g := NewGraph(c.r)
	require.NoError(t, g.AddPass(Pass{
		Name:   "fill",
		Inputs: []renderer.ResourceHandle{c.tex},
		Output: Output{Framebuffer: c.fb, Retarget: &Retarget{Point: renderer.Color0, Resource: c.a}},
		Clear:  renderer.ClearColor,
		Draw:   c.draw("copy", c.tex),
	}))
	require.NoError(t, g.AddPass(Pass{
		Name:   "copy",
		Inputs: []renderer.ResourceHandle{c.a},
		Output: Output{Framebuffer: c.fb, Retarget: &Retarget{Point: renderer.Color0, Resource: c.b}},
		Draw:   c.draw("copy", c.a),
	}))
	require.NoError(t, g.AddPass(Pass{
		Name:     "present",
		Inputs:   []renderer.ResourceHandle{c.b},
		Output:   Output{Framebuffer: renderer.ScreenFramebuffer},
		Viewport: &renderer.Viewport{X: 0, Y: 0, Width: 32, Height: 32},
		Draw:     c.draw("present", c.b),
	}))
	return g
}

func testState() *frame.State {
	return frame.NewState(camera.NewCamera(), light.DefaultSet(), frame.DefaultPost(), 64, 64)
}

func TestAddPass_RejectsDuplicates(t *testing.T) {
	c := newChain(t)
	g := NewGraph(c.r)
	require.NoError(t, g.AddPass(Pass{Name: "one"}))
	assert.Error(t, g.AddPass(Pass{Name: "one"}))
	assert.Error(t, g.AddPass(Pass{}))
}

func TestValidate_AcceptsOrderedChain(t *testing.T) {
	c := newChain(t)
	g := c.graph(t)
	require.NoError(t, g.Validate())
	assert.Equal(t, []string{"fill", "copy", "present"}, g.Names())
}

func TestValidate_RejectsReadBeforeWrite(t *testing.T) {
	c := newChain(t)
	g := NewGraph(c.r)
	require.NoError(t, g.AddPass(Pass{
		Name:   "present",
		Inputs: []renderer.ResourceHandle{c.b},
		Output: Output{Framebuffer: renderer.ScreenFramebuffer},
	}))
	require.NoError(t, g.AddPass(Pass{
		Name:   "copy",
		Output: Output{Framebuffer: c.fb, Retarget: &Retarget{Point: renderer.Color0, Resource: c.b}},
	}))

	err := g.Validate()
	var order *OrderError
	require.True(t, errors.As(err, &order))
	assert.Equal(t, "present", order.Pass)
	assert.Equal(t, c.b, order.Resource)
	assert.False(t, order.Self)
}

func TestValidate_RejectsFeedback(t *testing.T) {
	c := newChain(t)
	g := NewGraph(c.r)
	require.NoError(t, g.AddPass(Pass{
		Name:   "loop",
		Inputs: []renderer.ResourceHandle{c.a},
		Output: Output{Framebuffer: c.fb},
	}))

	var order *OrderError
	require.True(t, errors.As(g.Validate(), &order))
	assert.True(t, order.Self)
}

func TestExecute_WritesPrecedeReads(t *testing.T) {
	c := newChain(t)
	g := c.graph(t)
	require.NoError(t, g.Validate())

	report := g.Execute(testState())
	require.True(t, report.OK(), "errors: %v %v", report.Errors, report.GPUErrors)
	assert.Equal(t, uint64(1), report.Frame)
	assert.Equal(t, []string{"fill", "copy", "present"}, report.Passes)
	assert.Equal(t, map[string]int{"fill": 1, "copy": 1, "present": 1}, report.Draws)
	assert.Equal(t, []string{"fill", "copy", "present"}, c.backend.PassOrder())

	for _, h := range []renderer.ResourceHandle{c.a, c.b} {
		writes, reads := c.backend.Writes(h), c.backend.Reads(h)
		require.NotEmpty(t, writes)
		require.NotEmpty(t, reads)
		assert.Less(t, writes[len(writes)-1], reads[0])
	}

	desc, _ := c.r.Registry().Framebuffer(c.fb)
	assert.Equal(t, c.b, desc.Attachments[renderer.Color0], "last retarget stays bound")
}

func TestExecute_DrawErrorsDoNotStopTheFrame(t *testing.T) {
	c := newChain(t)
	g := NewGraph(c.r)
	require.NoError(t, g.AddPass(Pass{
		Name:   "broken",
		Output: Output{Framebuffer: renderer.ScreenFramebuffer},
		Draw: func(ctx *PassContext) error {
			return ctx.Draw(renderer.DrawCall{Pipeline: "missing", Mesh: model.QuadName})
		},
	}))
	require.NoError(t, g.AddPass(Pass{
		Name:   "after",
		Inputs: []renderer.ResourceHandle{c.tex},
		Output: Output{Framebuffer: renderer.ScreenFramebuffer},
		Draw:   c.draw("present", c.tex),
	}))

	report := g.Execute(testState())
	assert.Equal(t, []string{"broken", "after"}, report.Passes)
	require.Len(t, report.Errors, 1)

	var pe *PassError
	require.True(t, errors.As(report.Errors[0], &pe))
	assert.Equal(t, "broken", pe.Pass)

	require.Len(t, report.GPUErrors, 1)
	var gpuErr *renderer.GPUError
	require.True(t, errors.As(report.GPUErrors[0], &gpuErr))
	assert.Equal(t, renderer.ErrorClassValidation, gpuErr.Class)
	assert.Contains(t, c.errOut.String(), "GPU validation error")
	assert.Len(t, c.backend.Draws("after"), 1)

	second := g.Execute(testState())
	assert.Equal(t, uint64(2), second.Frame)
}
