package renderer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVertex = `//@oxy:include quad
struct CopyParams {
    Gain: f32,
};
@group(0) @binding(0) var<uniform> u: CopyParams;

@vertex
fn vs_main(in: QuadInput) -> QuadOutput {
    var out: QuadOutput;
    out.clip = vec4<f32>(in.position, 0.0, 1.0);
    out.uv = in.position * 0.5 + vec2<f32>(0.5);
    return out;
}
`

const testFragment = `//@oxy:include quad
struct CopyParams {
    Gain: f32,
};
@group(0) @binding(0) var<uniform> u: CopyParams;
@group(1) @binding(0) var Texture: texture_2d<f32>;

@fragment
fn fs_main(in: QuadOutput) -> @location(0) vec4<f32> {
    let texel = vec2<i32>(floor(in.clip.xy));
    return textureLoad(Texture, texel, 0) * u.Gain;
}
`

func newTestRenderer(t *testing.T) (Renderer, *RecordingBackend) {
	t.Helper()
	backend := NewRecordingBackend(320, 240)
	r := NewRenderer(BackendTypeRecording, HeadlessSurface{W: 320, H: 240}, WithBackend(backend))
	return r, backend
}

func newCopyProgram(t *testing.T, name string) shader.Program {
	t.Helper()
	p, err := shader.CompileAndLink(name, testVertex, testFragment, "")
	require.NoError(t, err)
	require.NoError(t, p.BindSampler("Texture", 0))
	return p
}

func TestCreateFramebuffer_Complete(t *testing.T) {
	r, _ := newTestRenderer(t)
	reg := r.Registry()

	albedo, err := reg.CreateColorTarget("albedo", 64, 32, FormatRGBA8)
	require.NoError(t, err)
	normal, err := reg.CreateColorTarget("normal", 64, 32, FormatRGBA32Float)
	require.NoError(t, err)
	depth, err := reg.CreateDepthTarget("depth", 64, 32, FormatDepth24)
	require.NoError(t, err)

	fb, err := reg.CreateFramebuffer("gbuffer", map[AttachmentPoint]ResourceHandle{
		Color0: albedo, Color1: normal, Depth: depth,
	})
	require.NoError(t, err)

	desc, ok := reg.Framebuffer(fb)
	require.True(t, ok)
	assert.Equal(t, 64, desc.Width)
	assert.Equal(t, 32, desc.Height)
	assert.Equal(t, []AttachmentPoint{Color0, Color1}, desc.ColorPoints())
	assert.Equal(t, []ResourceHandle{albedo, normal, depth}, desc.Writes())

	res, ok := reg.Resource(albedo)
	require.True(t, ok)
	assert.Regexp(t, `^albedo#[0-9a-f-]{36}$`, res.Label)
}

func TestCreateFramebuffer_Incomplete(t *testing.T) {
	r, _ := newTestRenderer(t)
	reg := r.Registry()

	color, err := reg.CreateColorTarget("color", 64, 64, FormatRGBA8)
	require.NoError(t, err)
	small, err := reg.CreateColorTarget("small", 32, 32, FormatRGBA8)
	require.NoError(t, err)
	depth, err := reg.CreateDepthTarget("depth", 64, 64, FormatDepth32Float)
	require.NoError(t, err)

	tests := []struct {
		name        string
		attachments map[AttachmentPoint]ResourceHandle
		reason      string
	}{
		{"empty", map[AttachmentPoint]ResourceHandle{}, "no attachments"},
		{"size mismatch", map[AttachmentPoint]ResourceHandle{Color0: color, Color1: small}, "is 32x32, expected 64x64"},
		{"unknown handle", map[AttachmentPoint]ResourceHandle{Color0: 999}, "unknown resource"},
		{"depth at color", map[AttachmentPoint]ResourceHandle{Color0: depth}, "has depth format"},
		{"color at depth", map[AttachmentPoint]ResourceHandle{Color0: color, Depth: color}, "has color format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.CreateFramebuffer(tt.name, tt.attachments)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIncompleteFramebuffer))

			var incomplete *IncompleteFramebufferError
			require.True(t, errors.As(err, &incomplete))
			assert.Equal(t, tt.name, incomplete.Framebuffer)
			assert.Contains(t, incomplete.Reason, tt.reason)
		})
	}
}

func TestAttach_RevalidatesAndKeepsPreviousBinding(t *testing.T) {
	r, _ := newTestRenderer(t)
	reg := r.Registry()

	fx0, err := reg.CreateColorTarget("fx0", 64, 64, FormatRGBA8)
	require.NoError(t, err)
	fx1, err := reg.CreateColorTarget("fx1", 64, 64, FormatRGBA8)
	require.NoError(t, err)
	odd, err := reg.CreateColorTarget("odd", 16, 16, FormatRGBA8)
	require.NoError(t, err)

	fb, err := reg.CreateFramebuffer("fx", map[AttachmentPoint]ResourceHandle{Color0: fx0})
	require.NoError(t, err)

	require.NoError(t, reg.Attach(fb, Color0, fx1))
	desc, _ := reg.Framebuffer(fb)
	assert.Equal(t, fx1, desc.Attachments[Color0])

	// A lone attachment may change size, a second one must match it.
	require.NoError(t, reg.Attach(fb, Color0, odd))
	err = reg.Attach(fb, Color1, fx0)
	require.ErrorIs(t, err, ErrIncompleteFramebuffer)

	desc, _ = reg.Framebuffer(fb)
	assert.Equal(t, odd, desc.Attachments[Color0])
	_, bound := desc.Attachments[Color1]
	assert.False(t, bound)
}

func TestCreateTargets_RejectWrongFormats(t *testing.T) {
	r, _ := newTestRenderer(t)
	reg := r.Registry()

	_, err := reg.CreateColorTarget("c", 8, 8, FormatDepth24)
	assert.Error(t, err)
	_, err = reg.CreateDepthTarget("d", 8, 8, FormatRGBA8)
	assert.Error(t, err)
	_, err = reg.CreateColorTarget("z", 0, 8, FormatRGBA8)
	assert.Error(t, err)
	_, err = reg.CreateColorTarget("cmp", 8, 8, FormatRGBA8, WithCompare())
	assert.Error(t, err)

	_, err = reg.CreateTexture("short", common.TextureStagingData{Pixels: make([]byte, 3), Width: 1, Height: 1})
	assert.Error(t, err)

	h, err := reg.CreateTexture("tex", common.TextureStagingData{Pixels: make([]byte, 16), Width: 2, Height: 2})
	require.NoError(t, err)
	desc, _ := reg.Resource(h)
	assert.True(t, desc.Static)
	assert.Equal(t, WrapRepeat, desc.Wrap)
	assert.Equal(t, FilterLinear, desc.Filter)
}

func TestRegisterProgram_DerivesTargetFormats(t *testing.T) {
	r, _ := newTestRenderer(t)
	reg := r.Registry()

	color, err := reg.CreateColorTarget("color", 64, 64, FormatRGBA32Float)
	require.NoError(t, err)
	depth, err := reg.CreateDepthTarget("depth", 64, 64, FormatDepth24)
	require.NoError(t, err)
	fb, err := reg.CreateFramebuffer("target", map[AttachmentPoint]ResourceHandle{Color0: color, Depth: depth})
	require.NoError(t, err)

	p, err := r.RegisterProgram(newCopyProgram(t, "offscreen"), fb)
	require.NoError(t, err)
	assert.Equal(t, []wgpu.TextureFormat{wgpu.TextureFormatRGBA32Float}, p.ColorFormats())
	assert.Equal(t, wgpu.TextureFormatDepth24Plus, p.DepthFormat())

	screen, err := r.RegisterProgram(newCopyProgram(t, "onscreen"), ScreenFramebuffer)
	require.NoError(t, err)
	assert.Equal(t, []wgpu.TextureFormat{r.Backend().SurfaceFormat()}, screen.ColorFormats())
	assert.Equal(t, wgpu.TextureFormatUndefined, screen.DepthFormat())
	assert.False(t, screen.DepthWriteEnabled())

	_, err = r.RegisterProgram(newCopyProgram(t, "offscreen"), fb)
	assert.Error(t, err, "duplicate program names are rejected")
}

func TestRecordingBackend_TracksWritesBeforeReads(t *testing.T) {
	r, backend := newTestRenderer(t)
	reg := r.Registry()

	a, err := reg.CreateColorTarget("a", 64, 64, FormatRGBA8)
	require.NoError(t, err)
	b, err := reg.CreateColorTarget("b", 64, 64, FormatRGBA8)
	require.NoError(t, err)
	fbA, err := reg.CreateFramebuffer("fa", map[AttachmentPoint]ResourceHandle{Color0: a})
	require.NoError(t, err)
	fbB, err := reg.CreateFramebuffer("fb", map[AttachmentPoint]ResourceHandle{Color0: b})
	require.NoError(t, err)

	_, err = r.RegisterProgram(newCopyProgram(t, "first"), fbA)
	require.NoError(t, err)
	second := newCopyProgram(t, "second")
	_, err = r.RegisterProgram(second, fbB)
	require.NoError(t, err)
	require.NoError(t, r.CreateMesh(model.Quad()))

	block := shader.NewUniformBlock(second)
	gain, ok := second.Slot("Gain")
	require.True(t, ok)
	block.SetFloat(gain, 2)
	require.NoError(t, block.Err())

	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.BeginPass(PassTarget{Name: "one", Framebuffer: fbA, Clear: ClearColor}))
	require.NoError(t, r.Draw(DrawCall{Pipeline: "first", Mesh: model.QuadName, Instances: 1, Uniforms: block.Bytes(), Textures: map[int]ResourceHandle{0: b}}))
	require.NoError(t, r.EndPass())
	require.NoError(t, r.BeginPass(PassTarget{Name: "two", Framebuffer: fbB}))
	require.NoError(t, r.Draw(DrawCall{Pipeline: "second", Mesh: model.QuadName, Instances: 1, Uniforms: block.Bytes(), Textures: map[int]ResourceHandle{0: a}}))
	require.NoError(t, r.EndPass())
	require.NoError(t, r.EndFrame())

	writesA := backend.Writes(a)
	readsA := backend.Reads(a)
	require.Len(t, writesA, 1)
	require.Len(t, readsA, 1)
	assert.Less(t, writesA[0], readsA[0])
	assert.Equal(t, []string{"one", "two"}, backend.PassOrder())

	draws := backend.Draws("two")
	require.Len(t, draws, 1)
	assert.Equal(t, float32(2), shader.ReadFloat(draws[0].Uniforms, gain))

	var trace bytes.Buffer
	require.NoError(t, backend.WriteTrace(&trace))
	assert.Contains(t, trace.String(), "pass one")
	assert.Contains(t, trace.String(), "draw second")
	assert.Empty(t, r.CheckErrors())
}

func TestRecordingBackend_ValidatesDraws(t *testing.T) {
	r, _ := newTestRenderer(t)
	reg := r.Registry()

	a, err := reg.CreateColorTarget("a", 64, 64, FormatRGBA8)
	require.NoError(t, err)
	fb, err := reg.CreateFramebuffer("fa", map[AttachmentPoint]ResourceHandle{Color0: a})
	require.NoError(t, err)
	p := newCopyProgram(t, "copy")
	_, err = r.RegisterProgram(p, fb)
	require.NoError(t, err)
	require.NoError(t, r.CreateMesh(model.Quad()))
	uniforms := shader.NewUniformBlock(p).Bytes()

	require.Error(t, r.Draw(DrawCall{Pipeline: "copy", Mesh: model.QuadName}), "draw outside a pass")

	require.NoError(t, r.BeginFrame())
	require.NoError(t, r.BeginPass(PassTarget{Name: "feedback", Framebuffer: fb}))
	assert.Error(t, r.Draw(DrawCall{Pipeline: "copy", Mesh: model.QuadName, Uniforms: uniforms, Textures: map[int]ResourceHandle{0: a}}), "sampling the pass target")
	assert.Error(t, r.Draw(DrawCall{Pipeline: "copy", Mesh: model.QuadName, Uniforms: uniforms}), "unit 0 unbound")
	assert.Error(t, r.Draw(DrawCall{Pipeline: "missing", Mesh: model.QuadName}))
	assert.Error(t, r.Draw(DrawCall{Pipeline: "copy", Mesh: model.QuadName, Uniforms: []byte{1}}), "uniform size")
	require.NoError(t, r.EndPass())
	require.NoError(t, r.EndFrame())

	errs := r.CheckErrors()
	require.Len(t, errs, 5)
	for _, err := range errs {
		var gpuErr *GPUError
		require.True(t, errors.As(err, &gpuErr))
		assert.Equal(t, ErrorClassValidation, gpuErr.Class)
	}
	assert.Empty(t, r.CheckErrors(), "errors are drained")
}

func TestCheckErrors_LogsErrorClass(t *testing.T) {
	var out, errOut bytes.Buffer
	backend := NewRecordingBackend(64, 64)
	r := NewRenderer(BackendTypeRecording, HeadlessSurface{W: 64, H: 64},
		WithBackend(backend),
		WithLogger(common.NewWriterLogger("renderer", false, &out, &errOut)),
	)

	backend.InjectError(ErrorClassOutOfMemory, errors.New("buffer allocation failed"))
	backend.InjectError(ErrorClassInternal, errors.New("device hiccup"))

	errs := r.CheckErrors()
	require.Len(t, errs, 2)
	assert.Contains(t, errOut.String(), "GPU out-of-memory error")
	assert.Contains(t, errOut.String(), "GPU internal error")
	assert.Empty(t, out.String())
}

func TestErrorClassNames(t *testing.T) {
	assert.Equal(t, "validation", ErrorClassValidation.String())
	assert.Equal(t, "out-of-memory", ErrorClassOutOfMemory.String())
	assert.Equal(t, "internal", ErrorClassInternal.String())
	assert.Equal(t, "unknown", ErrorClassUnknown.String())
	assert.Equal(t, ErrorClassUnknown, newGPUError("op", errors.New("plain")).Class)
}
