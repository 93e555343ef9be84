package shader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const objectVertex = `//@oxy:include vertex
struct ObjectParams {
    MVP: mat4x4<f32>,
    Camera: vec3<f32>,
    Time: f32,
    specularPower: f32,
};
@group(0) @binding(0) var<uniform> u: ObjectParams;

struct ObjectOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) normal: vec3<f32>,
    @location(1) uv: vec2<f32>,
};

@vertex
fn vs_main(in: VertexInput) -> ObjectOutput {
    var out: ObjectOutput;
    out.clip = u.MVP * vec4<f32>(in.position, 1.0);
    out.normal = in.normal;
    out.uv = in.uv;
    return out;
}
`

const objectFragment = `struct ObjectParams {
    MVP: mat4x4<f32>,
    Camera: vec3<f32>,
    Time: f32,
    specularPower: f32,
};
@group(0) @binding(0) var<uniform> u: ObjectParams;
@group(1) @binding(0) var Diffuse: texture_2d<f32>;
@group(1) @binding(1) var DiffuseSampler: sampler;
@group(1) @binding(2) var Normals: texture_2d<f32>;
@group(1) @binding(3) var Shadow: texture_depth_2d;
@group(1) @binding(4) var ShadowSampler: sampler_comparison;

struct ObjectOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) normal: vec3<f32>,
    @location(1) uv: vec2<f32>,
};

@fragment
fn fs_main(in: ObjectOutput) -> @location(0) vec4<f32> {
    return textureSample(Diffuse, DiffuseSampler, in.uv) * faceShade(in.normal);
}
`

const objectGeometry = `fn faceShade(n: vec3<f32>) -> f32 {
    return max(dot(normalize(n), vec3<f32>(0.0, 1.0, 0.0)), 0.2);
}
`

func TestListing_NumbersEveryLine(t *testing.T) {
	got := Listing("a\nb\n\nc\n")
	assert.Equal(t, "  1 : a\n  2 : b\n  3 : \n  4 : c\n", got)
}

func TestCompileAndLink_ResolvesUniformSlots(t *testing.T) {
	p, err := CompileAndLink("object", objectVertex, objectFragment, objectGeometry)
	require.NoError(t, err)

	assert.Equal(t, uint64(96), p.UniformSize())

	tests := []struct {
		name   string
		offset uint64
		size   uint64
	}{
		{"MVP", 0, 64},
		{"Camera", 64, 12},
		{"Time", 76, 4},
		{"specularPower", 80, 4},
	}
	for _, tt := range tests {
		s, ok := p.Slot(tt.name)
		require.True(t, ok, tt.name)
		assert.Equal(t, SlotUniform, s.Kind)
		assert.Equal(t, tt.offset, s.Offset, tt.name)
		assert.Equal(t, tt.size, s.Size, tt.name)
	}

	tex, ok := p.Slot("Diffuse")
	require.True(t, ok)
	assert.Equal(t, SlotTexture, tex.Kind)
	assert.Equal(t, TextureGroup, tex.Group)

	_, ok = p.Slot("Missing")
	assert.False(t, ok)

	require.NotNil(t, p.Shader(ShaderTypeGeometry))
	assert.Contains(t, p.Shader(ShaderTypeFragment).Source(), "fn faceShade")
	require.Len(t, p.VertexLayouts(), 1)
	assert.Equal(t, uint64(32), p.VertexLayouts()[0].ArrayStride)
}

func TestCompileAndLink_LayoutFlags(t *testing.T) {
	p, err := CompileAndLink("object", objectVertex, objectFragment, objectGeometry)
	require.NoError(t, err)

	layouts := p.BindGroupLayouts()
	uniform := layouts[UniformGroup].Entries[0]
	assert.True(t, uniform.Buffer.HasDynamicOffset)
	assert.Equal(t, p.UniformSize(), uniform.Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, uniform.Visibility)

	sampleTypes := map[uint32]wgpu.TextureSampleType{}
	for _, e := range layouts[TextureGroup].Entries {
		switch e.Binding {
		case 0, 2, 3:
			sampleTypes[e.Binding] = e.Texture.SampleType
		}
	}
	assert.Equal(t, wgpu.TextureSampleTypeFloat, sampleTypes[0], "paired texture stays filterable")
	assert.Equal(t, wgpu.TextureSampleTypeUnfilterableFloat, sampleTypes[2], "unpaired texture is loaded")
	assert.Equal(t, wgpu.TextureSampleTypeDepth, sampleTypes[3])
}

func TestCompileAndLink_CompileErrors(t *testing.T) {
	_, err := CompileAndLink("broken", "struct A { x: f32, };\n", objectFragment, "")
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "broken", ce.Program)
	assert.Equal(t, ShaderTypeVertex, ce.Stage)
	assert.Contains(t, ce.Log, "missing @vertex entry point")
	assert.True(t, strings.HasPrefix(ce.Listing, "  1 : struct A"))
	assert.Contains(t, ce.Diagnostic(), "Compile : ")

	_, err = CompileAndLink("unbalanced", objectVertex+"\nfn extra() {\n", objectFragment, "")
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ShaderTypeVertex, ce.Stage)

	_, err = CompileAndLink("geometry", objectVertex, objectFragment, "@vertex fn nope() {}\n")
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ShaderTypeGeometry, ce.Stage)

	_, err = CompileAndLink("include", "//@oxy:include nothing\n"+objectVertex, objectFragment, "")
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Log, "unknown snippet")
}

func TestCompileAndLink_LinkErrors(t *testing.T) {
	mismatched := strings.Replace(objectFragment, "@location(1) uv: vec2<f32>", "@location(1) uv: vec3<f32>", 1)
	_, err := CompileAndLink("types", objectVertex, mismatched, objectGeometry)
	var le *LinkError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "types", le.Program)
	assert.Contains(t, le.Log, "@location(1)")

	extra := strings.Replace(objectFragment, "@location(1) uv: vec2<f32>,", "@location(1) uv: vec2<f32>,\n    @location(2) tint: vec4<f32>,", 1)
	_, err = CompileAndLink("missing", objectVertex, extra, objectGeometry)
	require.True(t, errors.As(err, &le))
	assert.Contains(t, le.Log, "not written by the vertex stage")

	misplaced := strings.Replace(objectFragment, "@group(0) @binding(0) var<uniform> u", "@group(0) @binding(0) var<uniform> v", 1)
	_, err = CompileAndLink("bindings", objectVertex, misplaced, objectGeometry)
	require.True(t, errors.As(err, &le))
	assert.Contains(t, le.Diagnostic(), "Link : ")
}

func TestBindSampler_Units(t *testing.T) {
	p, err := CompileAndLink("object", objectVertex, objectFragment, objectGeometry)
	require.NoError(t, err)

	require.NoError(t, p.BindSampler("Diffuse", 0))
	require.NoError(t, p.BindSampler("Normals", 1))
	require.NoError(t, p.BindSampler("Shadow", 3))
	require.NoError(t, p.BindSampler("Diffuse", 0), "rebinding the same unit is idempotent")

	var le *LinkError
	require.True(t, errors.As(p.BindSampler("Normals", 0), &le), "unit 0 is taken")
	require.True(t, errors.As(p.BindSampler("Unknown", 5), &le))
	require.True(t, errors.As(p.BindSampler("MVP", 6), &le), "uniform fields are not textures")

	units := p.TextureUnits()
	require.Len(t, units, 3)
	assert.Equal(t, []int{0, 1, 3}, []int{units[0].Unit, units[1].Unit, units[2].Unit})
	assert.True(t, units[0].HasSampler)
	assert.Equal(t, "DiffuseSampler", units[0].Sampler.Name)
	assert.False(t, units[1].HasSampler)
	assert.True(t, units[2].Depth)
	assert.True(t, units[2].HasSampler)
}

func TestProgramSet_SlotLookup(t *testing.T) {
	set := NewProgramSet()
	p, err := CompileAndLink("object", objectVertex, objectFragment, objectGeometry)
	require.NoError(t, err)
	require.NoError(t, set.Register(p))
	assert.Error(t, set.Register(p))

	s, err := set.Slot("object", "Time")
	require.NoError(t, err)
	assert.Equal(t, uint64(76), s.Offset)

	var le *LinkError
	_, err = set.Slot("object", "Nope")
	assert.True(t, errors.As(err, &le))
	_, err = set.Slot("absent", "Time")
	assert.True(t, errors.As(err, &le))
	assert.True(t, errors.As(set.BindSampler("absent", "Diffuse", 0), &le))
	require.NoError(t, set.BindSampler("object", "Diffuse", 0))

	assert.Len(t, set.Programs(), 1)
}

func TestUniformBlock_WritesAtSlotOffsets(t *testing.T) {
	p, err := CompileAndLink("object", objectVertex, objectFragment, objectGeometry)
	require.NoError(t, err)

	block := NewUniformBlock(p)
	mvp, _ := p.Slot("MVP")
	camera, _ := p.Slot("Camera")
	tm, _ := p.Slot("Time")

	block.SetMat4(mvp, mgl32.Ident4())
	block.SetVec3(camera, mgl32.Vec3{1, 2, 3})
	block.SetFloat(tm, 4.5)
	require.NoError(t, block.Err())

	assert.Len(t, block.Bytes(), 96)
	assert.Equal(t, float32(1), ReadFloat(block.Bytes(), Slot{Offset: 0}))
	assert.Equal(t, float32(0), ReadFloat(block.Bytes(), Slot{Offset: 4}))
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, ReadVec3(block.Bytes(), camera))
	assert.Equal(t, float32(4.5), block.Float(tm))

	block.SetInt(tm, 3)
	require.Error(t, block.Err(), "f32 field written as i32")
	block.SetFloat(tm, 9)
	assert.Equal(t, float32(4.5), block.Float(tm), "writes after an error are ignored")
}

func TestPreProcessor_IncludesOnce(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("//@oxy:include quad\nfn a() {}\n//@oxy:include quad\n")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "struct QuadOutput"))
	assert.Equal(t, []AnnotationArg{AnnotationArgQuad}, pp.Includes())

	_, err = pp.Process("//@oxy:include\n")
	assert.Error(t, err)
	_, err = pp.Process("//@oxy:unroll 4\n")
	assert.Error(t, err)
}

func readShader(t *testing.T, name string) string {
	t.Helper()
	src, err := os.ReadFile(filepath.Join("..", "..", "..", "shaders", name+".wgsl"))
	require.NoError(t, err)
	return string(src)
}

func TestCompileAndLink_LightPrograms(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		uniforms []string
		shadow   bool
	}{
		{name: "point_light", fragment: "point_light.frag",
			uniforms: []string{"ScreenToWorld", "Camera", "pointLightPosition", "pointLightColor", "pointLightIntensity"}},
		{name: "spot_light", fragment: "spot_light.frag", shadow: true,
			uniforms: []string{"ScreenToWorld", "worldToLightScreen", "spotLightAngle", "bias", "castShadow"}},
		{name: "directional_light", fragment: "directional_light.frag",
			uniforms: []string{"ScreenToWorld", "directionalLightDirection", "directionalLightColor"}},
	}
	vertex := readShader(t, "blit.vert")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := CompileAndLink(tt.name, vertex, readShader(t, tt.fragment), "")
			require.NoError(t, err)

			src := p.Shader(ShaderTypeFragment).Source()
			assert.Contains(t, src, "fn loadSurface")
			assert.Contains(t, src, "fn blinnPhong")

			for binding, name := range []string{"ColorBuffer", "NormalBuffer", "DepthBuffer"} {
				slot, ok := p.Slot(name)
				require.True(t, ok, name)
				assert.Equal(t, SlotTexture, slot.Kind)
				assert.Equal(t, TextureGroup, slot.Group)
				assert.Equal(t, binding, slot.Binding)
				require.NoError(t, p.BindSampler(name, binding))
			}
			for _, name := range tt.uniforms {
				slot, ok := p.Slot(name)
				require.True(t, ok, name)
				assert.Equal(t, SlotUniform, slot.Kind)
			}

			_, ok := p.Slot("Shadow")
			assert.Equal(t, tt.shadow, ok)
		})
	}
}
