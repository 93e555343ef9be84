package shader

import "github.com/cogentcore/webgpu/wgpu"

// ShaderType identifies the pipeline stage a shader source belongs to.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment stage.
	ShaderTypeFragment

	// ShaderTypeGeometry is a helper library linked into the fragment stage module.
	// WGSL has no geometry stage; the source declares functions the fragment stage calls.
	ShaderTypeGeometry
)

// String returns the lower-case stage name.
func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	case ShaderTypeGeometry:
		return "geometry"
	default:
		return "unknown"
	}
}

// shader is the implementation of the Shader interface.
type shader struct {
	key        string
	source     string
	shaderType ShaderType
	entryPoint string

	structs       []parsedStruct
	bindings      []bindingDecl
	layouts       map[int]wgpu.BindGroupLayoutDescriptor
	vertexLayouts []wgpu.VertexBufferLayout
	stageIO       map[int]string
}

// Shader is one pre-processed and parsed WGSL stage source.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used as the GPU module label.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// ShaderType retrieves the stage this source was compiled for.
	ShaderType() ShaderType

	// Source retrieves the pre-processed WGSL source handed to the GPU.
	//
	// Returns:
	//   - string: the WGSL source code
	Source() string

	// EntryPoint retrieves the entry function name, empty for geometry helpers.
	EntryPoint() string

	// BindGroupLayoutDescriptors retrieves the layouts declared by this stage keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: the layout descriptors
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// VertexLayouts retrieves the vertex buffer layouts of a vertex stage, nil for other stages.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts in vertex buffer slot order
	VertexLayouts() []wgpu.VertexBufferLayout
}

var _ Shader = &shader{}

// NewShader pre-processes and parses a WGSL stage source. The checks applied here are the
// Go-side compile step: annotations expand, delimiters balance, the stage declares its entry
// point (geometry helpers must declare functions and no entry point).
//
// Parameters:
//   - key: the unique identifier for the shader
//   - shaderType: the stage the source is compiled for
//   - source: the raw WGSL source
//
// Returns:
//   - Shader: the parsed shader
//   - error: a *CompileError carrying the numbered listing when a check fails
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	pp := NewPreProcessor()
	processed, err := pp.Process(source)
	if err != nil {
		return nil, newCompileError(key, shaderType, source, err.Error())
	}
	if err := checkDelimiters(processed); err != nil {
		return nil, newCompileError(key, shaderType, processed, err.Error())
	}

	s := &shader{
		key:        key,
		source:     processed,
		shaderType: shaderType,
		entryPoint: parseEntryPoint(processed, shaderType),
	}

	switch shaderType {
	case ShaderTypeGeometry:
		if parseEntryPoint(processed, ShaderTypeVertex) != "" || parseEntryPoint(processed, ShaderTypeFragment) != "" {
			return nil, newCompileError(key, shaderType, processed, "geometry source must not declare an entry point")
		}
		if len(parseFunctionNames(processed)) == 0 {
			return nil, newCompileError(key, shaderType, processed, "geometry source declares no functions")
		}
	default:
		if s.entryPoint == "" {
			return nil, newCompileError(key, shaderType, processed, "missing @"+shaderType.String()+" entry point")
		}
	}

	cleaned := stripComments(processed)
	s.structs = parseStructBlocks(cleaned)
	s.bindings = parseBindings(processed)
	s.stageIO = parseStageInterface(processed)

	visibility := wgpu.ShaderStageFragment
	if shaderType == ShaderTypeVertex {
		visibility = wgpu.ShaderStageVertex
		s.vertexLayouts = parseVertexLayouts(processed)
	}
	s.layouts = parseBindGroupLayouts(s.bindings, s.structs, visibility)

	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.layouts
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}
