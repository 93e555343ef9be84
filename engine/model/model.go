package model

// model is the implementation of the Model interface.
type model struct {
	name                  string
	vertexData, indexData []byte
	vertexStride          int
	indexCount            int
}

// Model is CPU-side mesh data ready for upload: an interleaved vertex buffer and uint32 indices.
type Model interface {
	// Name retrieves the model identifier, also the key draws refer to it by.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// VertexData retrieves the interleaved vertex bytes.
	//
	// Returns:
	//   - []byte: the vertex buffer contents
	VertexData() []byte

	// IndexData retrieves the uint32 index bytes.
	//
	// Returns:
	//   - []byte: the index buffer contents
	IndexData() []byte

	// IndexCount retrieves the number of indices drawn per instance.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// VertexStride retrieves the byte size of one vertex.
	VertexStride() int

	// VertexCount retrieves the number of vertices in VertexData.
	VertexCount() int
}

var _ Model = &model{}

// NewModel creates a new Model with the provided options.
//
// Parameters:
//   - options: builder options applied in order
//
// Returns:
//   - Model: the model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) VertexData() []byte {
	return m.vertexData
}

func (m *model) IndexData() []byte {
	return m.indexData
}

func (m *model) IndexCount() int {
	return m.indexCount
}

func (m *model) VertexStride() int {
	return m.vertexStride
}

func (m *model) VertexCount() int {
	if m.vertexStride == 0 {
		return 0
	}
	return len(m.vertexData) / m.vertexStride
}
