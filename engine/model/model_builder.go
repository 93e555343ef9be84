package model

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithVertices sets the vertex buffer from mesh vertices.
//
// Parameters:
//   - vertices: the mesh vertices
//
// Returns:
//   - ModelBuilderOption: a function that applies the vertices to a model
func WithVertices(vertices []GPUVertex) ModelBuilderOption {
	return func(m *model) {
		m.vertexData = m.vertexData[:0]
		for i := range vertices {
			m.vertexData = append(m.vertexData, vertices[i].Marshal()...)
		}
		m.vertexStride = 32
	}
}

// WithQuadVertices sets the vertex buffer from screen-space quad corners.
//
// Parameters:
//   - vertices: the quad corners
//
// Returns:
//   - ModelBuilderOption: a function that applies the corners to a model
func WithQuadVertices(vertices []GPUQuadVertex) ModelBuilderOption {
	return func(m *model) {
		m.vertexData = m.vertexData[:0]
		for i := range vertices {
			m.vertexData = append(m.vertexData, vertices[i].Marshal()...)
		}
		m.vertexStride = 8
	}
}

// WithIndices sets the index buffer and the index count.
//
// Parameters:
//   - indices: the uint32 triangle list indices
//
// Returns:
//   - ModelBuilderOption: a function that applies the indices to a model
func WithIndices(indices []uint32) ModelBuilderOption {
	return func(m *model) {
		m.indexData = MarshalIndices(indices)
		m.indexCount = len(indices)
	}
}
