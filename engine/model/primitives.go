package model

// Name keys of the built-in meshes.
const (
	CubeName  = "cube"
	PlaneName = "plane"
	QuadName  = "quad"
)

var cubePositions = []float32{
	-0.5, -0.5, 0.5, 0.5, -0.5, 0.5, -0.5, 0.5, 0.5,
	0.5, 0.5, 0.5, -0.5, 0.5, 0.5, 0.5, 0.5, 0.5,
	-0.5, 0.5, -0.5, 0.5, 0.5, -0.5, -0.5, 0.5, -0.5,
	0.5, 0.5, -0.5, -0.5, -0.5, -0.5, 0.5, -0.5, -0.5,
	-0.5, -0.5, -0.5, 0.5, -0.5, -0.5, -0.5, -0.5, 0.5,
	0.5, -0.5, 0.5, 0.5, -0.5, 0.5, 0.5, -0.5, -0.5,
	0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, -0.5,
	-0.5, -0.5, -0.5, -0.5, -0.5, 0.5, -0.5, 0.5, -0.5,
	-0.5, 0.5, -0.5, -0.5, -0.5, 0.5, -0.5, 0.5, 0.5,
}

var cubeNormals = []float32{
	0, 0, 1, 0, 0, 1, 0, 0, 1,
	0, 0, 1, 0, 1, 0, 0, 1, 0,
	0, 1, 0, 0, 1, 0, 0, 0, -1,
	0, 0, -1, 0, 0, -1, 0, 0, -1,
	0, -1, 0, 0, -1, 0, 0, -1, 0,
	0, -1, 0, 1, 0, 0, 1, 0, 0,
	1, 0, 0, 1, 0, 0, 1, 0, 0,
	-1, 0, 0, -1, 0, 0, -1, 0, 0,
	-1, 0, 0, -1, 0, 0, -1, 0, 0,
}

var cubeUVs = []float32{
	0, 0, 0, 1, 1, 0, 1, 1,
	0, 0, 0, 1, 1, 0, 1, 1,
	0, 0, 0, 1, 1, 0, 1, 1,
	0, 0, 0, 1, 1, 0, 1, 1,
	0, 0, 0, 1, 1, 0, 1, 0,
	1, 1, 0, 1, 1, 1, 0, 0,
	0, 0, 1, 1, 1, 0,
}

var cubeIndices = []uint32{
	0, 1, 2, 2, 1, 3,
	4, 5, 6, 6, 5, 7,
	8, 9, 10, 10, 9, 11,
	12, 13, 14, 14, 13, 15,
	16, 17, 18, 19, 17, 20,
	21, 22, 23, 24, 25, 26,
}

// Cube builds the unit cube centered on the origin. Faces keep their own vertices so normals stay flat.
//
// Returns:
//   - Model: the cube mesh
func Cube() Model {
	return NewModel(
		WithName(CubeName),
		WithVertices(interleave(cubePositions, cubeNormals, cubeUVs)),
		WithIndices(cubeIndices),
	)
}

// Plane builds the 10x10 ground plane lying at y = -1 facing up.
//
// Returns:
//   - Model: the plane mesh
func Plane() Model {
	return NewModel(
		WithName(PlaneName),
		WithVertices(interleave(
			[]float32{-5, -1, 5, 5, -1, 5, -5, -1, -5, 5, -1, -5},
			[]float32{0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0},
			[]float32{0, 0, 0, 1, 1, 0, 1, 1},
		)),
		WithIndices([]uint32{0, 1, 2, 2, 1, 3}),
	)
}

// Quad builds the two-triangle quad covering normalized device coordinates [-1, 1].
// Screen-space passes draw it once, light markers draw it once per light as a sprite.
//
// Returns:
//   - Model: the quad mesh
func Quad() Model {
	return NewModel(
		WithName(QuadName),
		WithQuadVertices([]GPUQuadVertex{
			{Position: [2]float32{-1, -1}},
			{Position: [2]float32{1, -1}},
			{Position: [2]float32{-1, 1}},
			{Position: [2]float32{1, 1}},
		}),
		WithIndices([]uint32{0, 1, 2, 2, 1, 3}),
	)
}

// interleave zips flat position, normal and uv arrays into vertices.
// Missing trailing uvs are left zero.
func interleave(positions, normals, uvs []float32) []GPUVertex {
	n := len(positions) / 3
	out := make([]GPUVertex, n)
	for i := range out {
		copy(out[i].Position[:], positions[i*3:i*3+3])
		if i*3+3 <= len(normals) {
			copy(out[i].Normal[:], normals[i*3:i*3+3])
		}
		if i*2+2 <= len(uvs) {
			copy(out[i].TexCoord[:], uvs[i*2:i*2+2])
		}
	}
	return out
}
