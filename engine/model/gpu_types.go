package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUVertexSource is the WGSL VertexInput struct of mesh geometry.
// Matches GPUVertex layout exactly (32 bytes).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUQuadVertexSource declares the fullscreen quad vertex input and the QuadOutput stage interface
// shared by every screen-space program.
//
//go:embed assets/quad_vertex.wgsl
var GPUQuadVertexSource string

// GPUVertex is one mesh vertex as laid out in the vertex buffer.
// Size: 32 bytes, tightly packed.
type GPUVertex struct {
	Position [3]float32 // offset  0
	Normal   [3]float32 // offset 12
	TexCoord [2]float32 // offset 24
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the vertex little-endian for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, 0, 32)
	for _, f := range g.Position {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, f := range g.Normal {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, f := range g.TexCoord {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// GPUQuadVertex is one corner of the fullscreen quad in normalized device coordinates.
// Size: 8 bytes.
type GPUQuadVertex struct {
	Position [2]float32
}

// Marshal serializes the corner little-endian for GPU upload.
func (g *GPUQuadVertex) Marshal() []byte {
	buf := make([]byte, 0, 8)
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(g.Position[0]))
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(g.Position[1]))
}

// MarshalIndices serializes uint32 indices little-endian.
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, 0, 4*len(indices))
	for _, i := range indices {
		buf = binary.LittleEndian.AppendUint32(buf, i)
	}
	return buf
}
