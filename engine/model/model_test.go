package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitives_IndicesStayInRange(t *testing.T) {
	tests := []struct {
		model    Model
		name     string
		vertices int
		indices  int
		stride   int
	}{
		{Cube(), CubeName, 27, 36, 32},
		{Plane(), PlaneName, 4, 6, 32},
		{Quad(), QuadName, 4, 6, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.model
			assert.Equal(t, tt.name, m.Name())
			assert.Equal(t, tt.stride, m.VertexStride())
			assert.Equal(t, tt.vertices, m.VertexCount())
			assert.Equal(t, tt.indices, m.IndexCount())
			require.Len(t, m.IndexData(), 4*tt.indices)

			for i := 0; i < m.IndexCount(); i++ {
				idx := binary.LittleEndian.Uint32(m.IndexData()[4*i:])
				assert.Less(t, int(idx), m.VertexCount(), "index %d", i)
			}
		})
	}
}

func TestPlane_FacesUpAtFloorHeight(t *testing.T) {
	p := Plane()
	data := p.VertexData()
	for v := 0; v < p.VertexCount(); v++ {
		base := v * p.VertexStride()
		y := math.Float32frombits(binary.LittleEndian.Uint32(data[base+4:]))
		ny := math.Float32frombits(binary.LittleEndian.Uint32(data[base+16:]))
		assert.Equal(t, float32(-1), y)
		assert.Equal(t, float32(1), ny)
	}
}

func TestGPUVertex_Marshal(t *testing.T) {
	v := GPUVertex{
		Position: [3]float32{1, 2, 3},
		Normal:   [3]float32{0, 1, 0},
		TexCoord: [2]float32{0.25, 0.75},
	}
	buf := v.Marshal()
	require.Len(t, buf, v.Size())
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(buf[8:])))
	assert.Equal(t, float32(0.75), math.Float32frombits(binary.LittleEndian.Uint32(buf[28:])))
}
