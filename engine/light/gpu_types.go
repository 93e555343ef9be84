package light

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUGBufferSource declares the G-buffer textures sampled by every light program and the
// loadSurface/blinnPhong helpers that rebuild a shaded surface from them.
//
//go:embed assets/gbuffer.wgsl
var GPUGBufferSource string

// gpuVec3Stride is the array stride of vec3<f32> in a WGSL storage buffer.
const gpuVec3Stride = 16

// MarshalVec3Array serializes vectors as a WGSL array<vec3<f32>> storage buffer (16-byte stride).
// An empty input yields one zeroed element since zero-sized bindings are invalid.
//
// Parameters:
//   - values: the vectors to pack
//
// Returns:
//   - []byte: the storage buffer contents
func MarshalVec3Array(values []mgl32.Vec3) []byte {
	n := max(len(values), 1)
	buf := make([]byte, n*gpuVec3Stride)
	for i, v := range values {
		off := i * gpuVec3Stride
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v[0]))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(v[1]))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(v[2]))
	}
	return buf
}

// UnmarshalVec3Array decodes a buffer written by MarshalVec3Array.
func UnmarshalVec3Array(buf []byte) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(buf)/gpuVec3Stride)
	for i := range out {
		off := i * gpuVec3Stride
		for c := 0; c < 3; c++ {
			out[i][c] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off+4*c:]))
		}
	}
	return out
}
