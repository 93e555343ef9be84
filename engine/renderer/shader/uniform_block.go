package shader

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformBlock is the CPU copy of one program's uniform struct. Setters write little-endian values
// at slot offsets. The first misuse (a slot of another program, a non-uniform slot, or a type
// mismatch) is kept in Err and later writes are ignored, like bufio.Scanner.
type UniformBlock struct {
	program string
	data    []byte
	err     error
}

// NewUniformBlock creates a zeroed uniform block sized for the program's uniform struct.
//
// Parameters:
//   - p: the linked program
//
// Returns:
//   - *UniformBlock: the block
func NewUniformBlock(p Program) *UniformBlock {
	return &UniformBlock{
		program: p.Name(),
		data:    make([]byte, p.UniformSize()),
	}
}

// Program returns the name of the program this block belongs to.
func (b *UniformBlock) Program() string {
	return b.program
}

// Bytes returns the block contents. The slice is reused across writes.
func (b *UniformBlock) Bytes() []byte {
	return b.data
}

// Err returns the first misuse recorded by a setter, or nil.
func (b *UniformBlock) Err() error {
	return b.err
}

func (b *UniformBlock) SetFloat(s Slot, v float32) {
	if b.check(s, "f32") {
		binary.LittleEndian.PutUint32(b.data[s.Offset:], math.Float32bits(v))
	}
}

func (b *UniformBlock) SetInt(s Slot, v int32) {
	if b.check(s, "i32") {
		binary.LittleEndian.PutUint32(b.data[s.Offset:], uint32(v))
	}
}

func (b *UniformBlock) SetVec2i(s Slot, v [2]int32) {
	if b.check(s, "vec2<i32>", "vec2i") {
		binary.LittleEndian.PutUint32(b.data[s.Offset:], uint32(v[0]))
		binary.LittleEndian.PutUint32(b.data[s.Offset+4:], uint32(v[1]))
	}
}

func (b *UniformBlock) SetVec3(s Slot, v mgl32.Vec3) {
	if b.check(s, "vec3<f32>", "vec3f") {
		b.putFloats(s.Offset, v[:])
	}
}

func (b *UniformBlock) SetMat4(s Slot, m mgl32.Mat4) {
	if b.check(s, "mat4x4<f32>", "mat4x4f") {
		b.putFloats(s.Offset, m[:])
	}
}

// Float reads back a f32 field, used by tests and the recording trace.
func (b *UniformBlock) Float(s Slot) float32 {
	return ReadFloat(b.data, s)
}

// ReadFloat decodes the f32 stored at a uniform slot offset of raw block bytes.
func ReadFloat(data []byte, s Slot) float32 {
	if s.Offset+4 > uint64(len(data)) {
		return float32(math.NaN())
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(data[s.Offset:]))
}

// ReadVec3 decodes the vec3<f32> stored at a uniform slot offset of raw block bytes.
func ReadVec3(data []byte, s Slot) mgl32.Vec3 {
	var v mgl32.Vec3
	for i := range v {
		v[i] = ReadFloat(data, Slot{Offset: s.Offset + uint64(4*i)})
	}
	return v
}

// ReadInt decodes the i32 stored at a uniform slot offset of raw block bytes.
func ReadInt(data []byte, s Slot) int32 {
	if s.Offset+4 > uint64(len(data)) {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(data[s.Offset:]))
}

func (b *UniformBlock) putFloats(offset uint64, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(b.data[offset+uint64(4*i):], math.Float32bits(v))
	}
}

func (b *UniformBlock) check(s Slot, types ...string) bool {
	if b.err != nil {
		return false
	}
	switch {
	case s.Program != b.program:
		b.err = fmt.Errorf("slot %s written to the uniform block of %q", s, b.program)
	case s.Kind != SlotUniform:
		b.err = fmt.Errorf("slot %s is a %s, not a uniform", s, s.Kind)
	case !matchesType(s.Type, types):
		b.err = fmt.Errorf("slot %s is %s, written as %s", s, s.Type, types[0])
	case s.Offset+s.Size > uint64(len(b.data)):
		b.err = fmt.Errorf("slot %s lies outside the %d byte block", s, len(b.data))
	default:
		return true
	}
	return false
}

func matchesType(t string, types []string) bool {
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}
