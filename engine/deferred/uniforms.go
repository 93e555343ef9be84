package deferred

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// uniforms is the uniform block of one program with its slots resolved once after link.
type uniforms struct {
	block *shader.UniformBlock
	slots map[string]shader.Slot
}

func newUniforms(set shader.ProgramSet, program string, names ...string) (*uniforms, error) {
	p, ok := set.Program(program)
	if !ok {
		return nil, &shader.LinkError{Program: program, Log: "program is not registered"}
	}
	u := &uniforms{
		block: shader.NewUniformBlock(p),
		slots: make(map[string]shader.Slot, len(names)),
	}
	for _, name := range names {
		s, err := set.Slot(program, name)
		if err != nil {
			return nil, err
		}
		u.slots[name] = s
	}
	return u, nil
}

func (u *uniforms) setFloat(name string, v float32) *uniforms {
	u.block.SetFloat(u.slots[name], v)
	return u
}

func (u *uniforms) setInt(name string, v int32) *uniforms {
	u.block.SetInt(u.slots[name], v)
	return u
}

func (u *uniforms) setVec2i(name string, v [2]int32) *uniforms {
	u.block.SetVec2i(u.slots[name], v)
	return u
}

func (u *uniforms) setVec3(name string, v mgl32.Vec3) *uniforms {
	u.block.SetVec3(u.slots[name], v)
	return u
}

func (u *uniforms) setMat4(name string, m mgl32.Mat4) *uniforms {
	u.block.SetMat4(u.slots[name], m)
	return u
}

// bytes returns the block contents for a draw, or the first setter misuse.
func (u *uniforms) bytes() ([]byte, error) {
	if err := u.block.Err(); err != nil {
		return nil, err
	}
	return u.block.Bytes(), nil
}
