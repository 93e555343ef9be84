package shader

import "fmt"

const (
	// UniformGroup and UniformBinding locate the per-draw uniform struct of every program.
	// The binding is created with a dynamic offset so each draw gets its own copy.
	UniformGroup   = 0
	UniformBinding = 0

	// TextureGroup holds the sampled textures and their samplers.
	TextureGroup = 1

	// samplerSuffix pairs a texture variable X with the filtering sampler XSampler.
	samplerSuffix = "Sampler"
)

// SlotKind classifies what a named program parameter refers to.
type SlotKind int

const (
	// SlotUniform is a field of the program's uniform struct.
	SlotUniform SlotKind = iota + 1

	// SlotTexture is a sampled texture variable.
	SlotTexture

	// SlotSampler is a sampler or comparison sampler variable.
	SlotSampler

	// SlotStorage is a read-only storage buffer variable.
	SlotStorage
)

func (k SlotKind) String() string {
	switch k {
	case SlotUniform:
		return "uniform"
	case SlotTexture:
		return "texture"
	case SlotSampler:
		return "sampler"
	case SlotStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Slot is a named parameter location resolved once after link.
type Slot struct {
	Program string
	Name    string
	Kind    SlotKind
	Group   int
	Binding int

	// Offset and Size place a uniform field inside the uniform struct.
	Offset uint64
	Size   uint64

	// Type is the WGSL type of the field or variable.
	Type string
}

func (s Slot) String() string {
	if s.Kind == SlotUniform {
		return fmt.Sprintf("%s.%s(%s @%d+%d)", s.Program, s.Name, s.Type, s.Offset, s.Size)
	}
	return fmt.Sprintf("%s.%s(%s @group(%d) @binding(%d))", s.Program, s.Name, s.Kind, s.Group, s.Binding)
}

// TextureUnit is a static sampler unit: the texture bound to a unit number and, when the program
// declares one, its paired sampler.
type TextureUnit struct {
	Unit       int
	Texture    Slot
	Sampler    Slot
	HasSampler bool

	// Depth reports that the texture is declared as texture_depth_*.
	Depth bool
}
