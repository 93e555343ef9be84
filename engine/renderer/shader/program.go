package shader

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// program is the implementation of the Program interface.
type program struct {
	mu   *sync.Mutex
	name string

	vertex, fragment, geometry Shader

	slots       map[string]Slot
	uniformSize uint64
	layouts     map[int]wgpu.BindGroupLayoutDescriptor
	units       map[int]TextureUnit
}

// Program is a linked pair of vertex and fragment stages with its parameter slots resolved.
type Program interface {
	// Name retrieves the program name, also used as its pipeline key.
	//
	// Returns:
	//   - string: the program name
	Name() string

	// Shader retrieves the compiled source of a stage. The fragment shader carries the geometry
	// helper source linked into it. Returns nil for a geometry stage that was not supplied.
	//
	// Parameters:
	//   - stage: the stage to retrieve
	//
	// Returns:
	//   - Shader: the stage shader, or nil
	Shader(stage ShaderType) Shader

	// Slot looks up a parameter by its semantic name.
	//
	// Parameters:
	//   - semantic: the WGSL field or variable name, e.g. "MVP" or "Diffuse"
	//
	// Returns:
	//   - Slot: the resolved slot
	//   - bool: false if the program has no such parameter
	Slot(semantic string) (Slot, bool)

	// Slots retrieves every resolved slot ordered by group, binding and offset.
	Slots() []Slot

	// UniformSize retrieves the byte size of the uniform struct, zero when the program has none.
	UniformSize() uint64

	// BindGroupLayouts retrieves the merged layouts of both stages keyed by group index. The uniform
	// binding carries a dynamic offset, textures without a paired sampler are unfilterable.
	BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor

	// VertexLayouts retrieves the vertex buffer layouts of the vertex stage.
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindSampler assigns a static sampler unit to a texture parameter.
	//
	// Parameters:
	//   - semantic: the texture variable name
	//   - unit: the unit number draws bind resources to
	//
	// Returns:
	//   - error: a *LinkError if the name is not a texture of this program or the unit is taken
	BindSampler(semantic string, unit int) error

	// TextureUnit retrieves the texture bound to a unit.
	//
	// Returns:
	//   - TextureUnit: the unit binding
	//   - bool: false if no texture is bound to the unit
	TextureUnit(unit int) (TextureUnit, bool)

	// TextureUnits retrieves every bound unit ordered by unit number.
	TextureUnits() []TextureUnit
}

var _ Program = &program{}

// CompileAndLink compiles the stage sources and links them into a Program. The geometry source is
// optional; when present it is linked into the fragment stage module. Linking checks that every
// fragment input location is written by the vertex stage with the same type, that the stages agree
// on shared bindings, and resolves the parameter slots from the uniform struct and resource
// declarations.
//
// Parameters:
//   - name: the program name
//   - vertexSource: the vertex stage WGSL
//   - fragmentSource: the fragment stage WGSL
//   - geometrySource: the optional geometry helper WGSL, empty when unused
//
// Returns:
//   - Program: the linked program
//   - error: a *CompileError or *LinkError
func CompileAndLink(name, vertexSource, fragmentSource, geometrySource string) (Program, error) {
	vs, err := NewShader(name+".vert", ShaderTypeVertex, vertexSource)
	if err != nil {
		return nil, withProgram(err, name)
	}

	var gs Shader
	linkedFragment := fragmentSource
	if geometrySource != "" {
		if gs, err = NewShader(name+".geom", ShaderTypeGeometry, geometrySource); err != nil {
			return nil, withProgram(err, name)
		}
		linkedFragment = fragmentSource + "\n" + geometrySource
	}

	fs, err := NewShader(name+".frag", ShaderTypeFragment, linkedFragment)
	if err != nil {
		return nil, withProgram(err, name)
	}

	p := &program{
		mu:       &sync.Mutex{},
		name:     name,
		vertex:   vs,
		fragment: fs,
		geometry: gs,
		slots:    make(map[string]Slot),
		units:    make(map[int]TextureUnit),
	}
	if err := p.link(); err != nil {
		return nil, err
	}
	return p, nil
}

func withProgram(err error, name string) error {
	if ce, ok := err.(*CompileError); ok {
		ce.Program = name
	}
	return err
}

func (p *program) linkError(format string, args ...any) error {
	return &LinkError{Program: p.name, Log: fmt.Sprintf(format, args...)}
}

func (p *program) link() error {
	vs := p.vertex.(*shader)
	fs := p.fragment.(*shader)

	for loc, fragType := range fs.stageIO {
		vertType, ok := vs.stageIO[loc]
		if !ok {
			return p.linkError("fragment input @location(%d) %s is not written by the vertex stage", loc, fragType)
		}
		if vertType != fragType {
			return p.linkError("@location(%d) is %s in the vertex stage but %s in the fragment stage", loc, vertType, fragType)
		}
	}

	type key struct{ group, binding int }
	decls := make(map[key]bindingDecl)
	owner := make(map[key]*shader)
	for _, s := range []*shader{vs, fs} {
		for _, d := range s.bindings {
			k := key{d.group, d.binding}
			if prev, ok := decls[k]; ok {
				if prev.name != d.name || prev.typeName != d.typeName || prev.addressSpace != d.addressSpace {
					return p.linkError("@group(%d) @binding(%d) is %s: %s in one stage and %s: %s in the other",
						d.group, d.binding, prev.name, prev.typeName, d.name, d.typeName)
				}
				continue
			}
			decls[k] = d
			owner[k] = s
		}
	}

	keys := make([]key, 0, len(decls))
	for k := range decls {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].group != keys[j].group {
			return keys[i].group < keys[j].group
		}
		return keys[i].binding < keys[j].binding
	})

	for _, k := range keys {
		d := decls[k]
		if err := p.addSlots(d, owner[k].structs); err != nil {
			return err
		}
	}

	p.layouts = mergeBindGroupLayouts(vs.layouts, fs.layouts)
	p.finishLayouts()
	return nil
}

// addSlots records the slots contributed by one binding declaration.
func (p *program) addSlots(d bindingDecl, structs []parsedStruct) error {
	add := func(s Slot) error {
		if _, dup := p.slots[s.Name]; dup {
			return p.linkError("parameter %q is declared twice", s.Name)
		}
		p.slots[s.Name] = s
		return nil
	}

	switch {
	case d.addressSpace == "uniform":
		if d.group != UniformGroup || d.binding != UniformBinding {
			return p.linkError("uniform %s must be declared at @group(%d) @binding(%d)", d.name, UniformGroup, UniformBinding)
		}
		fields, layout, ok := structFieldLayouts(d.typeName, structs)
		if !ok {
			return p.linkError("uniform %s has type %s with no host-shareable layout", d.name, d.typeName)
		}
		p.uniformSize = layout.size
		for _, f := range fields {
			if err := add(Slot{
				Program: p.name,
				Name:    f.name,
				Kind:    SlotUniform,
				Group:   d.group,
				Binding: d.binding,
				Offset:  f.offset,
				Size:    f.size,
				Type:    f.typeName,
			}); err != nil {
				return err
			}
		}
		return nil
	case strings.HasPrefix(d.addressSpace, "storage"):
		return add(Slot{Program: p.name, Name: d.name, Kind: SlotStorage, Group: d.group, Binding: d.binding, Type: d.typeName})
	case strings.HasPrefix(d.typeName, "sampler"):
		return add(Slot{Program: p.name, Name: d.name, Kind: SlotSampler, Group: d.group, Binding: d.binding, Type: d.typeName})
	case strings.HasPrefix(d.typeName, "texture_"):
		return add(Slot{Program: p.name, Name: d.name, Kind: SlotTexture, Group: d.group, Binding: d.binding, Type: d.typeName})
	default:
		return p.linkError("binding %s has unsupported type %s", d.name, d.typeName)
	}
}

// finishLayouts marks the uniform binding dynamic and demotes float textures without a
// paired filtering sampler to unfilterable-float, which admits depth and 32-bit float targets.
func (p *program) finishLayouts() {
	for g, desc := range p.layouts {
		for i := range desc.Entries {
			e := &desc.Entries[i]
			if g == UniformGroup && int(e.Binding) == UniformBinding && e.Buffer.Type == wgpu.BufferBindingTypeUniform {
				e.Buffer.HasDynamicOffset = true
				e.Buffer.MinBindingSize = p.uniformSize
			}
			if e.Texture.SampleType == wgpu.TextureSampleTypeFloat {
				if tex, ok := p.slotAt(g, int(e.Binding)); ok {
					if _, paired := p.slots[tex.Name+samplerSuffix]; !paired {
						e.Texture.SampleType = wgpu.TextureSampleTypeUnfilterableFloat
					}
				}
			}
		}
		desc.Label = p.name
		p.layouts[g] = desc
	}
}

func (p *program) slotAt(group, binding int) (Slot, bool) {
	for _, s := range p.slots {
		if s.Kind != SlotUniform && s.Group == group && s.Binding == binding {
			return s, true
		}
	}
	return Slot{}, false
}

func (p *program) Name() string {
	return p.name
}

func (p *program) Shader(stage ShaderType) Shader {
	switch stage {
	case ShaderTypeVertex:
		return p.vertex
	case ShaderTypeFragment:
		return p.fragment
	case ShaderTypeGeometry:
		if p.geometry == nil {
			return nil
		}
		return p.geometry
	default:
		return nil
	}
}

func (p *program) Slot(semantic string) (Slot, bool) {
	s, ok := p.slots[semantic]
	return s, ok
}

func (p *program) Slots() []Slot {
	out := make([]Slot, 0, len(p.slots))
	for _, s := range p.slots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		if a.Binding != b.Binding {
			return a.Binding < b.Binding
		}
		return a.Offset < b.Offset
	})
	return out
}

func (p *program) UniformSize() uint64 {
	return p.uniformSize
}

func (p *program) BindGroupLayouts() map[int]wgpu.BindGroupLayoutDescriptor {
	return p.layouts
}

func (p *program) VertexLayouts() []wgpu.VertexBufferLayout {
	return p.vertex.VertexLayouts()
}

func (p *program) BindSampler(semantic string, unit int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	tex, ok := p.slots[semantic]
	if !ok {
		return p.linkError("no parameter named %q", semantic)
	}
	if tex.Kind != SlotTexture {
		return p.linkError("parameter %q is a %s, not a texture", semantic, tex.Kind)
	}
	if existing, taken := p.units[unit]; taken && existing.Texture.Name != semantic {
		return p.linkError("unit %d is already bound to %q", unit, existing.Texture.Name)
	}

	tu := TextureUnit{
		Unit:    unit,
		Texture: tex,
		Depth:   strings.HasPrefix(tex.Type, "texture_depth_"),
	}
	if samp, paired := p.slots[semantic+samplerSuffix]; paired && samp.Kind == SlotSampler {
		tu.Sampler = samp
		tu.HasSampler = true
	}
	p.units[unit] = tu
	return nil
}

func (p *program) TextureUnit(unit int) (TextureUnit, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tu, ok := p.units[unit]
	return tu, ok
}

func (p *program) TextureUnits() []TextureUnit {
	p.mu.Lock()
	defer p.mu.Unlock()

	units := make([]int, 0, len(p.units))
	for u := range p.units {
		units = append(units, u)
	}
	slices.Sort(units)

	out := make([]TextureUnit, 0, len(units))
	for _, u := range units {
		out = append(out, p.units[u])
	}
	return out
}

// mergeBindGroupLayouts unions the per-stage layouts. Entries present in both stages get the
// union of their visibilities.
func mergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)

	for _, layouts := range []map[int]wgpu.BindGroupLayoutDescriptor{vertexLayouts, fragmentLayouts} {
		for g, desc := range layouts {
			existing := merged[g]
			for _, e := range desc.Entries {
				idx := slices.IndexFunc(existing.Entries, func(x wgpu.BindGroupLayoutEntry) bool {
					return x.Binding == e.Binding
				})
				if idx >= 0 {
					existing.Entries[idx].Visibility |= e.Visibility
					continue
				}
				existing.Entries = append(existing.Entries, e)
			}
			merged[g] = existing
		}
	}

	for g, desc := range merged {
		sort.Slice(desc.Entries, func(i, j int) bool {
			return desc.Entries[i].Binding < desc.Entries[j].Binding
		})
		merged[g] = desc
	}
	return merged
}
