package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslVertexFormatMap maps WGSL type names to their corresponding wgpu vertex format and byte size
var wgslVertexFormatMap = map[string]vertexFormatInfo{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
	"vec2i":     {wgpu.VertexFormatSint32x2, 8},
	"vec2<i32>": {wgpu.VertexFormatSint32x2, 8},
	"u32":       {wgpu.VertexFormatUint32, 4},
}

// wgslSampledTextureMap maps WGSL sampled texture base names to their view dimension and multisampled flag
var wgslSampledTextureMap = map[string]sampledTextureInfo{
	"texture_2d":                    {wgpu.TextureViewDimension2D, false},
	"texture_2d_array":              {wgpu.TextureViewDimension2DArray, false},
	"texture_3d":                    {wgpu.TextureViewDimension3D, false},
	"texture_cube":                  {wgpu.TextureViewDimensionCube, false},
	"texture_multisampled_2d":       {wgpu.TextureViewDimension2D, true},
	"texture_depth_2d":              {wgpu.TextureViewDimension2D, false},
	"texture_depth_2d_array":        {wgpu.TextureViewDimension2DArray, false},
	"texture_depth_cube":            {wgpu.TextureViewDimensionCube, false},
	"texture_depth_multisampled_2d": {wgpu.TextureViewDimension2D, true},
}

// wgslSampleTypeMap maps WGSL scalar type parameters to their wgpu texture sample type
var wgslSampleTypeMap = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field line: optional attributes, name, colon, type.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// functionRegex matches any function declaration
	functionRegex = regexp.MustCompile(`\bfn\s+(\w+)\s*\(`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> u: ObjectParams;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseVertexLayouts builds one vertex buffer layout per vertex input struct, in source order.
// A vertex input struct has @location fields and no @builtin fields; structs with
// unrecognized attribute types are skipped.
//
// Parameters:
//   - source: the WGSL source of a vertex stage
//
// Returns:
//   - []wgpu.VertexBufferLayout: the layouts, slot i bound to vertex buffer i
func parseVertexLayouts(source string) []wgpu.VertexBufferLayout {
	var layouts []wgpu.VertexBufferLayout
	for _, ps := range parseStructBlocks(stripComments(source)) {
		if !isVertexInputStruct(ps) {
			continue
		}
		if layout, ok := buildVertexBufferLayout(ps); ok {
			layouts = append(layouts, layout)
		}
	}
	return layouts
}

// parseBindings extracts every @group/@binding resource declaration from a WGSL source.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - []bindingDecl: the declarations in source order
func parseBindings(source string) []bindingDecl {
	matches := bindGroupDeclRegex.FindAllStringSubmatch(stripComments(source), -1)
	decls := make([]bindingDecl, 0, len(matches))
	for _, match := range matches {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		decls = append(decls, bindingDecl{
			group:        group,
			binding:      binding,
			addressSpace: strings.TrimSpace(match[3]),
			name:         strings.TrimSpace(match[4]),
			typeName:     strings.TrimSpace(match[5]),
		})
	}
	return decls
}

// parseBindGroupLayouts converts binding declarations into bind group layout descriptors keyed by
// group index, entries sorted by binding. Buffer entries get MinBindingSize from the bound type.
//
// Parameters:
//   - decls: the declarations of one shader stage
//   - structs: the struct blocks of the same stage
//   - visibility: the stage visibility flag applied to each entry
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the descriptors keyed by group index
func parseBindGroupLayouts(decls []bindingDecl, structs []parsedStruct, visibility wgpu.ShaderStage) map[int]wgpu.BindGroupLayoutDescriptor {
	structSizes := computeStructSizes(structs)
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)

	for _, d := range decls {
		entry := classifyResource(uint32(d.binding), visibility, d.addressSpace, d.typeName)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if layout, ok := resolveTypeLayout(d.typeName, structSizes); ok && layout.size > 0 {
				entry.Buffer.MinBindingSize = layout.size
			}
		}
		groups[d.group] = append(groups[d.group], entry)
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return result
}

// parseEntryPoint extracts the entry point function name for the given stage.
// Returns an empty string when the stage has no entry point annotation.
func parseEntryPoint(source string, shaderType ShaderType) string {
	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	default:
		return ""
	}

	if match := re.FindStringSubmatch(stripComments(source)); match != nil {
		return match[1]
	}
	return ""
}

// parseFunctionNames lists the names of every function declared in a WGSL source.
func parseFunctionNames(source string) []string {
	var names []string
	for _, m := range functionRegex.FindAllStringSubmatch(stripComments(source), -1) {
		names = append(names, m[1])
	}
	return names
}

// parseStageInterface returns the inter-stage variables of a source as location to WGSL type.
// Inter-stage structs are recognized by carrying @builtin(position) next to @location fields.
//
// Parameters:
//   - source: the WGSL source of a vertex or fragment stage
//
// Returns:
//   - map[int]string: the WGSL type of each user-defined location
func parseStageInterface(source string) map[int]string {
	locations := make(map[int]string)
	for _, ps := range parseStructBlocks(stripComments(source)) {
		if !isStageInterfaceStruct(ps) {
			continue
		}
		for _, f := range ps.fields {
			if f.location >= 0 {
				locations[f.location] = f.typeName
			}
		}
	}
	return locations
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))

	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}

	return structs
}

// parseStructFields parses the body of a struct block into individual fields
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := parsedField{location: -1}
		field.isBuiltin = builtinRegex.MatchString(line)
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			if loc, err := strconv.Atoi(locMatch[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])
		fields = append(fields, field)
	}

	return fields
}

// structFieldLayouts places the fields of the named struct at their WGSL host-shareable offsets.
//
// Parameters:
//   - name: the struct name
//   - structs: every struct visible to the stage
//
// Returns:
//   - []fieldLayout: the placed fields in declaration order
//   - wgslTypeLayout: the size and alignment of the whole struct
//   - bool: false if the struct is unknown or holds a type with no host-shareable layout
func structFieldLayouts(name string, structs []parsedStruct) ([]fieldLayout, wgslTypeLayout, bool) {
	known := computeStructSizes(structs)
	for _, ps := range structs {
		if ps.name != name {
			continue
		}

		var (
			fields   []fieldLayout
			offset   uint64
			maxAlign uint64 = 1
		)
		for _, f := range ps.fields {
			if f.isBuiltin {
				continue
			}
			layout, ok := resolveTypeLayout(f.typeName, known)
			if !ok {
				return nil, wgslTypeLayout{}, false
			}
			offset = roundUpAlign(layout.align, offset)
			fields = append(fields, fieldLayout{
				name:     f.name,
				typeName: f.typeName,
				offset:   offset,
				size:     layout.size,
			})
			offset += layout.size
			maxAlign = max(maxAlign, layout.align)
		}
		return fields, wgslTypeLayout{roundUpAlign(maxAlign, offset), maxAlign}, true
	}
	return nil, wgslTypeLayout{}, false
}
