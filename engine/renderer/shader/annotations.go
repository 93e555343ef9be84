// annotations.go defines the @oxy: comment annotations understood by the WGSL pre-processor.
// An annotation is a single-line WGSL comment of the form
//
//	//@oxy:include <snippet>
//
// which is replaced by the registered snippet source before the stage is parsed.
package shader

import (
	"fmt"
	"slices"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

// annotationTypeInclude injects a registered WGSL snippet at the annotation site.
//
// Syntax: //@oxy:include <snippet>
const annotationTypeInclude AnnotationType = "include"

// Annotation is one parsed @oxy: annotation.
type Annotation struct {
	Type AnnotationType

	// Args holds the annotation arguments; for include, [0] is the snippet key.
	Args []AnnotationArg

	// Line is the 1-based source line of the annotation.
	Line int
}

// AnnotationArg names a registered WGSL snippet.
type AnnotationArg string

const (
	// AnnotationArgVertex is the VertexInput struct of mesh geometry (position, normal, uv).
	// Source: engine/model/assets/vertex.wgsl
	AnnotationArgVertex AnnotationArg = "vertex"

	// AnnotationArgQuad is the fullscreen quad input and the QuadOutput stage interface.
	// Source: engine/model/assets/quad_vertex.wgsl
	AnnotationArgQuad AnnotationArg = "quad"

	// AnnotationArgGBuffer declares the G-buffer textures and the surface reconstruction helper
	// shared by the light programs.
	// Source: engine/light/assets/gbuffer.wgsl
	AnnotationArgGBuffer AnnotationArg = "gbuffer"
)

var validSnippets = []AnnotationArg{
	AnnotationArgVertex,
	AnnotationArgQuad,
	AnnotationArgGBuffer,
}

// parseAnnotation parses a single WGSL source line.
//
// Parameters:
//   - line: the raw source line
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validSnippets, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown snippet %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}
