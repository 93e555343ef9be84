package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// snippets maps include keys to the embedded WGSL source injected in their place.
	snippets map[AnnotationArg]string

	// includes records the snippet keys expanded by the last Process call, in order.
	includes []AnnotationArg
}

// PreProcessor expands @oxy: annotations in raw WGSL source.
type PreProcessor interface {
	// Process replaces every //@oxy:include line with its snippet. A snippet is expanded at
	// most once per source; repeated includes of the same key are dropped.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded source
	//   - error: an error naming the line of a malformed annotation
	Process(source string) (string, error)

	// Includes returns the snippet keys expanded by the most recent Process call.
	Includes() []AnnotationArg
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the engine's shared snippets registered.
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		snippets: map[AnnotationArg]string{
			AnnotationArgVertex:  model.GPUVertexSource,
			AnnotationArgQuad:    model.GPUQuadVertexSource,
			AnnotationArgGBuffer: light.GPUGBufferSource,
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.includes = p.includes[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		key := a.Args[0]
		snippet, ok := p.snippets[key]
		if !ok {
			return "", fmt.Errorf("line %d: snippet %q is not registered", i+1, key)
		}
		if p.included(key) {
			continue
		}
		p.includes = append(p.includes, key)
		out = append(out, strings.TrimRight(snippet, "\n"))
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Includes() []AnnotationArg {
	return p.includes
}

func (p *preProcessor) included(key AnnotationArg) bool {
	for _, k := range p.includes {
		if k == key {
			return true
		}
	}
	return false
}
