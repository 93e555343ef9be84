package framegraph

import "github.com/Carmen-Shannon/oxy-deferred/common"

// GraphBuilderOption is a functional option applied to a graph during construction via NewGraph.
type GraphBuilderOption func(*graph)

// WithLogger sets the logger pass failures are reported to. The renderer's logger is used when
// the option is not given.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - GraphBuilderOption: a function that applies the logger to a graph
func WithLogger(logger common.Logger) GraphBuilderOption {
	return func(g *graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}
