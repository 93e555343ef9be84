package shader

import (
	"fmt"
	"strings"
)

// CompileError reports a stage source that failed to compile, either in the Go-side checks or
// when the GPU backend created the shader module.
type CompileError struct {
	Program string
	Stage   ShaderType
	Log     string

	// Listing is the compiled source with every line numbered as "%3d : line".
	Listing string
}

func newCompileError(program string, stage ShaderType, source, log string) *CompileError {
	return &CompileError{
		Program: program,
		Stage:   stage,
		Log:     log,
		Listing: Listing(source),
	}
}

// NewBackendCompileError wraps a diagnostic returned by the GPU backend for a stage source.
//
// Parameters:
//   - program: the program or shader key
//   - stage: the failing stage
//   - source: the source handed to the backend
//   - err: the backend diagnostic
//
// Returns:
//   - *CompileError: the compile error with the numbered listing
func NewBackendCompileError(program string, stage ShaderType, source string, err error) *CompileError {
	return newCompileError(program, stage, source, err.Error())
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("program %q: %s stage failed to compile: %s", e.Program, e.Stage, e.Log)
}

// Diagnostic returns the numbered listing followed by the compile log.
func (e *CompileError) Diagnostic() string {
	return e.Listing + "Compile : " + e.Log
}

// LinkError reports a program whose stages compiled but could not be linked together, or a
// parameter binding that names a slot the linked program does not expose.
type LinkError struct {
	Program string
	Log     string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("program %q: link failed: %s", e.Program, e.Log)
}

// Diagnostic returns the link log in the same shape as CompileError.Diagnostic.
func (e *LinkError) Diagnostic() string {
	return "Link : " + e.Log
}

// Listing numbers every source line as "%3d : line", one per output line.
//
// Parameters:
//   - source: the source text
//
// Returns:
//   - string: the numbered listing, newline terminated
func Listing(source string) string {
	var sb strings.Builder
	for i, line := range strings.Split(strings.TrimRight(source, "\n"), "\n") {
		fmt.Fprintf(&sb, "%3d : %s\n", i+1, line)
	}
	return sb.String()
}
