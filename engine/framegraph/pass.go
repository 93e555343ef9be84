package framegraph

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// Retarget rebinds one attachment of the output framebuffer before a pass begins. Passes that
// share a framebuffer but write different textures use it.
type Retarget struct {
	Point    renderer.AttachmentPoint
	Resource renderer.ResourceHandle
}

// Output is the render target of a pass.
type Output struct {
	Framebuffer renderer.FramebufferHandle
	Retarget    *Retarget
}

// Pass describes one stage of the frame.
type Pass struct {
	Name string

	// Inputs are the resources the pass samples. Each must be written by a strictly earlier pass
	// or be a static texture.
	Inputs []renderer.ResourceHandle

	Output Output

	// Viewport restricts the pass to a pixel rectangle, nil for the whole target.
	Viewport *renderer.Viewport

	Clear      renderer.ClearFlags
	ClearValue wgpu.Color

	// Draw issues the draws of the pass. A returned error is logged and the frame continues.
	Draw func(ctx *PassContext) error
}

// PassContext is handed to Pass.Draw. It exposes the frame state, the transforms derived from it
// once per frame, and the renderer the draws go through.
type PassContext struct {
	Pass     *Pass
	Renderer renderer.Renderer
	State    *frame.State
	Matrices frame.Matrices

	// Frame counts executed frames, starting at 1.
	Frame uint64

	draws int
}

// Draw issues one draw through the renderer and counts it.
//
// Parameters:
//   - d: the draw call
//
// Returns:
//   - error: the backend error of the draw
func (c *PassContext) Draw(d renderer.DrawCall) error {
	c.draws++
	if err := c.Renderer.Draw(d); err != nil {
		return fmt.Errorf("draw %s/%s: %w", d.Pipeline, d.Mesh, err)
	}
	return nil
}

// SetViewport restricts the following draws of the pass.
func (c *PassContext) SetViewport(v renderer.Viewport) {
	c.Renderer.SetViewport(v)
}

// Draws returns the number of draws issued so far in the pass.
func (c *PassContext) Draws() int {
	return c.draws
}

// PassError is a failure raised while running one pass.
type PassError struct {
	Pass string
	Err  error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("pass %s: %v", e.Pass, e.Err)
}

func (e *PassError) Unwrap() error {
	return e.Err
}

// OrderError reports a pass input that no earlier pass writes.
type OrderError struct {
	Pass     string
	Resource renderer.ResourceHandle
	Label    string

	// Self is true when the pass samples a texture its own output writes.
	Self bool
}

func (e *OrderError) Error() string {
	if e.Self {
		return fmt.Sprintf("pass %s samples %s which it also writes", e.Pass, e.Label)
	}
	return fmt.Sprintf("pass %s reads %s before any earlier pass writes it", e.Pass, e.Label)
}

// Report summarizes one executed frame.
type Report struct {
	Frame uint64

	// Passes lists the passes that began, in execution order.
	Passes []string

	// Draws counts the draws issued by each pass.
	Draws map[string]int

	// Errors holds the pass failures. GPUErrors holds the runtime errors drained at the end of
	// the frame.
	Errors    []error
	GPUErrors []error
}

// OK reports whether the frame ran without any error.
func (r Report) OK() bool {
	return len(r.Errors) == 0 && len(r.GPUErrors) == 0
}
