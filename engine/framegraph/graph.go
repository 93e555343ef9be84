// Package framegraph runs an ordered list of render passes against a renderer and checks that no
// pass samples a texture before an earlier pass has written it.
package framegraph

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// graph is the implementation of the Graph interface.
type graph struct {
	mu *sync.Mutex

	renderer renderer.Renderer
	logger   common.Logger
	passes   []*Pass
	frames   uint64
}

// Graph is the fixed pass order of a frame.
//
// Usage pattern:
//  1. AddPass in execution order during setup
//  2. Validate once every pass is added; a failure is a setup error
//  3. Execute once per frame
type Graph interface {
	// AddPass appends a pass.
	//
	// Parameters:
	//   - p: the pass descriptor
	//
	// Returns:
	//   - error: an error if the name is empty or already used
	AddPass(p Pass) error

	// Validate checks that every pass input is a static texture or is written by a strictly
	// earlier pass, and that no pass samples its own output.
	//
	// Returns:
	//   - error: an *OrderError for the first violation, or nil
	Validate() error

	// Execute runs one frame: BeginFrame, then for each pass its retarget, BeginPass, viewport,
	// Draw and EndPass, then EndFrame and the end-of-frame error check. Failures are logged and
	// collected; they never stop the remaining passes.
	//
	// Parameters:
	//   - state: the frame state read by the passes
	//
	// Returns:
	//   - Report: what ran and what failed
	Execute(state *frame.State) Report

	// Names returns the pass names in execution order.
	Names() []string
}

var _ Graph = &graph{}

// NewGraph creates an empty Graph drawing through r.
//
// Parameters:
//   - r: the renderer
//   - opts: variadic list of GraphBuilderOption functions
//
// Returns:
//   - Graph: the graph
func NewGraph(r renderer.Renderer, opts ...GraphBuilderOption) Graph {
	g := &graph{
		mu:       &sync.Mutex{},
		renderer: r,
		logger:   r.Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *graph) AddPass(p Pass) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p.Name == "" {
		return fmt.Errorf("pass has no name")
	}
	for _, existing := range g.passes {
		if existing.Name == p.Name {
			return fmt.Errorf("pass %q is already in the graph", p.Name)
		}
	}
	g.passes = append(g.passes, &p)
	return nil
}

func (g *graph) Names() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	names := make([]string, len(g.passes))
	for i, p := range g.passes {
		names[i] = p.Name
	}
	return names
}

func (g *graph) Validate() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	reg := g.renderer.Registry()
	written := make(map[renderer.ResourceHandle]bool)

	for _, p := range g.passes {
		writes, err := g.writes(p)
		if err != nil {
			return err
		}

		for _, in := range p.Inputs {
			res, ok := reg.Resource(in)
			if !ok {
				return fmt.Errorf("pass %s reads unknown resource %d", p.Name, in)
			}
			if writes[in] {
				return &OrderError{Pass: p.Name, Resource: in, Label: res.Label, Self: true}
			}
			if !res.Static && !written[in] {
				return &OrderError{Pass: p.Name, Resource: in, Label: res.Label}
			}
		}
		for h := range writes {
			written[h] = true
		}
	}
	return nil
}

// writes lists the resources a pass renders into once its retarget is applied.
func (g *graph) writes(p *Pass) (map[renderer.ResourceHandle]bool, error) {
	out := make(map[renderer.ResourceHandle]bool)
	if p.Output.Framebuffer == renderer.ScreenFramebuffer {
		return out, nil
	}

	fb, ok := g.renderer.Registry().Framebuffer(p.Output.Framebuffer)
	if !ok {
		return nil, fmt.Errorf("pass %s writes unknown framebuffer %d", p.Name, p.Output.Framebuffer)
	}
	for point, h := range fb.Attachments {
		if rt := p.Output.Retarget; rt != nil && rt.Point == point {
			continue
		}
		out[h] = true
	}
	if rt := p.Output.Retarget; rt != nil {
		out[rt.Resource] = true
	}
	return out, nil
}

func (g *graph) Execute(state *frame.State) Report {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.frames++
	report := Report{Frame: g.frames, Draws: make(map[string]int, len(g.passes))}
	fail := func(pass string, err error) {
		pe := &PassError{Pass: pass, Err: err}
		g.logger.Errorf("%v", pe)
		report.Errors = append(report.Errors, pe)
	}

	if err := g.renderer.BeginFrame(); err != nil {
		fail("frame", err)
		report.GPUErrors = g.renderer.CheckErrors()
		return report
	}

	matrices := state.Matrices()
	for _, p := range g.passes {
		if rt := p.Output.Retarget; rt != nil {
			if err := g.renderer.Registry().Attach(p.Output.Framebuffer, rt.Point, rt.Resource); err != nil {
				fail(p.Name, err)
				continue
			}
		}

		if err := g.renderer.BeginPass(renderer.PassTarget{
			Name:        p.Name,
			Framebuffer: p.Output.Framebuffer,
			Clear:       p.Clear,
			ClearValue:  p.ClearValue,
		}); err != nil {
			fail(p.Name, err)
			continue
		}
		report.Passes = append(report.Passes, p.Name)

		if p.Viewport != nil {
			g.renderer.SetViewport(*p.Viewport)
		}

		ctx := &PassContext{
			Pass:     p,
			Renderer: g.renderer,
			State:    state,
			Matrices: matrices,
			Frame:    g.frames,
		}
		if p.Draw != nil {
			if err := p.Draw(ctx); err != nil {
				fail(p.Name, err)
			}
		}
		report.Draws[p.Name] = ctx.Draws()

		if err := g.renderer.EndPass(); err != nil {
			fail(p.Name, err)
		}
	}

	if err := g.renderer.EndFrame(); err != nil {
		fail("frame", err)
	}
	report.GPUErrors = g.renderer.CheckErrors()
	return report
}
