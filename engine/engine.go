// Package engine drives the demo: one render thread that polls input, applies panel edits, runs
// the deferred pipeline and presents.
package engine

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/ui"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
)

// Pipeline renders one frame of the state.
type Pipeline interface {
	Render(state *frame.State) framegraph.Report
}

// InputSource is polled once per frame. window.Window satisfies it.
type InputSource interface {
	Input() camera.Input
	Time() float64
}

// engine implements the Engine interface.
type engine struct {
	mu sync.Mutex

	window     window.Window
	input      InputSource
	pipeline   Pipeline
	state      *frame.State
	controller camera.CameraController
	panel      ui.Panel
	logger     common.Logger

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderFrameLimit time.Duration
	renderCallback   func(report framegraph.Report)

	frameStart float64
	frames     uint64

	quitChannel chan struct{}
	quitOnce    sync.Once
}

// Engine is the main entry point of the demo. It owns the frame loop.
type Engine interface {
	// Window returns the window, nil when running headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// State returns the frame state the loop mutates.
	State() *frame.State

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderCallback registers the function called after each frame with its report.
	//
	// Parameters:
	//   - callback: function to call each render frame
	SetRenderCallback(callback func(report framegraph.Report))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Frame runs one iteration of the loop: apply panel edits, poll input into the camera, advance
	// the clock, render every pass, measure the frame rate, then show the new state in the panel.
	// The pipeline sees the rate measured by the previous frame.
	//
	// Returns:
	//   - framegraph.Report: the report of the rendered frame
	Frame() framegraph.Report

	// RunFrames runs n frames back to back without a window.
	//
	// Parameters:
	//   - n: the number of frames
	//
	// Returns:
	//   - []framegraph.Report: one report per frame
	RunFrames(n int) []framegraph.Report

	// Run runs the window message loop until ESC is pressed, the window is closed or Quit is
	// called. A frame in progress always completes.
	Run()

	// Quit stops the loop after the current frame. Safe to call multiple times.
	Quit()
}

// NewEngine creates a new Engine for a pipeline and its frame state.
//
// Parameters:
//   - pipeline: the renderer of each frame
//   - state: the frame state
//   - options: functional options for engine configuration (window, panel, profiling)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(pipeline Pipeline, state *frame.State, options ...EngineBuilderOption) Engine {
	e := &engine{
		pipeline:    pipeline,
		state:       state,
		logger:      common.NewNopLogger(),
		quitChannel: make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}

	if e.input == nil && e.window != nil {
		e.input = e.window
	}
	if e.controller == nil {
		e.controller = camera.NewCameraController(state.Camera)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}
	if e.window != nil {
		e.window.SetUpdateCallback(func() {
			select {
			case <-e.quitChannel:
				e.window.Close()
			default:
				e.Frame()
			}
		})
	}
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) State() *frame.State {
	return e.state
}

func (e *engine) Frame() framegraph.Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.panel != nil {
		if _, err := e.panel.Pull(e.state); err != nil {
			e.logger.Warnf("debug panel: %v", err)
		}
	}

	start := time.Now()
	if e.input != nil {
		e.frameStart = e.input.Time()
		e.controller.Update(e.input.Input())
		e.state.Advance(e.frameStart, 0)
	}

	report := e.pipeline.Render(e.state)
	e.frames++

	// FPS is the inverse of this frame's own duration, from its start to the end of rendering.
	if e.input != nil {
		e.state.Advance(e.frameStart, e.input.Time()-e.frameStart)
	} else {
		elapsed := time.Since(start).Seconds()
		e.state.Advance(float64(e.state.Time)+elapsed, elapsed)
	}

	if e.panel != nil {
		e.panel.Push(e.state)
	}
	if e.profilingEnabled {
		e.profiler.Tick(e.state.FPS)
	}
	if e.renderCallback != nil {
		e.renderCallback(report)
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}
	return report
}

func (e *engine) RunFrames(n int) []framegraph.Report {
	reports := make([]framegraph.Report, 0, n)
	for i := 0; i < n; i++ {
		select {
		case <-e.quitChannel:
			return reports
		default:
		}
		reports = append(reports, e.Frame())
	}
	return reports
}

func (e *engine) Run() {
	if e.window == nil {
		e.logger.Warnf("Run called without a window")
		return
	}
	e.window.ProcessMessages()
	e.logger.Infof("window closed after %d frames", e.frames)
}

// Quit signals the loop to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetRenderCallback(callback func(report framegraph.Report)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
