package engine

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/framegraph"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/ui"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	frames []frame.State
}

func (p *fakePipeline) Render(state *frame.State) framegraph.Report {
	p.frames = append(p.frames, *state)
	return framegraph.Report{Frame: uint64(len(p.frames)), Passes: []string{"only"}}
}

// scriptedInput replays clock readings and input samples; each call consumes the next value.
type scriptedInput struct {
	times  []float64
	inputs []camera.Input
	t, i   int
}

func (s *scriptedInput) Time() float64 {
	v := s.times[min(s.t, len(s.times)-1)]
	s.t++
	return v
}

func (s *scriptedInput) Input() camera.Input {
	in := s.inputs[min(s.i, len(s.inputs)-1)]
	s.i++
	return in
}

func newState() *frame.State {
	return frame.NewState(camera.NewCamera(), light.DefaultSet(), frame.DefaultPost(), 64, 64)
}

func TestFrame_FPSMeasuresFrameDuration(t *testing.T) {
	p := &fakePipeline{}
	// Start and end of each frame; the idle gap between frames is not counted.
	in := &scriptedInput{
		times:  []float64{1, 1.02, 1.5, 1.55},
		inputs: []camera.Input{{}, {}},
	}
	state := newState()
	e := NewEngine(p, state, WithInput(in))

	e.Frame()
	assert.Equal(t, float32(1), p.frames[0].Time)
	assert.InDelta(t, 50, state.FPS, 1e-3)

	e.Frame()
	require.Len(t, p.frames, 2)
	assert.Equal(t, float32(1.5), p.frames[1].Time)
	assert.InDelta(t, 50, p.frames[1].FPS, 1e-3, "the pipeline sees the previous frame's rate")
	assert.InDelta(t, 20, state.FPS, 1e-3)
	assert.Equal(t, float32(1.5), state.Time)
}

func TestFrame_ShiftDragTurnsCamera(t *testing.T) {
	p := &fakePipeline{}
	state := newState()
	in := &scriptedInput{
		times: []float64{0},
		inputs: []camera.Input{
			{CursorX: 100, CursorY: 100},
			{CursorX: 100, CursorY: 100, Modifier: true, Left: true},
			{CursorX: 140, CursorY: 100, Modifier: true, Left: true},
		},
	}
	e := NewEngine(p, state, WithInput(in))
	theta := state.Camera.Theta()

	e.RunFrames(3)
	assert.InDelta(t, theta+40*0.005, state.Camera.Theta(), 1e-5)
}

func TestFrame_AppliesPanelEditsBeforeRender(t *testing.T) {
	p := &fakePipeline{}
	state := newState()
	panel := ui.NewPanel()
	e := NewEngine(p, state, WithPanel(panel))

	e.Frame()
	assert.Equal(t, state.Post, panel.Values().Post, "the panel shows the rendered state")

	panel.Edit(func(v *ui.Values) { v.Post.ShadowBias = 0.0121 })
	e.Frame()
	require.Len(t, p.frames, 2)
	assert.InDelta(t, 0.012, p.frames[1].Post.ShadowBias, 1e-6)
}

func TestQuit_StopsRunFrames(t *testing.T) {
	p := &fakePipeline{}
	e := NewEngine(p, newState())
	e.SetRenderCallback(func(r framegraph.Report) {
		if r.Frame == 2 {
			e.Quit()
		}
	})
	reports := e.RunFrames(10)
	assert.Len(t, reports, 2)
	e.Quit()
}

// loopWindow runs the update callback until closed, with a safety cap on iterations.
type loopWindow struct {
	update     func()
	running    bool
	closes     int
	iterations int
}

var _ window.Window = &loopWindow{}

func (w *loopWindow) SetUpdateCallback(callback func()) { w.update = callback }

func (w *loopWindow) Input() camera.Input { return camera.Input{} }

func (w *loopWindow) Time() float64 { return float64(w.iterations) / 60 }

func (w *loopWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }

func (w *loopWindow) IsRunning() bool { return w.running }

func (w *loopWindow) Close() error {
	w.closes++
	w.running = false
	return nil
}

func (w *loopWindow) Width() int { return 64 }

func (w *loopWindow) Height() int { return 64 }

func (w *loopWindow) ProcessMessages() {
	for w.running && w.iterations < 100 {
		w.iterations++
		if w.update != nil {
			w.update()
		}
	}
}

func TestQuit_StopsWindowLoop(t *testing.T) {
	p := &fakePipeline{}
	win := &loopWindow{running: true}
	e := NewEngine(p, newState(), WithWindow(win))
	e.SetRenderCallback(func(r framegraph.Report) {
		if r.Frame == 3 {
			e.Quit()
		}
	})

	e.Run()
	assert.Len(t, p.frames, 3)
	assert.Equal(t, 4, win.iterations, "the iteration after Quit closes the window")
	assert.Equal(t, 1, win.closes)
	assert.False(t, win.IsRunning())
}
