// Package ui holds the debug panel model: the tweakable lights and post controls, their slider
// ranges, and the two-way binding with the frame state.
package ui

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// Range is a slider: values are snapped to Step from Min and clamped to [Min, Max].
type Range struct {
	Min, Max, Step float32
}

// Apply snaps and clamps v.
func (r Range) Apply(v float32) float32 {
	return common.Clamp(common.Snap(v, r.Min, r.Step), r.Min, r.Max)
}

// Slider ranges of the panel.
var (
	IntensityRange   = Range{Min: 0, Max: 1, Step: 0.05}
	ColorRange       = Range{Min: 0, Max: 1, Step: 0.05}
	AngleRange       = Range{Min: 1, Max: light.MaxSpotAngle - 1, Step: 1}
	BiasRange        = Range{Min: 0, Max: 0.2, Step: 0.001}
	GammaRange       = Range{Min: 0, Max: 6, Step: 0.1}
	SobelRange       = Range{Min: 0, Max: 2, Step: 0.01}
	SampleCountRange = Range{Min: 1, Max: 15, Step: 1}
	NearRange        = Range{Min: 1, Max: 15, Step: 1}
	FocusRange       = Range{Min: 1, Max: 15, Step: 1}
	FarRange         = Range{Min: 1, Max: 50, Step: 1}
)

// Values are the fields the panel shows. FPS is display only.
type Values struct {
	Lights light.Set
	Post   frame.Post
	FPS    float32
}

// Sanitize snaps and clamps every slider field of v. Positions and directions have no slider
// and pass through.
//
// Parameters:
//   - v: the edited values
//
// Returns:
//   - Values: a copy with every slider in range
func Sanitize(v Values) Values {
	out := Values{Lights: v.Lights.Clone(), Post: v.Post, FPS: v.FPS}
	for i := range out.Lights.Point {
		p := &out.Lights.Point[i]
		p.Color = applyColor(p.Color)
		p.Intensity = IntensityRange.Apply(p.Intensity)
	}
	for i := range out.Lights.Spot {
		s := &out.Lights.Spot[i]
		s.Color = applyColor(s.Color)
		s.Intensity = IntensityRange.Apply(s.Intensity)
		s.Angle = AngleRange.Apply(s.Angle)
	}
	for i := range out.Lights.Directional {
		d := &out.Lights.Directional[i]
		d.Color = applyColor(d.Color)
		d.Intensity = IntensityRange.Apply(d.Intensity)
	}

	p := &out.Post
	p.ShadowBias = BiasRange.Apply(p.ShadowBias)
	p.Gamma = GammaRange.Apply(p.Gamma)
	p.SobelFactor = SobelRange.Apply(p.SobelFactor)
	p.SampleCount = int32(SampleCountRange.Apply(float32(p.SampleCount)))
	p.Focus.Near = NearRange.Apply(p.Focus.Near)
	p.Focus.Focus = FocusRange.Apply(p.Focus.Focus)
	p.Focus.Far = FarRange.Apply(p.Focus.Far)
	return out
}

func applyColor(c mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{ColorRange.Apply(c[0]), ColorRange.Apply(c[1]), ColorRange.Apply(c[2])}
}

// Panel is the debug panel bound to the frame state. Push and Pull run on the render thread;
// edits may arrive from any goroutine.
type Panel interface {
	// Push shows the current state in the panel.
	//
	// Parameters:
	//   - state: the frame state
	Push(state *frame.State)

	// Pull applies the pending edit, if any, to the state. The edit is sanitized and its lights
	// validated; a rejected edit is dropped and leaves the state unchanged.
	//
	// Parameters:
	//   - state: the frame state
	//
	// Returns:
	//   - bool: true if the state changed
	//   - error: a *light.ValidationError for a rejected edit
	Pull(state *frame.State) (bool, error)

	// Edit stages an edit of the shown values.
	//
	// Parameters:
	//   - fn: mutates a copy of the shown values
	Edit(fn func(v *Values))

	// Values returns the shown values.
	Values() Values

	// Close stops any background source of edits.
	Close() error
}

// panel is the in-memory Panel. Edits come from Edit.
type panel struct {
	mu      sync.Mutex
	shown   Values
	pending *Values
	logger  common.Logger
}

var _ Panel = &panel{}

// NewPanel creates a Panel whose edits are staged with Edit.
//
// Parameters:
//   - opts: variadic list of PanelBuilderOption functions
//
// Returns:
//   - Panel: the panel
func NewPanel(opts ...PanelBuilderOption) Panel {
	p := &panel{logger: common.NewNopLogger()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *panel) Push(state *frame.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = Values{Lights: state.Lights.Clone(), Post: state.Post, FPS: state.FPS}
}

func (p *panel) Pull(state *frame.State) (bool, error) {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()
	if pending == nil {
		return false, nil
	}

	v := Sanitize(*pending)
	if err := v.Lights.Validate(); err != nil {
		p.logger.Warnf("panel edit rejected: %v", err)
		return false, err
	}
	state.Lights = v.Lights
	state.Post = v.Post
	p.logger.Debugf("panel edit applied: %d lights", state.Lights.Count())
	return true, nil
}

func (p *panel) Edit(fn func(v *Values)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.shown
	if p.pending != nil {
		v = *p.pending
	}
	v.Lights = v.Lights.Clone()
	fn(&v)
	p.pending = &v
}

func (p *panel) Values() Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.shown
	v.Lights = v.Lights.Clone()
	return v
}

func (p *panel) Close() error {
	return nil
}
