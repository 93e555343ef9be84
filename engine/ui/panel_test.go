package ui

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState() *frame.State {
	return frame.NewState(camera.NewCamera(), light.DefaultSet(), frame.DefaultPost(), 64, 64)
}

func TestRange_ClampsAndSnaps(t *testing.T) {
	tests := []struct {
		r    Range
		in   float32
		want float32
	}{
		{BiasRange, 0.0054, 0.005},
		{BiasRange, 0.5, 0.2},
		{BiasRange, -1, 0},
		{GammaRange, 2.26, 2.3},
		{SampleCountRange, 0, 1},
		{SampleCountRange, 7.6, 8},
		{FarRange, 80, 50},
		{IntensityRange, 0.33, 0.35},
		{AngleRange, 90, 89},
		{AngleRange, 0, 1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, tt.r.Apply(tt.in), 1e-5, "%+v apply %v", tt.r, tt.in)
	}
}

func TestSanitize_LeavesPositionsAlone(t *testing.T) {
	v := Values{Lights: light.DefaultSet(), Post: frame.DefaultPost()}
	v.Lights.Spot[0].Position = mgl32.Vec3{12.34, -5.5, 100}
	v.Lights.Spot[0].Color = mgl32.Vec3{1.4, -0.2, 0.51}
	v.Post.SampleCount = 40

	out := Sanitize(v)
	assert.Equal(t, mgl32.Vec3{12.34, -5.5, 100}, out.Lights.Spot[0].Position)
	assert.InDeltaSlice(t, []float32{1, 0, 0.5}, out.Lights.Spot[0].Color[:], 1e-5)
	assert.Equal(t, int32(15), out.Post.SampleCount)
	assert.Equal(t, float32(1.4), v.Lights.Spot[0].Color[0], "the input is not mutated")
}

func TestPanel_PushEditPull(t *testing.T) {
	state := newState()
	p := NewPanel()
	p.Push(state)
	assert.Equal(t, state.Post, p.Values().Post)

	changed, err := p.Pull(state)
	require.NoError(t, err)
	assert.False(t, changed, "nothing staged")

	p.Edit(func(v *Values) {
		v.Post.Gamma = 2.23
		v.Lights.Spot[1].Intensity = 0.52
	})
	changed, err = p.Pull(state)
	require.NoError(t, err)
	require.True(t, changed)
	assert.InDelta(t, 2.2, state.Post.Gamma, 1e-5)
	assert.InDelta(t, 0.5, state.Lights.Spot[1].Intensity, 1e-5)

	changed, _ = p.Pull(state)
	assert.False(t, changed, "an edit applies once")
}

func TestPanel_RejectsInvalidLights(t *testing.T) {
	state := newState()
	before := state.Lights.Clone()
	p := NewPanel()
	p.Push(state)
	p.Edit(func(v *Values) { v.Lights.Spot[0].Angle = 0 })

	changed, err := p.Pull(state)
	assert.False(t, changed)
	assert.True(t, errors.Is(err, light.ErrInvalidLight))
	assert.Equal(t, before, state.Lights)
}

func TestFilePanel_StagesFileEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aogl.toml")
	require.NoError(t, os.WriteFile(path, []byte("[post]\ngamma = 1.0\n"), 0o644))

	p, err := NewFilePanel(path)
	require.NoError(t, err)
	defer p.Close()

	state := newState()
	p.Push(state)
	require.NoError(t, os.WriteFile(path, []byte("[post]\ngamma = 3.0\nsobel_factor = 1.5\n"), 0o644))

	assert.Eventually(t, func() bool {
		changed, err := p.Pull(state)
		return err == nil && changed
	}, 5*time.Second, 20*time.Millisecond)
	assert.InDelta(t, 3, state.Post.Gamma, 1e-5)
	assert.InDelta(t, 1.5, state.Post.SobelFactor, 1e-5)
	assert.Len(t, state.Lights.Spot, 2)
	assert.NoError(t, p.Close())
}
