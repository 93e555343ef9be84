package frame

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreenToWorldInvertsMVP(t *testing.T) {
	s := NewState(camera.NewCamera(), light.DefaultSet(), DefaultPost(), 1024, 768)
	m := s.Matrices()

	world := mgl32.Vec4{0.5, -0.5, 1, 1}
	clip := m.MVP.Mul4x1(world)
	ndc := clip.Mul(1 / clip.W())

	// WGSL computes ndc * ScreenToWorld, which equals transpose(ScreenToWorld) * ndc.
	back := m.ScreenToWorld.Transpose().Mul4x1(ndc)
	back = back.Mul(1 / back.W())
	for i := 0; i < 3; i++ {
		assert.InDelta(t, world[i], back[i], 1e-3)
	}
	assert.True(t, ndc.Z() >= 0 && ndc.Z() <= 1, "depth must land in the WebGPU [0, 1] range")
}

func TestShadowMatricesFollowFirstSpot(t *testing.T) {
	s := NewState(camera.NewCamera(), light.DefaultSet(), DefaultPost(), 1024, 768)
	m := s.Matrices()
	require.True(t, m.HasShadow)
	assert.Equal(t, light.SpotShadowMatrices(s.Lights.Spot[0]).WorldToLightScreen, m.Shadow.WorldToLightScreen)
	assert.Equal(t, m.Shadow.WorldToLightScreen, m.ObjectToLightScreen)

	s.Lights.Spot = nil
	assert.False(t, s.Matrices().HasShadow)
}

func TestAdvanceComputesFPS(t *testing.T) {
	s := NewState(camera.NewCamera(), light.Set{}, DefaultPost(), 10, 10)
	s.Advance(2.5, 0.02)
	assert.InDelta(t, 50, s.FPS, 1e-3)
	assert.Equal(t, float32(2.5), s.Time)
	assert.InDelta(t, 1, s.Camera.Aspect(), 1e-6)
}
