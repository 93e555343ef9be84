package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVecNear(t *testing.T, want, got mgl32.Vec3, delta float64) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], delta, "component %d", i)
	}
}

func TestDefaultsLookFromPlusZ(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, DefaultRadius, c.Radius())
	assertVecNear(t, mgl32.Vec3{0, 0, 10}, c.Eye(), 0.01)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, c.Up())
}

func TestPhiFullTurnReturnsSameEye(t *testing.T) {
	for _, theta := range []float32{0, 0.7, 1.57, 3, 5.5} {
		c := NewCamera(WithOrbit(10, theta, 1.2))
		before := c.Eye()

		c.SetOrbit(10, theta, 1.2+2*math.Pi)
		assertVecNear(t, before, c.Eye(), 1e-4)
	}
}

func TestTurnWrapsPhi(t *testing.T) {
	c := NewCamera(WithOrbit(10, 0, 0.05))
	c.Turn(0.1, 0)
	assert.InDelta(t, 2*math.Pi-0.1, c.Phi(), 1e-5)
	assert.Equal(t, float32(-1), c.Up().Y())

	c.Turn(-0.2, 0)
	assert.InDelta(t, 0.00001, c.Phi(), 1e-7)
	assert.Equal(t, float32(1), c.Up().Y())
}

func TestZoomZeroIsIdentity(t *testing.T) {
	c := NewCamera(WithOrbit(7, 0.3, 1.1), WithCenter(mgl32.Vec3{1, 2, 3}))
	before := c.Eye()
	c.Zoom(0)
	assert.Equal(t, before, c.Eye())
	assert.Equal(t, float32(7), c.Radius())
}

func TestZoomBelowMinimumRecenters(t *testing.T) {
	c := NewCamera()
	eye := c.Eye()
	dir := c.Center().Sub(eye).Normalize()

	c.Zoom(-0.995)
	assert.Equal(t, DefaultRadius, c.Radius())
	assert.Greater(t, c.Radius(), float32(0))
	assertVecNear(t, eye.Add(dir.Mul(DefaultRadius)), c.Center(), 1e-4)
	// The eye stays where it was: the orbit moved forward rather than collapsing.
	assertVecNear(t, eye, c.Eye(), 1e-3)
}

func TestPanScalesWithRadius(t *testing.T) {
	near := NewCamera(WithOrbit(2, DefaultAngle, DefaultAngle))
	far := NewCamera(WithOrbit(20, DefaultAngle, DefaultAngle))
	near.Pan(0, 0.01)
	far.Pan(0, 0.01)
	assert.InDelta(t, 0.04, near.Center().Y(), 1e-5)
	assert.InDelta(t, 0.4, far.Center().Y(), 1e-5)
}

func TestControllerRequiresModifier(t *testing.T) {
	c := NewCamera()
	cc := NewCameraController(c)
	before := c.Eye()

	require.False(t, cc.Update(Input{CursorX: 100, CursorY: 100, Left: true}))
	require.False(t, cc.Update(Input{CursorX: 150, CursorY: 120, Left: true}))
	assert.Equal(t, before, c.Eye())
	x, y := cc.LockPosition()
	assert.Equal(t, 150.0, x)
	assert.Equal(t, 120.0, y)

	require.True(t, cc.Update(Input{CursorX: 160, CursorY: 120, Left: true, Modifier: true}))
	assert.InDelta(t, DefaultAngle+10*defaultTurnSpeed, c.Theta(), 1e-6)
}

func TestControllerZoomDirection(t *testing.T) {
	c := NewCamera()
	cc := NewCameraController(c)
	cc.Update(Input{CursorX: 0})
	cc.Update(Input{CursorX: 5, Right: true, Modifier: true})
	assert.InDelta(t, 10*(1-defaultZoomSpeed), c.Radius(), 1e-5)
}
