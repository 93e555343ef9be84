package light

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ShadowMapResolution is the width and height in texels of the shadow depth texture.
const ShadowMapResolution = 1024

// DefaultShadowBias is the constant depth bias subtracted from the receiver depth before the
// shadow comparison.
const DefaultShadowBias float32 = 0.005

// ShadowNear and ShadowFar bound the spot light shadow projection.
const (
	ShadowNear float32 = 1
	ShadowFar  float32 = 100
)

// shadowUp is the up vector of the shadow camera. Spot lights in the scene point mostly down, so
// the world Y axis is unusable.
var shadowUp = mgl32.Vec3{0, 0, -1}

// ShadowMatrices holds the light-space transforms of the shadow-casting spot light.
type ShadowMatrices struct {
	Projection mgl32.Mat4
	View       mgl32.Mat4

	// WorldToLightScreen maps world positions to the light clip space.
	WorldToLightScreen mgl32.Mat4
}

// SpotShadowMatrices computes the perspective shadow camera of a spot light. The vertical field of
// view is twice the cone angle with a square aspect.
//
// Parameters:
//   - l: the spot light
//
// Returns:
//   - ShadowMatrices: the light-space transforms
func SpotShadowMatrices(l SpotLight) ShadowMatrices {
	dir := l.Direction
	if dir.Len() > 0 {
		dir = dir.Normalize()
	}
	up := shadowUp
	if abs32(dir.Dot(up)) > 0.999 {
		up = mgl32.Vec3{1, 0, 0}
	}

	proj := common.Perspective(l.Angle*2, 1, ShadowNear, ShadowFar)
	view := common.LookAt(l.Position, l.Position.Add(dir), up)
	return ShadowMatrices{
		Projection:         proj,
		View:               view,
		WorldToLightScreen: proj.Mul4(view),
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
