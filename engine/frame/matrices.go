package frame

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// Matrices are the transforms derived from a State once per frame.
type Matrices struct {
	Projection mgl32.Mat4
	View       mgl32.Mat4
	Model      mgl32.Mat4
	MVP        mgl32.Mat4

	InverseProjection mgl32.Mat4

	// ScreenToWorld is the transposed inverse of MVP, applied to row vectors in WGSL.
	ScreenToWorld mgl32.Mat4

	// ScreenToView is the transposed inverse projection, applied to row vectors in WGSL.
	ScreenToView mgl32.Mat4

	// Shadow holds the light-space transforms of the shadow caster. HasShadow is false when the
	// scene has no spot light.
	Shadow    light.ShadowMatrices
	HasShadow bool

	// ObjectToLightScreen and ObjectToLight carry model space into the shadow caster's clip and
	// view spaces.
	ObjectToLightScreen mgl32.Mat4
	ObjectToLight       mgl32.Mat4
}

// Matrices computes the frame transforms: projection and view from the camera, identity model,
// and the shadow camera of the first spot light.
//
// Returns:
//   - Matrices: the derived transforms
func (s *State) Matrices() Matrices {
	m := Matrices{
		Projection: s.Camera.ProjectionMatrix(),
		View:       s.Camera.ViewMatrix(),
		Model:      mgl32.Ident4(),
	}
	m.MVP = m.Projection.Mul4(m.View).Mul4(m.Model)
	m.InverseProjection = m.Projection.Inv()
	m.ScreenToWorld = m.MVP.Inv().Transpose()
	m.ScreenToView = m.InverseProjection.Transpose()

	if caster, ok := s.Lights.ShadowCaster(); ok {
		m.Shadow = light.SpotShadowMatrices(caster)
		m.HasShadow = true
		m.ObjectToLight = m.Shadow.View.Mul4(m.Model)
		m.ObjectToLightScreen = m.Shadow.Projection.Mul4(m.ObjectToLight)
	}
	return m
}
