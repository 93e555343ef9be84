package light

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSetIsValid(t *testing.T) {
	s := DefaultSet()
	require.NoError(t, s.Validate())
	assert.Len(t, s.Spot, 2)
	assert.Empty(t, s.Point)
	assert.Empty(t, s.Directional)

	caster, ok := s.ShadowCaster()
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{1, 3, 0}, caster.Position)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		set   Set
		field string
	}{
		{
			name:  "nan position",
			set:   NewSet(WithPointLight(PointLight{Position: mgl32.Vec3{float32(math.NaN()), 0, 0}, Color: mgl32.Vec3{1, 1, 1}})),
			field: "position",
		},
		{
			name:  "negative intensity",
			set:   NewSet(WithPointLight(PointLight{Color: mgl32.Vec3{1, 1, 1}, Intensity: -1})),
			field: "intensity",
		},
		{
			name:  "color out of range",
			set:   NewSet(WithDirectionalLight(DirectionalLight{Direction: mgl32.Vec3{0, -1, 0}, Color: mgl32.Vec3{2, 0, 0}})),
			field: "color",
		},
		{
			name:  "zero direction",
			set:   NewSet(WithDirectionalLight(DirectionalLight{Color: mgl32.Vec3{1, 1, 1}})),
			field: "direction",
		},
		{
			name:  "spot angle too wide",
			set:   NewSet(WithSpotLight(SpotLight{Direction: mgl32.Vec3{0, -1, 0}, Color: mgl32.Vec3{1, 1, 1}, Angle: 95})),
			field: "angle",
		},
		{
			name:  "spot angle ninety",
			set:   NewSet(WithSpotLight(SpotLight{Direction: mgl32.Vec3{0, -1, 0}, Color: mgl32.Vec3{1, 1, 1}, Angle: 90})),
			field: "angle",
		},
		{
			name:  "spot angle zero",
			set:   NewSet(WithSpotLight(SpotLight{Direction: mgl32.Vec3{0, -1, 0}, Color: mgl32.Vec3{1, 1, 1}})),
			field: "angle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.set.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidLight))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestMarkersOrderPointThenSpot(t *testing.T) {
	s := DefaultSet()
	s.Point = append(s.Point, PointLight{Position: mgl32.Vec3{9, 9, 9}, Color: mgl32.Vec3{1, 0, 0}})

	positions, colors := s.Markers()
	require.Len(t, positions, 3)
	assert.Equal(t, mgl32.Vec3{9, 9, 9}, positions[0])
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, colors[0])
	assert.Equal(t, s.Spot[1].Color, colors[2])
}

func TestMarshalVec3ArrayStride(t *testing.T) {
	in := []mgl32.Vec3{{1, 2, 3}, {4, 5, 6}}
	buf := MarshalVec3Array(in)
	assert.Len(t, buf, 32)
	assert.Equal(t, in, UnmarshalVec3Array(buf))
	assert.Len(t, MarshalVec3Array(nil), 16)
}

func TestSpotShadowMatricesProjectsLightAxisToCenter(t *testing.T) {
	l := DefaultSet().Spot[0]
	m := SpotShadowMatrices(l)

	target := l.Position.Add(l.Direction.Normalize().Mul(5))
	clip := m.WorldToLightScreen.Mul4x1(target.Vec4(1))
	ndc := clip.Vec3().Mul(1 / clip.W())
	assert.InDelta(t, 0, ndc.X(), 1e-4)
	assert.InDelta(t, 0, ndc.Y(), 1e-4)
	assert.True(t, ndc.Z() > 0 && ndc.Z() < 1)
}

func TestSpotShadowMatricesFiniteAtWidestValidAngle(t *testing.T) {
	l := SpotLight{Position: mgl32.Vec3{0, 3, 0}, Direction: mgl32.Vec3{0, -1, 0}, Color: mgl32.Vec3{1, 1, 1}, Angle: MaxSpotAngle - 1}
	s := NewSet(WithSpotLight(l))
	require.NoError(t, s.Validate())

	m := SpotShadowMatrices(l)
	for i, v := range m.WorldToLightScreen {
		assert.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0), "element %d is %v", i, v)
	}
}
