package light

import "github.com/go-gl/mathgl/mgl32"

// SetBuilderOption is a function that configures a Set during construction.
type SetBuilderOption func(*Set)

// NewSet creates a light Set with the provided options applied. The set is not validated; callers
// run Validate once the scene is assembled.
//
// Parameters:
//   - opts: variadic list of SetBuilderOption functions
//
// Returns:
//   - Set: the light set
func NewSet(opts ...SetBuilderOption) Set {
	s := Set{}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// DefaultSet returns the demo scene lighting: two colored spot lights and no point or
// directional lights.
//
// Returns:
//   - Set: the default light set
func DefaultSet() Set {
	return NewSet(
		WithSpotLight(SpotLight{
			Position:  mgl32.Vec3{1, 3, 0},
			Direction: mgl32.Vec3{-0.4, -1, 0},
			Color:     mgl32.Vec3{0.5, 0.5, 1},
			Intensity: 1,
			Angle:     60,
		}),
		WithSpotLight(SpotLight{
			Position:  mgl32.Vec3{-1, 2, 0},
			Direction: mgl32.Vec3{0, -1, -0.4},
			Color:     mgl32.Vec3{1, 0.2, 0.8},
			Intensity: 1,
			Angle:     70,
		}),
	)
}

// WithPointLight is an option builder that appends a point light.
//
// Parameters:
//   - l: the point light
//
// Returns:
//   - SetBuilderOption: a function that appends the light to a Set
func WithPointLight(l PointLight) SetBuilderOption {
	return func(s *Set) {
		s.Point = append(s.Point, l)
	}
}

// WithSpotLight is an option builder that appends a spot light.
//
// Parameters:
//   - l: the spot light
//
// Returns:
//   - SetBuilderOption: a function that appends the light to a Set
func WithSpotLight(l SpotLight) SetBuilderOption {
	return func(s *Set) {
		s.Spot = append(s.Spot, l)
	}
}

// WithDirectionalLight is an option builder that appends a directional light.
//
// Parameters:
//   - l: the directional light
//
// Returns:
//   - SetBuilderOption: a function that appends the light to a Set
func WithDirectionalLight(l DirectionalLight) SetBuilderOption {
	return func(s *Set) {
		s.Directional = append(s.Directional, l)
	}
}
