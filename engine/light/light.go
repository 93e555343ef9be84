package light

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypePoint represents a light that emits in all directions from a position.
	LightTypePoint LightType = iota

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	// The first spot light also drives the shadow map.
	LightTypeSpot

	// LightTypeDirectional represents a light with no position, only direction.
	LightTypeDirectional
)

func (t LightType) String() string {
	switch t {
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	case LightTypeDirectional:
		return "directional"
	default:
		return fmt.Sprintf("LightType(%d)", int(t))
	}
}

// PointLight is an omnidirectional light at a world position.
type PointLight struct {
	Position  mgl32.Vec3 `toml:"position"`
	Color     mgl32.Vec3 `toml:"color"`
	Intensity float32    `toml:"intensity"`
}

// MaxSpotAngle is the exclusive upper bound of SpotLight.Angle. The shadow projection would reach
// a 180 degree field of view at the bound.
const MaxSpotAngle float32 = 90

// SpotLight is a cone light. Angle is the cone half-angle in degrees; the shadow projection uses
// twice this value as its vertical field of view.
type SpotLight struct {
	Position  mgl32.Vec3 `toml:"position"`
	Direction mgl32.Vec3 `toml:"direction"`
	Color     mgl32.Vec3 `toml:"color"`
	Intensity float32    `toml:"intensity"`
	Angle     float32    `toml:"angle"`
}

// DirectionalLight is an infinitely distant light.
type DirectionalLight struct {
	Direction mgl32.Vec3 `toml:"direction"`
	Color     mgl32.Vec3 `toml:"color"`
	Intensity float32    `toml:"intensity"`
}

// Set holds every light of the scene, one list per variant. The pipeline iterates the list lengths.
type Set struct {
	Point       []PointLight       `toml:"point"`
	Spot        []SpotLight        `toml:"spot"`
	Directional []DirectionalLight `toml:"directional"`
}

// ErrInvalidLight is wrapped by every ValidationError.
var ErrInvalidLight = errors.New("invalid light")

// ValidationError reports the first invalid field found by Set.Validate.
type ValidationError struct {
	Type   LightType
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s light %d: %s %s", e.Type, e.Index, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidLight
}

// Count returns the number of lights of every variant.
func (s *Set) Count() int {
	return len(s.Point) + len(s.Spot) + len(s.Directional)
}

// ShadowCaster returns the spot light whose view renders the shadow map.
//
// Returns:
//   - SpotLight: the first spot light
//   - bool: false if the set has no spot light
func (s *Set) ShadowCaster() (SpotLight, bool) {
	if len(s.Spot) == 0 {
		return SpotLight{}, false
	}
	return s.Spot[0], true
}

// Markers returns the positions and colors of every positioned light, point lights first and
// then spot lights.
//
// Returns:
//   - []mgl32.Vec3: light positions
//   - []mgl32.Vec3: light colors, index-aligned with the positions
func (s *Set) Markers() ([]mgl32.Vec3, []mgl32.Vec3) {
	positions := make([]mgl32.Vec3, 0, len(s.Point)+len(s.Spot))
	colors := make([]mgl32.Vec3, 0, len(s.Point)+len(s.Spot))
	for _, p := range s.Point {
		positions = append(positions, p.Position)
		colors = append(colors, p.Color)
	}
	for _, sp := range s.Spot {
		positions = append(positions, sp.Position)
		colors = append(colors, sp.Color)
	}
	return positions, colors
}

// Clone returns a deep copy of the set.
func (s *Set) Clone() Set {
	return Set{
		Point:       append([]PointLight(nil), s.Point...),
		Spot:        append([]SpotLight(nil), s.Spot...),
		Directional: append([]DirectionalLight(nil), s.Directional...),
	}
}

// Validate checks every light of the set. It runs at scene load and whenever edited values are
// pushed back into the frame state.
//
// Returns:
//   - error: a *ValidationError describing the first invalid field, or nil
func (s *Set) Validate() error {
	for i, p := range s.Point {
		if err := validatePositioned(LightTypePoint, i, p.Position); err != nil {
			return err
		}
		if err := validateShared(LightTypePoint, i, p.Color, p.Intensity); err != nil {
			return err
		}
	}
	for i, sp := range s.Spot {
		if err := validatePositioned(LightTypeSpot, i, sp.Position); err != nil {
			return err
		}
		if err := validateDirection(LightTypeSpot, i, sp.Direction); err != nil {
			return err
		}
		if err := validateShared(LightTypeSpot, i, sp.Color, sp.Intensity); err != nil {
			return err
		}
		if !common.Finite(sp.Angle) || sp.Angle <= 0 || sp.Angle >= MaxSpotAngle {
			return &ValidationError{Type: LightTypeSpot, Index: i, Field: "angle", Reason: fmt.Sprintf("must be in (0, %g) degrees", MaxSpotAngle)}
		}
	}
	for i, d := range s.Directional {
		if err := validateDirection(LightTypeDirectional, i, d.Direction); err != nil {
			return err
		}
		if err := validateShared(LightTypeDirectional, i, d.Color, d.Intensity); err != nil {
			return err
		}
	}
	return nil
}

func validatePositioned(t LightType, i int, position mgl32.Vec3) error {
	if !common.Finite(position[:]...) {
		return &ValidationError{Type: t, Index: i, Field: "position", Reason: "is not finite"}
	}
	return nil
}

func validateDirection(t LightType, i int, direction mgl32.Vec3) error {
	if !common.Finite(direction[:]...) {
		return &ValidationError{Type: t, Index: i, Field: "direction", Reason: "is not finite"}
	}
	if direction.Len() == 0 {
		return &ValidationError{Type: t, Index: i, Field: "direction", Reason: "has zero length"}
	}
	return nil
}

func validateShared(t LightType, i int, color mgl32.Vec3, intensity float32) error {
	if !common.Finite(color[:]...) {
		return &ValidationError{Type: t, Index: i, Field: "color", Reason: "is not finite"}
	}
	for _, c := range color {
		if c < 0 || c > 1 {
			return &ValidationError{Type: t, Index: i, Field: "color", Reason: "components must be in [0, 1]"}
		}
	}
	if !common.Finite(intensity) || intensity < 0 {
		return &ValidationError{Type: t, Index: i, Field: "intensity", Reason: "must be finite and non-negative"}
	}
	return nil
}
