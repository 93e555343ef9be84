// Package frame holds the mutable per-frame state read by every render pass.
package frame

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// Focus holds the depth-of-field distances along the view axis.
type Focus struct {
	Near  float32 `toml:"near"`
	Focus float32 `toml:"focus"`
	Far   float32 `toml:"far"`
}

// Vec3 returns the distances packed as (near, focus, far).
func (f Focus) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{f.Near, f.Focus, f.Far}
}

// Post holds the post-processing controls.
type Post struct {
	Gamma       float32 `toml:"gamma"`
	SobelFactor float32 `toml:"sobel_factor"`
	SampleCount int32   `toml:"sample_count"`
	Focus       Focus   `toml:"focus"`
	ShadowBias  float32 `toml:"shadow_bias"`
}

// DefaultPost returns the startup post-processing controls.
func DefaultPost() Post {
	return Post{
		Gamma:       1,
		SobelFactor: 0.5,
		SampleCount: 1,
		Focus:       Focus{Near: 1, Focus: 3, Far: 10},
		ShadowBias:  light.DefaultShadowBias,
	}
}

// State is everything a frame reads: the camera, the lights and the post controls. It is created
// once, mutated by input and the debug panel between frames, and passed by pointer to the passes.
// No history is kept.
type State struct {
	Camera camera.Camera
	Lights light.Set
	Post   Post

	SpecularPower float32

	// Time is the window clock in seconds at the start of the frame.
	Time float32

	// FPS is 1 / duration of the previous frame.
	FPS float32

	Width, Height int
}

// NewState creates the frame state for a viewport.
//
// Parameters:
//   - cam: the orbit camera
//   - lights: the validated light set
//   - post: the post-processing controls
//   - width, height: the viewport size in pixels
//
// Returns:
//   - *State: the frame state
func NewState(cam camera.Camera, lights light.Set, post Post, width, height int) *State {
	cam.SetAspect(float32(width) / float32(height))
	return &State{
		Camera:        cam,
		Lights:        lights,
		Post:          post,
		SpecularPower: 30,
		Width:         width,
		Height:        height,
	}
}

// Advance records the frame clock and the rate derived from the previous frame duration.
//
// Parameters:
//   - now: the window clock in seconds
//   - previousFrame: duration of the previous frame in seconds
func (s *State) Advance(now, previousFrame float64) {
	s.Time = float32(now)
	if previousFrame > 0 {
		s.FPS = float32(1 / previousFrame)
	}
}
