package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraBuilderOption is a functional option for configuring a Camera.
type CameraBuilderOption func(*cameraImpl)

// WithOrbit sets the initial orbit parameters.
//
// Parameters:
//   - radius: orbit radius
//   - theta: azimuth in radians
//   - phi: polar angle in radians
//
// Returns:
//   - CameraBuilderOption: functional option to set the orbit
func WithOrbit(radius, theta, phi float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.radius, c.theta, c.phi = radius, theta, phi
	}
}

// WithCenter sets the initial orbit center.
//
// Parameters:
//   - center: the point the camera orbits and looks at
//
// Returns:
//   - CameraBuilderOption: functional option to set the center
func WithCenter(center mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.center = center
	}
}

// WithFov sets the vertical field of view.
//
// Parameters:
//   - fov: field of view in degrees
//
// Returns:
//   - CameraBuilderOption: functional option to set the field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithAspect sets the aspect ratio (width / height).
//
// Parameters:
//   - aspect: the aspect ratio
//
// Returns:
//   - CameraBuilderOption: functional option to set the aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithClipPlanes sets the near and far clipping plane distances.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: functional option to set the clip planes
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near, c.far = near, far
	}
}
