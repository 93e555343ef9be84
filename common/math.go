package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// clipCorrection remaps OpenGL clip-space depth [-w, w] to the WebGPU range [0, w].
// Column-major: z' = 0.5*z + 0.5*w.
var clipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Perspective builds a right-handed perspective projection producing WebGPU clip space.
//
// Parameters:
//   - fovYDegrees: vertical field of view in degrees
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix, column-major
func Perspective(fovYDegrees, aspect, near, far float32) mgl32.Mat4 {
	return clipCorrection.Mul4(mgl32.Perspective(mgl32.DegToRad(fovYDegrees), aspect, near, far))
}

// LookAt builds a view matrix placing the eye at eye looking toward center.
//
// Parameters:
//   - eye: camera position in world space
//   - center: the point looked at
//   - up: the up direction
//
// Returns:
//   - mgl32.Mat4: the world-to-view matrix
func LookAt(eye, center, up mgl32.Vec3) mgl32.Mat4 {
	return mgl32.LookAtV(eye, center, up)
}

// Finite reports whether every value is neither NaN nor infinite.
func Finite(values ...float32) bool {
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
