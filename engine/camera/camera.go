package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultRadius is the orbit radius at startup and after a zoom collapse.
	DefaultRadius float32 = 10

	// MinRadius is the radius below which a zoom recenters the orbit instead of shrinking it.
	MinRadius float32 = 0.1

	// DefaultAngle is the startup value of both theta and phi.
	DefaultAngle float32 = 3.14 / 2

	// phiMargin keeps phi away from 2pi so the camera never sits exactly on the pole.
	phiMargin float32 = 0.1

	// phiRestart is the phi value a turn wraps to after crossing 2pi.
	phiRestart float32 = 0.00001
)

type cameraImpl struct {
	mu *sync.Mutex

	radius float32
	theta  float32
	phi    float32
	center mgl32.Vec3

	eye mgl32.Vec3
	up  mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32
}

// Camera defines the orbit camera. The eye orbits the center on a sphere described by radius,
// theta (azimuth in the XZ plane) and phi (polar angle from +Y).
type Camera interface {
	// Radius returns the orbit radius.
	Radius() float32

	// Theta returns the azimuth angle in radians.
	Theta() float32

	// Phi returns the polar angle in radians.
	Phi() float32

	// Center returns the orbit center the camera looks at.
	//
	// Returns:
	//   - mgl32.Vec3: the orbit center
	Center() mgl32.Vec3

	// Eye returns the world-space camera position.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position
	Eye() mgl32.Vec3

	// Up returns the up vector. Its Y component flips sign once phi passes pi so the camera stays
	// upright through the pole.
	//
	// Returns:
	//   - mgl32.Vec3: the up vector
	Up() mgl32.Vec3

	// SetOrbit replaces the orbit parameters and recomputes the eye.
	//
	// Parameters:
	//   - radius: orbit radius
	//   - theta: azimuth in radians
	//   - phi: polar angle in radians
	SetOrbit(radius, theta, phi float32)

	// Zoom scales the radius by (1 + factor). A radius falling under MinRadius is reset to
	// DefaultRadius and the center is pushed forward along the view direction instead.
	//
	// Parameters:
	//   - factor: relative radius change; negative values move the eye closer
	Zoom(factor float32)

	// Turn rotates the eye around the center. Phi wraps before reaching 2pi and below zero.
	//
	// Parameters:
	//   - dPhi: amount subtracted from phi
	//   - dTheta: amount added to theta
	Turn(dPhi, dTheta float32)

	// Pan moves the center along the camera side and world up axes, scaled by the radius.
	//
	// Parameters:
	//   - x: horizontal pan amount
	//   - y: vertical pan amount
	Pan(x, y float32)

	// Fov returns the vertical field of view in degrees.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// SetAspect sets the aspect ratio.
	//
	// Parameters:
	//   - aspect: width divided by height
	SetAspect(aspect float32)

	// ViewMatrix returns lookAt(eye, center, up).
	//
	// Returns:
	//   - mgl32.Mat4: the world-to-view matrix
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the perspective projection in WebGPU clip space.
	//
	// Returns:
	//   - mgl32.Mat4: the view-to-clip matrix
	ProjectionMatrix() mgl32.Mat4
}

var _ Camera = &cameraImpl{}

// NewCamera creates an orbit camera at the default orbit looking at the origin with a
// 45 degree field of view and a 0.1..100 depth range.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		radius: DefaultRadius,
		theta:  DefaultAngle,
		phi:    DefaultAngle,
		fov:    45,
		aspect: 1,
		near:   0.1,
		far:    100,
	}
	for _, option := range options {
		option(c)
	}
	c.compute()
	return c
}

func (c *cameraImpl) Radius() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.radius
}

func (c *cameraImpl) Theta() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.theta
}

func (c *cameraImpl) Phi() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phi
}

func (c *cameraImpl) Center() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.center
}

func (c *cameraImpl) Eye() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eye
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) SetOrbit(radius, theta, phi float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius, c.theta, c.phi = radius, theta, phi
	c.compute()
}

func (c *cameraImpl) Zoom(factor float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.radius += factor * c.radius
	if c.radius < MinRadius {
		c.radius = DefaultRadius
		c.center = c.eye.Add(c.center.Sub(c.eye).Normalize().Mul(c.radius))
	}
	c.compute()
}

func (c *cameraImpl) Turn(dPhi, dTheta float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.theta += dTheta
	c.phi -= dPhi
	if c.phi >= 2*math.Pi-phiMargin {
		c.phi = phiRestart
	} else if c.phi <= 0 {
		c.phi = 2*math.Pi - phiMargin
	}
	c.compute()
}

func (c *cameraImpl) Pan(x, y float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	up := worldUp(c.phi)
	fwd := c.center.Sub(c.eye).Normalize()
	side := fwd.Cross(up).Normalize()

	c.center = c.center.Add(up.Mul(y * c.radius * 2))
	c.center = c.center.Sub(side.Mul(x * c.radius * 2))
	c.compute()
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.LookAt(c.eye, c.center, c.up)
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.Perspective(c.fov, c.aspect, c.near, c.far)
}

// compute derives eye and up from the orbit parameters.
// Caller must hold the mutex.
func (c *cameraImpl) compute() {
	sinPhi := float32(math.Sin(float64(c.phi)))
	cosPhi := float32(math.Cos(float64(c.phi)))
	sinTheta := float32(math.Sin(float64(c.theta)))
	cosTheta := float32(math.Cos(float64(c.theta)))

	c.eye = mgl32.Vec3{
		cosTheta*sinPhi*c.radius + c.center.X(),
		cosPhi*c.radius + c.center.Y(),
		sinTheta*sinPhi*c.radius + c.center.Z(),
	}
	c.up = worldUp(c.phi)
}

func worldUp(phi float32) mgl32.Vec3 {
	if phi < math.Pi {
		return mgl32.Vec3{0, 1, 0}
	}
	return mgl32.Vec3{0, -1, 0}
}
