package deferred

import (
	"math"

	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// BlurReference applies the blur pass to a single-channel image on the CPU: a box filter over
// [-n, n] texels along dir with clamped edges.
//
// Parameters:
//   - src: row-major texels, w*h long
//   - w, h: the image size
//   - dir: the step direction, (0, 1) or (1, 0)
//   - n: the sample count on each side
//
// Returns:
//   - []float32: the filtered image
func BlurReference(src []float32, w, h int, dir [2]int, n int) []float32 {
	n = max(n, 0)
	out := make([]float32, len(src))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float32
			for i := -n; i <= n; i++ {
				sx := clampInt(x+dir[0]*i, 0, w-1)
				sy := clampInt(y+dir[1]*i, 0, h-1)
				sum += src[sy*w+sx]
			}
			out[y*w+x] = sum / float32(2*n+1)
		}
	}
	return out
}

// Blur2DReference runs the vertical then the horizontal blur, as the two blur passes do.
func Blur2DReference(src []float32, w, h, n int) []float32 {
	return BlurReference(BlurReference(src, w, h, [2]int{0, 1}, n), w, h, [2]int{1, 0}, n)
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// ShadowTestResult counts the receivers of a ShadowTest run.
type ShadowTestResult struct {
	// Samples is the number of receivers inside the light frustum.
	Samples int

	// Shadowed is the number of those whose biased depth failed the comparison.
	Shadowed int
}

// groundY is the height of the ground plane.
const groundY float32 = -1

// ShadowTest renders the ground plane into a CPU shadow map from the light's view and runs the
// lighting pass comparison for a grid of receivers on that plane. The plane only shadows itself,
// so every shadowed receiver is acne and the count falls as bias grows.
//
// Parameters:
//   - l: the shadow-casting spot light
//   - bias: the depth bias subtracted from the receiver depth
//   - resolution: the shadow map size in texels
//   - samples: receivers per side of the grid over [-5, 5] x [-5, 5]
//
// Returns:
//   - ShadowTestResult: the receiver counts
func ShadowTest(l light.SpotLight, bias float32, resolution, samples int) ShadowTestResult {
	m := light.SpotShadowMatrices(l).WorldToLightScreen
	inv := m.Inv()

	depth := make([]float32, resolution*resolution)
	for i := range depth {
		depth[i] = 1
	}
	for ty := 0; ty < resolution; ty++ {
		for tx := 0; tx < resolution; tx++ {
			ndcX := (float32(tx)+0.5)/float32(resolution)*2 - 1
			ndcY := 1 - (float32(ty)+0.5)/float32(resolution)*2
			p, ok := planeHit(inv, ndcX, ndcY)
			if !ok {
				continue
			}
			if z, _, _, ok := project(m, p); ok {
				depth[ty*resolution+tx] = z
			}
		}
	}

	var r ShadowTestResult
	for j := 0; j < samples; j++ {
		for i := 0; i < samples; i++ {
			p := mgl32.Vec3{gridCoord(i, samples), groundY, gridCoord(j, samples)}
			z, u, v, ok := project(m, p)
			if !ok {
				continue
			}
			tx := clampInt(int(u*float32(resolution)), 0, resolution-1)
			ty := clampInt(int(v*float32(resolution)), 0, resolution-1)
			r.Samples++
			if z-bias > depth[ty*resolution+tx] {
				r.Shadowed++
			}
		}
	}
	return r
}

func gridCoord(i, n int) float32 {
	if n <= 1 {
		return 0
	}
	return -5 + 10*float32(i)/float32(n-1)
}

// project maps a world point to light depth and shadow map uv. ok is false outside the frustum.
func project(m mgl32.Mat4, p mgl32.Vec3) (z, u, v float32, ok bool) {
	c := m.Mul4x1(p.Vec4(1))
	if c.W() <= 0 {
		return 0, 0, 0, false
	}
	ndc := c.Vec3().Mul(1 / c.W())
	if ndc.X() < -1 || ndc.X() > 1 || ndc.Y() < -1 || ndc.Y() > 1 || ndc.Z() < 0 || ndc.Z() > 1 {
		return 0, 0, 0, false
	}
	return ndc.Z(), ndc.X()*0.5 + 0.5, 0.5 - ndc.Y()*0.5, true
}

// planeHit casts the ray through a light NDC position from the near to the far plane and returns
// where it meets the ground.
func planeHit(inv mgl32.Mat4, ndcX, ndcY float32) (mgl32.Vec3, bool) {
	near := unproject(inv, ndcX, ndcY, 0)
	far := unproject(inv, ndcX, ndcY, 1)
	dy := far.Y() - near.Y()
	if math.Abs(float64(dy)) < 1e-9 {
		return mgl32.Vec3{}, false
	}
	t := (groundY - near.Y()) / dy
	if t < 0 || t > 1 {
		return mgl32.Vec3{}, false
	}
	return near.Add(far.Sub(near).Mul(t)), true
}

func unproject(inv mgl32.Mat4, x, y, z float32) mgl32.Vec3 {
	p := inv.Mul4x1(mgl32.Vec4{x, y, z, 1})
	return p.Vec3().Mul(1 / p.W())
}
