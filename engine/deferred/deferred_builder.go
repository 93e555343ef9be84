package deferred

import "github.com/Carmen-Shannon/oxy-deferred/common"

// BuilderOption is a functional option applied to the pipeline during construction via New.
type BuilderOption func(*Deferred)

// WithShadowResolution sets the width and height of the shadow map in texels.
//
// Parameters:
//   - n: the resolution, ignored when not positive
//
// Returns:
//   - BuilderOption: a function that applies the resolution to the pipeline
func WithShadowResolution(n int) BuilderOption {
	return func(d *Deferred) {
		if n > 0 {
			d.shadowResolution = n
		}
	}
}

// WithMarkerSize sets the light marker radius in pixels.
func WithMarkerSize(px int) BuilderOption {
	return func(d *Deferred) {
		if px > 0 {
			d.markerSize = px
		}
	}
}

// WithLogger overrides the renderer's logger for setup messages and pass failures.
func WithLogger(logger common.Logger) BuilderOption {
	return func(d *Deferred) {
		if logger != nil {
			d.logger = logger
		}
	}
}
