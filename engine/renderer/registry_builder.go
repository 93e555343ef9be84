package renderer

// ResourceOption is a functional option applied to a ResourceDesc during creation.
type ResourceOption func(*ResourceDesc)

// WithFilter sets the filter used when the resource is sampled.
//
// Parameters:
//   - f: the filter mode
//
// Returns:
//   - ResourceOption: a function that applies the filter option
func WithFilter(f FilterMode) ResourceOption {
	return func(d *ResourceDesc) {
		d.Filter = f
	}
}

// WithWrap sets the addressing mode used when the resource is sampled.
//
// Parameters:
//   - w: the wrap mode
//
// Returns:
//   - ResourceOption: a function that applies the wrap option
func WithWrap(w WrapMode) ResourceOption {
	return func(d *ResourceDesc) {
		d.Wrap = w
	}
}

// WithCompare marks a depth resource as sampled through a less-equal comparison sampler.
func WithCompare() ResourceOption {
	return func(d *ResourceDesc) {
		d.Compare = true
	}
}
