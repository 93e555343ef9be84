package renderer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/google/uuid"
)

// registry is the implementation of the Registry interface.
type registry struct {
	mu      *sync.Mutex
	backend Backend

	resources    map[ResourceHandle]ResourceDesc
	framebuffers map[FramebufferHandle]FramebufferDesc

	nextResource    ResourceHandle
	nextFramebuffer FramebufferHandle
}

// Registry owns every texture, render target and framebuffer of a renderer and tracks their
// format, size and sampling state. Framebuffers are validated for completeness whenever they are
// created or an attachment is rebound.
type Registry interface {
	// CreateColorTarget allocates a color render target.
	//
	// Parameters:
	//   - label: the debug name, suffixed with a uuid in the stored label
	//   - width: the width in pixels
	//   - height: the height in pixels
	//   - format: a color format
	//   - opts: sampling options
	//
	// Returns:
	//   - ResourceHandle: the new resource
	//   - error: an error if the format is not a color format or the backend allocation fails
	CreateColorTarget(label string, width, height int, format TextureFormat, opts ...ResourceOption) (ResourceHandle, error)

	// CreateDepthTarget allocates a depth render target.
	//
	// Parameters:
	//   - label: the debug name
	//   - width: the width in pixels
	//   - height: the height in pixels
	//   - format: a depth format
	//   - opts: sampling options
	//
	// Returns:
	//   - ResourceHandle: the new resource
	//   - error: an error if the format is not a depth format or the backend allocation fails
	CreateDepthTarget(label string, width, height int, format TextureFormat, opts ...ResourceOption) (ResourceHandle, error)

	// CreateTexture uploads decoded RGBA8 pixels as a static texture.
	//
	// Parameters:
	//   - label: the debug name
	//   - staging: the decoded pixels
	//   - opts: sampling options
	//
	// Returns:
	//   - ResourceHandle: the new resource
	//   - error: an error if the pixel data does not match its size or the upload fails
	CreateTexture(label string, staging common.TextureStagingData, opts ...ResourceOption) (ResourceHandle, error)

	// CreateFramebuffer groups resources into a render target.
	//
	// Parameters:
	//   - label: the debug name
	//   - attachments: the resource bound to each attachment point
	//
	// Returns:
	//   - FramebufferHandle: the new framebuffer
	//   - error: an *IncompleteFramebufferError if the attachments cannot be used together
	CreateFramebuffer(label string, attachments map[AttachmentPoint]ResourceHandle) (FramebufferHandle, error)

	// Attach rebinds one attachment point of a framebuffer and revalidates it. The previous
	// binding is kept when validation fails.
	//
	// Parameters:
	//   - fb: the framebuffer
	//   - point: the attachment point
	//   - resource: the resource to bind
	//
	// Returns:
	//   - error: an *IncompleteFramebufferError, or an error if fb is unknown
	Attach(fb FramebufferHandle, point AttachmentPoint, resource ResourceHandle) error

	// Resource retrieves the description of a resource.
	Resource(h ResourceHandle) (ResourceDesc, bool)

	// Framebuffer retrieves the description of a framebuffer. ScreenFramebuffer resolves to the
	// surface size with no attachments.
	Framebuffer(h FramebufferHandle) (FramebufferDesc, bool)

	// Resources retrieves every resource ordered by handle.
	Resources() []ResourceDesc
}

var _ Registry = &registry{}

// NewRegistry creates an empty Registry allocating through the given backend.
//
// Parameters:
//   - backend: the backend that creates the GPU objects
//
// Returns:
//   - Registry: the registry
func NewRegistry(backend Backend) Registry {
	return &registry{
		mu:           &sync.Mutex{},
		backend:      backend,
		resources:    make(map[ResourceHandle]ResourceDesc),
		framebuffers: make(map[FramebufferHandle]FramebufferDesc),
	}
}

func (r *registry) CreateColorTarget(label string, width, height int, format TextureFormat, opts ...ResourceOption) (ResourceHandle, error) {
	if format.IsDepth() || format == FormatSurface {
		return 0, fmt.Errorf("color target %q: %s is not an offscreen color format", label, format)
	}
	return r.create(label, width, height, format, nil, opts)
}

func (r *registry) CreateDepthTarget(label string, width, height int, format TextureFormat, opts ...ResourceOption) (ResourceHandle, error) {
	if !format.IsDepth() {
		return 0, fmt.Errorf("depth target %q: %s is not a depth format", label, format)
	}
	return r.create(label, width, height, format, nil, opts)
}

func (r *registry) CreateTexture(label string, staging common.TextureStagingData, opts ...ResourceOption) (ResourceHandle, error) {
	if want := int(staging.Width) * int(staging.Height) * 4; len(staging.Pixels) != want {
		return 0, fmt.Errorf("texture %q: expected %d bytes of RGBA pixels, got %d", label, want, len(staging.Pixels))
	}
	opts = append([]ResourceOption{WithWrap(WrapRepeat), WithFilter(FilterLinear)}, opts...)
	return r.create(label, int(staging.Width), int(staging.Height), FormatRGBA8, staging.Pixels, opts)
}

func (r *registry) create(label string, width, height int, format TextureFormat, pixels []byte, opts []ResourceOption) (ResourceHandle, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("resource %q: invalid size %dx%d", label, width, height)
	}

	r.mu.Lock()
	r.nextResource++
	desc := ResourceDesc{
		Handle: r.nextResource,
		Label:  label + "#" + uuid.NewString(),
		Name:   label,
		Format: format,
		Width:  width,
		Height: height,
		Filter: FilterNearest,
		Wrap:   WrapClampToEdge,
		Static: pixels != nil,
	}
	r.mu.Unlock()

	for _, opt := range opts {
		opt(&desc)
	}
	if desc.Compare && !format.IsDepth() {
		return 0, fmt.Errorf("resource %q: comparison sampling requires a depth format, got %s", label, format)
	}

	if err := r.backend.CreateTexture(desc, pixels); err != nil {
		return 0, fmt.Errorf("failed to create resource %q: %w", label, err)
	}

	r.mu.Lock()
	r.resources[desc.Handle] = desc
	r.mu.Unlock()
	return desc.Handle, nil
}

func (r *registry) CreateFramebuffer(label string, attachments map[AttachmentPoint]ResourceHandle) (FramebufferHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	desc := FramebufferDesc{
		Label:       label,
		Attachments: make(map[AttachmentPoint]ResourceHandle, len(attachments)),
	}
	for p, h := range attachments {
		desc.Attachments[p] = h
	}
	if err := r.complete(&desc); err != nil {
		return 0, err
	}

	r.nextFramebuffer++
	desc.Handle = r.nextFramebuffer
	if err := r.backend.SetFramebuffer(desc); err != nil {
		return 0, fmt.Errorf("failed to create framebuffer %q: %w", label, err)
	}
	r.framebuffers[desc.Handle] = desc
	return desc.Handle, nil
}

func (r *registry) Attach(fb FramebufferHandle, point AttachmentPoint, resource ResourceHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.framebuffers[fb]
	if !ok {
		return fmt.Errorf("framebuffer %d is not registered", fb)
	}
	if current.Attachments[point] == resource {
		return nil
	}

	next := current
	next.Attachments = make(map[AttachmentPoint]ResourceHandle, len(current.Attachments))
	for p, h := range current.Attachments {
		next.Attachments[p] = h
	}
	next.Attachments[point] = resource
	if err := r.complete(&next); err != nil {
		return err
	}
	if err := r.backend.SetFramebuffer(next); err != nil {
		return fmt.Errorf("failed to attach %s of framebuffer %q: %w", point, current.Label, err)
	}
	r.framebuffers[fb] = next
	return nil
}

// complete checks the completeness rules and fills in the framebuffer size.
func (r *registry) complete(desc *FramebufferDesc) error {
	incomplete := func(format string, args ...any) error {
		return &IncompleteFramebufferError{Framebuffer: desc.Label, Reason: fmt.Sprintf(format, args...)}
	}

	if len(desc.Attachments) == 0 {
		return incomplete("no attachments")
	}

	points := make([]AttachmentPoint, 0, len(desc.Attachments))
	for p := range desc.Attachments {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })

	width, height := -1, -1
	for _, p := range points {
		if p < Color0 || p > Depth {
			return incomplete("unknown attachment point %d", int(p))
		}
		h := desc.Attachments[p]
		res, ok := r.resources[h]
		if !ok {
			return incomplete("%s references unknown resource %d", p, h)
		}
		if p == Depth && !res.Format.IsDepth() {
			return incomplete("depth attachment %s has color format %s", res.Name, res.Format)
		}
		if p != Depth && res.Format.IsDepth() {
			return incomplete("%s attachment %s has depth format %s", p, res.Name, res.Format)
		}
		if width < 0 {
			width, height = res.Width, res.Height
			continue
		}
		if res.Width != width || res.Height != height {
			return incomplete("%s attachment %s is %dx%d, expected %dx%d", p, res.Name, res.Width, res.Height, width, height)
		}
	}

	desc.Width, desc.Height = width, height
	return nil
}

func (r *registry) Resource(h ResourceHandle) (ResourceDesc, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.resources[h]
	return d, ok
}

func (r *registry) Framebuffer(h FramebufferHandle) (FramebufferDesc, bool) {
	if h == ScreenFramebuffer {
		w, hgt := r.backend.SurfaceSize()
		return FramebufferDesc{Handle: ScreenFramebuffer, Label: "screen", Width: w, Height: hgt}, true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.framebuffers[h]
	return d, ok
}

func (r *registry) Resources() []ResourceDesc {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ResourceDesc, 0, len(r.resources))
	for _, d := range r.resources {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}
