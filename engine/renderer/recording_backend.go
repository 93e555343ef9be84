package renderer

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/google/uuid"
)

// EventKind identifies a recorded backend call.
type EventKind int

const (
	EventCreateTexture EventKind = iota + 1
	EventSetFramebuffer
	EventCreateMesh
	EventRegisterPipeline
	EventBeginFrame
	EventBeginPass
	EventViewport
	EventDraw
	EventEndPass
	EventEndFrame
)

func (k EventKind) String() string {
	switch k {
	case EventCreateTexture:
		return "create_texture"
	case EventSetFramebuffer:
		return "set_framebuffer"
	case EventCreateMesh:
		return "create_mesh"
	case EventRegisterPipeline:
		return "register_pipeline"
	case EventBeginFrame:
		return "begin_frame"
	case EventBeginPass:
		return "begin_pass"
	case EventViewport:
		return "viewport"
	case EventDraw:
		return "draw"
	case EventEndPass:
		return "end_pass"
	case EventEndFrame:
		return "end_frame"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one recorded backend call.
type Event struct {
	Seq   uint64
	Frame uuid.UUID
	Kind  EventKind

	// Pass is the name of the pass open when the event was recorded.
	Pass string

	Framebuffer FramebufferHandle
	Clear       ClearFlags
	Viewport    Viewport
	Resource    ResourceHandle

	Pipeline  string
	Mesh      string
	Instances uint32
	Uniforms  []byte
	Storage   map[string][]byte
	Textures  map[int]ResourceHandle
}

// RecordingBackend is a Backend that performs no GPU work and records every call in order with a
// monotonically increasing sequence number. It tracks which draw wrote and read each resource and
// raises validation errors for the misuse a GPU driver would reject.
type RecordingBackend struct {
	mu *sync.Mutex

	width, height int
	format        wgpu.TextureFormat

	seq    uint64
	frame  uuid.UUID
	events []Event

	resources    map[ResourceHandle]ResourceDesc
	framebuffers map[FramebufferHandle]FramebufferDesc
	meshes       map[string]model.Model
	pipelines    map[string]pipeline.Pipeline

	inFrame bool
	pass    *PassTarget

	writes map[ResourceHandle][]uint64
	reads  map[ResourceHandle][]uint64

	errs []error
}

var _ Backend = &RecordingBackend{}

// NewRecordingBackend creates a RecordingBackend whose surface has the given size.
//
// Parameters:
//   - width: the surface width in pixels
//   - height: the surface height in pixels
//
// Returns:
//   - *RecordingBackend: the backend
func NewRecordingBackend(width, height int) *RecordingBackend {
	return &RecordingBackend{
		mu:           &sync.Mutex{},
		width:        width,
		height:       height,
		format:       wgpu.TextureFormatBGRA8Unorm,
		resources:    make(map[ResourceHandle]ResourceDesc),
		framebuffers: make(map[FramebufferHandle]FramebufferDesc),
		meshes:       make(map[string]model.Model),
		pipelines:    make(map[string]pipeline.Pipeline),
		writes:       make(map[ResourceHandle][]uint64),
		reads:        make(map[ResourceHandle][]uint64),
	}
}

func (b *RecordingBackend) record(e Event) uint64 {
	b.seq++
	e.Seq = b.seq
	e.Frame = b.frame
	if b.pass != nil {
		e.Pass = b.pass.Name
	}
	b.events = append(b.events, e)
	return e.Seq
}

func (b *RecordingBackend) fail(op, format string, args ...any) error {
	err := &GPUError{Class: ErrorClassValidation, Op: op, Err: fmt.Errorf(format, args...)}
	b.errs = append(b.errs, err)
	return err
}

func (b *RecordingBackend) SurfaceSize() (int, int) {
	return b.width, b.height
}

func (b *RecordingBackend) SurfaceFormat() wgpu.TextureFormat {
	return b.format
}

func (b *RecordingBackend) CreateTexture(desc ResourceDesc, pixels []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resources[desc.Handle] = desc
	b.record(Event{Kind: EventCreateTexture, Resource: desc.Handle})
	return nil
}

func (b *RecordingBackend) SetFramebuffer(desc FramebufferDesc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for p, h := range desc.Attachments {
		if _, ok := b.resources[h]; !ok {
			return fmt.Errorf("%s references resource %d which was never created", p, h)
		}
	}
	b.framebuffers[desc.Handle] = desc
	b.record(Event{Kind: EventSetFramebuffer, Framebuffer: desc.Handle})
	return nil
}

func (b *RecordingBackend) CreateMesh(m model.Model) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m.IndexCount() == 0 || m.VertexCount() == 0 {
		return fmt.Errorf("mesh %q is empty", m.Name())
	}
	b.meshes[m.Name()] = m
	b.record(Event{Kind: EventCreateMesh, Mesh: m.Name()})
	return nil
}

func (b *RecordingBackend) RegisterPipeline(p pipeline.Pipeline) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pipelines[p.PipelineKey()] = p
	b.record(Event{Kind: EventRegisterPipeline, Pipeline: p.PipelineKey()})
	return nil
}

func (b *RecordingBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFrame {
		return b.fail("BeginFrame", "previous frame not ended")
	}
	b.inFrame = true
	b.frame = uuid.New()
	b.record(Event{Kind: EventBeginFrame})
	return nil
}

func (b *RecordingBackend) BeginPass(target PassTarget) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return b.fail("BeginPass", "pass %q begun outside a frame", target.Name)
	}
	if b.pass != nil {
		return b.fail("BeginPass", "pass %q begun while %q is open", target.Name, b.pass.Name)
	}
	if target.Framebuffer != ScreenFramebuffer {
		if _, ok := b.framebuffers[target.Framebuffer]; !ok {
			return b.fail("BeginPass", "pass %q targets unknown framebuffer %d", target.Name, target.Framebuffer)
		}
	}
	t := target
	b.pass = &t
	b.record(Event{Kind: EventBeginPass, Framebuffer: target.Framebuffer, Clear: target.Clear})
	return nil
}

func (b *RecordingBackend) SetViewport(v Viewport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pass == nil {
		b.fail("SetViewport", "viewport set outside a pass")
		return
	}
	b.record(Event{Kind: EventViewport, Viewport: v})
}

func (b *RecordingBackend) Draw(d DrawCall) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pass == nil {
		return b.fail("Draw", "draw with %q outside a pass", d.Pipeline)
	}
	p, ok := b.pipelines[d.Pipeline]
	if !ok {
		return b.fail("Draw", "pipeline %q is not registered", d.Pipeline)
	}
	if _, ok := b.meshes[d.Mesh]; !ok {
		return b.fail("Draw", "mesh %q is not created", d.Mesh)
	}
	if size := p.Program().UniformSize(); uint64(len(d.Uniforms)) != size {
		return b.fail("Draw", "pipeline %q expects %d uniform bytes, got %d", d.Pipeline, size, len(d.Uniforms))
	}
	if err := b.checkTargets(p); err != nil {
		return err
	}

	fb := b.framebuffers[b.pass.Framebuffer]
	for _, tu := range p.Program().TextureUnits() {
		h, bound := d.Textures[tu.Unit]
		if !bound {
			return b.fail("Draw", "pipeline %q unit %d (%s) has no texture bound", d.Pipeline, tu.Unit, tu.Texture.Name)
		}
		res, ok := b.resources[h]
		if !ok {
			return b.fail("Draw", "pipeline %q unit %d samples unknown resource %d", d.Pipeline, tu.Unit, h)
		}
		if tu.Depth && !res.Format.IsDepth() {
			return b.fail("Draw", "pipeline %q unit %d expects a depth texture, %s is %s", d.Pipeline, tu.Unit, res.Name, res.Format)
		}
		for _, w := range fb.Writes() {
			if w == h {
				return b.fail("Draw", "pass %q samples %s while rendering into it", b.pass.Name, res.Name)
			}
		}
	}

	seq := b.record(Event{
		Kind:      EventDraw,
		Pipeline:  d.Pipeline,
		Mesh:      d.Mesh,
		Instances: d.Instances,
		Uniforms:  append([]byte(nil), d.Uniforms...),
		Storage:   copyStorage(d.Storage),
		Textures:  copyTextures(d.Textures),
	})
	for _, h := range d.Textures {
		b.reads[h] = append(b.reads[h], seq)
	}
	for _, h := range fb.Writes() {
		b.writes[h] = append(b.writes[h], seq)
	}
	return nil
}

// checkTargets compares the pipeline's target formats against the open pass.
func (b *RecordingBackend) checkTargets(p pipeline.Pipeline) error {
	var colors []wgpu.TextureFormat
	depth := wgpu.TextureFormatUndefined
	if b.pass.Framebuffer == ScreenFramebuffer {
		colors = []wgpu.TextureFormat{b.format}
	} else {
		fb := b.framebuffers[b.pass.Framebuffer]
		for _, pt := range fb.ColorPoints() {
			colors = append(colors, b.resources[fb.Attachments[pt]].Format.WGPU(b.format))
		}
		if h, ok := fb.Attachments[Depth]; ok {
			depth = b.resources[h].Format.WGPU(b.format)
		}
	}

	want := p.ColorFormats()
	if len(want) != len(colors) {
		return b.fail("Draw", "pipeline %q has %d color targets, pass %q has %d", p.PipelineKey(), len(want), b.pass.Name, len(colors))
	}
	for i := range want {
		if want[i] != colors[i] {
			return b.fail("Draw", "pipeline %q color target %d format mismatch in pass %q", p.PipelineKey(), i, b.pass.Name)
		}
	}
	if p.DepthFormat() != depth {
		return b.fail("Draw", "pipeline %q depth format mismatch in pass %q", p.PipelineKey(), b.pass.Name)
	}
	return nil
}

func (b *RecordingBackend) EndPass() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pass == nil {
		return b.fail("EndPass", "no pass is open")
	}
	b.record(Event{Kind: EventEndPass, Framebuffer: b.pass.Framebuffer})
	b.pass = nil
	return nil
}

func (b *RecordingBackend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pass != nil {
		return b.fail("EndFrame", "pass %q still open", b.pass.Name)
	}
	if !b.inFrame {
		return b.fail("EndFrame", "no frame is open")
	}
	b.record(Event{Kind: EventEndFrame})
	b.inFrame = false
	return nil
}

func (b *RecordingBackend) DrainErrors() []error {
	b.mu.Lock()
	defer b.mu.Unlock()
	errs := b.errs
	b.errs = nil
	return errs
}

func (b *RecordingBackend) Release() {}

// InjectError queues a runtime error as if the GPU had raised it during the frame.
//
// Parameters:
//   - class: the error class
//   - err: the error
func (b *RecordingBackend) InjectError(class ErrorClass, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errs = append(b.errs, &GPUError{Class: class, Op: "injected", Err: err})
}

// Events returns a copy of every recorded event.
func (b *RecordingBackend) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.events...)
}

// FrameEvents returns the events of the most recent frame, from BeginFrame to EndFrame.
func (b *RecordingBackend) FrameEvents() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	start := -1
	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].Kind == EventBeginFrame {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}
	return append([]Event(nil), b.events[start:]...)
}

// Draws returns the draw events recorded inside the named pass across every frame.
func (b *RecordingBackend) Draws(pass string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []Event
	for _, e := range b.events {
		if e.Kind == EventDraw && e.Pass == pass {
			out = append(out, e)
		}
	}
	return out
}

// PassOrder returns the names of the passes begun in the most recent frame, in order.
func (b *RecordingBackend) PassOrder() []string {
	var out []string
	for _, e := range b.FrameEvents() {
		if e.Kind == EventBeginPass {
			out = append(out, e.Pass)
		}
	}
	return out
}

// Writes returns the sequence numbers of every draw that rendered into the resource.
func (b *RecordingBackend) Writes(h ResourceHandle) []uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]uint64(nil), b.writes[h]...)
}

// Reads returns the sequence numbers of every draw that sampled the resource.
func (b *RecordingBackend) Reads(h ResourceHandle) []uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]uint64(nil), b.reads[h]...)
}

// Reset clears the recorded events and access history, keeping created objects.
func (b *RecordingBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
	b.writes = make(map[ResourceHandle][]uint64)
	b.reads = make(map[ResourceHandle][]uint64)
	b.errs = nil
}

// WriteTrace prints the most recent frame as one line per pass with its draws.
//
// Parameters:
//   - w: the destination
//
// Returns:
//   - error: the first write error
func (b *RecordingBackend) WriteTrace(w io.Writer) error {
	var sb strings.Builder
	for _, e := range b.FrameEvents() {
		switch e.Kind {
		case EventBeginFrame:
			fmt.Fprintf(&sb, "frame %s\n", e.Frame)
		case EventBeginPass:
			fmt.Fprintf(&sb, "  %3d pass %-16s fb=%d clear=%s\n", e.Seq, e.Pass, e.Framebuffer, clearString(e.Clear))
		case EventViewport:
			fmt.Fprintf(&sb, "  %3d   viewport %d,%d %dx%d\n", e.Seq, e.Viewport.X, e.Viewport.Y, e.Viewport.Width, e.Viewport.Height)
		case EventDraw:
			fmt.Fprintf(&sb, "  %3d   draw %-18s %-6s x%d%s\n", e.Seq, e.Pipeline, e.Mesh, e.Instances, texturesString(e.Textures))
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func clearString(c ClearFlags) string {
	var parts []string
	if c&ClearColor != 0 {
		parts = append(parts, "color")
	}
	if c&ClearDepth != 0 {
		parts = append(parts, "depth")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

func texturesString(t map[int]ResourceHandle) string {
	if len(t) == 0 {
		return ""
	}
	units := make([]int, 0, len(t))
	for u := range t {
		units = append(units, u)
	}
	sort.Ints(units)
	var sb strings.Builder
	sb.WriteString(" units")
	for _, u := range units {
		fmt.Fprintf(&sb, " %d=%d", u, t[u])
	}
	return sb.String()
}

func copyStorage(s map[string][]byte) map[string][]byte {
	if s == nil {
		return nil
	}
	out := make(map[string][]byte, len(s))
	for k, v := range s {
		out[k] = append([]byte(nil), v...)
	}
	return out
}

func copyTextures(t map[int]ResourceHandle) map[int]ResourceHandle {
	if t == nil {
		return nil
	}
	out := make(map[int]ResourceHandle, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
