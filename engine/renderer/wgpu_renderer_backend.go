package renderer

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuTexture is a registry resource allocated on the device.
type wgpuTexture struct {
	desc    ResourceDesc
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

func (t *wgpuTexture) release() {
	if t.sampler != nil {
		t.sampler.Release()
	}
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
}

// wgpuPipelineState is a registered pipeline with its layouts and GPU resources.
type wgpuPipelineState struct {
	pipeline pipeline.Pipeline
	layouts  []*wgpu.BindGroupLayout
	provider bind_group_provider.BindGroupProvider

	// storage maps storage variable names to their group 0 binding.
	storage map[string]int
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	width, height int

	textures     map[ResourceHandle]*wgpuTexture
	framebuffers map[FramebufferHandle]FramebufferDesc
	meshes       map[string]bind_group_provider.BindGroupProvider
	pipelines    map[string]*wgpuPipelineState

	// Frame state, valid between BeginFrame and EndFrame.
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	passName     string
	writes       []bind_group_provider.BufferWrite

	errs []error
}

// wgpuRendererBackend is the WebGPU Backend rendering to a window surface.
type wgpuRendererBackend interface {
	Backend

	Device() *wgpu.Device
	Queue() *wgpu.Queue

	// ConfigureSurface is a wrapper for boilerplate logic required when calling Configure on a surface.
	//
	// Parameters:
	//   - width: the width of the surface in pixels
	//   - height: the height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// Takes effect at the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)
}

var _ wgpuRendererBackend = &wgpuRendererBackendImpl{}

// newWGPURendererBackend brings up the instance, surface, adapter and device. Failures here are
// unrecoverable and panic; the caller converts the panic into a setup error.
func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) wgpuRendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:           &sync.Mutex{},
		instance:     wgpu.CreateInstance(nil),
		presentMode:  wgpu.PresentModeFifo,
		textures:     make(map[ResourceHandle]*wgpuTexture),
		framebuffers: make(map[FramebufferHandle]FramebufferDesc),
		meshes:       make(map[string]bind_group_provider.BindGroupProvider),
		pipelines:    make(map[string]*wgpuPipelineState),
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]
	b.width, b.height = width, height

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	case PresentModeVSync:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuRendererBackendImpl) SurfaceSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *wgpuRendererBackendImpl) SurfaceFormat() wgpu.TextureFormat {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surfaceFormat
}

func (b *wgpuRendererBackendImpl) CreateTexture(desc ResourceDesc, pixels []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	usage := wgpu.TextureUsageTextureBinding
	if pixels != nil {
		usage |= wgpu.TextureUsageCopyDst
	} else {
		usage |= wgpu.TextureUsageRenderAttachment
	}

	size := wgpu.Extent3D{
		Width:              uint32(desc.Width),
		Height:             uint32(desc.Height),
		DepthOrArrayLayers: 1,
	}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         desc.Label,
		Usage:         usage,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        desc.Format.WGPU(b.surfaceFormat),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}

	if pixels != nil {
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			pixels,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(desc.Width) * 4,
				RowsPerImage: uint32(desc.Height),
			},
			&size,
		)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return err
	}

	samplerDesc := &wgpu.SamplerDescriptor{
		Label:         desc.Label + " Sampler",
		AddressModeU:  desc.Wrap.wgpu(),
		AddressModeV:  desc.Wrap.wgpu(),
		AddressModeW:  desc.Wrap.wgpu(),
		MagFilter:     desc.Filter.wgpu(),
		MinFilter:     desc.Filter.wgpu(),
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
	if desc.Compare {
		samplerDesc.Compare = wgpu.CompareFunctionLessEqual
	}
	samp, err := b.device.CreateSampler(samplerDesc)
	if err != nil {
		view.Release()
		tex.Release()
		return err
	}

	if old, ok := b.textures[desc.Handle]; ok {
		old.release()
		for _, ps := range b.pipelines {
			ps.provider.InvalidateTextureGroups()
		}
	}
	b.textures[desc.Handle] = &wgpuTexture{desc: desc, texture: tex, view: view, sampler: samp}
	return nil
}

func (b *wgpuRendererBackendImpl) SetFramebuffer(desc FramebufferDesc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for p, h := range desc.Attachments {
		if _, ok := b.textures[h]; !ok {
			return fmt.Errorf("%s references resource %d which was never created", p, h)
		}
	}
	b.framebuffers[desc.Handle] = desc
	return nil
}

func (b *wgpuRendererBackendImpl) CreateMesh(m model.Model) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(m.VertexData()) == 0 || len(m.IndexData()) == 0 {
		return fmt.Errorf("mesh %q is empty", m.Name())
	}

	vertex, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: m.Name() + " Vertex Buffer",
		Size:  uint64(len(m.VertexData())),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	if err := b.queue.WriteBuffer(vertex, 0, m.VertexData()); err != nil {
		vertex.Release()
		return err
	}

	index, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: m.Name() + " Index Buffer",
		Size:  uint64(len(m.IndexData())),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vertex.Release()
		return err
	}
	if err := b.queue.WriteBuffer(index, 0, m.IndexData()); err != nil {
		vertex.Release()
		index.Release()
		return err
	}

	if old, ok := b.meshes[m.Name()]; ok {
		old.Release()
	}
	b.meshes[m.Name()] = bind_group_provider.NewBindGroupProvider(m.Name(),
		bind_group_provider.WithMesh(vertex, index, m.IndexCount()),
	)
	return nil
}

func (b *wgpuRendererBackendImpl) RegisterPipeline(p pipeline.Pipeline) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	prog := p.Program()
	vertexShader := prog.Shader(shader.ShaderTypeVertex)
	fragmentShader := prog.Shader(shader.ShaderTypeFragment)

	vs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: vertexShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: vertexShader.Source(),
		},
	})
	if err != nil {
		return shader.NewBackendCompileError(prog.Name(), shader.ShaderTypeVertex, vertexShader.Source(), err)
	}
	fs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: fragmentShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: fragmentShader.Source(),
		},
	})
	if err != nil {
		return shader.NewBackendCompileError(prog.Name(), shader.ShaderTypeFragment, fragmentShader.Source(), err)
	}

	descriptors := prog.BindGroupLayouts()
	maxGroup := -1
	for g := range descriptors {
		maxGroup = max(maxGroup, g)
	}
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g := 0; g <= maxGroup; g++ {
		desc, ok := descriptors[g]
		if !ok {
			return &shader.LinkError{Program: prog.Name(), Log: fmt.Sprintf("bind group %d is not declared by either stage", g)}
		}
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			return &shader.LinkError{Program: prog.Name(), Log: fmt.Sprintf("bind group %d layout: %v", g, layoutErr)}
		}
		bindGroupLayouts[g] = layout
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return &shader.LinkError{Program: prog.Name(), Log: err.Error()}
	}

	targets := make([]wgpu.ColorTargetState, 0, len(p.ColorFormats()))
	for _, format := range p.ColorFormats() {
		state := wgpu.ColorTargetState{
			Format:    format,
			WriteMask: p.WriteMask(),
		}
		if p.BlendEnabled() {
			state.Blend = p.BlendState()
		}
		targets = append(targets, state)
	}

	var depthStencil *wgpu.DepthStencilState
	if p.DepthFormat() != wgpu.TextureFormatUndefined {
		depthStencil = &wgpu.DepthStencilState{
			Format:            p.DepthFormat(),
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      p.DepthCompare(),
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    prog.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return &shader.LinkError{Program: prog.Name(), Log: err.Error()}
	}
	p.SetRenderPipeline(created)

	state := &wgpuPipelineState{
		pipeline: p,
		layouts:  bindGroupLayouts,
		provider: bind_group_provider.NewBindGroupProvider(p.PipelineKey()),
		storage:  make(map[string]int),
	}
	if err := b.initUniforms(state); err != nil {
		return &shader.LinkError{Program: prog.Name(), Log: err.Error()}
	}
	b.pipelines[p.PipelineKey()] = state
	return nil
}

// initUniforms creates the dynamic-offset uniform buffer, one slot per draw, and the initial group
// 0 bind group. Storage buffers start at one 16-byte element and grow on demand.
func (b *wgpuRendererBackendImpl) initUniforms(state *wgpuPipelineState) error {
	prog := state.pipeline.Program()
	if len(state.layouts) == 0 {
		return nil
	}
	if stride := state.pipeline.UniformStride(); stride > 0 {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: state.pipeline.PipelineKey() + " Uniform Buffer",
			Size:  stride * uint64(state.pipeline.MaxDraws()),
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		state.provider.SetBuffer(shader.UniformBinding, buf)
	}
	for _, s := range prog.Slots() {
		if s.Kind != shader.SlotStorage {
			continue
		}
		if s.Group != shader.UniformGroup {
			return fmt.Errorf("storage %s must be declared in group %d", s.Name, shader.UniformGroup)
		}
		state.storage[s.Name] = s.Binding
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: state.pipeline.PipelineKey() + " " + s.Name,
			Size:  16,
			Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return err
		}
		state.provider.SetBuffer(s.Binding, buf)
	}
	return b.rebuildUniformGroup(state)
}

func (b *wgpuRendererBackendImpl) rebuildUniformGroup(state *wgpuPipelineState) error {
	desc := state.pipeline.Program().BindGroupLayouts()[shader.UniformGroup]
	entries := make([]wgpu.BindGroupEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		buf := state.provider.Buffer(int(e.Binding))
		if buf == nil {
			return fmt.Errorf("group %d binding %d has no buffer", shader.UniformGroup, e.Binding)
		}
		var size uint64 = wgpu.WholeSize
		if int(e.Binding) == shader.UniformBinding {
			size = state.pipeline.Program().UniformSize()
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: e.Binding,
			Buffer:  buf,
			Offset:  0,
			Size:    size,
		})
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   state.pipeline.PipelineKey() + " Bind Group",
		Layout:  state.layouts[shader.UniformGroup],
		Entries: entries,
	})
	if err != nil {
		return err
	}
	state.provider.SetBindGroup(bg)
	return nil
}

// textureGroup returns the group 1 bind group for the resources bound to each unit.
func (b *wgpuRendererBackendImpl) textureGroup(state *wgpuPipelineState, textures map[int]ResourceHandle) (*wgpu.BindGroup, error) {
	units := state.pipeline.Program().TextureUnits()
	if len(units) == 0 {
		return nil, nil
	}

	var key strings.Builder
	for _, tu := range units {
		fmt.Fprintf(&key, "%d:%d;", tu.Unit, textures[tu.Unit])
	}
	if bg, ok := state.provider.TextureGroup(key.String()); ok {
		return bg, nil
	}

	entries := make([]wgpu.BindGroupEntry, 0, 2*len(units))
	for _, tu := range units {
		h, bound := textures[tu.Unit]
		if !bound {
			return nil, fmt.Errorf("unit %d (%s) has no texture bound", tu.Unit, tu.Texture.Name)
		}
		tex, ok := b.textures[h]
		if !ok {
			return nil, fmt.Errorf("unit %d samples unknown resource %d", tu.Unit, h)
		}
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(tu.Texture.Binding), TextureView: tex.view})
		if tu.HasSampler {
			entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(tu.Sampler.Binding), Sampler: tex.sampler})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   state.pipeline.PipelineKey() + " Texture Bind Group",
		Layout:  state.layouts[shader.TextureGroup],
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	state.provider.CacheTextureGroup(key.String(), bg)
	return bg, nil
}

func (b *wgpuRendererBackendImpl) fail(op string, err error) error {
	gpuErr := newGPUError(op, err)
	b.errs = append(b.errs, gpuErr)
	return gpuErr
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return b.fail("BeginFrame", fmt.Errorf("previous frame surface not yet presented"))
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return b.fail("BeginFrame", err)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return b.fail("BeginFrame", err)
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return b.fail("BeginFrame", err)
	}

	for _, ps := range b.pipelines {
		ps.provider.ResetDraws()
	}
	b.frameEncoder = encoder
	b.frameSurface = surfaceTexture
	b.frameView = view
	b.writes = b.writes[:0]
	return nil
}

func (b *wgpuRendererBackendImpl) BeginPass(target PassTarget) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return b.fail("BeginPass", fmt.Errorf("pass %q begun outside a frame", target.Name))
	}
	if b.framePass != nil {
		return b.fail("BeginPass", fmt.Errorf("pass %q begun while %q is open", target.Name, b.passName))
	}

	loadOp := func(flag ClearFlags) wgpu.LoadOp {
		if target.Clear&flag != 0 {
			return wgpu.LoadOpClear
		}
		return wgpu.LoadOpLoad
	}

	desc := &wgpu.RenderPassDescriptor{Label: target.Name}
	if target.Framebuffer == ScreenFramebuffer {
		desc.ColorAttachments = []wgpu.RenderPassColorAttachment{{
			View:       b.frameView,
			LoadOp:     loadOp(ClearColor),
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: target.ClearValue,
		}}
	} else {
		fb, ok := b.framebuffers[target.Framebuffer]
		if !ok {
			return b.fail("BeginPass", fmt.Errorf("pass %q targets unknown framebuffer %d", target.Name, target.Framebuffer))
		}
		for _, p := range fb.ColorPoints() {
			desc.ColorAttachments = append(desc.ColorAttachments, wgpu.RenderPassColorAttachment{
				View:       b.textures[fb.Attachments[p]].view,
				LoadOp:     loadOp(ClearColor),
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: target.ClearValue,
			})
		}
		if h, ok := fb.Attachments[Depth]; ok {
			desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
				View:            b.textures[h].view,
				DepthLoadOp:     loadOp(ClearDepth),
				DepthStoreOp:    wgpu.StoreOpStore,
				DepthClearValue: 1.0,
			}
		}
	}

	b.framePass = b.frameEncoder.BeginRenderPass(desc)
	b.passName = target.Name
	return nil
}

func (b *wgpuRendererBackendImpl) SetViewport(v Viewport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.framePass == nil {
		b.fail("SetViewport", fmt.Errorf("viewport set outside a pass"))
		return
	}
	b.framePass.SetViewport(float32(v.X), float32(v.Y), float32(v.Width), float32(v.Height), 0, 1)
}

func (b *wgpuRendererBackendImpl) Draw(d DrawCall) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return b.fail("Draw", fmt.Errorf("draw with %q outside a pass", d.Pipeline))
	}
	state, ok := b.pipelines[d.Pipeline]
	if !ok {
		return b.fail("Draw", fmt.Errorf("pipeline %q is not registered", d.Pipeline))
	}
	mesh, ok := b.meshes[d.Mesh]
	if !ok {
		return b.fail("Draw", fmt.Errorf("mesh %q is not created", d.Mesh))
	}

	var offsets []uint32
	if stride := state.pipeline.UniformStride(); stride > 0 {
		draw := state.provider.NextDraw()
		if draw >= state.pipeline.MaxDraws() {
			return b.fail("Draw", fmt.Errorf("pipeline %q exceeded %d draws in one frame", d.Pipeline, state.pipeline.MaxDraws()))
		}
		offset := uint64(draw) * stride
		b.writes = append(b.writes, bind_group_provider.BufferWrite{
			Provider: state.provider,
			Binding:  shader.UniformBinding,
			Offset:   offset,
			Data:     append([]byte(nil), d.Uniforms...),
		})
		offsets = []uint32{uint32(offset)}
	}

	grown := false
	for name, data := range d.Storage {
		binding, ok := state.storage[name]
		if !ok {
			return b.fail("Draw", fmt.Errorf("pipeline %q has no storage buffer %q", d.Pipeline, name))
		}
		if buf := state.provider.Buffer(binding); buf == nil || buf.GetSize() < uint64(len(data)) {
			grownBuf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: d.Pipeline + " " + name,
				Size:  (uint64(len(data)) + 255) / 256 * 256,
				Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
			})
			if err != nil {
				return b.fail("Draw", err)
			}
			state.provider.SetBuffer(binding, grownBuf)
			grown = true
		}
		b.writes = append(b.writes, bind_group_provider.BufferWrite{
			Provider: state.provider,
			Binding:  binding,
			Data:     append([]byte(nil), data...),
		})
	}
	if grown {
		if err := b.rebuildUniformGroup(state); err != nil {
			return b.fail("Draw", err)
		}
	}

	textureGroup, err := b.textureGroup(state, d.Textures)
	if err != nil {
		return b.fail("Draw", fmt.Errorf("pipeline %q: %w", d.Pipeline, err))
	}

	b.framePass.SetPipeline(state.pipeline.Pipeline())
	if bg := state.provider.BindGroup(); bg != nil {
		b.framePass.SetBindGroup(shader.UniformGroup, bg, offsets)
	}
	if textureGroup != nil {
		b.framePass.SetBindGroup(shader.TextureGroup, textureGroup, nil)
	}
	b.framePass.SetVertexBuffer(0, mesh.VertexBuffer(), 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(mesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(uint32(mesh.IndexCount()), max(d.Instances, 1), 0, 0, 0)
	return nil
}

func (b *wgpuRendererBackendImpl) EndPass() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return b.fail("EndPass", fmt.Errorf("no pass is open"))
	}
	err := b.framePass.End()
	b.framePass.Release()
	b.framePass = nil
	b.passName = ""
	if err != nil {
		return b.fail("EndPass", err)
	}
	return nil
}

// EndFrame flushes the queued buffer writes, submits the frame and presents the surface.
func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return b.fail("EndFrame", fmt.Errorf("no frame is open"))
	}
	defer b.finishFrame()

	for _, w := range b.writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		if err := b.queue.WriteBuffer(buf, w.Offset, w.Data); err != nil {
			b.fail("WriteBuffer", err)
		}
	}

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		return b.fail("EndFrame", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.surface.Present()
	return nil
}

func (b *wgpuRendererBackendImpl) finishFrame() {
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
	for _, ps := range b.pipelines {
		ps.provider.ReleaseGarbage()
	}
	b.writes = b.writes[:0]
}

func (b *wgpuRendererBackendImpl) DrainErrors() []error {
	b.mu.Lock()
	defer b.mu.Unlock()
	errs := b.errs
	b.errs = nil
	return errs
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, ps := range b.pipelines {
		ps.provider.Release()
		for _, l := range ps.layouts {
			l.Release()
		}
		if rp := ps.pipeline.Pipeline(); rp != nil {
			rp.Release()
		}
		delete(b.pipelines, key)
	}
	for key, m := range b.meshes {
		m.Release()
		delete(b.meshes, key)
	}
	for h, t := range b.textures {
		t.release()
		delete(b.textures, h)
	}
	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}
