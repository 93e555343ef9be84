package bind_group_provider

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	mu *sync.Mutex

	// label is a debug label prefixed to every GPU object created for the provider.
	label string

	// bindGroup is the group 0 bind group: the per-draw uniform slice and storage buffers.
	bindGroup *wgpu.BindGroup

	// buffers holds the group 0 buffers keyed by binding index.
	buffers map[int]*wgpu.Buffer

	// textureGroups caches group 1 bind groups keyed by the resources bound to each unit.
	textureGroups map[string]*wgpu.BindGroup

	// vertexBuffer, indexBuffer and indexCount are set on mesh providers.
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int

	// draws counts the draws issued against the provider in the current frame.
	draws int

	// garbage holds replaced GPU objects until the frame that referenced them is submitted.
	garbage []releaser
}

type releaser interface {
	Release()
}

// BindGroupProvider holds the GPU objects backing one pipeline or one mesh. Pipeline providers
// own the group 0 buffers (the dynamic-offset uniform buffer and any storage buffers) and a cache
// of group 1 texture bind groups. Mesh providers own a vertex and an index buffer.
//
// Usage pattern:
//  1. The backend creates a provider when a pipeline is registered or a mesh is created
//  2. The backend stores the created buffers and bind groups on the provider
//  3. Each draw takes the next uniform slot with NextDraw and queues a BufferWrite
//  4. ResetDraws runs at the start of every frame; ReleaseGarbage after each submit
type BindGroupProvider interface {
	// Release releases every GPU object held by this provider.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the group 0 bind group, or nil if not created.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// SetBindGroup replaces the group 0 bind group. The previous one is released after the
	// current frame is submitted.
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// Buffer returns the buffer at a group 0 binding, or nil if not created.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// SetBuffer stores the buffer for a group 0 binding. A replaced buffer is released after the
	// current frame is submitted.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// TextureGroup returns a cached group 1 bind group.
	//
	// Parameters:
	//   - key: the key built from the bound resources
	//
	// Returns:
	//   - *wgpu.BindGroup: the cached bind group
	//   - bool: false if nothing is cached under the key
	TextureGroup(key string) (*wgpu.BindGroup, bool)

	// CacheTextureGroup stores a group 1 bind group under a key.
	CacheTextureGroup(key string, bg *wgpu.BindGroup)

	// InvalidateTextureGroups drops every cached group 1 bind group, used when a resource they
	// reference is recreated.
	InvalidateTextureGroups()

	// VertexBuffer returns the GPU vertex buffer, or nil if not initialized.
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the GPU index buffer, or nil if not initialized.
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the number of indices for draw calls.
	IndexCount() int

	// SetVertexBuffer stores the GPU vertex buffer.
	SetVertexBuffer(buf *wgpu.Buffer)

	// SetIndexBuffer stores the GPU index buffer.
	SetIndexBuffer(buf *wgpu.Buffer)

	// SetIndexCount sets the number of indices for draw calls.
	SetIndexCount(count int)

	// NextDraw reserves the next per-draw uniform slot of the frame.
	//
	// Returns:
	//   - int: the zero-based draw index within the frame
	NextDraw() int

	// ResetDraws restarts the per-frame draw counter.
	ResetDraws()

	// ReleaseGarbage releases objects replaced during the frame that was just submitted.
	ReleaseGarbage()
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		mu:            &sync.Mutex{},
		label:         label,
		buffers:       make(map[int]*wgpu.Buffer),
		textureGroups: make(map[string]*wgpu.BindGroup),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bindGroup != nil && p.bindGroup != bg {
		p.garbage = append(p.garbage, p.bindGroup)
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffers[binding]
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if old, ok := p.buffers[binding]; ok && old != nil && old != buf {
		p.garbage = append(p.garbage, old)
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) TextureGroup(key string) (*wgpu.BindGroup, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	bg, ok := p.textureGroups[key]
	return bg, ok
}

func (p *bindGroupProvider) CacheTextureGroup(key string, bg *wgpu.BindGroup) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.textureGroups[key] = bg
}

func (p *bindGroupProvider) InvalidateTextureGroups() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, bg := range p.textureGroups {
		p.garbage = append(p.garbage, bg)
		delete(p.textureGroups, key)
	}
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer) {
	p.vertexBuffer = buf
}

func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer) {
	p.indexBuffer = buf
}

func (p *bindGroupProvider) SetIndexCount(count int) {
	p.indexCount = count
}

func (p *bindGroupProvider) NextDraw() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	d := p.draws
	p.draws++
	return d
}

func (p *bindGroupProvider) ResetDraws() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draws = 0
}

func (p *bindGroupProvider) ReleaseGarbage() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, g := range p.garbage {
		g.Release()
	}
	p.garbage = p.garbage[:0]
}

func (p *bindGroupProvider) Release() {
	p.ReleaseGarbage()

	p.mu.Lock()
	defer p.mu.Unlock()
	for key, bg := range p.textureGroups {
		bg.Release()
		delete(p.textureGroups, key)
	}
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
}
