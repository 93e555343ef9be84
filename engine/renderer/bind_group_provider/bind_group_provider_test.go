package bind_group_provider

import (
	"sync"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestNextDraw_CountsPerFrame(t *testing.T) {
	p := NewBindGroupProvider("object")
	assert.Equal(t, "object", p.Label())

	for want := 0; want < 4; want++ {
		assert.Equal(t, want, p.NextDraw())
	}
	p.ResetDraws()
	assert.Equal(t, 0, p.NextDraw())
}

func TestNextDraw_ConcurrentDrawsGetDistinctSlots(t *testing.T) {
	p := NewBindGroupProvider("blur")

	const n = 32
	var wg sync.WaitGroup
	got := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = p.NextDraw()
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool)
	for _, d := range got {
		assert.False(t, seen[d], "slot %d handed out twice", d)
		seen[d] = true
	}
	assert.Len(t, seen, n)
}

func TestMeshOption(t *testing.T) {
	vb, ib := &wgpu.Buffer{}, &wgpu.Buffer{}
	p := NewBindGroupProvider("cube", WithMesh(vb, ib, 36))

	assert.Same(t, vb, p.VertexBuffer())
	assert.Same(t, ib, p.IndexBuffer())
	assert.Equal(t, 36, p.IndexCount())

	p.SetIndexCount(6)
	assert.Equal(t, 6, p.IndexCount())
}

func TestBuffersAndTextureGroups(t *testing.T) {
	uniform := &wgpu.Buffer{}
	p := NewBindGroupProvider("light_marker", WithBuffer(0, uniform))

	assert.Same(t, uniform, p.Buffer(0))
	assert.Nil(t, p.Buffer(1))
	assert.Nil(t, p.BindGroup())

	_, ok := p.TextureGroup("0:3;")
	assert.False(t, ok)

	bg := &wgpu.BindGroup{}
	p.CacheTextureGroup("0:3;", bg)
	cached, ok := p.TextureGroup("0:3;")
	assert.True(t, ok)
	assert.Same(t, bg, cached)
}
