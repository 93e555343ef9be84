package loader

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testFS(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"shaders/blit.vert.wgsl":  {Data: []byte("// blit vertex")},
		"shaders/blit.frag.wgsl":  {Data: []byte("// blit fragment")},
		"shaders/gamma.frag.wgsl": {Data: []byte("// gamma")},
		"textures/diffuse.png":    {Data: encodePNG(t, 4, 2, color.RGBA{R: 255, A: 255})},
		"textures/specular.png":   {Data: encodePNG(t, 2, 2, color.RGBA{G: 128, A: 255})},
	}
}

func TestLoad_ReadsEveryFile(t *testing.T) {
	l := NewLoader(BackendTypeFS, WithFS(testFS(t)), WithWorkers(2))
	assets, err := l.Load(Request{
		ShaderDir: "shaders",
		Shaders:   []string{"blit.vert", "blit.frag", "gamma.frag"},
		Textures:  []string{"textures/diffuse.png", "textures/specular.png"},
	})
	require.NoError(t, err)

	assert.Equal(t, "// gamma", assets.Shaders["gamma.frag"])
	assert.Len(t, assets.Shaders, 3)

	diffuse := assets.Textures["textures/diffuse.png"]
	assert.Equal(t, uint32(4), diffuse.Width)
	assert.Equal(t, uint32(2), diffuse.Height)
	require.Len(t, diffuse.Pixels, 4*2*4)
	assert.Equal(t, []byte{255, 0, 0, 255}, diffuse.Pixels[:4])

	src, ok := l.Shader(ShaderPath("shaders", "blit.vert"))
	assert.True(t, ok)
	assert.Equal(t, "// blit vertex", src)
	_, ok = l.Texture("textures/specular.png")
	assert.True(t, ok)
}

func TestLoad_MissingFilesFail(t *testing.T) {
	l := NewLoader(BackendTypeFS, WithFS(testFS(t)))
	_, err := l.Load(Request{
		ShaderDir: "shaders",
		Shaders:   []string{"blit.vert", "missing.frag"},
		Textures:  []string{"textures/missing.tga"},
	})
	require.Error(t, err)

	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Len(t, le.Errs, 2)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "shaders/missing.frag.wgsl")
	assert.Contains(t, err.Error(), "textures/missing.tga")
}

func TestLoad_UndecodableTexture(t *testing.T) {
	fsys := testFS(t)
	fsys["textures/broken.png"] = &fstest.MapFile{Data: []byte("not an image")}
	l := NewLoader(BackendTypeFS, WithFS(fsys))

	_, err := l.Load(Request{Textures: []string{"textures/broken.png"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode texture textures/broken.png")
}

func TestLoad_ServesCachedFiles(t *testing.T) {
	fsys := testFS(t)
	l := NewLoader(BackendTypeFS, WithFS(fsys))
	req := Request{ShaderDir: "shaders", Shaders: []string{"gamma.frag"}}
	_, err := l.Load(req)
	require.NoError(t, err)

	delete(fsys, "shaders/gamma.frag.wgsl")
	assets, err := l.Load(req)
	require.NoError(t, err)
	assert.Equal(t, "// gamma", assets.Shaders["gamma.frag"])
}
