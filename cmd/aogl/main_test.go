package main

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/deferred"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTexture(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 4, 4))))
}

func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	shaders, err := filepath.Abs(filepath.Join("..", "..", "shaders"))
	require.NoError(t, err)
	diffuse := filepath.Join(dir, "diffuse.png")
	specular := filepath.Join(dir, "specular.png")
	writeTexture(t, diffuse)
	writeTexture(t, specular)

	doc := fmt.Sprintf("[window]\nwidth = 320\nheight = 240\n\n[assets]\nshader_dir = %q\ndiffuse = %q\nspecular = %q\n%s",
		filepath.ToSlash(shaders), filepath.ToSlash(diffuse), filepath.ToSlash(specular), extra)
	path := filepath.Join(dir, "aogl.toml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestRun_HeadlessPrintsTrace(t *testing.T) {
	path := writeConfig(t, "")
	var stdout, stderr bytes.Buffer

	code := run([]string{"-config", path, "-headless", "2"}, &stdout, &stderr)
	require.Equal(t, 0, code, "stderr: %s", stderr.String())

	trace := stdout.String()
	last := -1
	for _, pass := range []string{
		deferred.PassShadow, deferred.PassGBuffer, deferred.PassLighting, deferred.PassSobel, deferred.PassCoc,
		deferred.PassBlurVertical, deferred.PassBlurHorizontal, deferred.PassGamma, deferred.PassLightMarkers, deferred.PassDebugBlit,
	} {
		i := strings.Index(trace, "pass "+pass+" ")
		require.GreaterOrEqual(t, i, 0, "pass %s missing from trace:\n%s", pass, trace)
		assert.Greater(t, i, last, "pass %s out of order", pass)
		last = i
	}
	assert.Equal(t, 1, strings.Count(trace, "frame "), "only the last frame is printed")
	assert.NotContains(t, stderr.String(), "ERROR")
}

func TestRun_SetupErrorsExitOne(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
		want string
	}{
		{
			name: "bad config",
			args: func(t *testing.T) []string {
				return []string{"-config", writeConfig(t, "\n[render]\nshadow_resolution = 3\n"), "-headless", "1"}
			},
			want: "render.shadow_resolution",
		},
		{
			name: "missing texture",
			args: func(t *testing.T) []string {
				path := writeConfig(t, "")
				require.NoError(t, os.Remove(filepath.Join(filepath.Dir(path), "specular.png")))
				return []string{"-config", path, "-headless", "1"}
			},
			want: "specular.png",
		},
		{
			name: "bad flag",
			args: func(t *testing.T) []string { return []string{"-headless", "-3"} },
			want: "-headless must not be negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, 1, run(tt.args(t), &stdout, &stderr))
			assert.Contains(t, stderr.String(), tt.want)
		})
	}
}
