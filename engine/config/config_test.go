package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, found, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, Default(), cfg)
}

func TestDefault_MatchesDemo(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.Equal(t, 768, cfg.Window.Height)
	assert.Equal(t, 1024, cfg.Render.ShadowResolution)
	assert.Len(t, cfg.Lights.Spot, 2)
	assert.Empty(t, cfg.Lights.Point)
	assert.Equal(t, light.DefaultShadowBias, cfg.Post.ShadowBias)
	assert.Equal(t, int32(1), cfg.Post.SampleCount)
	assert.NoError(t, cfg.Validate())
}

func TestParse_OverridesOnlyGivenKeys(t *testing.T) {
	doc := `
[window]
title = "deferred"

[post]
gamma = 2.2
sample_count = 4

[post.focus]
far = 20.0
`
	cfg, err := Parse("test.toml", strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "deferred", cfg.Window.Title)
	assert.Equal(t, 1024, cfg.Window.Width)
	assert.InDelta(t, 2.2, cfg.Post.Gamma, 1e-6)
	assert.Equal(t, int32(4), cfg.Post.SampleCount)
	assert.Equal(t, float32(20), cfg.Post.Focus.Far)
	assert.Equal(t, float32(3), cfg.Post.Focus.Focus)
	assert.Equal(t, Default().Lights, cfg.Lights)
}

func TestParse_LightsTableReplacesDefaults(t *testing.T) {
	doc := `
[[lights.point]]
position = [0.0, 1.0, 0.0]
color = [1.0, 0.5, 0.0]
intensity = 0.8
`
	cfg, err := Parse("test.toml", strings.NewReader(doc))
	require.NoError(t, err)
	assert.Empty(t, cfg.Lights.Spot)
	require.Len(t, cfg.Lights.Point, 1)
	assert.Equal(t, mgl32.Vec3{1, 0.5, 0}, cfg.Lights.Point[0].Color)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
		line  int
	}{
		{name: "unknown key", doc: "[window]\nfullscreen = true\n", field: "window.fullscreen"},
		{name: "syntax", doc: "[window]\nwidth = \n", line: 2},
		{name: "shadow resolution", doc: "[render]\nshadow_resolution = 1000\n", field: "render.shadow_resolution"},
		{name: "invalid light", doc: "[[lights.spot]]\nposition = [0.0, 1.0, 0.0]\ndirection = [0.0, -1.0, 0.0]\ncolor = [1.0, 1.0, 1.0]\nintensity = 1.0\nangle = 120.0\n", field: "lights"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.toml", strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var ce *Error
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "bad.toml", ce.Path)
			assert.Equal(t, tt.field, ce.Field)
			assert.Equal(t, tt.line, ce.Line)
		})
	}
}

func TestParse_LightErrorsUnwrap(t *testing.T) {
	doc := "[[lights.directional]]\ndirection = [0.0, 0.0, 0.0]\ncolor = [1.0, 1.0, 1.0]\nintensity = 1.0\n"
	_, err := Parse("bad.toml", strings.NewReader(doc))
	assert.True(t, errors.Is(err, light.ErrInvalidLight))
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aogl.toml")
	require.NoError(t, os.WriteFile(path, []byte("[render]\nmarker_size = 10\n"), 0o644))

	cfg, found, err := Load(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 10, cfg.Render.MarkerSize)
}
