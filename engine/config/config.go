// Package config loads the demo settings from an optional TOML file. Every field defaults to the
// value the demo starts with, so a missing file or a partial one is valid.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config file read when no -config flag is given.
const DefaultPath = "aogl.toml"

// Window holds the window settings.
type Window struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	VSync  bool   `toml:"vsync"`
}

// Assets holds the asset locations.
type Assets struct {
	ShaderDir string `toml:"shader_dir"`
	Diffuse   string `toml:"diffuse"`
	Specular  string `toml:"specular"`
}

// Render holds the pipeline settings.
type Render struct {
	ShadowResolution int     `toml:"shadow_resolution"`
	SpecularPower    float32 `toml:"specular_power"`
	MarkerSize       int     `toml:"marker_size"`
}

// Config is the decoded config file.
type Config struct {
	Window Window     `toml:"window"`
	Assets Assets     `toml:"assets"`
	Render Render     `toml:"render"`
	Lights light.Set  `toml:"lights"`
	Post   frame.Post `toml:"post"`
}

// Default returns the startup settings.
func Default() Config {
	return Config{
		Window: Window{Width: 1024, Height: 768, Title: "aogl", VSync: true},
		Assets: Assets{
			ShaderDir: "shaders",
			Diffuse:   "textures/spnza_bricks_a_diff.tga",
			Specular:  "textures/spnza_bricks_a_spec.tga",
		},
		Render: Render{
			ShadowResolution: light.ShadowMapResolution,
			SpecularPower:    30,
			MarkerSize:       6,
		},
		Lights: light.DefaultSet(),
		Post:   frame.DefaultPost(),
	}
}

// ErrInvalidConfig is wrapped by every Error.
var ErrInvalidConfig = errors.New("invalid config")

// Error reports a config file that could not be read, decoded or validated.
type Error struct {
	Path string

	// Field is the dotted key of the offending value, empty for read and syntax errors.
	Field string

	// Line is the 1-based line of a syntax error, zero otherwise.
	Line int

	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("config %s:%d: %v", e.Path, e.Line, e.Err)
	case e.Field != "":
		return fmt.Sprintf("config %s: %s: %v", e.Path, e.Field, e.Err)
	default:
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
}

func (e *Error) Unwrap() []error {
	return []error{ErrInvalidConfig, e.Err}
}

// Load reads the config file at path over the defaults. A missing file yields the defaults.
//
// Parameters:
//   - path: the TOML file
//
// Returns:
//   - Config: the settings
//   - bool: whether the file existed
//   - error: a *Error describing the first problem found
func Load(path string) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), false, nil
	}
	if err != nil {
		return Config{}, false, &Error{Path: path, Err: err}
	}
	cfg, err := Parse(path, bytes.NewReader(data))
	return cfg, true, err
}

// Parse decodes a TOML document over the defaults and validates the result. Unknown keys are
// rejected. A table given in the document replaces the default one, so a [lights] table with
// only point lights removes the default spot lights.
//
// Parameters:
//   - path: the name used in errors
//   - r: the TOML document
//
// Returns:
//   - Config: the settings
//   - error: a *Error describing the first problem found
func Parse(path string, r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, &Error{Path: path, Err: err}
	}

	cfg := Default()
	if err := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(&cfg); err != nil {
		return Config{}, decodeError(path, err)
	}
	var lights struct {
		Lights *light.Set `toml:"lights"`
	}
	if err := toml.Unmarshal(data, &lights); err != nil {
		return Config{}, decodeError(path, err)
	}
	if lights.Lights != nil {
		cfg.Lights = *lights.Lights
	}

	if err := cfg.Validate(); err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return Config{}, err
	}
	return cfg, nil
}

func decodeError(path string, err error) error {
	var strict *toml.StrictMissingError
	if errors.As(err, &strict) && len(strict.Errors) > 0 {
		key := strict.Errors[0].Key()
		field := ""
		for i, k := range key {
			if i > 0 {
				field += "."
			}
			field += k
		}
		return &Error{Path: path, Field: field, Err: errors.New("unknown key")}
	}
	var de *toml.DecodeError
	if errors.As(err, &de) {
		row, _ := de.Position()
		return &Error{Path: path, Line: row, Err: err}
	}
	return &Error{Path: path, Err: err}
}

// Validate checks every setting.
//
// Returns:
//   - error: a *Error naming the first invalid field, or nil
func (c Config) Validate() error {
	invalid := func(field, reason string) error {
		return &Error{Field: field, Err: errors.New(reason)}
	}
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return invalid("window", "width and height must be positive")
	case c.Assets.ShaderDir == "":
		return invalid("assets.shader_dir", "must not be empty")
	case c.Assets.Diffuse == "" || c.Assets.Specular == "":
		return invalid("assets", "diffuse and specular textures are required")
	case c.Render.ShadowResolution <= 0 || c.Render.ShadowResolution&(c.Render.ShadowResolution-1) != 0:
		return invalid("render.shadow_resolution", "must be a power of two")
	case c.Render.SpecularPower <= 0:
		return invalid("render.specular_power", "must be positive")
	case c.Render.MarkerSize < 0:
		return invalid("render.marker_size", "must not be negative")
	case c.Post.SampleCount < 0:
		return invalid("post.sample_count", "must not be negative")
	case c.Post.Gamma < 0:
		return invalid("post.gamma", "must not be negative")
	case c.Post.Focus.Near > c.Post.Focus.Far:
		return invalid("post.focus", "near must not exceed far")
	}
	if err := c.Lights.Validate(); err != nil {
		return &Error{Field: "lights", Err: err}
	}
	return nil
}
