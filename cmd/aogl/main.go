// Command aogl runs the deferred shading demo: four textured cubes on a plane lit by the lights of
// the config file, with edge detection, depth of field, gamma and debug views of every buffer.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/loader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/ui"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	debug      bool
	profile    bool
	headless   int
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("aogl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", config.DefaultPath, "TOML config file; watched for [lights] and [post] edits")
	fs.BoolVar(&o.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&o.profile, "profile", false, "log FPS and memory statistics once per second")
	fs.IntVar(&o.headless, "headless", 0, "render N frames on the recording backend, print the pass trace and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.headless < 0 {
		err := fmt.Errorf("-headless must not be negative")
		fmt.Fprintln(stderr, err)
		return o, err
	}
	return o, nil
}

// run is the whole program. It returns the process exit status: 0 on a normal exit, 1 on any
// setup error.
func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 1
	}
	logger := common.NewWriterLogger("aogl", opts.debug, stdout, stderr)

	cfg, found, err := config.Load(opts.configPath)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	if !found {
		logger.Debugf("no config at %s, using defaults", opts.configPath)
	}

	assets, err := loadAssets(cfg, logger)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}

	var win window.Window
	var backend *renderer.RecordingBackend
	r, err := bringUp(func() (renderer.Renderer, error) {
		rendererOpts := []renderer.RendererBuilderOption{renderer.WithLogger(logger)}
		if opts.headless > 0 {
			backend = renderer.NewRecordingBackend(cfg.Window.Width, cfg.Window.Height)
			rendererOpts = append(rendererOpts, renderer.WithBackend(backend))
			surface := renderer.HeadlessSurface{W: cfg.Window.Width, H: cfg.Window.Height}
			return renderer.NewRenderer(renderer.BackendTypeRecording, surface, rendererOpts...), nil
		}

		var err error
		win, err = window.NewWindow(
			window.WithTitle(cfg.Window.Title),
			window.WithWidth(cfg.Window.Width),
			window.WithHeight(cfg.Window.Height),
		)
		if err != nil {
			return nil, err
		}
		if !cfg.Window.VSync {
			rendererOpts = append(rendererOpts, renderer.WithPresentMode(renderer.PresentModeUncapped))
		}
		return renderer.NewRenderer(renderer.BackendTypeWGPU, win, rendererOpts...), nil
	})
	if win != nil {
		defer win.Close()
	}
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	defer r.Release()

	pipeline, err := deferred.New(r, assets,
		deferred.WithShadowResolution(cfg.Render.ShadowResolution),
		deferred.WithMarkerSize(cfg.Render.MarkerSize),
		deferred.WithLogger(logger),
	)
	if err != nil {
		logger.Errorf("%v", err)
		return 1
	}

	width, height := r.Backend().SurfaceSize()
	state := frame.NewState(camera.NewCamera(), cfg.Lights, cfg.Post, width, height)
	state.SpecularPower = cfg.Render.SpecularPower

	panel := newPanel(opts.configPath, found, logger)
	defer panel.Close()

	engineOpts := []engine.EngineBuilderOption{
		engine.WithLogger(logger),
		engine.WithPanel(panel),
		engine.WithProfiling(opts.profile),
	}
	if win != nil {
		engineOpts = append(engineOpts, engine.WithWindow(win))
	}
	eng := engine.NewEngine(pipeline, state, engineOpts...)

	if opts.headless > 0 {
		return runHeadless(eng, backend, opts.headless, stdout, logger)
	}
	logger.Infof("rendering %dx%d with %d lights; hold left shift and drag to move the camera, ESC quits",
		width, height, state.Lights.Count())
	eng.Run()
	return 0
}

func loadAssets(cfg config.Config, logger common.Logger) (deferred.Assets, error) {
	l := loader.NewLoader(loader.BackendTypeOS, loader.WithLogger(logger))
	loaded, err := l.Load(loader.Request{
		ShaderDir: cfg.Assets.ShaderDir,
		Shaders:   deferred.ShaderFiles(),
		Textures:  []string{cfg.Assets.Diffuse, cfg.Assets.Specular},
	})
	if err != nil {
		return deferred.Assets{}, err
	}
	return deferred.Assets{
		Shaders:  loaded.Shaders,
		Diffuse:  loaded.Textures[cfg.Assets.Diffuse],
		Specular: loaded.Textures[cfg.Assets.Specular],
	}, nil
}

// bringUp runs device and window creation, turning a panic of the WebGPU bring-up into an error.
func bringUp(fn func() (renderer.Renderer, error)) (r renderer.Renderer, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("failed to initialize the GPU device: %v", p)
		}
	}()
	return fn()
}

// newPanel watches the config file when there is one to watch.
func newPanel(path string, found bool, logger common.Logger) ui.Panel {
	if found {
		p, err := ui.NewFilePanel(path, ui.WithLogger(logger))
		if err == nil {
			return p
		}
		logger.Warnf("live config edits disabled: %v", err)
	}
	return ui.NewPanel(ui.WithLogger(logger))
}

func runHeadless(eng engine.Engine, backend *renderer.RecordingBackend, frames int, stdout io.Writer, logger common.Logger) int {
	reports := eng.RunFrames(frames)
	for _, report := range reports {
		if !report.OK() {
			logger.Warnf("frame %d: %d pass errors, %d GPU errors", report.Frame, len(report.Errors), len(report.GPUErrors))
		}
	}
	if err := backend.WriteTrace(stdout); err != nil {
		logger.Errorf("failed to write trace: %v", err)
		return 1
	}
	return 0
}
