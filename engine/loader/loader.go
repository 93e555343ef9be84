// Package loader reads the startup assets: every shader source and the surface textures. Files
// are read and decoded in parallel on a worker pool, and the results are cached by path.
package loader

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// LoaderBackendType identifies where asset files are read from.
type LoaderBackendType int

const (
	// BackendTypeOS reads files through the operating system.
	BackendTypeOS LoaderBackendType = iota

	// BackendTypeFS reads files from the fs.FS given with WithFS.
	BackendTypeFS
)

// ShaderExt is appended to every shader name.
const ShaderExt = ".wgsl"

// DefaultWorkers is the size of the load pool when WithWorkers is not given.
const DefaultWorkers = 4

// Request lists the files of one Load call.
type Request struct {
	// ShaderDir holds <name>.wgsl for every entry of Shaders.
	ShaderDir string
	Shaders   []string

	// Textures are image paths.
	Textures []string
}

// Assets are the loaded files of a Request.
type Assets struct {
	// Shaders maps a shader name to its source.
	Shaders map[string]string

	// Textures maps an image path to its decoded pixels.
	Textures map[string]common.TextureStagingData
}

// LoadError collects every file a Load call failed on.
type LoadError struct {
	Errs []error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %d asset(s): %v", len(e.Errs), errors.Join(e.Errs...))
}

func (e *LoadError) Unwrap() []error {
	return e.Errs
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	backend loaderBackend
	logger  common.Logger
	workers int

	pool worker.DynamicWorkerPool

	shaderCache  map[string]string
	textureCache map[string]common.TextureStagingData
}

// Loader defines the public-facing interface for loading and caching startup assets.
type Loader interface {
	// Load reads every shader and decodes every texture of the request in parallel. Files already
	// cached are not read again. A missing or undecodable file fails the whole request.
	//
	// Parameters:
	//   - req: the files to load
	//
	// Returns:
	//   - *Assets: the loaded files
	//   - error: a *LoadError listing every failed file
	Load(req Request) (*Assets, error)

	// Shader retrieves a cached shader source by its file path.
	//
	// Parameters:
	//   - path: the shader path, <dir>/<name>.wgsl
	//
	// Returns:
	//   - string: the source
	//   - bool: false if the shader was never loaded
	Shader(path string) (string, bool)

	// Texture retrieves cached texture pixels by path.
	//
	// Parameters:
	//   - path: the image path
	//
	// Returns:
	//   - common.TextureStagingData: the pixels
	//   - bool: false if the texture was never loaded
	Texture(path string) (common.TextureStagingData, bool)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader reading through the given backend.
//
// Parameters:
//   - backendType: where files are read from
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the loader
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:           sync.RWMutex{},
		logger:       common.NewNopLogger(),
		workers:      DefaultWorkers,
		shaderCache:  make(map[string]string),
		textureCache: make(map[string]common.TextureStagingData),
	}
	for _, option := range options {
		option(l)
	}

	switch backendType {
	case BackendTypeOS:
		l.backend = osLoaderBackend{}
	case BackendTypeFS:
		if l.backend == nil {
			l.backend = osLoaderBackend{}
		}
	}

	l.pool = worker.NewDynamicWorkerPool(l.workers, 64, 1*time.Second)
	return l
}

// ShaderPath joins a shader directory and name into its file path.
func ShaderPath(dir, name string) string {
	return path.Join(dir, name+ShaderExt)
}

func (l *loader) Load(req Request) (*Assets, error) {
	start := time.Now()
	out := &Assets{
		Shaders:  make(map[string]string, len(req.Shaders)),
		Textures: make(map[string]common.TextureStagingData, len(req.Textures)),
	}

	var (
		wg     sync.WaitGroup
		resMu  sync.Mutex
		errs   []error
		taskID int
	)
	submit := func(name string, do func() error) {
		wg.Add(1)
		id := taskID
		taskID++
		l.pool.SubmitTask(worker.Task{
			ID:      id,
			Payload: name,
			Do: func() (any, error) {
				defer wg.Done()
				if err := do(); err != nil {
					resMu.Lock()
					errs = append(errs, err)
					resMu.Unlock()
					return nil, err
				}
				return nil, nil
			},
		})
	}

	for _, name := range req.Shaders {
		p := ShaderPath(req.ShaderDir, name)
		if src, ok := l.Shader(p); ok {
			out.Shaders[name] = src
			continue
		}
		submit(p, func() error {
			src, err := l.backend.ReadText(p)
			if err != nil {
				return err
			}
			l.mu.Lock()
			l.shaderCache[p] = src
			l.mu.Unlock()
			resMu.Lock()
			out.Shaders[name] = src
			resMu.Unlock()
			return nil
		})
	}

	for _, p := range req.Textures {
		if tex, ok := l.Texture(p); ok {
			out.Textures[p] = tex
			continue
		}
		submit(p, func() error {
			tex, err := l.backend.DecodeImage(p)
			if err != nil {
				return err
			}
			l.mu.Lock()
			l.textureCache[p] = tex
			l.mu.Unlock()
			resMu.Lock()
			out.Textures[p] = tex
			resMu.Unlock()
			return nil
		})
	}
	wg.Wait()

	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
		return nil, &LoadError{Errs: errs}
	}
	l.logger.Debugf("loaded %d shaders and %d textures in %s", len(out.Shaders), len(out.Textures), time.Since(start))
	return out, nil
}

func (l *loader) Shader(path string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.shaderCache[path]
	return s, ok
}

func (l *loader) Texture(path string) (common.TextureStagingData, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.textureCache[path]
	return t, ok
}
