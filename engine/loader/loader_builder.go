package loader

import (
	"io/fs"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithFS is an option builder that reads files from fsys. It takes effect with BackendTypeFS.
//
// Parameters:
//   - fsys: the file system, paths are slash-separated and unrooted
//
// Returns:
//   - LoaderBuilderOption: a function that applies the file system option to a loader
func WithFS(fsys fs.FS) LoaderBuilderOption {
	return func(l *loader) {
		l.backend = fsLoaderBackend{fsys: fsys}
	}
}

// WithWorkers is an option builder that sets the maximum number of concurrent file reads.
//
// Parameters:
//   - n: the worker count, values below 1 are ignored
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker count to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger common.Logger) LoaderBuilderOption {
	return func(l *loader) {
		l.logger = logger
	}
}
