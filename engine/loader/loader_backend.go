package loader

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// loaderBackend reads raw asset files. Concrete implementations read from the operating system or
// from an fs.FS.
type loaderBackend interface {
	// ReadText reads a whole text file.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - string: the file contents
	//   - error: an error naming the path if it could not be read
	ReadText(path string) (string, error)

	// DecodeImage opens and decodes an image file into RGBA pixels.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - common.TextureStagingData: the decoded pixels
	//   - error: an error naming the path if it could not be read or decoded
	DecodeImage(path string) (common.TextureStagingData, error)
}

// osLoaderBackend reads from the working directory.
type osLoaderBackend struct{}

var _ loaderBackend = osLoaderBackend{}

func (osLoaderBackend) ReadText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(b), nil
}

func (osLoaderBackend) DecodeImage(path string) (common.TextureStagingData, error) {
	return common.LoadImage(path)
}

// fsLoaderBackend reads from a file system such as an embed.FS or a test fstest.MapFS.
type fsLoaderBackend struct {
	fsys fs.FS
}

var _ loaderBackend = fsLoaderBackend{}

func (b fsLoaderBackend) ReadText(path string) (string, error) {
	data, err := fs.ReadFile(b.fsys, path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

func (b fsLoaderBackend) DecodeImage(path string) (common.TextureStagingData, error) {
	f, err := b.fsys.Open(path)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("failed to open texture %s: %w", path, err)
	}
	defer f.Close()

	data, _, err := common.DecodeImage(f)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("failed to decode texture %s: %w", path, err)
	}
	return data, nil
}
