// package common contains plain data types and helpers shared across the engine packages.
package common

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is tightly packed RGBA data, 4 bytes per pixel, top row first.
	Pixels []byte
	Width  uint32
	Height uint32
}

// DecodeImage decodes any registered image format (PNG, JPEG, BMP, TIFF, WebP, TGA) into
// RGBA staging data.
//
// Parameters:
//   - r: the encoded image stream
//
// Returns:
//   - TextureStagingData: the decoded pixels
//   - string: the format name reported by the decoder
//   - error: an error if the stream could not be decoded
func DecodeImage(r io.Reader) (TextureStagingData, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return TextureStagingData{}, "", err
	}

	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*bounds.Dx() || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, format, nil
}

// LoadImage opens and decodes the image at path.
//
// Parameters:
//   - path: the image file path
//
// Returns:
//   - TextureStagingData: the decoded pixels
//   - error: an error naming the path if it could not be read or decoded
func LoadImage(path string) (TextureStagingData, error) {
	f, err := os.Open(path)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to open texture %s: %w", path, err)
	}
	defer f.Close()

	data, _, err := DecodeImage(f)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to decode texture %s: %w", path, err)
	}
	return data, nil
}
