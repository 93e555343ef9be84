package common

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

const (
	tgaTypeTrueColor    = 2
	tgaTypeGray         = 3
	tgaTypeTrueColorRLE = 10
	tgaTypeGrayRLE      = 11

	tgaHeaderSize = 18

	// tgaTopOrigin is set in the descriptor byte when rows are stored top row first.
	tgaTopOrigin = 0x20
)

// ErrUnsupportedTGA is returned for color-mapped images and pixel depths other than 8, 24 and 32 bits.
var ErrUnsupportedTGA = errors.New("tga: unsupported image")

type tgaHeader struct {
	idLength     int
	colorMapType byte
	imageType    byte
	width        int
	height       int
	bitsPerPixel int
	descriptor   byte
}

func init() {
	for _, magic := range []string{"?\x00\x02", "?\x00\x03", "?\x00\x0a", "?\x00\x0b"} {
		image.RegisterFormat("tga", magic, DecodeTGA, DecodeTGAConfig)
	}
}

func readTGAHeader(r io.Reader) (tgaHeader, error) {
	var b [tgaHeaderSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return tgaHeader{}, fmt.Errorf("tga: reading header: %w", err)
	}
	h := tgaHeader{
		idLength:     int(b[0]),
		colorMapType: b[1],
		imageType:    b[2],
		width:        int(b[12]) | int(b[13])<<8,
		height:       int(b[14]) | int(b[15])<<8,
		bitsPerPixel: int(b[16]),
		descriptor:   b[17],
	}
	if h.colorMapType != 0 {
		return h, fmt.Errorf("%w: color map type %d", ErrUnsupportedTGA, h.colorMapType)
	}
	switch h.imageType {
	case tgaTypeTrueColor, tgaTypeTrueColorRLE:
		if h.bitsPerPixel != 24 && h.bitsPerPixel != 32 {
			return h, fmt.Errorf("%w: %d bits per pixel", ErrUnsupportedTGA, h.bitsPerPixel)
		}
	case tgaTypeGray, tgaTypeGrayRLE:
		if h.bitsPerPixel != 8 {
			return h, fmt.Errorf("%w: %d bits per gray pixel", ErrUnsupportedTGA, h.bitsPerPixel)
		}
	default:
		return h, fmt.Errorf("%w: image type %d", ErrUnsupportedTGA, h.imageType)
	}
	if h.width == 0 || h.height == 0 {
		return h, fmt.Errorf("%w: empty image", ErrUnsupportedTGA)
	}
	return h, nil
}

// DecodeTGAConfig returns the dimensions of a TGA image without decoding its pixels.
func DecodeTGAConfig(r io.Reader) (image.Config, error) {
	h, err := readTGAHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.RGBAModel, Width: h.width, Height: h.height}, nil
}

// DecodeTGA decodes an uncompressed or run-length encoded true-color or grayscale TGA image.
//
// Parameters:
//   - r: the TGA stream
//
// Returns:
//   - image.Image: an *image.RGBA with the top row first
//   - error: an error if the header is unsupported or the stream is truncated
func DecodeTGA(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	h, err := readTGAHeader(br)
	if err != nil {
		return nil, err
	}
	if _, err := br.Discard(h.idLength); err != nil {
		return nil, fmt.Errorf("tga: skipping image id: %w", err)
	}

	bpp := h.bitsPerPixel / 8
	raw := make([]byte, h.width*h.height*bpp)
	rle := h.imageType == tgaTypeTrueColorRLE || h.imageType == tgaTypeGrayRLE
	if rle {
		err = readTGARunLength(br, raw, bpp)
	} else {
		_, err = io.ReadFull(br, raw)
	}
	if err != nil {
		return nil, fmt.Errorf("tga: reading pixels: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, h.width, h.height))
	for y := 0; y < h.height; y++ {
		dstY := y
		if h.descriptor&tgaTopOrigin == 0 {
			dstY = h.height - 1 - y
		}
		src := raw[y*h.width*bpp:]
		dst := img.Pix[dstY*img.Stride:]
		for x := 0; x < h.width; x++ {
			p := src[x*bpp:]
			d := dst[x*4:]
			switch bpp {
			case 1:
				d[0], d[1], d[2], d[3] = p[0], p[0], p[0], 0xff
			case 3:
				d[0], d[1], d[2], d[3] = p[2], p[1], p[0], 0xff
			case 4:
				d[0], d[1], d[2], d[3] = p[2], p[1], p[0], p[3]
			}
		}
	}
	return img, nil
}

// readTGARunLength expands run-length packets into dst. A packet header with the high bit set
// repeats the following pixel (header&0x7f)+1 times; otherwise that many raw pixels follow.
func readTGARunLength(r *bufio.Reader, dst []byte, bpp int) error {
	pixel := make([]byte, bpp)
	for i := 0; i < len(dst); {
		header, err := r.ReadByte()
		if err != nil {
			return err
		}
		count := int(header&0x7f) + 1
		if i+count*bpp > len(dst) {
			return fmt.Errorf("run of %d pixels overflows image", count)
		}
		if header&0x80 != 0 {
			if _, err := io.ReadFull(r, pixel); err != nil {
				return err
			}
			for range count {
				copy(dst[i:], pixel)
				i += bpp
			}
			continue
		}
		if _, err := io.ReadFull(r, dst[i:i+count*bpp]); err != nil {
			return err
		}
		i += count * bpp
	}
	return nil
}
