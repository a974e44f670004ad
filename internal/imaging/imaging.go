// Package imaging decodes, normalises and encodes the images that travel
// between the front ends and the simulation backend.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// CanonicalSize is the edge length all compared images are normalised to.
const CanonicalSize = 512

// PlaceholderColor fills the before image when no baseline could be fetched.
var PlaceholderColor = color.NRGBA{230, 230, 230, 255}

// MaxPixels caps width*height before an image is fully decoded.
const MaxPixels = 40_000_000

// ErrTooLarge is returned by Decode for images over MaxPixels.
var ErrTooLarge = errors.New("image dimensions too large")

// Decode reads any registered image format. The header is checked first so
// oversized images are refused before their pixels are allocated.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// Canonical resizes img to CanonicalSize x CanonicalSize and drops its alpha
// channel, so before and after images line up pixel for pixel.
func Canonical(img image.Image) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, CanonicalSize, CanonicalSize))
	src := opaque(img)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// opaque copies img into an NRGBA with every alpha set to 255, keeping the
// stored color channels as they are.
func opaque(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		// straight copy, draw.Draw would premultiply and round
		for y := 0; y < b.Dy(); y++ {
			i := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(out.Pix[y*out.Stride:y*out.Stride+4*b.Dx()], src.Pix[i:i+4*b.Dx()])
		}
	} else {
		draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	}
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}

// Placeholder is the neutral stand-in for an unavailable baseline.
func Placeholder() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, CanonicalSize, CanonicalSize))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: PlaceholderColor}, image.Point{}, draw.Src)
	return img
}

// EncodePNG PNGとしてエンコード
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Clone copies img into a fresh RGBA.
func Clone(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
