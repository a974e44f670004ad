package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func TestCanonical(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 110, 60))
	for y := 10; y < 60; y++ {
		for x := 10; x < 110; x++ {
			src.SetNRGBA(x, y, color.NRGBA{20, 120, 200, 90})
		}
	}
	out := Canonical(src)
	if out.Bounds() != image.Rect(0, 0, CanonicalSize, CanonicalSize) {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	c := out.NRGBAAt(256, 256)
	if c.A != 255 {
		t.Errorf("alpha = %d, want 255", c.A)
	}
	if c.R != 20 || c.G != 120 || c.B != 200 {
		t.Errorf("color = %v, want the stored channels of the uniform source", c)
	}
}

func TestPlaceholder(t *testing.T) {
	p := Placeholder()
	if p.Bounds().Dx() != CanonicalSize || p.Bounds().Dy() != CanonicalSize {
		t.Fatalf("bounds = %v", p.Bounds())
	}
	if got := p.NRGBAAt(0, 0); got != PlaceholderColor {
		t.Errorf("color = %v, want %v", got, PlaceholderColor)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	data, err := EncodePNG(Placeholder())
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	img, format, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if format != "png" || img.Bounds().Dx() != CanonicalSize {
		t.Errorf("format=%s bounds=%v", format, img.Bounds())
	}

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, Placeholder(), nil); err != nil {
		t.Fatalf("jpeg: %v", err)
	}
	if _, format, err := Decode(jpg.Bytes()); err != nil || format != "jpeg" {
		t.Errorf("jpeg decode: format=%s err=%v", format, err)
	}

	if _, _, err := Decode(nil); err == nil {
		t.Error("expected error for empty data")
	}
	if _, _, err := Decode([]byte("not an image")); err == nil {
		t.Error("expected error for garbage data")
	}
}

// pngHeader returns a PNG whose IHDR claims w x h with no pixel data behind it.
func pngHeader(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	// IHDR data starts after the 8 byte signature, length and type
	ihdr := data[16:29]
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	crc := crc32.NewIEEE()
	crc.Write(data[12:29])
	binary.BigEndian.PutUint32(data[29:33], crc.Sum32())
	return data[:33]
}

func TestDecodeRejectsOversized(t *testing.T) {
	_, _, err := Decode(pngHeader(t, 30000, 30000))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 64, 32))); err != nil {
		t.Fatal(err)
	}
	img, format, err := Decode(buf.Bytes())
	if err != nil || format != "png" || img.Bounds().Dx() != 64 {
		t.Errorf("small png: err=%v format=%q", err, format)
	}
}
