package embeds

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
	"log"
	"os"
)

var embedImageDebugLogging = os.Getenv("EMBED_IMAGE_DEBUG_LOG") == "1"

func embedImageDebugf(format string, args ...interface{}) {
	if !embedImageDebugLogging {
		return
	}
	log.Printf(format, args...)
}

// CombineImages 2つの画像を横に並べて結合する
func CombineImages(left, right image.Image) (*bytes.Buffer, error) {
	lb := left.Bounds()
	rb := right.Bounds()

	width := lb.Dx() + rb.Dx()
	height := lb.Dy()
	if rb.Dy() > height {
		height = rb.Dy()
	}
	embedImageDebugf("CombineImages: %dx%d + %dx%d -> %dx%d", lb.Dx(), lb.Dy(), rb.Dx(), rb.Dy(), width, height)

	combined := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(combined, image.Rect(0, 0, lb.Dx(), lb.Dy()), left, lb.Min, draw.Src)
	draw.Draw(combined, image.Rect(lb.Dx(), 0, width, rb.Dy()), right, rb.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, combined); err != nil {
		log.Printf("Failed to encode combined image: %v", err)
		return nil, err
	}
	embedImageDebugf("Combined image encoded: %d bytes", buf.Len())
	return &buf, nil
}
