package embeds

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
)

const (
	transitionHoldDelay  = 120 // 1/100秒
	transitionFadeDelay  = 8
	transitionFadeFrames = 6
)

// BuildTransitionGIF before から after へのクロスフェードGIFを生成
// 両端のフレームは長めに表示する
func BuildTransitionGIF(before, after image.Image) (*bytes.Buffer, error) {
	if before == nil || after == nil {
		return nil, errors.New("transition: missing frame")
	}
	bounds := before.Bounds()
	if after.Bounds().Dx() != bounds.Dx() || after.Bounds().Dy() != bounds.Dy() {
		return nil, errors.New("transition: frame sizes differ")
	}

	out := &gif.GIF{}
	add := func(img image.Image, delay int) {
		out.Image = append(out.Image, imageToPaletted(img))
		out.Delay = append(out.Delay, delay)
	}

	add(before, transitionHoldDelay)
	for i := 1; i <= transitionFadeFrames; i++ {
		add(blend(before, after, float64(i)/float64(transitionFadeFrames+1)), transitionFadeDelay)
	}
	add(after, transitionHoldDelay)
	for i := transitionFadeFrames; i >= 1; i-- {
		add(blend(before, after, float64(i)/float64(transitionFadeFrames+1)), transitionFadeDelay)
	}

	buf := &bytes.Buffer{}
	if err := gif.EncodeAll(buf, out); err != nil {
		return nil, err
	}
	return buf, nil
}

// blend t=0 で a、t=1 で b
func blend(a, b image.Image, t float64) *image.RGBA {
	ab, bb := a.Bounds(), b.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, ab.Dx(), ab.Dy()))
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			ar, ag, abl, _ := a.At(ab.Min.X+x, ab.Min.Y+y).RGBA()
			br, bg, bbl, _ := b.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			dst.SetRGBA(x, y, color.RGBA{
				R: mix(ar, br, t),
				G: mix(ag, bg, t),
				B: mix(abl, bbl, t),
				A: 255,
			})
		}
	}
	return dst
}

func mix(a, b uint32, t float64) uint8 {
	v := (float64(a)*(1-t) + float64(b)*t) / 257
	return uint8(v + 0.5)
}

func imageToPaletted(src image.Image) *image.Paletted {
	b := src.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.Plan9)
	draw.FloydSteinberg.Draw(dst, dst.Bounds(), src, b.Min)
	return dst
}
