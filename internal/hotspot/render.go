package hotspot

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	labelFontSize = 12
	labelGap      = 4
	outlineWidth  = 2
)

var labelColor = color.NRGBA{255, 255, 255, 220}

// Render draws every hotspot with a valid position onto a copy of base.
// base itself is never modified. Entries without a usable position are
// skipped. The returned count is the number of markers drawn.
func Render(base image.Image, hotspots []Hotspot) (*image.RGBA, int) {
	b := base.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), base, b.Min, draw.Src)

	face := labelFace()
	defer face.Close()
	drawn := 0
	for _, h := range hotspots {
		x, y, ok := h.Position()
		if !ok {
			continue
		}
		style := StyleFor(h.Severity())
		drawMarker(canvas, image.Pt(x, y), style)
		drawLabel(canvas, h.Label(), x+style.Radius+labelGap, y-style.Radius, face)
		drawn++
	}
	return canvas, drawn
}

func drawMarker(dst draw.Image, center image.Point, style Style) {
	r := style.Radius
	area := image.Rect(center.X-r, center.Y-r, center.X+r+1, center.Y+r+1)

	disc := &circleMask{center: center, outer: r, inner: -1}
	draw.DrawMask(dst, area, image.NewUniform(style.Fill), image.Point{}, disc, area.Min, draw.Over)

	ring := &circleMask{center: center, outer: r, inner: r - outlineWidth}
	draw.DrawMask(dst, area, image.NewUniform(style.Outline), image.Point{}, ring, area.Min, draw.Over)
}

// drawLabel places text with its top-left corner at (x, y).
func drawLabel(dst draw.Image, text string, x, y int, face font.Face) {
	if text == "" {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelColor),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}

// circleMask is an alpha mask covering the pixels whose distance from center
// lies in (inner, outer].
type circleMask struct {
	center image.Point
	outer  int
	inner  int
}

func (c *circleMask) ColorModel() color.Model { return color.AlphaModel }

func (c *circleMask) Bounds() image.Rectangle {
	return image.Rect(c.center.X-c.outer, c.center.Y-c.outer, c.center.X+c.outer+1, c.center.Y+c.outer+1)
}

func (c *circleMask) At(x, y int) color.Color {
	dx, dy := x-c.center.X, y-c.center.Y
	d2 := dx*dx + dy*dy
	if d2 > c.outer*c.outer {
		return color.Alpha{}
	}
	if c.inner >= 0 && d2 <= c.inner*c.inner {
		return color.Alpha{}
	}
	return color.Alpha{A: 255}
}

var (
	fontOnce   sync.Once
	parsedFont *opentype.Font
)

// labelFace Go Regular を読み込み、失敗時は basicfont にフォールバック
// opentype faces are not safe for concurrent use, so every Render gets its own.
func labelFace() font.Face {
	fontOnce.Do(func() {
		parsed, err := opentype.Parse(goregular.TTF)
		if err == nil {
			parsedFont = parsed
		}
	})
	if parsedFont == nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(parsedFont, &opentype.FaceOptions{
		Size:    labelFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}
