package embeds

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"Floodsim_discord_bot/internal/simulation"
)

type chartBar struct {
	label string
	value float64 // 0..1
	text  string
	color color.RGBA
}

// BuildValidationChartPNG 検証結果の棒グラフPNGを生成
// Accuracy は 0..100 を 0..1 に換算して並べる
func BuildValidationChartPNG(v *simulation.Validation) (*bytes.Buffer, error) {
	const (
		width    = 480
		height   = 260
		margin   = 40
		barWidth = 60
	)

	bars := []chartBar{
		{"Accuracy", v.Accuracy / 100, v.AccuracyText(), color.RGBA{46, 204, 113, 255}},
		{"Precision", v.Precision, v.PrecisionText(), color.RGBA{52, 152, 219, 255}},
		{"Recall", v.Recall, v.RecallText(), color.RGBA{155, 89, 182, 255}},
		{"F1", v.F1, v.F1Text(), color.RGBA{241, 196, 15, 255}},
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{240, 240, 240, 255}}, image.Point{}, draw.Src)

	plot := image.Rect(margin, margin/2, width-margin/2, height-margin)
	axis := color.RGBA{80, 80, 80, 255}
	for x := plot.Min.X; x <= plot.Max.X; x++ {
		img.Set(x, plot.Max.Y, axis)
	}
	for y := plot.Min.Y; y <= plot.Max.Y; y++ {
		img.Set(plot.Min.X, y, axis)
	}
	for _, tick := range []float64{0, 0.5, 1} {
		y := plot.Max.Y - int(float64(plot.Dy())*tick)
		for x := plot.Min.X - 5; x < plot.Min.X; x++ {
			img.Set(x, y, axis)
		}
		drawLabel(img, 4, y+4, fmt.Sprintf("%.1f", tick), axis)
	}

	slot := plot.Dx() / len(bars)
	for i, b := range bars {
		val := clamp01(b.value)
		x0 := plot.Min.X + i*slot + (slot-barWidth)/2
		top := plot.Max.Y - int(float64(plot.Dy())*val)
		draw.Draw(img, image.Rect(x0, top, x0+barWidth, plot.Max.Y), &image.Uniform{C: b.color}, image.Point{}, draw.Src)
		drawLabel(img, x0, top-4, b.text, color.RGBA{30, 30, 30, 255})
		drawLabel(img, x0, plot.Max.Y+16, b.label, color.RGBA{60, 60, 60, 255})
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf, nil
}

// drawLabel (x, y) はベースライン
func drawLabel(img draw.Image, x, y int, s string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
