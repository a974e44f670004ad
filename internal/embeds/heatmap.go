package embeds

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"sort"

	"Floodsim_discord_bot/internal/hotspot"
	"Floodsim_discord_bot/internal/imaging"
)

// 深刻度ごとの重み
var severityWeight = map[hotspot.Severity]uint32{
	hotspot.High:   3,
	hotspot.Medium: 2,
	hotspot.Low:    1,
}

// HotspotCounts ホットスポット位置を grid x grid に集計（深刻度で重み付け）
// 座標は 512x512 の正規化空間
func HotspotCounts(hotspots []hotspot.Hotspot, grid int) []uint32 {
	if grid <= 0 {
		return nil
	}
	counts := make([]uint32, grid*grid)
	for _, h := range hotspots {
		x, y, ok := h.Position()
		if !ok || x < 0 || y < 0 || x >= imaging.CanonicalSize || y >= imaging.CanonicalSize {
			continue
		}
		gx := x * grid / imaging.CanonicalSize
		gy := y * grid / imaging.CanonicalSize
		w, known := severityWeight[h.Severity()]
		if !known {
			w = 1
		}
		counts[gy*grid+gx] += w
	}
	return counts
}

// BuildHeatmapPNG グリッド集計からヒートマップ画像を生成
// counts: 長さ=gridW*gridH のカウント
func BuildHeatmapPNG(counts []uint32, gridW, gridH int, outW, outH int) (*bytes.Buffer, error) {
	img := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{0, 0, 0, 255}}, image.Point{}, draw.Src)

	if len(counts) == gridW*gridH && gridW > 0 && gridH > 0 {
		paintHeat(img, counts, gridW, gridH)
	}

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf, nil
}

func paintHeat(img *image.RGBA, counts []uint32, gridW, gridH int) {
	var nonZero []uint32
	for _, v := range counts {
		if v > 0 {
			nonZero = append(nonZero, v)
		}
	}
	if len(nonZero) == 0 {
		return
	}
	// 外れ値を抑えるため95パーセンタイルを最大値にする
	sort.Slice(nonZero, func(i, j int) bool { return nonZero[i] < nonZero[j] })
	maxv := nonZero[int(math.Floor(float64(len(nonZero)-1)*0.95))]
	if maxv == 0 {
		maxv = 1
	}

	outW, outH := img.Bounds().Dx(), img.Bounds().Dy()
	for gy := 0; gy < gridH; gy++ {
		for gx := 0; gx < gridW; gx++ {
			v := counts[gy*gridW+gx]
			if v == 0 {
				continue
			}
			norm := math.Log1p(float64(v)) / math.Log1p(float64(maxv))
			norm = math.Pow(math.Min(norm, 1), 0.8)
			x0 := gx * outW / gridW
			y0 := gy * outH / gridH
			x1 := (gx + 1) * outW / gridW
			y1 := (gy + 1) * outH / gridH
			if x1 <= x0 || y1 <= y0 {
				continue
			}
			draw.Draw(img, image.Rect(x0, y0, x1, y1), &image.Uniform{C: heatColor(norm)}, image.Point{}, draw.Src)
		}
	}
}

// heatColor 正規化値(0..1)から擬似カラー(黒→赤→橙→黄)
func heatColor(t float64) color.RGBA {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if t < 0.5 {
		u := t / 0.5
		return color.RGBA{uint8(255 * u), 0, 0, 255}
	}
	u := (t - 0.5) / 0.5
	return color.RGBA{255, uint8(128 + 72*u), 0, 255}
}
