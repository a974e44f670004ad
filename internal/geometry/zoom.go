package geometry

import "math"

const (
	// Web Mercator tile size used by common web map renderers.
	webMercatorTileSize = 256.0
	// Assumed viewport for shared links (desktop-first).
	defaultViewportWidth  = 1280.0
	defaultViewportHeight = 720.0
	// Leave some margin around the drawn rectangle.
	viewportMargin = 0.8
	minZoom        = 3.0
	maxZoom        = 18.0
)

// Zoom calculates a deterministic web-map zoom that fits the selected rectangle
// into a default viewport.
func (s Selection) Zoom() float64 {
	fracW := (s.Bound.Max.Lon() - s.Bound.Min.Lon()) / 360
	fracH := mercatorY(s.Bound.Min.Lat()) - mercatorY(s.Bound.Max.Lat())

	usableW := defaultViewportWidth * viewportMargin
	usableH := defaultViewportHeight * viewportMargin

	zoom := maxZoom
	if fracW > 0 {
		zoom = math.Min(zoom, math.Log2(usableW/(webMercatorTileSize*fracW)))
	}
	if fracH > 0 {
		zoom = math.Min(zoom, math.Log2(usableH/(webMercatorTileSize*fracH)))
	}

	if math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return minZoom
	}
	if zoom < minZoom {
		return minZoom
	}
	if zoom > maxZoom {
		return maxZoom
	}
	return zoom
}

// mercatorY 緯度をWebメルカトルの正規化Y座標 (0..1) に変換
func mercatorY(lat float64) float64 {
	latRad := lat * math.Pi / 180
	return (1 - math.Asinh(math.Tan(latRad))/math.Pi) / 2
}
