package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// GeoPoint 緯度経度
type GeoPoint struct {
	Lat float64
	Lon float64
}

// Selection is the center of a drawn rectangle together with its bounding box.
type Selection struct {
	Center GeoPoint
	Bound  orb.Bound
}

// Valid reports whether the point lies inside WGS84 ranges.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.6f, %.6f", p.Lat, p.Lon)
}

// MapURL OpenStreetMapのURLを生成
func (p GeoPoint) MapURL(zoom float64) string {
	z := int(math.Round(zoom))
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%.6f&mlon=%.6f#map=%d/%.6f/%.6f",
		p.Lat, p.Lon, z, p.Lat, p.Lon)
}

// MapURL links to the selection center at a zoom that fits the rectangle.
func (s Selection) MapURL() string {
	return s.Center.MapURL(s.Zoom())
}
