package geometry

import (
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

func TestSelectionZoom(t *testing.T) {
	tests := []struct {
		name  string
		bound orb.Bound
		min   float64
		max   float64
	}{
		{"point selection clamps to max", orb.Bound{Min: orb.Point{10, 10}, Max: orb.Point{10, 10}}, maxZoom, maxZoom},
		{"whole world clamps to min", orb.Bound{Min: orb.Point{-180, -80}, Max: orb.Point{180, 80}}, minZoom, minZoom},
		{"city block", orb.Bound{Min: orb.Point{139.75, 35.68}, Max: orb.Point{139.76, 35.69}}, 14, 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := Selection{Bound: tt.bound}.Zoom()
			if z < tt.min || z > tt.max {
				t.Errorf("zoom %v outside [%v, %v]", z, tt.min, tt.max)
			}
		})
	}
}

func TestMapURL(t *testing.T) {
	url := GeoPoint{Lat: 19.1, Lon: 72.9}.MapURL(12.4)
	if !strings.Contains(url, "mlat=19.100000") || !strings.Contains(url, "#map=12/") {
		t.Errorf("unexpected url %s", url)
	}
}
