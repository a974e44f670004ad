package geometry

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// RectanglePayload builds a map payload holding a single drawn rectangle, the
// same shape a map widget reports for its last active drawing.
func RectanglePayload(bound orb.Bound) ([]byte, error) {
	if bound.Min.Lon() > bound.Max.Lon() || bound.Min.Lat() > bound.Max.Lat() {
		return nil, fmt.Errorf("invalid bound: %v", bound)
	}
	feature := geojson.NewFeature(bound.ToPolygon())
	feature.Properties["shape"] = "rectangle"
	return json.Marshal(map[string]any{
		"last_active_drawing": feature,
	})
}

// WrapDrawing places a bare GeoJSON Feature or geometry under the last active
// drawing key. Payloads that already carry one of the drawings keys are
// returned unchanged.
func WrapDrawing(raw []byte) []byte {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(raw, &root); err != nil {
		return raw
	}
	for _, key := range drawingKeys {
		if _, ok := root[key]; ok {
			return raw
		}
	}
	wrapped, err := json.Marshal(map[string]json.RawMessage{
		"last_active_drawing": json.RawMessage(raw),
	})
	if err != nil {
		return raw
	}
	return wrapped
}

// ParseBBox parses "minLon,minLat,maxLon,maxLat". Corners given in the wrong
// order are swapped.
func ParseBBox(s string) (orb.Bound, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) != 4 {
		return orb.Bound{}, fmt.Errorf("bbox %q: want minLon,minLat,maxLon,maxLat", s)
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("bbox %q: %w", s, err)
		}
		v[i] = n
	}
	a := GeoPoint{Lat: v[1], Lon: v[0]}
	b := GeoPoint{Lat: v[3], Lon: v[2]}
	if !a.Valid() || !b.Valid() {
		return orb.Bound{}, fmt.Errorf("bbox %q: coordinates out of range", s)
	}
	return orb.MultiPoint{{a.Lon, a.Lat}, {b.Lon, b.Lat}}.Bound(), nil
}

// ParseArea turns user text into a map payload: a JSON document (wrapped
// with WrapDrawing) or a bbox. Anything else gives nil.
func ParseArea(s string) []byte {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if s[0] == '{' {
		return WrapDrawing([]byte(s))
	}
	bound, err := ParseBBox(s)
	if err != nil {
		return nil
	}
	payload, err := RectanglePayload(bound)
	if err != nil {
		return nil
	}
	return payload
}
