// Package geometry turns map-interaction payloads into a geographic selection.
package geometry

import (
	"bytes"
	"encoding/json"

	"github.com/paulmach/orb"
)

// drawingKeys are the payload keys that may hold the drawings collection,
// in priority order. The first truthy one wins.
var drawingKeys = []string{
	"all_drawings",
	"drawn_objects",
	"last_active_drawing",
	"features",
}

// shapeRecognizer tries one accepted layout of the drawings collection.
// matched reports whether the layout applied at all; ok whether a ring was found.
type shapeRecognizer func(raw json.RawMessage) (ring orb.Ring, matched, ok bool)

var shapeRecognizers = []shapeRecognizer{
	recognizeSingleObject,
	recognizeSequence,
}

// ExtractCenter returns the center of the most recent drawn rectangle.
func ExtractCenter(payload []byte) (GeoPoint, bool) {
	sel, ok := ExtractSelection(payload)
	if !ok {
		return GeoPoint{}, false
	}
	return sel.Center, true
}

// ExtractSelection returns the bounding box of the most recent drawn shape's
// outer ring and its midpoint. Any structural problem yields ok == false.
func ExtractSelection(payload []byte) (sel Selection, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			sel, ok = Selection{}, false
		}
	}()

	drawings, found := findDrawings(payload)
	if !found {
		return Selection{}, false
	}

	for _, recognize := range shapeRecognizers {
		ring, matched, ok := recognize(drawings)
		if !matched {
			continue
		}
		if !ok {
			return Selection{}, false
		}
		return selectionFromRing(ring)
	}
	return Selection{}, false
}

func findDrawings(payload []byte) (json.RawMessage, bool) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, false
	}
	var root map[string]json.RawMessage
	if err := json.Unmarshal(payload, &root); err != nil {
		return nil, false
	}
	for _, key := range drawingKeys {
		raw, exists := root[key]
		if exists && truthy(raw) {
			return raw, true
		}
	}
	return nil, false
}

func recognizeSingleObject(raw json.RawMessage) (orb.Ring, bool, bool) {
	if firstByte(raw) != '{' {
		return nil, false, false
	}
	ring, ok := ringFromDrawing(raw)
	return ring, true, ok
}

func recognizeSequence(raw json.RawMessage) (orb.Ring, bool, bool) {
	if firstByte(raw) != '[' {
		return nil, false, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil, true, false
	}
	// latest edit wins
	last := items[len(items)-1]
	if firstByte(last) != '{' {
		return nil, true, false
	}
	ring, ok := ringFromDrawing(last)
	return ring, true, ok
}

// ringFromDrawing accepts either a Feature-like object with a geometry member
// or a bare geometry object.
func ringFromDrawing(raw json.RawMessage) (orb.Ring, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	geom := raw
	if g, ok := obj["geometry"]; ok && truthy(g) {
		geom = g
	}
	return outerRing(geom)
}

func outerRing(geom json.RawMessage) (orb.Ring, bool) {
	var shape struct {
		Coordinates []json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(geom, &shape); err != nil || len(shape.Coordinates) == 0 {
		return nil, false
	}
	var positions [][]float64
	if err := json.Unmarshal(shape.Coordinates[0], &positions); err != nil || len(positions) == 0 {
		return nil, false
	}
	ring := make(orb.Ring, 0, len(positions))
	for _, p := range positions {
		if len(p) < 2 {
			return nil, false
		}
		ring = append(ring, orb.Point{p[0], p[1]})
	}
	return ring, true
}

func selectionFromRing(ring orb.Ring) (Selection, bool) {
	bound := ring.Bound()
	center := bound.Center()
	sel := Selection{
		Center: GeoPoint{Lat: center.Lat(), Lon: center.Lon()},
		Bound:  bound,
	}
	if !sel.Center.Valid() {
		return Selection{}, false
	}
	return sel, true
}

// truthy mirrors the "is there anything here" test used on map payloads:
// null, false, 0, "" and empty containers all count as absent.
func truthy(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "false", "[]", "{}", `""`:
		return false
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	case string:
		return t != ""
	}
	return true
}

func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
