// Package hotspot holds hotspot records reported by the simulation backend and
// draws them onto result images.
package hotspot

import (
	"image/color"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Severity 危険度
type Severity string

const (
	Low    Severity = "low"
	Medium Severity = "medium"
	High   Severity = "high"
)

// Style is the marker appearance for one severity.
type Style struct {
	Fill    color.NRGBA
	Outline color.NRGBA
	Radius  int
}

var styles = map[Severity]Style{
	High:   {Fill: color.NRGBA{255, 80, 80, 140}, Outline: color.NRGBA{255, 30, 30, 255}, Radius: 12},
	Medium: {Fill: color.NRGBA{255, 180, 60, 120}, Outline: color.NRGBA{255, 140, 0, 255}, Radius: 9},
	Low:    {Fill: color.NRGBA{80, 150, 255, 110}, Outline: color.NRGBA{40, 110, 230, 255}, Radius: 7},
}

// StyleFor returns the style for sev, falling back to the low style.
func StyleFor(sev Severity) Style {
	if s, ok := styles[sev]; ok {
		return s
	}
	return styles[Low]
}

// Hotspot is one record as received from the backend. Keys other than x, y
// and severity are carried along untouched.
type Hotspot map[string]any

// Position returns the integer pixel position. ok is false when either
// coordinate is missing or not numeric.
func (h Hotspot) Position() (x, y int, ok bool) {
	x, okX := coordinate(h["x"])
	y, okY := coordinate(h["y"])
	if !okX || !okY {
		return 0, 0, false
	}
	return x, y, true
}

// Severity returns the reported severity, or low when absent.
func (h Hotspot) Severity() Severity {
	if s, ok := h["severity"].(string); ok && s != "" {
		return Severity(s)
	}
	return Low
}

// Label is the one-letter marker text.
func (h Hotspot) Label() string {
	sev := string(h.Severity())
	r, _ := utf8.DecodeRuneInString(sev)
	return string(unicode.ToUpper(r))
}

func coordinate(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return truncate(t)
	case float32:
		return truncate(float64(t))
	case int:
		return t, true
	case int64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func truncate(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// markers far off-canvas are never visible; keep the int conversion sane
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(math.Trunc(f)), true
}
