// Package metadata decodes the structured values the simulation backend sends
// next to its image responses.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"Floodsim_discord_bot/internal/hotspot"
)

var debugLogging = os.Getenv("FLOODSIM_DEBUG") == "1"

func debugf(format string, args ...interface{}) {
	if !debugLogging {
		return
	}
	log.Printf(format, args...)
}

// ErrEmpty is returned by Decode for blank input.
var ErrEmpty = errors.New("metadata: empty value")

// Decode parses text as JSON, and when that fails, with the relaxed literal
// grammar. The relaxed stage only builds data; it never evaluates anything.
func Decode(text string) (any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmpty
	}
	v, strictErr := decodeStrict(text)
	if strictErr == nil {
		return v, nil
	}
	v, relaxedErr := decodeRelaxed(text)
	if relaxedErr == nil {
		return v, nil
	}
	return nil, fmt.Errorf("metadata: not decodable: %w", errors.Join(strictErr, relaxedErr))
}

func decodeStrict(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("strict: %w", err)
	}
	return v, nil
}

// ParseMetrics decodes a metrics side-channel value. It never fails: missing
// or undecodable input gives an empty Metrics.
func ParseMetrics(text string) Metrics {
	v, err := Decode(text)
	if err != nil {
		if !errors.Is(err, ErrEmpty) {
			debugf("metrics header ignored: %v", err)
		}
		return Metrics{}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		debugf("metrics header ignored: top level is %T, not an object", v)
		return Metrics{}
	}
	return MetricsFrom(obj)
}

// ParseHotspots decodes a hotspot side-channel value. It never fails:
// missing or undecodable input gives an empty list. Entries that are not
// objects are dropped.
func ParseHotspots(text string) []hotspot.Hotspot {
	v, err := Decode(text)
	if err != nil {
		if !errors.Is(err, ErrEmpty) {
			debugf("hotspots header ignored: %v", err)
		}
		return []hotspot.Hotspot{}
	}
	items, ok := v.([]any)
	if !ok {
		debugf("hotspots header ignored: top level is %T, not a list", v)
		return []hotspot.Hotspot{}
	}
	out := make([]hotspot.Hotspot, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			debugf("hotspot entry dropped: %T", item)
			continue
		}
		out = append(out, hotspot.Hotspot(obj))
	}
	return out
}
