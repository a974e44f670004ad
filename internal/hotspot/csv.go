package hotspot

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
)

var leadingColumns = []string{"x", "y", "severity"}

// Columns returns the CSV header for hotspots: x, y and severity first (when
// any record has them), then the remaining keys in sorted order.
func Columns(hotspots []Hotspot) []string {
	seen := make(map[string]bool)
	for _, h := range hotspots {
		for k := range h {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for _, k := range leadingColumns {
		if seen[k] {
			cols = append(cols, k)
			delete(seen, k)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

// WriteCSV writes one row per hotspot. Writing nothing for an empty list is
// intentional: there is no header to derive.
func WriteCSV(w io.Writer, hotspots []Hotspot) error {
	if len(hotspots) == 0 {
		return nil
	}
	cols := Columns(hotspots)
	writer := csv.NewWriter(w)
	if err := writer.Write(cols); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	row := make([]string, len(cols))
	for i, h := range hotspots {
		for j, col := range cols {
			v, ok := h[col]
			if !ok {
				row[j] = ""
				continue
			}
			row[j] = cellText(v)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
