package metadata

import (
	"strconv"
	"strings"
)

// NotAvailable is shown for metrics the backend did not report.
const NotAvailable = "N/A"

// Metrics 指標名 -> 数値
type Metrics map[string]float64

// Value returns the metric and whether it was reported.
func (m Metrics) Value(key string) (float64, bool) {
	v, ok := m[key]
	return v, ok
}

// Format returns the metric as display text, or NotAvailable.
func (m Metrics) Format(key string) string {
	v, ok := m[key]
	if !ok {
		return NotAvailable
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// MetricsFrom keeps the numeric entries of a decoded object. Numeric strings
// are accepted; everything else is dropped.
func MetricsFrom(obj map[string]any) Metrics {
	m := make(Metrics, len(obj))
	for k, v := range obj {
		switch t := v.(type) {
		case float64:
			m[k] = t
		case int:
			m[k] = float64(t)
		case int64:
			m[k] = float64(t)
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if err == nil {
				m[k] = f
			}
		}
	}
	return m
}
