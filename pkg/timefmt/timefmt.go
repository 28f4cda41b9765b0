// Package timefmt renders upstream forecast timestamps for display and sorting.
package timefmt

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// NotAvailable is returned in place of any timestamp that cannot be parsed.
	NotAvailable = "Not Available"

	DisplayLayout  = "January 02, 2006, 03:04 PM"
	SortableLayout = "2006-01-02 15:04:05"
	ClockLayout    = "03:04 PM"

	naiveLayout    = "2006-01-02 15:04:05"
	isoNaiveLayout = "2006-01-02T15:04:05"
)

// Parse reads either a zoned ISO-8601 timestamp (contains 'T') or a naive
// "YYYY-MM-DD HH:MM:SS" one. zoned reports whether the input carried an offset.
func Parse(raw string) (t time.Time, zoned bool, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, false
	}

	if strings.Contains(raw, "T") {
		iso := raw
		if strings.HasSuffix(iso, "Z") {
			iso = strings.TrimSuffix(iso, "Z") + "+00:00"
		}
		if parsed, err := time.Parse(time.RFC3339, iso); err == nil {
			return parsed, true, true
		}
		if parsed, err := time.Parse(isoNaiveLayout, iso); err == nil {
			return parsed, false, true
		}
		return time.Time{}, false, false
	}

	parsed, err := time.Parse(naiveLayout, raw)
	if err != nil {
		return time.Time{}, false, false
	}
	return parsed, false, true
}

// Format renders raw with layout, appending " (UTC±HHMM)" for zoned input.
func Format(raw, layout string) string {
	t, zoned, ok := Parse(raw)
	if !ok {
		if raw != "" {
			zap.L().Debug("Unparseable timestamp", zap.String("raw", raw))
		}
		return NotAvailable
	}

	out := t.Format(layout)
	if zoned {
		out += " (UTC" + t.Format("-0700") + ")"
	}
	return out
}
