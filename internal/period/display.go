package period

import (
	"strings"
	"time"
)

const displayLayout = "02-01-2006"

// displayParseLayouts covers every date shape the upstream endpoints
// have been seen returning.
var displayParseLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000Z07:00",
	"02-Jan-2006",
	"02-01-2006",
}

// DisplayDate formats a date for table display (DD-MM-YYYY).
func DisplayDate(d *time.Time, fallback string) string {
	if d == nil {
		return fallback
	}
	return d.Format(displayLayout)
}

// DisplayDateString re-renders a raw upstream date string as
// DD-MM-YYYY, passing it through untouched when no layout matches.
func DisplayDateString(value string) string {
	s := strings.TrimSpace(value)
	if s == "" {
		return ""
	}
	for _, layout := range displayParseLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format(displayLayout)
		}
	}
	return s
}
