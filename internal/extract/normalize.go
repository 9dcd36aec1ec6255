package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// date-bearing keys in priority order.
var dateKeys = []string{"dateTime", "createdDateTime", "date_time", "date", "timestamp"}

// structured client keys, each possibly a nested mapping.
var clientKeys = []string{"client_name", "client", "buyer", "organization", "company", "team"}

var clientSubKeys = []string{"name", "team_name", "company_name"}

var (
	trailingSepRe  = regexp.MustCompile(`\s*[-:–—]+$`)
	multiSpaceRe   = regexp.MustCompile(`\s{2,}`)
	descSplitRe    = regexp.MustCompile(`^(.+?)\s*[-:]\s*.*$`)
	descSeparators = []string{" - ", " -", " – ", " — ", ": "}
)

// RowDate pulls the first available date field from a raw row and
// normalizes it.
func RowDate(row map[string]any) string {
	for _, key := range dateKeys {
		if s := stringValue(row[key]); s != "" {
			return NormalizeDate(s)
		}
	}
	return ""
}

// NormalizeDate canonicalizes ISO, slash-separated and compact YYYYMMDD
// forms into YYYY-MM-DD. Anything else passes through unchanged so the
// record is never lost to a formatting quirk.
func NormalizeDate(value string) string {
	s := strings.TrimSpace(value)
	if s == "" {
		return ""
	}
	if len(s) >= 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	if len(s) >= 10 && s[4] == '/' && s[7] == '/' {
		return strings.ReplaceAll(s[:10], "/", "-")
	}
	if len(s) >= 8 && isDigits(s[:8]) {
		return s[:4] + "-" + s[4:6] + "-" + s[6:8]
	}
	return s
}

// ParseDate parses a normalized date string. ok is false when the value
// cannot be interpreted as a calendar date.
func ParseDate(value string) (time.Time, bool) {
	d, err := time.Parse(dateLayout, NormalizeDate(value))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// InRange reports whether a date string falls inside [start, end]
// inclusive. Unparseable dates are treated as in range: a record is
// never dropped solely because its date could not be read.
func InRange(value string, start, end time.Time) bool {
	d, ok := ParseDate(value)
	if !ok {
		return true
	}
	return !d.Before(start) && !d.After(end)
}

// RowAmount extracts a signed amount and optional currency from a raw
// row, trying a structured {amount,currency} object, a cents integer,
// a currency-formatted string, then a bare numeric. A value that
// resists every strategy comes back as 0.
func RowAmount(row map[string]any) (float64, string) {
	amtObj := firstNonNil(row["amount"], row["amount_paid"], row["total"])

	if m, ok := amtObj.(map[string]any); ok {
		if _, ok := m["amount"]; ok {
			return numeric(m["amount"]), stringValue(m["currency"])
		}
	}
	if cents, ok := row["amountCents"]; ok && cents != nil {
		return numeric(cents) / 100.0, stringValue(row["currency"])
	}
	switch v := amtObj.(type) {
	case string:
		return ParseMoney(v), ""
	case float64:
		return v, ""
	case int:
		return float64(v), ""
	}
	return 0, ""
}

// ParseMoney strips currency formatting ($, thousands separators) and
// parses the remainder as a float. Unparseable input yields 0.
func ParseMoney(s string) float64 {
	cleaned := strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(s))
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

// RowClientName resolves a client attribution from structured fields,
// falling back to the left-hand side of the description.
func RowClientName(row map[string]any) string {
	for _, key := range clientKeys {
		switch v := row[key].(type) {
		case map[string]any:
			for _, sub := range clientSubKeys {
				if s := stringValue(v[sub]); s != "" {
					return strings.TrimSpace(s)
				}
			}
		default:
			if s := stringValue(v); s != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	if s := stringValue(row["buyer_name"]); s != "" {
		return strings.TrimSpace(s)
	}

	desc := strings.TrimSpace(stringValue(firstNonNil(row["description"], row["memo"])))
	return ClientFromDescription(desc)
}

// ClientFromDescription takes the text left of the first separator as
// the client name.
func ClientFromDescription(desc string) string {
	if desc == "" {
		return "Unknown"
	}
	for _, sep := range descSeparators {
		if idx := strings.Index(desc, sep); idx >= 0 {
			if left := strings.TrimSpace(desc[:idx]); left != "" {
				return left
			}
		}
	}
	if m := descSplitRe.FindStringSubmatch(desc); m != nil {
		if left := strings.TrimSpace(m[1]); left != "" {
			return left
		}
	}
	return "Unknown"
}

// NormalizeClientName cleans an attribution string: trims, truncates at
// the ">" hierarchy delimiter, strips trailing dashes/colons, collapses
// runs of whitespace. Normalization is idempotent.
func NormalizeClientName(name string) string {
	cleaned := strings.TrimSpace(name)
	if idx := strings.Index(cleaned, ">"); idx >= 0 {
		cleaned = strings.TrimSpace(cleaned[:idx])
	}
	cleaned = trailingSepRe.ReplaceAllString(cleaned, "")
	cleaned = multiSpaceRe.ReplaceAllString(cleaned, " ")
	if cleaned == "" {
		return "Unknown"
	}
	return cleaned
}

// ---- Helpers ----

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

func numeric(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		return ParseMoney(n)
	default:
		return 0
	}
}

func firstNonNil(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
