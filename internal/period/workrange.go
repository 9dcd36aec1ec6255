package period

import (
	"regexp"
	"time"

	"github.com/upstats/earnings-backend/internal/extract"
	"github.com/upstats/earnings-backend/internal/models"
)

// Fee and earning records are sometimes posted on a settlement date
// outside the work period they describe. When the description embeds a
// work-date range, that range decides which reporting period the row
// belongs to.

type rangePattern struct {
	re      *regexp.Regexp
	layouts []string
}

var workRangePatterns = []rangePattern{
	{
		re:      regexp.MustCompile(`(\d{2}/\d{2}/\d{4})\s*-\s*(\d{2}/\d{2}/\d{4})`),
		layouts: []string{"01/02/2006"},
	},
	{
		re:      regexp.MustCompile(`(\d{4}-\d{2}-\d{2})\s*-\s*(\d{4}-\d{2}-\d{2})`),
		layouts: []string{"2006-01-02"},
	},
	{
		re:      regexp.MustCompile(`([A-Za-z]{3,9}\s+\d{1,2},\s+\d{4})\s*-\s*([A-Za-z]{3,9}\s+\d{1,2},\s+\d{4})`),
		layouts: []string{"Jan 2, 2006", "January 2, 2006"},
	},
	{
		re:      regexp.MustCompile(`(\d{1,2}\s+[A-Za-z]{3,9}\s+\d{4})\s*-\s*(\d{1,2}\s+[A-Za-z]{3,9}\s+\d{4})`),
		layouts: []string{"2 Jan 2006", "2 January 2006"},
	},
	{
		re:      regexp.MustCompile(`(\d{2}-[A-Za-z]{3}-\d{4})\s*-\s*(\d{2}-[A-Za-z]{3}-\d{4})`),
		layouts: []string{"02-Jan-2006"},
	},
}

// ParseWorkRange scans the transaction's descriptions for an embedded
// work-date range. Both ends must parse for the range to count.
func ParseWorkRange(t models.Transaction) (start, end *time.Time) {
	text := t.DescriptionUI + " " + t.Description
	for _, p := range workRangePatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		s := parseWithLayouts(m[1], p.layouts)
		e := parseWithLayouts(m[2], p.layouts)
		if s != nil && e != nil {
			return s, e
		}
	}
	return nil, nil
}

// TxnDate parses the transaction's own recorded date.
func TxnDate(t models.Transaction) *time.Time {
	raw := t.OccurredAt
	if raw == "" {
		return nil
	}
	if len(raw) > 10 {
		raw = raw[:10]
	}
	if d, ok := extract.ParseDate(raw); ok {
		return &d
	}
	return nil
}

// EffectiveDate resolves the date used to bucket a transaction into a
// specific (year, month): prefer the work range's end when it lands in
// the target month, then its start, then the recorded date.
func EffectiveDate(t models.Transaction, year, month int) *time.Time {
	start, end := ParseWorkRange(t)
	if end != nil && end.Year() == year && int(end.Month()) == month {
		return end
	}
	if start != nil && start.Year() == year && int(start.Month()) == month {
		return start
	}
	return TxnDate(t)
}

// EffectiveDateAny resolves the bucket date without a target month:
// work-range end, then start, then recorded date.
func EffectiveDateAny(t models.Transaction) *time.Time {
	start, end := ParseWorkRange(t)
	if end != nil {
		return end
	}
	if start != nil {
		return start
	}
	return TxnDate(t)
}

func parseWithLayouts(value string, layouts []string) *time.Time {
	for _, layout := range layouts {
		if d, err := time.Parse(layout, value); err == nil {
			d = d.UTC()
			return &d
		}
	}
	return nil
}
