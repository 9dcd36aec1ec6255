// Package period maps transaction dates into the week/month/year
// buckets reports are charted on.
package period

import (
	"strconv"
	"time"
)

// WeekRange is one labeled week-of-month bucket. Start and End are
// inclusive and clipped to the month, so edge weeks may span fewer
// than 7 days.
type WeekRange struct {
	Label string
	Start time.Time
	End   time.Time
}

// MonthNames is the fixed x-axis for annual report views.
var MonthNames = []string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// MonthWeekRanges slices a month into calendar weeks: extend to the
// Monday on/before the 1st and the Sunday on/after the last day, cut
// into 7-day windows, clip each to the month. The clipped windows
// partition the month with no gaps or overlaps.
func MonthWeekRanges(year, month int) []WeekRange {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	start := first.AddDate(0, 0, -mondayOffset(first))
	end := last.AddDate(0, 0, 6-mondayOffset(last))

	var ranges []WeekRange
	w := 1
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 7) {
		ws := cur
		we := cur.AddDate(0, 0, 6)
		clipS := maxDate(ws, first)
		clipE := minDate(we, last)
		if !clipS.After(clipE) {
			ranges = append(ranges, WeekRange{
				Label: "W" + strconv.Itoa(w),
				Start: clipS,
				End:   clipE,
			})
			w++
		}
	}
	return ranges
}

// WeekLabelFor returns the label of the range containing d, or "".
func WeekLabelFor(ranges []WeekRange, d time.Time) string {
	for _, r := range ranges {
		if Contains(r, d) {
			return r.Label
		}
	}
	return ""
}

// Contains reports whether d falls inside the inclusive range.
func Contains(r WeekRange, d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// MonthBounds returns the first and last calendar day of a month.
func MonthBounds(year, month int) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// YearBounds returns Jan 1 and Dec 31 of a year.
func YearBounds(year int) (time.Time, time.Time) {
	return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
}

// mondayOffset is days since Monday (Mon=0 .. Sun=6).
func mondayOffset(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

