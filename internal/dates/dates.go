// Package dates turns the date strings court sites print into canonical
// civil dates, and synthesizes dates for pages that carry none per row.
package dates

import (
	"fmt"
	"strings"
	"time"

	"courtscrape/internal/textutil"
)

// DefaultLayouts are tried, in order, when a field declares no layouts.
var DefaultLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"January 2, 2006",
	"Jan. 2, 2006",
	"Jan 2, 2006",
	"02-Jan-2006",
}

// DateParseError reports a raw value that matched none of the layouts.
type DateParseError struct {
	Raw     string
	Layouts []string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("dates: cannot parse %q with layouts [%s]", e.Raw, strings.Join(e.Layouts, ", "))
}

// Normalize parses raw against each layout in turn and returns the date at
// midnight UTC. Whitespace runs are collapsed first; if that fails the value
// is retried with all whitespace removed, since several sites break dates
// across lines.
func Normalize(raw string, layouts ...string) (time.Time, error) {
	if len(layouts) == 0 {
		layouts = DefaultLayouts
	}

	candidates := []string{textutil.CollapseSpace(raw)}
	if stripped := textutil.StripSpace(raw); stripped != candidates[0] {
		candidates = append(candidates, stripped)
	}

	for _, value := range candidates {
		if value == "" {
			continue
		}
		for _, layout := range layouts {
			t, err := time.Parse(layout, value)
			if err == nil {
				return Civil(t), nil
			}
		}
	}
	return time.Time{}, &DateParseError{Raw: raw, Layouts: layouts}
}

// Civil drops the clock and zone from t, keeping its calendar date.
func Civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBefore returns the calendar date n days before now.
func DaysBefore(now time.Time, n int) time.Time {
	return Civil(now).AddDate(0, 0, -n)
}

// Yesterday is the context date for sites that publish the previous day's
// opinions without a per-row date.
func Yesterday(now time.Time) time.Time {
	return DaysBefore(now, 1)
}

// Replicate returns n copies of d.
func Replicate(d time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = d
	}
	return out
}
