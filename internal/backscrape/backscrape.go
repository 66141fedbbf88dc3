// Package backscrape produces the historical query keys a site is re-run
// with when covering past periods instead of the current one.
package backscrape

import (
	"fmt"
	"iter"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Period is one calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod reads a "YYYYMM" value.
func ParsePeriod(s string) (Period, error) {
	if len(s) != 6 {
		return Period{}, eris.Errorf("backscrape: period %q is not YYYYMM", s)
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return Period{}, eris.Wrapf(err, "backscrape: period %q year", s)
	}
	month, err := strconv.Atoi(s[4:])
	if err != nil {
		return Period{}, eris.Wrapf(err, "backscrape: period %q month", s)
	}
	if month < 1 || month > 12 {
		return Period{}, eris.Errorf("backscrape: period %q month out of range", s)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// Next returns the following month.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Before reports whether p is strictly earlier than q.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

func (p Period) String() string {
	return YearMonth(p)
}

// Format renders a period as the key a site's URL or search form expects.
type Format func(Period) string

// YearMonth renders "200701".
func YearMonth(p Period) string {
	return fmt.Sprintf("%04d%02d", p.Year, int(p.Month))
}

// MonthYear renders "012007".
func MonthYear(p Period) string {
	return fmt.Sprintf("%02d%04d", int(p.Month), p.Year)
}

// Cursor is a finite, ascending run of monthly keys. It holds no iteration
// state: every call to Keys starts again from the first month.
type Cursor struct {
	start, end Period
	format     Format
}

// Months covers start through end inclusive. A nil format means YearMonth.
// When end is before start the cursor is empty.
func Months(start, end Period, format Format) Cursor {
	if format == nil {
		format = YearMonth
	}
	return Cursor{start: start, end: end, format: format}
}

// IsZero reports whether c was never configured.
func (c Cursor) IsZero() bool {
	return c.format == nil
}

// Start returns the first period of the range.
func (c Cursor) Start() Period { return c.start }

// End returns the last period of the range.
func (c Cursor) End() Period { return c.end }

// Keys yields each month's key lazily, oldest first.
func (c Cursor) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		if c.IsZero() {
			return
		}
		for p := c.start; !c.end.Before(p); p = p.Next() {
			if !yield(c.format(p)) {
				return
			}
		}
	}
}

// Len returns the number of keys in the range.
func (c Cursor) Len() int {
	if c.IsZero() || c.end.Before(c.start) {
		return 0
	}
	return (c.end.Year-c.start.Year)*12 + int(c.end.Month) - int(c.start.Month) + 1
}

// Clamp narrows c to the months that also fall within [from, to].
func (c Cursor) Clamp(from, to Period) Cursor {
	out := c
	if out.start.Before(from) {
		out.start = from
	}
	if to.Before(out.end) {
		out.end = to
	}
	return out
}
