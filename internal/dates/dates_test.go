package dates

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLayouts(t *testing.T) {
	want := time.Date(2014, time.May, 3, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		raw     string
		layouts []string
	}{
		{raw: "05/03/2014", layouts: []string{"01/02/2006"}},
		{raw: "  05/03/2014\n", layouts: []string{"01/02/2006"}},
		{raw: "05/\n 03/ 2014", layouts: []string{"01/02/2006"}},
		{raw: "May   3,\n2014", layouts: []string{"January 2, 2006"}},
		{raw: "2014-05-03", layouts: []string{"01/02/2006", "2006-01-02"}},
		{raw: "May 3, 2014"},
		{raw: "05/03/\u00a02014", layouts: []string{"01/02/2006"}},
		{raw: "May\u00a03,\u00a02014", layouts: []string{"January 2, 2006"}},
	}

	for _, tc := range cases {
		got, err := Normalize(tc.raw, tc.layouts...)
		require.NoError(t, err, "raw %q", tc.raw)
		assert.Equal(t, want, got, "raw %q", tc.raw)
	}
}

func TestNormalizeFailure(t *testing.T) {
	for _, raw := range []string{"", "   ", "not a date", "13/45/2014"} {
		_, err := Normalize(raw, "01/02/2006")
		require.Error(t, err, "raw %q", raw)

		var perr *DateParseError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, raw, perr.Raw)
		assert.Equal(t, []string{"01/02/2006"}, perr.Layouts)
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	layouts := []string{"01/02/2006", "January 2, 2006", "2006-01-02", "Jan. 2, 2006", "02-Jan-2006"}
	start := time.Date(2019, time.December, 25, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 400; i += 7 {
		d := start.AddDate(0, 0, i)
		for _, layout := range layouts {
			got, err := Normalize(d.Format(layout), layout)
			require.NoError(t, err)
			assert.Equal(t, d, got, "layout %q", layout)
		}
	}
}

func TestCivilDropsClockAndZone(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	in := time.Date(2020, time.March, 1, 23, 59, 0, 0, loc)
	assert.Equal(t, time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC), Civil(in))
}

func TestYesterday(t *testing.T) {
	now := time.Date(2024, time.March, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), Yesterday(now))
	assert.Equal(t, time.Date(2024, time.February, 23, 0, 0, 0, 0, time.UTC), DaysBefore(now, 7))
}

func TestReplicate(t *testing.T) {
	d := time.Date(2016, time.September, 1, 0, 0, 0, 0, time.UTC)
	got := Replicate(d, 3)
	assert.Equal(t, []time.Time{d, d, d}, got)
	assert.Empty(t, Replicate(d, 0))
}
