// Package site runs one court site: it fetches the page a site declares,
// extracts its fields into parallel columns, checks that they line up, and
// zips them into records.
package site

import (
	"time"

	"github.com/rotisserie/eris"

	"courtscrape/internal/backscrape"
	"courtscrape/internal/extractor"
	"courtscrape/internal/fetcher"
)

// Column names one record attribute a site can extract.
type Column string

const (
	CaseNames            Column = "case_names"
	CaseDates            Column = "case_dates"
	DocketNumbers        Column = "docket_numbers"
	PrecedentialStatuses Column = "precedential_statuses"
	Dispositions         Column = "dispositions"
	Judges               Column = "judges"
	DownloadURLs         Column = "download_urls"
)

// required columns every site must declare.
var required = []Column{CaseNames, DownloadURLs, CaseDates}

// Field declares how one column is read from the page.
type Field struct {
	Column Column
	Query  extractor.Query
	// Layouts parse CaseDates values; empty means dates.DefaultLayouts.
	Layouts []string
	// Clean, when set, is applied to every extracted value.
	Clean func(string) string
	// Fill is repeated once per counted row when Query is a count query on a
	// column other than CaseDates.
	Fill string
}

// Hooks customize a run. Nil hooks are skipped.
type Hooks struct {
	// PostProcess sees the final records of a page and may rewrite them.
	PostProcess func([]Record) ([]Record, error)
}

// Config is a site's static description. It is never mutated by a run.
type Config struct {
	CourtID string
	// URL may contain {key}, replaced by the run's key, and {name}
	// placeholders filled from Params.
	URL                string
	Strategy           fetcher.Strategy
	InsecureSkipVerify bool
	Params             map[string]string
	// Steps drive a headless fetch. Step values may use the same
	// placeholders as URL.
	Steps        []fetcher.Step
	ImplicitWait time.Duration
	Fields       []Field
	// DefaultStatus fills the status of every record when no
	// PrecedentialStatuses field is declared.
	DefaultStatus string

	// CurrentKey returns the key of a normal run. Nil means the current
	// month as YYYYMM.
	CurrentKey func(now time.Time) string
	// ContextDate dates rows of pages that print none. Nil means yesterday.
	ContextDate func(now time.Time) time.Time
	// BackScrape returns the historical keys of the site, if it has any.
	BackScrape func(now time.Time) backscrape.Cursor

	Hooks Hooks
}

// Validate checks that the config can be run.
func (c Config) Validate() error {
	if c.CourtID == "" {
		return eris.Errorf("site: court id is required")
	}
	if c.URL == "" {
		return eris.Errorf("site %s: url is required", c.CourtID)
	}
	if c.Strategy != "" {
		if _, err := fetcher.ParseStrategy(string(c.Strategy)); err != nil {
			return eris.Wrapf(err, "site %s", c.CourtID)
		}
	}

	seen := map[Column]bool{}
	for _, f := range c.Fields {
		if seen[f.Column] {
			return eris.Errorf("site %s: column %s declared twice", c.CourtID, f.Column)
		}
		seen[f.Column] = true
		if f.Query.Expr == "" {
			return eris.Errorf("site %s: column %s has no query", c.CourtID, f.Column)
		}
	}
	for _, col := range required {
		if !seen[col] {
			return eris.Errorf("site %s: required column %s is not declared", c.CourtID, col)
		}
	}
	return nil
}

// field returns the declaration for col.
func (c Config) field(col Column) (Field, bool) {
	for _, f := range c.Fields {
		if f.Column == col {
			return f, true
		}
	}
	return Field{}, false
}
