// Package cadc scrapes oral argument recordings of the U.S. Court of
// Appeals for the D.C. Circuit, listed one month per page.
package cadc

import (
	"embed"
	"time"

	"courtscrape/internal/backscrape"
	"courtscrape/internal/extractor"
	"courtscrape/internal/fetcher"
	"courtscrape/internal/scraper"
	"courtscrape/internal/site"
)

//go:embed testdata
var examples embed.FS

const (
	CourtID     = "cadc"
	urlTemplate = "http://www.cadc.uscourts.gov/recordings/recordings.nsf/DocsByRDate?OpenView&count=100&SKey={key}"

	rowEntry  = "//*[@id='ViewBody']//div[contains(concat(' ',@class,' '),' row-entry')]"
	columnTwo = "//*[@id='ViewBody']//*[contains(concat(' ',@class,' '),' column-two')]"
)

// FirstPeriod is the oldest month the recordings archive covers.
var FirstPeriod = backscrape.Period{Year: 2007, Month: time.January}

func init() {
	scraper.Register(scraper.Definition{Config: Config(), Examples: examples})
}

// Config describes the site. The court's certificate has expired, so TLS
// verification is off.
func Config() site.Config {
	return site.Config{
		CourtID:            CourtID,
		URL:                urlTemplate,
		Strategy:           fetcher.StrategyDirect,
		InsecureSkipVerify: true,
		Fields: []site.Field{
			{Column: site.DownloadURLs, Query: extractor.XPath(rowEntry + "//@href")},
			{Column: site.CaseNames, Query: extractor.XPath(columnTwo + "/div[1]/text()")},
			{Column: site.CaseDates, Query: extractor.XPath("//*[@id='ViewBody']//date/text()"), Layouts: []string{"01/02/2006", "1/2/2006"}},
			{Column: site.DocketNumbers, Query: extractor.XPath(rowEntry + "//a//text()")},
			{Column: site.Judges, Query: extractor.XPath(`//div[span[contains(., "Judges")]]/text()`)},
		},
		BackScrape: func(now time.Time) backscrape.Cursor {
			return backscrape.Months(FirstPeriod, backscrape.PeriodOf(now), backscrape.YearMonth)
		},
	}
}
