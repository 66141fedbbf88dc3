// Package fladistctapp1 scrapes per curiam opinions of Florida's First
// District Court of Appeal. The search page is an ASP.NET form, so it is
// driven with a headless browser.
package fladistctapp1

import (
	"embed"
	"time"

	"courtscrape/internal/backscrape"
	"courtscrape/internal/dates"
	"courtscrape/internal/extractor"
	"courtscrape/internal/fetcher"
	"courtscrape/internal/scraper"
	"courtscrape/internal/site"
)

//go:embed testdata
var examples embed.FS

const (
	CourtID     = "fladistctapp1"
	searchURL   = "https://edca.1dca.org/opinions.aspx"
	opinionType = "Per Curiam"
)

func init() {
	scraper.Register(scraper.Definition{Config: Config(), Examples: examples})
}

func byIDSuffix(suffix string) string {
	return "//*[contains(concat(' ',@id,' '),'" + suffix + "')]"
}

// Config describes the site. Opinions carry no date of their own; every row
// is dated the day before the run, and the month searched is that day's.
func Config() site.Config {
	return site.Config{
		CourtID:            CourtID,
		URL:                searchURL,
		Strategy:           fetcher.StrategyHeadless,
		InsecureSkipVerify: true,
		ImplicitWait:       30 * time.Second,
		Params:             map[string]string{"type": opinionType},
		Steps: []fetcher.Step{
			{Action: fetcher.ActionSelect, Locator: "//select[@id='ddlTypes']", Value: "{type}"},
			{
				Action:   fetcher.ActionSelect,
				Locator:  "//select[@id='ddlMonths']",
				Value:    "{key}",
				Expected: true,
				Reason:   "Current month ({key}) not yet available in portal--common occurrence early in the month.",
			},
			{Action: fetcher.ActionClick, Locator: "//input[@id='cmdSearch']", WaitNavigation: true},
		},
		Fields: []site.Field{
			{Column: site.CaseNames, Query: extractor.XPath(byIDSuffix("_lblDocument") + "/text()")},
			{Column: site.DownloadURLs, Query: extractor.XPath(byIDSuffix("_cmdView") + "/@href")},
			{Column: site.CaseDates, Query: extractor.Count("count(" + byIDSuffix("_lblCaseNo") + ")")},
			{Column: site.DocketNumbers, Query: extractor.XPath(byIDSuffix("_lblCaseNo") + "/text()")},
			{Column: site.Dispositions, Query: extractor.XPath(byIDSuffix("_lblDisposition") + "/text()")},
		},
		DefaultStatus: "Published",
		CurrentKey: func(now time.Time) string {
			return backscrape.MonthYear(backscrape.PeriodOf(dates.Yesterday(now)))
		},
		ContextDate: dates.Yesterday,
	}
}
