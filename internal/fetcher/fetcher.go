// Package fetcher downloads court pages. A Request names one of three
// strategies: plain HTTP, a scripted headless browser, or a local fixture
// file. Every strategy returns the same Result with the document parsed and
// its links made absolute.
package fetcher

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

// Strategy selects how a page is downloaded.
type Strategy string

const (
	StrategyDirect   Strategy = "direct"   // HTTP GET
	StrategyHeadless Strategy = "headless" // scripted browser session
	StrategyLocal    Strategy = "local"    // file on disk or in an fs.FS
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case StrategyDirect, StrategyHeadless, StrategyLocal:
		return st, nil
	default:
		return "", eris.Errorf("fetcher: unknown strategy %q", s)
	}
}

// Action is the kind of interaction a Step performs.
type Action string

const (
	ActionClick  Action = "click"
	ActionSelect Action = "select"
)

// Step is one declared interaction of a headless fetch.
type Step struct {
	Action  Action
	Locator string // XPath
	Value   string // option value for ActionSelect
	// WaitNavigation blocks until the page the step submits has loaded.
	WaitNavigation bool
	// Expected marks a missing locator as a benign, anticipated failure;
	// Reason explains it.
	Expected bool
	Reason   string
}

// Request is everything a Downloader needs for one fetch.
type Request struct {
	CourtID            string // for logs and spans only
	Strategy           Strategy
	URL                string
	InsecureSkipVerify bool
	Steps              []Step
	ImplicitWait       time.Duration
	Headers            map[string]string
}

// Result is a fetched and parsed page.
type Result struct {
	StatusCode  int
	URL         string // final URL after redirects or navigation
	ContentType string
	Body        []byte
	// Doc is nil for JSON payloads.
	Doc *html.Node
}

// Downloader fetches one Request.
type Downloader interface {
	Fetch(ctx context.Context, req Request) (*Result, error)
}

// Dispatcher routes each request to the downloader for its strategy.
type Dispatcher struct {
	Direct   Downloader
	Headless Downloader
	Local    Downloader
}

// Fetch implements Downloader.
func (d *Dispatcher) Fetch(ctx context.Context, req Request) (*Result, error) {
	var dl Downloader
	switch req.Strategy {
	case StrategyDirect, "":
		dl = d.Direct
	case StrategyHeadless:
		dl = d.Headless
	case StrategyLocal:
		dl = d.Local
	default:
		return nil, eris.Errorf("fetcher: unknown strategy %q", req.Strategy)
	}
	if dl == nil {
		return nil, eris.Errorf("fetcher: no downloader for strategy %q", req.Strategy)
	}
	return dl.Fetch(ctx, req)
}
