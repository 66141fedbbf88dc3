package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"courtscrape/internal/browser"
)

// LaunchFunc opens a browser session.
type LaunchFunc func(ctx context.Context, cfg browser.Config) (browser.Session, error)

// BrowserFetcher drives a headless browser through a request's steps and
// returns the page it lands on.
type BrowserFetcher struct {
	cfg    browser.Config
	launch LaunchFunc
}

// NewBrowserFetcher returns a fetcher launching sessions with cfg. A nil
// launch uses browser.Launch.
func NewBrowserFetcher(cfg browser.Config, launch LaunchFunc) *BrowserFetcher {
	if launch == nil {
		launch = browser.Launch
	}
	return &BrowserFetcher{cfg: cfg, launch: launch}
}

// Fetch implements Downloader. The session is closed before Fetch returns,
// whatever the outcome.
func (f *BrowserFetcher) Fetch(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "BrowserFetcher.Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("court_id", req.CourtID),
		attribute.String("url", req.URL),
		attribute.Int("steps", len(req.Steps)),
	)

	cfg := f.cfg
	if req.ImplicitWait > 0 {
		cfg.ImplicitWait = req.ImplicitWait
	}
	if req.InsecureSkipVerify {
		cfg.IgnoreCertErrors = true
	}

	sess, err := f.launch(ctx, cfg)
	if err != nil {
		span.SetStatus(codes.Error, "launch failed")
		return nil, &NetworkError{URL: req.URL, Err: err}
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			zap.L().Warn("closing browser session", zap.Error(cerr))
		}
	}()

	if err := sess.Navigate(req.URL); err != nil {
		span.SetStatus(codes.Error, "navigate failed")
		return nil, &NetworkError{URL: req.URL, Err: err}
	}

	for i, step := range req.Steps {
		if err := runStep(sess, step); err != nil {
			span.SetStatus(codes.Error, fmt.Sprintf("step %d failed", i))
			return nil, classifyStep(step, err)
		}
	}

	source, err := sess.HTML()
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read page source")
	}
	finalURL, err := sess.URL()
	if err != nil || finalURL == "" {
		finalURL = req.URL
	}

	// A rendered page has no status of its own; reaching it counts as 200.
	return newResult(http.StatusOK, finalURL, "text/html; charset=utf-8", []byte(source))
}

func runStep(sess browser.Session, step Step) error {
	switch step.Action {
	case ActionClick:
		return sess.Click(step.Locator, step.WaitNavigation)
	case ActionSelect:
		return sess.Select(step.Locator, step.Value, step.WaitNavigation)
	default:
		return eris.Errorf("fetcher: unknown step action %q", step.Action)
	}
}

// classifyStep turns a missing locator into a NavigationError, benign when
// the step anticipates it. Other errors pass through.
func classifyStep(step Step, err error) error {
	if !errors.Is(err, browser.ErrElementNotFound) {
		return eris.Wrapf(err, "fetcher: %s %s", step.Action, step.Locator)
	}
	return &NavigationError{
		Locator:  step.Locator,
		Expected: step.Expected,
		Reason:   step.Reason,
		Err:      err,
	}
}
