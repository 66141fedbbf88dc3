package fetcher

import (
	"context"
	"fmt"

	"courtscrape/internal/browser"
)

// fakeSession is a scripted browser.Session. Locators listed in missing
// behave as if they never appear.
type fakeSession struct {
	missing map[string]bool
	html    string
	url     string

	calls  []string
	closed int
}

func (s *fakeSession) Navigate(url string) error {
	s.calls = append(s.calls, "navigate "+url)
	s.url = url
	return nil
}

func (s *fakeSession) Click(xpath string, _ bool) error {
	s.calls = append(s.calls, "click "+xpath)
	if s.missing[xpath] {
		return fmt.Errorf("%w: %s", browser.ErrElementNotFound, xpath)
	}
	return nil
}

func (s *fakeSession) Select(xpath, value string, _ bool) error {
	s.calls = append(s.calls, "select "+xpath+"="+value)
	if s.missing[xpath] || s.missing[value] {
		return fmt.Errorf("%w: %s", browser.ErrElementNotFound, xpath)
	}
	return nil
}

func (s *fakeSession) HTML() (string, error) { return s.html, nil }

func (s *fakeSession) URL() (string, error) { return s.url, nil }

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

func launcherFor(s *fakeSession, got *browser.Config) LaunchFunc {
	return func(_ context.Context, cfg browser.Config) (browser.Session, error) {
		if got != nil {
			*got = cfg
		}
		return s, nil
	}
}
