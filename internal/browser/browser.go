package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrElementNotFound is returned when a locator matches nothing within the
// session's implicit wait.
var ErrElementNotFound = errors.New("browser: element not found")

// Config controls how Chrome is launched for one session.
type Config struct {
	Headless         bool
	ProxyURL         string
	Bin              string // empty means let rod download or locate a browser
	IgnoreCertErrors bool
	// ImplicitWait bounds every element lookup.
	ImplicitWait time.Duration
}

// DefaultImplicitWait applies when Config.ImplicitWait is zero.
const DefaultImplicitWait = 30 * time.Second

// Browser wraps a launched rod.Browser and the launcher that owns its process.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// New launches a browser process and connects to it.
func New(ctx context.Context, cfg Config) (*Browser, error) {
	l := launcher.New().Headless(cfg.Headless)

	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.IgnoreCertErrors {
		l = l.Set("ignore-certificate-errors")
	}

	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		l.Kill()
		return nil, eris.Wrap(err, "browser: launch")
	}

	rb := rod.New().Context(ctx).ControlURL(controlURL)
	if err := rb.Connect(); err != nil {
		l.Kill()
		return nil, eris.Wrap(err, "browser: connect")
	}
	if cfg.IgnoreCertErrors {
		if err := rb.IgnoreCertErrors(true); err != nil {
			_ = rb.Close()
			l.Kill()
			return nil, eris.Wrap(err, "browser: ignore cert errors")
		}
	}

	return &Browser{browser: rb, launcher: l}, nil
}

// NewPage opens a blank tab.
func (b *Browser) NewPage() (*rod.Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, eris.Wrap(err, "browser: new page")
	}
	return page, nil
}

// Close closes the browser and kills its process.
func (b *Browser) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return err
}

// Session is one page driven through a fixed sequence of interactions.
// Locators are XPath expressions.
type Session interface {
	Navigate(url string) error
	// Click clicks the element at xpath. With waitNavigation set it returns
	// after the navigation the click triggers has settled.
	Click(xpath string, waitNavigation bool) error
	// Select picks the option with the given value inside the <select> at xpath.
	Select(xpath, value string, waitNavigation bool) error
	HTML() (string, error)
	URL() (string, error)
	Close() error
}

// Launch starts a browser and opens the single page a Session drives.
func Launch(ctx context.Context, cfg Config) (Session, error) {
	b, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	page, err := b.NewPage()
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	wait := cfg.ImplicitWait
	if wait <= 0 {
		wait = DefaultImplicitWait
	}
	return &session{browser: b, page: page.Context(ctx), wait: wait}, nil
}

type session struct {
	browser *Browser
	page    *rod.Page
	wait    time.Duration
}

func (s *session) Navigate(url string) error {
	zap.L().Debug("navigating", zap.String("url", url))
	page := s.page.Timeout(s.wait)
	defer page.CancelTimeout()

	if err := page.Navigate(url); err != nil {
		return eris.Wrapf(err, "browser: navigate %s", url)
	}
	if err := page.WaitLoad(); err != nil {
		return eris.Wrapf(err, "browser: wait load %s", url)
	}
	return nil
}

func (s *session) Click(xpath string, waitNavigation bool) error {
	el, err := s.find(xpath)
	if err != nil {
		return err
	}
	return s.interact(waitNavigation, func() error {
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
}

func (s *session) Select(xpath, value string, waitNavigation bool) error {
	el, err := s.find(xpath)
	if err != nil {
		return err
	}
	// Options may be filled in after an earlier step, so they get the same
	// implicit wait as the select itself.
	lookup := el.Timeout(s.wait)
	_, err = lookup.ElementX(fmt.Sprintf("./option[@value=%s]", xpathLiteral(value)))
	lookup.CancelTimeout()
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s/option[@value=%q]", ErrElementNotFound, xpath, value)
		}
		return eris.Wrapf(err, "browser: look up option %q", value)
	}
	return s.interact(waitNavigation, func() error {
		return el.Select([]string{fmt.Sprintf("[value=%q]", value)}, true, rod.SelectorTypeCSSSector)
	})
}

func (s *session) HTML() (string, error) {
	html, err := s.page.HTML()
	if err != nil {
		return "", eris.Wrap(err, "browser: read page source")
	}
	return html, nil
}

func (s *session) URL() (string, error) {
	info, err := s.page.Info()
	if err != nil {
		return "", eris.Wrap(err, "browser: read page url")
	}
	return info.URL, nil
}

// Close tears down the page, the browser and its process. It is safe to call
// more than once.
func (s *session) Close() error {
	if s.browser == nil {
		return nil
	}
	_ = s.page.Close()
	err := s.browser.Close()
	s.browser = nil
	return err
}

// find waits up to the implicit wait for xpath to match.
func (s *session) find(xpath string) (*rod.Element, error) {
	page := s.page.Timeout(s.wait)
	defer page.CancelTimeout()

	el, err := page.ElementX(xpath)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrElementNotFound, xpath)
		}
		return nil, eris.Wrapf(err, "browser: find %s", xpath)
	}
	// Detach the element from the lookup deadline.
	return el.Context(s.page.GetContext()), nil
}

// isNotFound reports whether a lookup ran out its wait or matched nothing.
func isNotFound(err error) bool {
	var notFound *rod.ElementNotFoundError
	return errors.Is(err, context.DeadlineExceeded) || errors.As(err, &notFound)
}

func (s *session) interact(waitNavigation bool, action func() error) error {
	if !waitNavigation {
		return action()
	}
	page := s.page.Timeout(s.wait)
	defer page.CancelTimeout()

	wait := page.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := action(); err != nil {
		return err
	}
	wait()
	return nil
}

// xpathLiteral quotes v for use inside an XPath expression. XPath 1.0 has no
// escapes, so a value holding both quote kinds is built with concat().
func xpathLiteral(v string) string {
	switch {
	case !strings.ContainsRune(v, '\''):
		return "'" + v + "'"
	case !strings.ContainsRune(v, '"'):
		return `"` + v + `"`
	}
	parts := strings.Split(v, "'")
	for i, p := range parts {
		parts[i] = "'" + p + "'"
	}
	return "concat(" + strings.Join(parts, `, "'", `) + ")"
}
