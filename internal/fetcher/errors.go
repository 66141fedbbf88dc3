package fetcher

import "fmt"

// NetworkError is a transport-level failure: the connection, TLS handshake,
// or a local read. StatusCode is set only when one was synthesized.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetcher: network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a response whose final status is outside 2xx.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fetcher: %s returned status %d", e.URL, e.StatusCode)
}

// NavigationError is a headless step whose locator matched nothing.
// Expected failures are anticipated by the site (a period not yet
// published) and are not bugs.
type NavigationError struct {
	Locator  string
	Expected bool
	Reason   string
	Err      error
}

func (e *NavigationError) Error() string {
	if e.Expected {
		return fmt.Sprintf("fetcher: expected navigation failure at %s: %s", e.Locator, e.Reason)
	}
	return fmt.Sprintf("fetcher: navigation failed at %s: %v", e.Locator, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }
