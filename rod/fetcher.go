// Package rod provides a browser-backed prgi.Fetcher for registry pages
// that render their listing with JavaScript.
package rod

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/prgi"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultWaitSelector is the element Fetch waits for before reading the page.
const DefaultWaitSelector = "table"

// DefaultFetchTimeout bounds a single page load.
const DefaultFetchTimeout = 60 * time.Second

// Ensure Fetcher implements prgi.Fetcher at compile time.
var _ prgi.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	browser      *rod.Browser
	launcher     *launcher.Launcher
	waitSelector string
	timeout      time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithWaitSelector sets the CSS selector that must appear before the page
// HTML is returned. An empty selector waits for the load event only.
func WithWaitSelector(selector string) Option {
	return func(f *Fetcher) {
		f.waitSelector = selector
	}
}

// WithTimeout bounds each page load.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// NewFetcher creates a new Fetcher that launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		waitSelector: DefaultWaitSelector,
		timeout:      DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	l := launcher.New().
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	f.browser = browser
	f.launcher = l
	return f, nil
}

// Fetch navigates to the URL and returns the rendered HTML once the wait
// selector is present.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	page, err := f.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", err
	}
	defer page.Close()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", err
	}

	if f.waitSelector != "" {
		if _, err := page.Element(f.waitSelector); err != nil {
			return "", fmt.Errorf("waiting for %q: %w", f.waitSelector, err)
		}
	}

	return page.HTML()
}

// Close releases browser resources.
func (f *Fetcher) Close() error {
	err := f.browser.Close()
	f.launcher.Kill()
	return err
}
