package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserLauncher starts one headless browser per Launch.
//
// Design decision: the browser is the expensive resource, so it lives for a
// whole domain crawl and is shared by that crawl's concurrent fetches. Pages
// never share cookies or storage because every fetch gets its own incognito
// context.
type BrowserLauncher struct {
	opts options
}

// NewBrowserLauncher validates the options and returns a BrowserLauncher.
func NewBrowserLauncher(opts ...Option) (*BrowserLauncher, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if _, err := validateProxy(o.proxy); err != nil {
		return nil, err
	}
	return &BrowserLauncher{opts: o}, nil
}

// Launch starts the browser and connects to it.
// Any failure is wrapped in ErrBrowserLaunch and leaves no process behind.
func (l *BrowserLauncher) Launch(ctx context.Context) (Session, error) {
	if l.opts.browserBin != "" {
		if _, err := os.Stat(l.opts.browserBin); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
		}
	}

	lc := launcher.New().Context(ctx).Headless(l.opts.headless)
	if l.opts.browserBin != "" {
		lc = lc.Bin(l.opts.browserBin)
	}
	if l.opts.proxy != "" {
		lc = lc.Proxy(l.opts.proxy)
	}

	controlURL, err := lc.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		lc.Kill()
		lc.Cleanup()
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	s := &BrowserSession{
		launcher:   lc,
		browser:    browser,
		userAgent:  l.opts.userAgent,
		headers:    l.opts.headers,
		navTimeout: l.opts.navTimeout,
		logger:     l.opts.logger,
	}
	return limitSession(s, l.opts.rateLimit), nil
}

// BrowserSession fetches rendered DOM snapshots from one running browser.
// It is safe for concurrent use.
type BrowserSession struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	userAgent  string
	headers    map[string]string
	navTimeout time.Duration
	logger     *slog.Logger
}

// Fetch implements Fetcher. It waits for DOMContentLoaded only, not for
// network idle, and returns the DOM serialized at that moment.
func (s *BrowserSession) Fetch(ctx context.Context, pageURL string) (string, bool) {
	html, err := s.render(ctx, pageURL)
	if err != nil {
		s.logger.Warn("fetch failed", "url", pageURL, "error", err)
		return "", false
	}
	return html, true
}

func (s *BrowserSession) render(ctx context.Context, pageURL string) (string, error) {
	incognito, err := s.browser.Incognito()
	if err != nil {
		return "", fmt.Errorf("failed to create browser context: %w", err)
	}
	defer func() {
		if err := incognito.Close(); err != nil {
			s.logger.Debug("failed to dispose browser context", "url", pageURL, "error", err)
		}
	}()

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			s.logger.Debug("failed to close page", "url", pageURL, "error", err)
		}
	}()

	navCtx, cancel := context.WithTimeout(ctx, s.navTimeout)
	defer cancel()
	p := page.Context(navCtx)

	if s.userAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.userAgent}); err != nil {
			return "", fmt.Errorf("failed to set user agent: %w", err)
		}
	}
	if len(s.headers) > 0 {
		dict := make([]string, 0, len(s.headers)*2)
		for key, value := range s.headers {
			dict = append(dict, key, value)
		}
		cleanup, err := p.SetExtraHeaders(dict)
		if err != nil {
			return "", fmt.Errorf("failed to set headers: %w", err)
		}
		defer cleanup()
	}

	wait := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(pageURL); err != nil {
		return "", navigationError(navCtx, err)
	}
	wait()
	if err := navCtx.Err(); err != nil {
		return "", navigationError(navCtx, err)
	}

	html, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read DOM: %w", err)
	}
	return html, nil
}

// navigationError labels timeouts so the log line says what happened.
func navigationError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("navigation timed out: %w", err)
	}
	return fmt.Errorf("navigation failed: %w", err)
}

// Close shuts the browser down and removes its temporary profile.
func (s *BrowserSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}
