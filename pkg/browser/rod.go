package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"breedscraper/pkg/config"
	errs "breedscraper/pkg/errors"
	"breedscraper/pkg/logger"
	"breedscraper/pkg/useragent"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Launcher starts headless Chromium sessions with automation signals hidden
type Launcher struct {
	cfg     config.BrowserConfig
	proxies ProxySource
	agents  *useragent.Pool
	logger  logger.Logger
}

// NewLauncher creates a launcher. proxies may be nil when no pool is configured.
func NewLauncher(cfg config.BrowserConfig, proxies ProxySource, agents *useragent.Pool, log logger.Logger) *Launcher {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Launcher{
		cfg:     cfg,
		proxies: proxies,
		agents:  agents,
		logger:  log.WithField("component", "browser"),
	}
}

// Open launches a browser and its page. With useProxy it asks the proxy
// source first and falls back to a direct connection when none is found.
// Failures are typed browser errors, which the attempt loop retries.
func (l *Launcher) Open(ctx context.Context, useProxy bool) (Session, error) {
	lc := launcher.New().
		Context(ctx).
		Headless(l.cfg.Headless).
		NoSandbox(true).
		Leakless(false).
		Set(flags.Flag("disable-dev-shm-usage")).
		Set(flags.Flag("disable-gpu")).
		Set(flags.Flag("disable-extensions")).
		Set(flags.Flag("disable-blink-features"), "AutomationControlled").
		Set(flags.Flag("user-agent"), l.agents.Random()).
		Delete(flags.Flag("enable-automation"))

	if l.cfg.Bin != "" {
		lc = lc.Bin(l.cfg.Bin)
	}

	if useProxy {
		if p, ok := l.acquireProxy(ctx); ok {
			lc = lc.Proxy(p)
			l.logger.InfoWithFields("Using proxy", map[string]interface{}{"proxy": p})
		} else {
			l.logger.Warn("No working proxy, launching without one")
		}
	}

	controlURL, err := lc.Launch()
	if err != nil {
		return nil, errs.Browser("failed to launch browser", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		lc.Kill()
		return nil, errs.Browser("failed to connect to browser", err)
	}

	s := &rodSession{launcher: lc, browser: b}

	page, err := stealth.Page(b)
	if err != nil {
		s.Close()
		return nil, errs.Browser("failed to open page", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: l.agents.Random()}); err != nil {
		s.Close()
		return nil, errs.Browser("failed to override user agent", err)
	}

	s.page = page
	s.loadTimeout = l.cfg.PageLoadTimeout
	return s, nil
}

func (l *Launcher) acquireProxy(ctx context.Context) (string, bool) {
	if l.proxies == nil {
		return "", false
	}
	return l.proxies.Acquire(ctx)
}

type rodSession struct {
	launcher    *launcher.Launcher
	browser     *rod.Browser
	page        *rod.Page
	loadTimeout time.Duration
	closeOnce   sync.Once
	closeErr    error
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx).Timeout(s.loadTimeout)
	defer p.CancelTimeout()
	if err := p.Navigate(url); err != nil {
		return errs.Browser("navigation failed", err)
	}
	if err := p.WaitLoad(); err != nil {
		return errs.Browser("page did not finish loading", err)
	}
	return nil
}

func (s *rodSession) ScrollToBottom(ctx context.Context) error {
	_, err := s.page.Context(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

func (s *rodSession) ScrollBy(ctx context.Context, viewports float64) error {
	_, err := s.page.Context(ctx).Eval(`(n) => window.scrollTo(0, window.scrollY + window.innerHeight * n)`, viewports)
	return err
}

func (s *rodSession) TryClick(ctx context.Context, selector string) bool {
	found, el, err := s.page.Context(ctx).Has(selector)
	if err != nil || !found {
		return false
	}
	_, err = el.Eval(`() => this.click()`)
	return err == nil
}

func (s *rodSession) Count(ctx context.Context, selector string) (int, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

func (s *rodSession) Elements(ctx context.Context, selector string) ([]Element, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = rodElement{el}
	}
	return out, nil
}

func (s *rodSession) WaitAttribute(ctx context.Context, selector, attr string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := s.page.Context(ctx)
	for {
		if el, err := p.Element(selector); err == nil {
			if v, err := el.Attribute(attr); err == nil && v != nil && *v != "" {
				return *v, nil
			}
		}
		if err := sleep(ctx, 100*time.Millisecond); err != nil {
			return "", fmt.Errorf("no %s on %q within %v: %w", attr, selector, timeout, err)
		}
	}
}

func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		if s.browser != nil {
			s.closeErr = s.browser.Close()
		}
		s.launcher.Kill()
		s.launcher.Cleanup()
	})
	return s.closeErr
}

type rodElement struct {
	el *rod.Element
}

func (e rodElement) Reveal(ctx context.Context) error {
	el := e.el.Context(ctx)
	if err := el.ScrollIntoView(); err != nil {
		return err
	}
	if _, err := el.Eval(`() => this.click()`); err != nil {
		return errs.Browser("click failed", err)
	}
	return nil
}
