package proxy

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"breedscraper/pkg/config"
	errs "breedscraper/pkg/errors"
	"breedscraper/pkg/logger"
	"breedscraper/pkg/useragent"

	xproxy "golang.org/x/net/proxy"
)

// Checker probes a single proxy. A nil error means the proxy passed.
type Checker interface {
	Check(ctx context.Context, proxy string) error
}

// Verifier checks a proxy by fetching every test URL through it
type Verifier struct {
	testURLs []string
	timeout  time.Duration
	agents   *useragent.Pool
	logger   logger.Logger
}

// NewVerifier creates a verifier from the proxy configuration
func NewVerifier(cfg config.ProxyConfig, agents *useragent.Pool, log logger.Logger) *Verifier {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Verifier{
		testURLs: cfg.TestURLs,
		timeout:  cfg.Timeout,
		agents:   agents,
		logger:   log.WithField("component", "proxy_verifier"),
	}
}

// Check requires every test URL to answer 200 through the proxy. The
// first failing endpoint ends the check.
func (v *Verifier) Check(ctx context.Context, proxy string) error {
	transport, err := Transport(proxy, v.timeout)
	if err != nil {
		return err
	}
	defer transport.CloseIdleConnections()

	client := &http.Client{
		Transport: transport,
		Timeout:   v.timeout,
	}

	for _, target := range v.testURLs {
		if err := v.probe(ctx, client, target); err != nil {
			v.logger.DebugWithFields("proxy failed verification", map[string]interface{}{
				"proxy":  proxy,
				"target": target,
				"error":  err.Error(),
			})
			return err
		}
	}

	v.logger.InfoWithFields("proxy verified", map[string]interface{}{"proxy": proxy})
	return nil
}

func (v *Verifier) probe(ctx context.Context, client *http.Client, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	SetBrowserHeaders(req, v.agents.Random())

	resp, err := client.Do(req)
	if err != nil {
		return errs.Network("proxy request failed", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK {
		return errs.FromStatus(resp.StatusCode)
	}
	return nil
}

// SetBrowserHeaders makes a request look like it came from a desktop browser
func SetBrowserHeaders(req *http.Request, userAgent string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("DNT", "1")
}

// URL parses a proxy string. Bare host:port means http.
func URL(proxy string) (*url.URL, error) {
	raw := strings.TrimSpace(proxy)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errs.Validation("invalid proxy "+proxy, err)
	}
	if u.Host == "" || u.Port() == "" {
		return nil, errs.Validation("proxy must be host:port: "+proxy, nil)
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, errs.Validation("unsupported proxy scheme "+u.Scheme, nil)
	}
	return u, nil
}

// Transport builds an HTTP transport that routes through proxy
func Transport(proxy string, timeout time.Duration) (*http.Transport, error) {
	u, err := URL(proxy)
	if err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		IdleConnTimeout:       timeout,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: time.Second,
	}

	if u.Scheme == "socks5" {
		var auth *xproxy.Auth
		if u.User != nil {
			password, _ := u.User.Password()
			auth = &xproxy.Auth{User: u.User.Username(), Password: password}
		}
		socks, err := xproxy.SOCKS5("tcp", u.Host, auth, dialer)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		contextDialer, ok := socks.(xproxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("SOCKS5 dialer does not support contexts")
		}
		transport.DialContext = contextDialer.DialContext
		return transport, nil
	}

	transport.Proxy = http.ProxyURL(u)
	transport.DialContext = dialer.DialContext
	return transport, nil
}
