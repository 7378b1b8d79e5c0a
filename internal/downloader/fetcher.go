package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"breedscraper/pkg/config"
	errs "breedscraper/pkg/errors"
	"breedscraper/pkg/logger"
	"breedscraper/pkg/ratelimit"
	"breedscraper/pkg/retry"
	"breedscraper/pkg/useragent"
)

// Fetcher downloads full-resolution images
type Fetcher struct {
	httpClient  *http.Client
	agents      *useragent.Pool
	rateLimiter ratelimit.Limiter
	maxSize     int64
	retries     int
	backoff     retry.BackoffStrategy
	logger      logger.Logger
}

// NewFetcher creates a fetcher from the download configuration
func NewFetcher(cfg config.DownloadConfig, agents *useragent.Pool, limiter ratelimit.Limiter, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		agents:      agents,
		rateLimiter: limiter,
		maxSize:     cfg.MaxFileSize,
		retries:     cfg.Retries,
		backoff: &retry.ExponentialBackoff{
			BaseDelay:    cfg.RetryDelay,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		logger: log.WithField("component", "fetcher"),
	}
}

// Fetch returns the body of url. Anything but 200 OK is an error; network
// failures, 429 and 5xx responses are retried with exponential backoff.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context, attempt int) ([]byte, error) {
		return f.fetchOnce(ctx, url)
	}, &retry.Config{
		MaxAttempts: f.retries + 1,
		Backoff:     f.backoff,
		RetryIf:     retry.DefaultRetryIf,
		Logger:      f.logger,
	})
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	if f.rateLimiter != nil {
		if err := f.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Validation("invalid image URL", err)
	}
	req.Header.Set("User-Agent", f.agents.Random())
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.DebugWithFields("image request failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return nil, errs.Network(fmt.Sprintf("request failed: %v", err), err)
	}
	defer resp.Body.Close()

	logger.LogRequest(f.logger, req.Method, url, resp.StatusCode, float64(time.Since(start).Milliseconds()))

	if resp.StatusCode != http.StatusOK {
		return nil, errs.FromStatus(resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if f.maxSize > 0 {
		body = io.LimitReader(resp.Body, f.maxSize+1)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errs.Network("failed to read image body", err)
	}
	if f.maxSize > 0 && int64(len(data)) > f.maxSize {
		return nil, errs.Validation(fmt.Sprintf("image exceeds %d bytes", f.maxSize), nil)
	}

	return data, nil
}
