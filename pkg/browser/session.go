package browser

import (
	"context"
	"time"
)

// Session is the DOM automation surface the scrape pipeline drives.
// A Session is owned by one goroutine at a time.
type Session interface {
	// Navigate loads url and waits for the page to finish loading
	Navigate(ctx context.Context, url string) error
	// ScrollToBottom scrolls to the end of the document
	ScrollToBottom(ctx context.Context) error
	// ScrollBy scrolls down by the given number of viewport heights
	ScrollBy(ctx context.Context, viewports float64) error
	// TryClick clicks the first element matching selector, reporting
	// false when there is none or the click fails
	TryClick(ctx context.Context, selector string) bool
	// Count returns the number of elements matching selector right now
	Count(ctx context.Context, selector string) (int, error)
	// Elements returns the elements matching selector in document order
	Elements(ctx context.Context, selector string) ([]Element, error)
	// WaitAttribute waits up to timeout for an element matching selector
	// with a non-empty attr and returns its value
	WaitAttribute(ctx context.Context, selector, attr string, timeout time.Duration) (string, error)
	// Close tears the browser down. It is safe to call more than once.
	Close() error
}

// Element is one node of a Session's page
type Element interface {
	// Reveal scrolls the element into view and clicks it from script
	Reveal(ctx context.Context) error
}

// Opener opens browser sessions
type Opener interface {
	Open(ctx context.Context, useProxy bool) (Session, error)
}

// ProxySource supplies a proxy for a new session
type ProxySource interface {
	Acquire(ctx context.Context) (string, bool)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
