// Package ratelimit paces image fetches so the scraper does not hammer
// the hosts it downloads from.
//
// TokenBucket holds a fixed number of tokens that refill all at once
// after each period:
//
//	limiter := ratelimit.PerMinute(120)
//	if err := limiter.Wait(ctx); err != nil {
//		return err
//	}
package ratelimit
