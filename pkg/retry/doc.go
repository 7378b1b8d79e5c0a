// Package retry provides bounded retry loops with pluggable backoff.
//
// The scrape pipeline runs each job's attempts through Do with a
// ConstantBackoff; the orchestrator uses UniformBackoff for the pause
// between search terms.
//
//	err := retry.Do(ctx, func(ctx context.Context, attempt int) error {
//		return runAttempt(ctx, attempt)
//	}, &retry.Config{
//		MaxAttempts: 3,
//		Backoff:     &retry.ConstantBackoff{Delay: time.Second},
//		Logger:      log,
//	})
//
// DefaultRetryIf treats typed network, rate-limit, server and browser
// errors as retryable and stops on validation errors, cancellation and
// errors.ErrSkipLimit.
package retry
