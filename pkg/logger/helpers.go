package logger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// LogRequest logs an outbound HTTP request
func LogRequest(l Logger, method, url string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("HTTP request completed", fields)
	case statusCode >= 400 && statusCode < 500:
		l.WarnWithFields("HTTP request client error", fields)
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	}
}

// LogCommit logs an image accepted into a class directory
func LogCommit(l Logger, class, filename, fingerprint string, count, target int) {
	l.InfoWithFields("Image committed", map[string]interface{}{
		"class":       class,
		"file":        filename,
		"fingerprint": fingerprint,
		"progress":    fmt.Sprintf("%d/%d", count, target),
	})
}

// LogSkip logs a candidate rejected by the pipeline
func LogSkip(l Logger, class, reason string, streak int) {
	l.DebugWithFields("Image skipped", map[string]interface{}{
		"class":  class,
		"reason": reason,
		"streak": streak,
	})
}

// LogBatchSummary logs the counters for one thumbnail batch
func LogBatchSummary(l Logger, class string, committed, skipped, failed int) {
	l.InfoWithFields("Batch processed", map[string]interface{}{
		"class":     class,
		"committed": committed,
		"skipped":   skipped,
		"failed":    failed,
	})
}

// LogScrapeProgress logs per-class progress towards its target
func LogScrapeProgress(l Logger, class string, collected, target int) {
	percentage := 0.0
	if target > 0 {
		percentage = float64(collected) / float64(target) * 100
	}

	l.WithFields(map[string]interface{}{
		"class":      class,
		"collected":  collected,
		"target":     target,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Info("Scraping progress")
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	logger := l.WithField("component", component)
	if len(config) > 0 {
		logger = logger.WithFields(config)
	}
	logger.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
