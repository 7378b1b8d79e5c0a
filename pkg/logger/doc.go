// Package logger provides the structured logging interface used across the scraper.
//
// It wraps zerolog. Console output is human-readable and colored on a
// terminal; when a log file is configured every entry is also appended
// there as a JSON line.
//
//	log, err := logger.New(&cfg.Logging)
//	log.WithField("class", "Angus").Info("Job started")
//	logger.LogCommit(log, "Angus", "Angus_0001_412.jpg", fp, 1, 1000)
//
// NewTestLogger captures entries in memory for assertions.
package logger
