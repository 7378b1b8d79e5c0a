// Package scraper collects deduplicated images for labeled classes.
//
// A Pipeline runs one Job, a search term feeding a class directory:
//
//	pipeline := scraper.NewPipeline(cfg, launcher, fetcher, log)
//	res, err := pipeline.Run(ctx, scraper.Job{Class: "Angus", Term: "Angus cow in field", Target: 1000})
//
// Run first seeds the class's fingerprint set from disk, deleting files
// whose fingerprint repeats. It then opens browser sessions, the first
// direct and the rest through a proxy, and walks the search results:
// each thumbnail is opened, its full-resolution image fetched, validated
// and committed unless its fingerprint is already stored.
//
// Duplicate handling:
//
// A streak of RefreshAfterSkips duplicates triggers a burst of scrolling
// to surface new results. A streak of AbortAfterSkips duplicates ends the
// job immediately with Result.Aborted set; no further attempts are made.
// Committing an image resets both streaks.
//
// The Orchestrator runs jobs in order with a random pause between terms
// and aggregates a ClassSummary per class.
package scraper
