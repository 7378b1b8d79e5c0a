package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"breedscraper/internal/hasher"
	"breedscraper/pkg/browser"
	"breedscraper/pkg/config"
	errs "breedscraper/pkg/errors"
	"breedscraper/pkg/fingerprint"
	"breedscraper/pkg/logger"
	"breedscraper/pkg/retry"
	"breedscraper/pkg/storage"
)

// Job is one search term collected into a class directory
type Job struct {
	Class  string
	Term   string
	Target int
}

// Jobs expands the configured job table into one Job per search term
func Jobs(table []config.JobConfig) []Job {
	var jobs []Job
	for _, jc := range table {
		for _, term := range jc.Terms {
			jobs = append(jobs, Job{Class: jc.Class, Term: term, Target: jc.Target})
		}
	}
	return jobs
}

// RunStats counts what one attempt did with the thumbnails it visited
type RunStats struct {
	Processed         int
	Successful        int
	Failed            int
	SkippedDuplicates int
	ConsecutiveSkips  int
}

// Result reports how a job ended. Count is the class total on disk.
type Result struct {
	Class    string
	Term     string
	Count    int
	Target   int
	Seed     storage.SeedReport
	Stats    RunStats
	Attempts int
	Aborted  bool
}

// ImageFetcher downloads the bytes behind an image URL
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Pipeline collects deduplicated images for one job at a time
type Pipeline struct {
	opener    browser.Opener
	paginator *browser.Paginator
	fetcher   ImageFetcher
	search    config.SearchConfig
	scrape    config.ScrapeConfig
	baseDir   string
	workers   int
	logger    logger.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewPipeline wires a pipeline from the configuration
func NewPipeline(cfg *config.Config, opener browser.Opener, fetcher ImageFetcher, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Pipeline{
		opener:    opener,
		paginator: browser.NewPaginator(cfg.Search, log),
		fetcher:   fetcher,
		search:    cfg.Search,
		scrape:    cfg.Scrape,
		baseDir:   cfg.Output.BaseDirectory,
		workers:   cfg.Download.SeedWorkers,
		logger:    log.WithField("component", "pipeline"),
		rng:       rand.New(rand.NewSource(rand.Int63())),
	}
}

// SearchURL returns the image search URL for term
func (p *Pipeline) SearchURL(term string) string {
	return strings.ReplaceAll(p.search.URLTemplate, "{query}", url.QueryEscape(term))
}

// Run seeds the class directory and then makes up to MaxAttempts browser
// attempts until the class holds job.Target images. A duplicate streak of
// AbortAfterSkips ends the job at once with Aborted set and a nil error.
// Any other shortfall is returned as an error alongside the partial result.
func (p *Pipeline) Run(ctx context.Context, job Job) (Result, error) {
	res := Result{Class: job.Class, Term: job.Term, Target: job.Target}
	log := p.logger.WithFields(map[string]interface{}{
		"class": job.Class,
		"term":  job.Term,
	})

	store, err := storage.NewManager(p.baseDir, job.Class, p.workers, log)
	if err != nil {
		return res, err
	}
	res.Seed, err = store.Seed(ctx)
	if err != nil {
		return res, err
	}
	res.Count = store.Count()

	if res.Count >= job.Target {
		log.InfoWithFields("Target already reached", map[string]interface{}{
			"count":  res.Count,
			"target": job.Target,
		})
		return res, nil
	}

	searchURL := p.SearchURL(job.Term)
	err = retry.Do(ctx, func(ctx context.Context, n int) error {
		res.Attempts = n
		a := &attempt{
			pipeline: p,
			store:    store,
			job:      job,
			logger:   log.WithField("attempt", n),
		}
		err := a.run(ctx, searchURL, n > 1)
		res.Stats = a.stats
		res.Count = store.Count()
		if err != nil {
			return err
		}
		if res.Count < job.Target {
			return errs.ErrTargetNotReached
		}
		return nil
	}, &retry.Config{
		MaxAttempts: p.scrape.MaxAttempts,
		Backoff:     &retry.ConstantBackoff{Delay: p.scrape.AttemptDelay},
		RetryIf:     retry.DefaultRetryIf,
		Logger:      log,
	})

	switch {
	case err == nil:
		log.InfoWithFields("Target reached", map[string]interface{}{
			"count":    res.Count,
			"attempts": res.Attempts,
		})
		return res, nil
	case errors.Is(err, errs.ErrSkipLimit):
		res.Aborted = true
		log.WarnWithFields("Too many consecutive duplicates, stopping job", map[string]interface{}{
			"count":  res.Count,
			"target": job.Target,
			"skips":  res.Stats.ConsecutiveSkips,
		})
		return res, nil
	default:
		return res, fmt.Errorf("job %s/%q ended with %d/%d images: %w", job.Class, job.Term, res.Count, job.Target, err)
	}
}

type outcome int

const (
	outcomeCommitted outcome = iota
	outcomeDuplicate
	outcomeFailed
	outcomeUnfetched
)

// attempt is one browser session's worth of work on a job
type attempt struct {
	pipeline      *Pipeline
	store         *storage.Manager
	job           Job
	session       browser.Session
	stats         RunStats
	refreshStreak int
	logger        logger.Logger
}

func (a *attempt) run(ctx context.Context, searchURL string, useProxy bool) error {
	p := a.pipeline

	session, err := p.opener.Open(ctx, useProxy)
	if err != nil {
		return err
	}
	defer session.Close()
	a.session = session

	if err := session.Navigate(ctx, searchURL); err != nil {
		return err
	}
	if err := retry.Wait(ctx, p.search.SettleDelay); err != nil {
		return err
	}

	processed := 0
	for a.store.Count() < a.job.Target {
		p.paginator.LoadThumbnails(ctx, session, processed+p.scrape.BatchSize)

		thumbs, err := session.Elements(ctx, p.search.ThumbnailSel)
		if err != nil {
			return errs.Browser("failed to list thumbnails", err)
		}
		if len(thumbs) <= processed {
			return errs.ErrNoFreshContent
		}

		var committed, skipped, failed, batchSkips int
		for _, thumb := range thumbs[processed:] {
			if a.refreshStreak >= p.scrape.RefreshAfterSkips {
				a.refresh(ctx)
				break
			}
			processed++
			a.stats.Processed++

			out, err := a.process(ctx, thumb)
			if err != nil {
				return err
			}

			switch out {
			case outcomeCommitted:
				committed++
				a.stats.Successful++
				a.stats.ConsecutiveSkips = 0
				a.refreshStreak = 0
			case outcomeDuplicate:
				skipped++
				batchSkips++
				a.stats.SkippedDuplicates++
				a.stats.ConsecutiveSkips++
				a.refreshStreak++
				logger.LogSkip(a.logger, a.job.Class, "duplicate", a.stats.ConsecutiveSkips)
				if a.stats.ConsecutiveSkips >= p.scrape.AbortAfterSkips {
					return errs.ErrSkipLimit
				}
			case outcomeFailed:
				failed++
				a.stats.Failed++
			}

			session.TryClick(ctx, p.search.CloseModalSel)

			if a.store.Count() >= a.job.Target || batchSkips > p.scrape.BatchSkipLimit {
				break
			}
		}

		logger.LogBatchSummary(a.logger, a.job.Class, committed, skipped, failed)
		logger.LogScrapeProgress(a.logger, a.job.Class, a.store.Count(), a.job.Target)

		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// process opens one thumbnail, fetches its full-resolution image and
// commits it if it is a new RGB image. Only cancellation is an error.
func (a *attempt) process(ctx context.Context, thumb browser.Element) (outcome, error) {
	p := a.pipeline

	if err := thumb.Reveal(ctx); err != nil {
		a.logger.DebugWithFields("Failed to open thumbnail", map[string]interface{}{"error": err.Error()})
		return outcomeFailed, ctx.Err()
	}
	if err := retry.Wait(ctx, p.scrape.RevealPause); err != nil {
		return outcomeFailed, err
	}

	src, err := a.session.WaitAttribute(ctx, p.search.FullResSel, "src", p.scrape.FullResTimeout)
	if err != nil {
		a.logger.DebugWithFields("Full-resolution image not found", map[string]interface{}{"error": err.Error()})
		return outcomeFailed, ctx.Err()
	}

	data, err := p.fetcher.Fetch(ctx, src)
	if err != nil {
		a.logger.WarnWithFields("Image download failed", map[string]interface{}{
			"url":   src,
			"error": err.Error(),
		})
		return outcomeUnfetched, ctx.Err()
	}

	fp, err := p.validate(data)
	if err != nil {
		logger.LogSkip(a.logger, a.job.Class, err.Error(), a.stats.ConsecutiveSkips)
		return outcomeFailed, nil
	}

	name, err := a.store.Commit(data, fp)
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		return outcomeDuplicate, nil
	case err != nil:
		a.logger.ErrorWithFields("Failed to save image", map[string]interface{}{"error": err.Error()})
		return outcomeFailed, nil
	}

	logger.LogCommit(a.logger, a.job.Class, name, fp, a.store.Count(), a.job.Target)
	return outcomeCommitted, nil
}

// refresh scrolls in bursts to surface thumbnails the duplicates were hiding
func (a *attempt) refresh(ctx context.Context) {
	p := a.pipeline
	a.logger.InfoWithFields("Refreshing results after duplicate streak", map[string]interface{}{
		"streak": a.refreshStreak,
	})
	for i := 0; i < p.scrape.RefreshScrolls; i++ {
		if err := a.session.ScrollBy(ctx, 2); err != nil {
			a.logger.DebugWithFields("scroll failed", map[string]interface{}{"error": err.Error()})
		}
		if retry.Wait(ctx, p.search.ScrollPause) != nil {
			break
		}
	}
	a.refreshStreak = 0
}

// validate decodes data and returns its fingerprint, rejecting undecodable
// images and, when RequireRGB is set, anything that is not plain RGB
func (p *Pipeline) validate(data []byte) (string, error) {
	img, _, err := fingerprint.Decode(data)
	if err != nil {
		return "", errs.Validation("undecodable image", err)
	}
	if mode := fingerprint.ColorMode(img); p.scrape.RequireRGB && mode != fingerprint.ModeRGB {
		return "", errs.Validation(fmt.Sprintf("color mode %s is not RGB", mode), nil)
	}
	fp, err := fingerprint.Image(img)
	if err != nil {
		return fingerprint.Content(data), nil
	}
	return fp, nil
}

// DownloadOne fetches a single image into dir as a re-encoded JPEG named
// <term>_<index>_<random>.jpg. Non-RGB images are rejected with a
// validation error and images already present in dir with
// storage.ErrDuplicate.
func (p *Pipeline) DownloadOne(ctx context.Context, imageURL, dir, term string, index int) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := p.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		return "", err
	}

	img, _, err := fingerprint.Decode(data)
	if err != nil {
		return "", errs.Validation("undecodable image", err)
	}
	if mode := fingerprint.ColorMode(img); mode != fingerprint.ModeRGB {
		return "", errs.Validation(fmt.Sprintf("color mode %s is not RGB", mode), nil)
	}
	// Hash the bytes that land on disk; re-encoding moves the average hash.
	encoded, err := storage.EncodeJPEG(fingerprint.ToRGB(img))
	if err != nil {
		return "", err
	}
	fp := fingerprint.Compute(encoded)

	existing, err := p.existingFingerprints(ctx, dir)
	if err != nil {
		return "", err
	}
	if _, dup := existing[fp]; dup {
		return "", storage.ErrDuplicate
	}

	p.rngMu.Lock()
	suffix := 1000 + p.rng.Intn(9000)
	p.rngMu.Unlock()

	name := fmt.Sprintf("%s_%d_%d.jpg", strings.ReplaceAll(term, " ", "_"), index, suffix)
	path := filepath.Join(dir, name)
	if err := storage.WriteFileAtomic(path, bytes.NewReader(encoded)); err != nil {
		return "", err
	}

	p.logger.InfoWithFields("Image saved", map[string]interface{}{
		"file":        path,
		"fingerprint": fp,
	})
	return path, nil
}

func (p *Pipeline) existingFingerprints(ctx context.Context, dir string) (map[string]struct{}, error) {
	names, err := storage.ListImages(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}

	results, err := hasher.HashAll(ctx, p.workers, fingerprint.File, paths, p.logger)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(results))
	for _, r := range results {
		if r.Err == nil {
			set[r.Fingerprint] = struct{}{}
		}
	}
	return set, nil
}
