package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"breedscraper/internal/downloader"
	"breedscraper/pkg/browser"
	"breedscraper/pkg/config"
	"breedscraper/pkg/logger"
	"breedscraper/pkg/proxy"
	"breedscraper/pkg/ratelimit"
	"breedscraper/pkg/scraper"
	"breedscraper/pkg/ui"
	"breedscraper/pkg/useragent"

	"github.com/spf13/cobra"
)

var (
	// Scrape command flags
	outputDir   string
	proxyFile   string
	maxAttempts int
	target      int
	allClasses  bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape [class]",
	Short: "Collect images for a class from image search",
	Long: `Collect images for one class, running every search term configured for it.

Each term is searched in a fresh headless browser. The first attempt is made
without a proxy; retries go through a verified proxy from the candidate list.
Images are saved to <output>/<class>/ and skipped when their perceptual hash
matches an image already there.`,
	Example: `  # Ask for the class interactively
  breedscraper scrape

  # Scrape Angus with a proxy list and a smaller target
  breedscraper scrape Angus --proxy-file proxies.txt --target 200

  # Scrape every configured class
  breedscraper scrape --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "dataset root directory (default dataset/raw)")
	scrapeCmd.Flags().StringVar(&proxyFile, "proxy-file", "", "file with one proxy per line")
	scrapeCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "browser attempts per search term")
	scrapeCmd.Flags().IntVar(&target, "target", 0, "images wanted per class")
	scrapeCmd.Flags().BoolVar(&allClasses, "all", false, "scrape every configured class")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(map[string]interface{}{
		"output":       outputDir,
		"proxy-file":   proxyFile,
		"max-attempts": maxAttempts,
		"target":       target,
	})
	if err != nil {
		return err
	}

	jobs, err := selectJobs(cfg, args)
	if err != nil {
		return err
	}

	candidates, err := proxy.LoadCandidates(cfg.Proxy.Candidates, cfg.Proxy.CandidatesFile)
	if err != nil {
		return err
	}
	ui.PrintInfo("Proxy candidates", fmt.Sprintf("%d", len(candidates)))
	ui.PrintInfo("Search terms", fmt.Sprintf("%d", len(jobs)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := newOrchestrator(cfg, candidates, log)
	orch.OnResult = func(res scraper.Result, err error) {
		ui.PrintJob(ui.JobLine{
			Class:   res.Class,
			Term:    res.Term,
			Count:   res.Count,
			Target:  res.Target,
			Aborted: res.Aborted,
			Err:     err,
		})
	}

	summaries := orch.Run(ctx, jobs)

	rows := make([]ui.SummaryRow, len(summaries))
	for i, s := range summaries {
		rows[i] = ui.SummaryRow{Class: s.Class, Jobs: s.Jobs, Images: s.Images, Target: s.Target}
	}
	ui.PrintSummary(rows)

	if ctx.Err() != nil {
		ui.PrintWarning("\n[INTERRUPTED]")
	}
	return nil
}

// selectJobs resolves the class argument (or --all) to the jobs to run
func selectJobs(cfg *config.Config, args []string) ([]scraper.Job, error) {
	if allClasses {
		return scraper.Jobs(cfg.Jobs), nil
	}

	class, err := classArg(cfg, args)
	if err != nil {
		return nil, err
	}
	job, ok := cfg.Job(class)
	if !ok {
		return nil, fmt.Errorf("unknown class %q (configured: %s)", class, strings.Join(cfg.Classes(), ", "))
	}
	return scraper.Jobs([]config.JobConfig{job}), nil
}

func newPipeline(cfg *config.Config, candidates []string, log logger.Logger) *scraper.Pipeline {
	seed := time.Now().UnixNano()
	agents := useragent.New(cfg.Browser.UserAgents, seed)

	verifier := proxy.NewVerifier(cfg.Proxy, agents, log)
	selector := proxy.NewSelector(verifier, candidates, cfg.Proxy, log, seed)
	launcher := browser.NewLauncher(cfg.Browser, selector, agents, log)

	limiter := ratelimit.PerMinute(cfg.Download.RequestsPerMinute)
	fetcher := downloader.NewFetcher(cfg.Download, agents, limiter, log)

	return scraper.NewPipeline(cfg, launcher, fetcher, log)
}

func newOrchestrator(cfg *config.Config, candidates []string, log logger.Logger) *scraper.Orchestrator {
	return scraper.NewOrchestrator(newPipeline(cfg, candidates, log), cfg.Scrape, log)
}
