package scraper

import (
	"context"

	"breedscraper/pkg/config"
	"breedscraper/pkg/logger"
	"breedscraper/pkg/retry"

	"github.com/google/uuid"
)

// JobRunner runs a single job
type JobRunner interface {
	Run(ctx context.Context, job Job) (Result, error)
}

// ClassSummary aggregates the jobs of one class
type ClassSummary struct {
	Class  string
	Jobs   int
	Images int
	Target int
}

// Orchestrator runs jobs one after another with a random pause between them
type Orchestrator struct {
	runner   JobRunner
	delay    retry.BackoffStrategy
	logger   logger.Logger
	OnResult func(Result, error)
}

// NewOrchestrator creates an orchestrator pausing between TermDelayMin and
// TermDelayMax after each job
func NewOrchestrator(runner JobRunner, cfg config.ScrapeConfig, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Orchestrator{
		runner: runner,
		delay:  &retry.UniformBackoff{Min: cfg.TermDelayMin, Max: cfg.TermDelayMax},
		logger: log.WithField("component", "orchestrator"),
	}
}

// Run executes jobs sequentially. A failing job is logged and the next one
// runs; cancellation stops the run. Summaries are in first-seen class order.
func (o *Orchestrator) Run(ctx context.Context, jobs []Job) []ClassSummary {
	log := o.logger.WithField("run_id", uuid.NewString())
	logger.LogComponentStart(log, "orchestrator", map[string]interface{}{"jobs": len(jobs)})

	var order []string
	byClass := make(map[string]*ClassSummary)

	stopReason := "completed"
	for i, job := range jobs {
		if i > 0 {
			delay := o.delay.NextDelay(i)
			log.DebugWithFields("Pausing before next term", map[string]interface{}{"delay": delay})
			if err := retry.Wait(ctx, delay); err != nil {
				stopReason = "cancelled"
				break
			}
		}

		log.InfoWithFields("Starting job", map[string]interface{}{
			"class":  job.Class,
			"term":   job.Term,
			"target": job.Target,
			"job":    i + 1,
			"of":     len(jobs),
		})

		res, err := o.runner.Run(ctx, job)
		if err != nil {
			log.WithError(err).ErrorWithFields("Job failed", map[string]interface{}{
				"class": job.Class,
				"term":  job.Term,
			})
		}
		if o.OnResult != nil {
			o.OnResult(res, err)
		}

		s, ok := byClass[job.Class]
		if !ok {
			s = &ClassSummary{Class: job.Class}
			byClass[job.Class] = s
			order = append(order, job.Class)
		}
		s.Jobs++
		if res.Count > s.Images {
			s.Images = res.Count
		}
		if job.Target > s.Target {
			s.Target = job.Target
		}

		if ctx.Err() != nil {
			stopReason = "cancelled"
			break
		}
	}

	summaries := make([]ClassSummary, 0, len(order))
	for _, class := range order {
		s := *byClass[class]
		summaries = append(summaries, s)
		log.InfoWithFields("Class summary", map[string]interface{}{
			"class":  s.Class,
			"jobs":   s.Jobs,
			"images": s.Images,
			"target": s.Target,
		})
	}

	logger.LogComponentStop(log, "orchestrator", stopReason)
	return summaries
}
