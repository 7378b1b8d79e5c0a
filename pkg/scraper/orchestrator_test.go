package scraper

import (
	"context"
	"errors"
	"testing"

	"breedscraper/pkg/config"
	"breedscraper/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	counts map[string]int // term -> class count after the job
	fail   map[string]bool
	ran    []Job
	onRun  func(Job)
}

func (r *fakeRunner) Run(ctx context.Context, job Job) (Result, error) {
	r.ran = append(r.ran, job)
	if r.onRun != nil {
		r.onRun(job)
	}
	res := Result{Class: job.Class, Term: job.Term, Target: job.Target, Count: r.counts[job.Term]}
	if r.fail[job.Term] {
		return res, errors.New("browser crashed")
	}
	return res, nil
}

func noDelay() config.ScrapeConfig {
	cfg := config.DefaultConfig().Scrape
	cfg.TermDelayMin = 0
	cfg.TermDelayMax = 0
	return cfg
}

func TestOrchestratorAggregatesByClass(t *testing.T) {
	runner := &fakeRunner{
		counts: map[string]int{"angus cow": 3, "angus calf": 4, "hereford bull": 2},
		fail:   map[string]bool{"angus calf": true},
	}
	log := logger.NewTestLogger()
	o := NewOrchestrator(runner, noDelay(), log)

	var seen int
	o.OnResult = func(Result, error) { seen++ }

	jobs := []Job{
		{Class: "Angus", Term: "angus cow", Target: 10},
		{Class: "Angus", Term: "angus calf", Target: 10},
		{Class: "Hereford", Term: "hereford bull", Target: 5},
	}
	summaries := o.Run(context.Background(), jobs)

	assert.Equal(t, jobs, runner.ran, "a failed job does not stop the run")
	assert.Equal(t, 3, seen)
	assert.Equal(t, []ClassSummary{
		{Class: "Angus", Jobs: 2, Images: 4, Target: 10},
		{Class: "Hereford", Jobs: 1, Images: 2, Target: 5},
	}, summaries)

	failed := log.GetMessagesByLevel("ERROR")
	require.Len(t, failed, 1)
	assert.Equal(t, "Job failed", failed[0].Message)
	assert.NotEmpty(t, failed[0].Fields["run_id"])
	assert.Equal(t, "angus calf", failed[0].Fields["term"])
}

func TestOrchestratorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &fakeRunner{onRun: func(Job) { cancel() }}
	o := NewOrchestrator(runner, noDelay(), nil)

	summaries := o.Run(ctx, []Job{
		{Class: "Angus", Term: "one", Target: 1},
		{Class: "Angus", Term: "two", Target: 1},
	})

	assert.Len(t, runner.ran, 1)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].Jobs)
}

func TestOrchestratorEmpty(t *testing.T) {
	o := NewOrchestrator(&fakeRunner{}, noDelay(), nil)
	assert.Empty(t, o.Run(context.Background(), nil))
}
