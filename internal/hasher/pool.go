package hasher

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"breedscraper/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// HashFunc fingerprints the file at path
type HashFunc func(path string) (string, error)

// Result is the outcome of hashing one file
type Result struct {
	Path        string
	Fingerprint string
	Err         error
	Duration    time.Duration
}

// WorkerPool fingerprints files concurrently
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan string
	resultQueue chan Result
	wg          sync.WaitGroup
	stopOnce    sync.Once
	ctx         context.Context
	cancel      context.CancelFunc
	hash        HashFunc
	logger      logger.Logger
}

// NewWorkerPool creates a pool bound to ctx; cancelling ctx stops the workers
func NewWorkerPool(ctx context.Context, numWorkers int, hash HashFunc, log logger.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan string, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		hash:        hash,
		logger:      log,
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting hash workers", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue, waits for the workers and closes Results.
// It is safe to call more than once.
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.jobQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
		wp.cancel()
	})
}

// Submit queues a file for hashing
func (wp *WorkerPool) Submit(path string) error {
	select {
	case wp.jobQueue <- path:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("hash pool is shutting down: %w", wp.ctx.Err())
	}
}

// Results returns the channel of completed hashes
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for path := range wp.jobQueue {
		select {
		case <-wp.ctx.Done():
			return
		default:
		}

		start := time.Now()
		fp, err := wp.hash(path)
		result := Result{Path: path, Fingerprint: fp, Err: err, Duration: time.Since(start)}

		if err != nil {
			wp.logger.DebugWithFields("Worker failed to hash file", map[string]interface{}{
				"worker_id": id,
				"path":      path,
				"error":     err.Error(),
			})
		}

		select {
		case wp.resultQueue <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

// HashAll fingerprints every path and returns the results sorted by path.
// It returns ctx's error if hashing was cut short.
func HashAll(ctx context.Context, numWorkers int, hash HashFunc, paths []string, log logger.Logger) ([]Result, error) {
	wp := NewWorkerPool(ctx, numWorkers, hash, log)
	wp.Start()

	results := make([]Result, 0, len(paths))
	var g errgroup.Group

	g.Go(func() error {
		defer wp.Stop()
		for _, p := range paths {
			if err := wp.Submit(p); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for r := range wp.Results() {
			results = append(results, r)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}
