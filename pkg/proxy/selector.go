package proxy

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"breedscraper/pkg/config"
	"breedscraper/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Selector hands out working proxies. Proxies that pass verification are
// cached for the lifetime of the Selector; the cache only grows.
type Selector struct {
	checker    Checker
	candidates []string
	logger     logger.Logger

	BatchSize   int
	Concurrency int
	MaxRounds   int

	mu    sync.RWMutex
	cache map[string]struct{}

	drawMu sync.Mutex
	tested map[string]struct{}
	rng    *rand.Rand
}

// NewSelector creates a selector over a read-only candidate pool
func NewSelector(checker Checker, candidates []string, cfg config.ProxyConfig, log logger.Logger, seed int64) *Selector {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Selector{
		checker:     checker,
		candidates:  append([]string(nil), candidates...),
		logger:      log.WithField("component", "proxy_selector"),
		BatchSize:   cfg.BatchSize,
		Concurrency: cfg.Concurrency,
		MaxRounds:   cfg.MaxRounds,
		cache:       make(map[string]struct{}),
		tested:      make(map[string]struct{}),
		rng:         rand.New(rand.NewSource(seed)),
	}
}

// Acquire returns a working proxy. A cached proxy is returned without
// any network I/O; otherwise random batches of untested candidates race
// until one passes. It reports false when the pool or the round budget
// is exhausted, in which case callers go unproxied.
func (s *Selector) Acquire(ctx context.Context) (string, bool) {
	if p, ok := s.randomCached(); ok {
		return p, true
	}

	for round := 1; round <= s.MaxRounds; round++ {
		if ctx.Err() != nil {
			break
		}

		batch := s.drawBatch()
		if len(batch) == 0 {
			break
		}

		s.logger.DebugWithFields("testing proxy batch", map[string]interface{}{
			"round": round,
			"size":  len(batch),
		})

		if winner, ok := s.race(ctx, batch); ok {
			s.Add(winner)
			s.logger.InfoWithFields("working proxy found", map[string]interface{}{
				"proxy": winner,
				"round": round,
			})
			return winner, true
		}
	}

	s.logger.Warn("no working proxy found, continuing without proxy")
	return "", false
}

// race verifies batch concurrently; the first success cancels the rest
func (s *Selector) race(ctx context.Context, batch []string) (string, bool) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Concurrency, 1))

	var (
		once   sync.Once
		winner string
	)
	for _, candidate := range batch {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			// A failed probe must not cancel its siblings, so it is never returned
			if err := s.checker.Check(gctx, candidate); err != nil {
				return nil
			}
			once.Do(func() {
				winner = candidate
				cancel()
			})
			return nil
		})
	}
	_ = g.Wait()

	return winner, winner != ""
}

// drawBatch picks up to BatchSize untested candidates and marks them tested
func (s *Selector) drawBatch() []string {
	s.drawMu.Lock()
	defer s.drawMu.Unlock()

	var untested []string
	for _, c := range s.candidates {
		if _, done := s.tested[c]; !done {
			untested = append(untested, c)
		}
	}
	s.rng.Shuffle(len(untested), func(i, j int) {
		untested[i], untested[j] = untested[j], untested[i]
	})

	n := min(max(s.BatchSize, 1), len(untested))
	batch := untested[:n]
	for _, c := range batch {
		s.tested[c] = struct{}{}
	}
	return batch
}

func (s *Selector) randomCached() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.cache) == 0 {
		return "", false
	}
	cached := make([]string, 0, len(s.cache))
	for p := range s.cache {
		cached = append(cached, p)
	}
	sort.Strings(cached)

	s.drawMu.Lock()
	i := s.rng.Intn(len(cached))
	s.drawMu.Unlock()
	return cached[i], true
}

// Add records a working proxy. Adding the same proxy twice is a no-op.
func (s *Selector) Add(proxy string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[proxy] = struct{}{}
}

// Cached returns the working proxies in sorted order
func (s *Selector) Cached() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cached := make([]string, 0, len(s.cache))
	for p := range s.cache {
		cached = append(cached, p)
	}
	sort.Strings(cached)
	return cached
}

// Len returns the number of cached working proxies
func (s *Selector) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}
