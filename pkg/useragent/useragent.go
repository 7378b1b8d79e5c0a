// Package useragent hands out randomized browser user-agent strings.
package useragent

import (
	"math/rand"
	"sync"
)

// Defaults is the built-in desktop browser user-agent list
var Defaults = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36 Edg/123.0.0.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.4; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// Pool picks user agents uniformly at random. It is safe for concurrent use.
type Pool struct {
	agents []string
	mu     sync.Mutex
	rng    *rand.Rand
}

// New creates a pool over agents, falling back to Defaults when empty
func New(agents []string, seed int64) *Pool {
	if len(agents) == 0 {
		agents = Defaults
	}
	return &Pool{
		agents: append([]string(nil), agents...),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Random returns one user agent
func (p *Pool) Random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.agents[p.rng.Intn(len(p.agents))]
}

// Len returns the number of agents in the pool
func (p *Pool) Len() int {
	return len(p.agents)
}
