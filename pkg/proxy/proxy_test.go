package proxy

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"breedscraper/pkg/config"
	errs "breedscraper/pkg/errors"
	"breedscraper/pkg/logger"
	"breedscraper/pkg/useragent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newForwardProxy answers every proxied request with the status chosen
// for the requested host
func newForwardProxy(t *testing.T, status map[string]int, hits *[]string, mu *sync.Mutex) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		*hits = append(*hits, r.URL.Host)
		mu.Unlock()

		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.Equal(t, "1", r.Header.Get("DNT"))

		code, ok := status[r.URL.Host]
		if !ok {
			code = http.StatusOK
		}
		w.WriteHeader(code)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testProxyConfig() config.ProxyConfig {
	cfg := config.DefaultConfig().Proxy
	cfg.TestURLs = []string{"http://bing.test/", "http://yahoo.test/", "http://ddg.test/"}
	cfg.Timeout = 2 * time.Second
	return cfg
}

func TestVerifierPassesWhenAllEndpointsOK(t *testing.T) {
	var (
		hits []string
		mu   sync.Mutex
	)
	srv := newForwardProxy(t, nil, &hits, &mu)

	v := NewVerifier(testProxyConfig(), useragent.New(nil, 1), logger.NewNopLogger())
	err := v.Check(context.Background(), srv.Listener.Addr().String())

	require.NoError(t, err)
	assert.Equal(t, []string{"bing.test", "yahoo.test", "ddg.test"}, hits)
}

func TestVerifierStopsAtFirstFailure(t *testing.T) {
	var (
		hits []string
		mu   sync.Mutex
	)
	srv := newForwardProxy(t, map[string]int{"yahoo.test": http.StatusServiceUnavailable}, &hits, &mu)

	v := NewVerifier(testProxyConfig(), useragent.New(nil, 1), nil)
	err := v.Check(context.Background(), "http://"+srv.Listener.Addr().String())

	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeServerError, errs.TypeOf(err))
	assert.Equal(t, []string{"bing.test", "yahoo.test"}, hits)
}

func TestVerifierRejectsNonOKSuccess(t *testing.T) {
	var (
		hits []string
		mu   sync.Mutex
	)
	srv := newForwardProxy(t, map[string]int{"bing.test": http.StatusNoContent}, &hits, &mu)

	v := NewVerifier(testProxyConfig(), useragent.New(nil, 1), nil)
	assert.Error(t, v.Check(context.Background(), srv.Listener.Addr().String()))
}

func TestVerifierUnreachableProxy(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.Listener.Addr().String()
	srv.Close()

	v := NewVerifier(testProxyConfig(), useragent.New(nil, 1), nil)
	err := v.Check(context.Background(), addr)

	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeNetwork, errs.TypeOf(err))
}

func TestURL(t *testing.T) {
	tests := []struct {
		in      string
		scheme  string
		wantErr bool
	}{
		{"1.2.3.4:8080", "http", false},
		{" https://1.2.3.4:443 ", "https", false},
		{"socks5://user:pw@1.2.3.4:1080", "socks5", false},
		{"1.2.3.4", "", true},
		{"ftp://1.2.3.4:21", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := URL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, u.Scheme)
		})
	}
}

func TestTransportSOCKS5UsesDialer(t *testing.T) {
	tr, err := Transport("socks5://127.0.0.1:1080", time.Second)
	require.NoError(t, err)
	assert.Nil(t, tr.Proxy)
	assert.NotNil(t, tr.DialContext)

	tr, err = Transport("127.0.0.1:3128", time.Second)
	require.NoError(t, err)
	assert.NotNil(t, tr.Proxy)
}

type fakeChecker struct {
	good  map[string]bool
	calls atomic.Int64
	mu    sync.Mutex
	seen  map[string]int
	block bool
}

func (f *fakeChecker) Check(ctx context.Context, proxy string) error {
	f.calls.Add(1)
	f.mu.Lock()
	if f.seen == nil {
		f.seen = map[string]int{}
	}
	f.seen[proxy]++
	f.mu.Unlock()

	if f.good[proxy] {
		return nil
	}
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return fmt.Errorf("proxy %s failed", proxy)
}

func candidatePool(n int) []string {
	pool := make([]string, n)
	for i := range pool {
		pool[i] = fmt.Sprintf("10.0.0.%d:8080", i+1)
	}
	return pool
}

func TestSelectorLiveness(t *testing.T) {
	pool := candidatePool(23)
	good := pool[17]
	checker := &fakeChecker{good: map[string]bool{good: true}}

	s := NewSelector(checker, pool, config.DefaultConfig().Proxy, logger.NewNopLogger(), 7)

	p, ok := s.Acquire(context.Background())
	require.True(t, ok)
	assert.Equal(t, good, p)
	assert.Equal(t, []string{good}, s.Cached())

	calls := checker.calls.Load()
	for i := 0; i < 5; i++ {
		p, ok = s.Acquire(context.Background())
		require.True(t, ok)
		assert.Equal(t, good, p)
	}
	assert.Equal(t, calls, checker.calls.Load(), "cached path must not verify again")
}

func TestSelectorExhaustsPool(t *testing.T) {
	pool := candidatePool(12)
	checker := &fakeChecker{}

	s := NewSelector(checker, pool, config.DefaultConfig().Proxy, nil, 3)

	p, ok := s.Acquire(context.Background())
	assert.False(t, ok)
	assert.Empty(t, p)
	assert.Equal(t, 0, s.Len())
	assert.Len(t, checker.seen, 12)
	for proxy, n := range checker.seen {
		assert.Equal(t, 1, n, "candidate %s verified more than once", proxy)
	}
}

func TestSelectorRoundBudget(t *testing.T) {
	cfg := config.DefaultConfig().Proxy
	cfg.MaxRounds = 2
	checker := &fakeChecker{}

	s := NewSelector(checker, candidatePool(100), cfg, nil, 3)
	_, ok := s.Acquire(context.Background())

	assert.False(t, ok)
	assert.Equal(t, int64(2*cfg.BatchSize), checker.calls.Load())
}

func TestSelectorCancelsSiblings(t *testing.T) {
	pool := candidatePool(5)
	checker := &fakeChecker{good: map[string]bool{pool[2]: true}, block: true}

	s := NewSelector(checker, pool, config.DefaultConfig().Proxy, nil, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p, ok := s.Acquire(context.Background())
		assert.True(t, ok)
		assert.Equal(t, pool[2], p)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Acquire did not return after a winner was found")
	}
}

func TestSelectorAddIsIdempotent(t *testing.T) {
	s := NewSelector(&fakeChecker{}, nil, config.DefaultConfig().Proxy, nil, 1)
	s.Add("1.1.1.1:80")
	s.Add("1.1.1.1:80")
	assert.Equal(t, 1, s.Len())
}

func TestLoadCandidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	content := "# free list\n1.2.3.4:8080\n\n5.6.7.8:3128 # fast\n1.2.3.4:8080\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	got, err := LoadCandidates([]string{"9.9.9.9:80", " 5.6.7.8:3128 "}, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"9.9.9.9:80", "5.6.7.8:3128", "1.2.3.4:8080"}, got)

	_, err = LoadCandidates(nil, filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
