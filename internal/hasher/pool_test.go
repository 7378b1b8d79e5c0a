package hasher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"breedscraper/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAllSortsResults(t *testing.T) {
	paths := []string{"c.jpg", "a.jpg", "b.png", "broken.jpg"}
	var calls int32

	hash := func(path string) (string, error) {
		atomic.AddInt32(&calls, 1)
		if path == "broken.jpg" {
			return "", errors.New("undecodable")
		}
		return "fp-" + path, nil
	}

	results, err := HashAll(context.Background(), 3, hash, paths, logger.NewTestLogger())
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))

	got := make([]string, len(results))
	for i, r := range results {
		got[i] = r.Path
	}
	assert.Equal(t, []string{"a.jpg", "b.png", "broken.jpg", "c.jpg"}, got)
	assert.Equal(t, "fp-a.jpg", results[0].Fingerprint)
	assert.Error(t, results[2].Err)
}

func TestHashAllEmpty(t *testing.T) {
	results, err := HashAll(context.Background(), 2, func(string) (string, error) { return "", nil }, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestHashAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	paths := make([]string, 50)
	for i := range paths {
		paths[i] = fmt.Sprintf("%02d.jpg", i)
	}

	hash := func(path string) (string, error) {
		if path == "03.jpg" {
			cancel()
		}
		time.Sleep(time.Millisecond)
		return path, nil
	}

	_, err := HashAll(ctx, 2, hash, paths, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkerPoolStopIsIdempotent(t *testing.T) {
	wp := NewWorkerPool(context.Background(), 0, func(p string) (string, error) { return p, nil }, nil)
	wp.Start()
	require.NoError(t, wp.Submit("x.jpg"))

	r := <-wp.Results()
	assert.Equal(t, "x.jpg", r.Fingerprint)

	wp.Stop()
	wp.Stop()

	_, open := <-wp.Results()
	assert.False(t, open)
}
