package aggregate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/iliyamo/movie-review-api/internal/model"
)

type fakeSource struct {
	mu    sync.Mutex
	stars map[uint64][]int
	calls int
}

func (f *fakeSource) RatingStats(_ context.Context, movieID uint64) (model.RatingStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var st model.RatingStats
	for _, s := range f.stars[movieID] {
		st.Count++
		st.Sum += int64(s)
	}
	return st, nil
}

func (f *fakeSource) add(movieID uint64, stars int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stars[movieID] = append(f.stars[movieID], stars)
}

// memCache is an in-process Cache with the same generation semantics as
// RedisCache.
type memCache struct {
	mu   sync.Mutex
	gens map[uint64]int64
	vals map[[2]int64]float64
	err  error
	// invErr fails Invalidate while set.
	invErr error
}

func newMemCache() *memCache {
	return &memCache{gens: map[uint64]int64{}, vals: map[[2]int64]float64{}}
}

func (c *memCache) Get(_ context.Context, id uint64) (float64, bool, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, false, 0, c.err
	}
	gen := c.gens[id]
	v, ok := c.vals[[2]int64{int64(id), gen}]
	return v, ok, gen, nil
}

func (c *memCache) Set(_ context.Context, id uint64, gen int64, avg float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals[[2]int64{int64(id), gen}] = avg
	return nil
}

func (c *memCache) Invalidate(_ context.Context, id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.invErr != nil {
		return c.invErr
	}
	c.gens[id]++
	return nil
}

func TestMean(t *testing.T) {
	tests := []struct {
		name string
		st   model.RatingStats
		want float64
	}{
		{"no ratings", model.RatingStats{}, 0},
		{"single five", model.RatingStats{Count: 1, Sum: 5}, 5},
		{"four and five", model.RatingStats{Count: 2, Sum: 9}, 4.5},
		{"thirds round", model.RatingStats{Count: 3, Sum: 10}, 3.33},
		{"two thirds round up", model.RatingStats{Count: 3, Sum: 14}, 4.67},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mean(tt.st); got != tt.want {
				t.Errorf("Mean(%+v) = %v, want %v", tt.st, got, tt.want)
			}
		})
	}
}

func TestAverageStarsUncached(t *testing.T) {
	src := &fakeSource{stars: map[uint64][]int{1: {5}}}
	e := NewEngine(src, nil)
	ctx := context.Background()

	if got, _ := e.AverageStars(ctx, 1); got != 5 {
		t.Fatalf("AverageStars = %v, want 5", got)
	}
	src.add(1, 4)
	if got, _ := e.AverageStars(ctx, 1); got != 4.5 {
		t.Fatalf("AverageStars after second rating = %v, want 4.5", got)
	}
	if got, _ := e.AverageStars(ctx, 2); got != 0 {
		t.Fatalf("AverageStars of unrated movie = %v, want 0", got)
	}
	e.Invalidate(ctx, 1) // no cache: must not panic
}

func TestAverageStarsCachedAndInvalidated(t *testing.T) {
	src := &fakeSource{stars: map[uint64][]int{1: {5}}}
	e := NewEngine(src, newMemCache())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if got, _ := e.AverageStars(ctx, 1); got != 5 {
			t.Fatalf("AverageStars = %v, want 5", got)
		}
	}
	if src.calls != 1 {
		t.Fatalf("source read %d times, want 1 (cached)", src.calls)
	}

	src.add(1, 4)
	e.Invalidate(ctx, 1)
	if got, _ := e.AverageStars(ctx, 1); got != 4.5 {
		t.Fatalf("AverageStars after invalidate = %v, want 4.5", got)
	}
}

func TestStaleValueLandsInOldGeneration(t *testing.T) {
	src := &fakeSource{stars: map[uint64][]int{1: {5}}}
	cache := newMemCache()
	e := NewEngine(src, cache)
	ctx := context.Background()

	// A reader observes generation 0, then a writer commits and invalidates
	// before the reader stores its (now stale) value.
	_, _, gen, _ := cache.Get(ctx, 1)
	src.add(1, 1)
	e.Invalidate(ctx, 1)
	if err := cache.Set(ctx, 1, gen, 5); err != nil {
		t.Fatal(err)
	}

	if got, _ := e.AverageStars(ctx, 1); got != 3 {
		t.Fatalf("AverageStars = %v, want 3 (stale 5 must not be served)", got)
	}
}

func TestCacheErrorFallsBack(t *testing.T) {
	src := &fakeSource{stars: map[uint64][]int{1: {2, 3}}}
	cache := newMemCache()
	cache.err = errors.New("connection refused")
	e := NewEngine(src, cache)

	got, err := e.AverageStars(context.Background(), 1)
	if err != nil {
		t.Fatalf("AverageStars error = %v, want fallback", err)
	}
	if got != 2.5 {
		t.Fatalf("AverageStars = %v, want 2.5", got)
	}
}

func TestFailedInvalidateBypassesCache(t *testing.T) {
	src := &fakeSource{stars: map[uint64][]int{1: {5}, 2: {3}}}
	cache := newMemCache()
	e := NewEngine(src, cache)
	ctx := context.Background()

	if got, _ := e.AverageStars(ctx, 1); got != 5 {
		t.Fatalf("AverageStars = %v, want 5", got)
	}
	if got, _ := e.AverageStars(ctx, 2); got != 3 {
		t.Fatalf("AverageStars(2) = %v, want 3", got)
	}

	cache.invErr = errors.New("i/o timeout")
	src.add(1, 4)
	e.Invalidate(ctx, 1)

	for i := 0; i < 2; i++ {
		if got, _ := e.AverageStars(ctx, 1); got != 4.5 {
			t.Fatalf("AverageStars after failed invalidate = %v, want 4.5", got)
		}
	}
	// Other movies keep using the cache.
	calls := src.calls
	if got, _ := e.AverageStars(ctx, 2); got != 3 || src.calls != calls {
		t.Fatalf("AverageStars(2) = %v with %d source reads, want cached 3", got, src.calls-calls)
	}

	// Once the cache recovers the movie is cached again under a fresh generation.
	cache.invErr = nil
	if got, _ := e.AverageStars(ctx, 1); got != 4.5 {
		t.Fatalf("AverageStars after recovery = %v, want 4.5", got)
	}
	calls = src.calls
	if got, _ := e.AverageStars(ctx, 1); got != 4.5 || src.calls != calls {
		t.Fatalf("AverageStars = %v with %d source reads, want cached 4.5", got, src.calls-calls)
	}
}
