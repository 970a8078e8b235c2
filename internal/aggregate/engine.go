// Package aggregate computes the average star rating of a movie.
package aggregate

import (
	"context"
	"math"
	"sync"

	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/model"
)

// StatsSource supplies the count and sum of a movie's ratings as of now.
type StatsSource interface {
	RatingStats(ctx context.Context, movieID uint64) (model.RatingStats, error)
}

// Cache stores computed averages.  Implementations must never return a value
// computed before the most recent Invalidate for the same movie.
type Cache interface {
	// Get returns the cached average and a token identifying the current
	// generation of the movie's rating set.
	Get(ctx context.Context, movieID uint64) (avg float64, hit bool, gen int64, err error)
	// Set stores avg under generation gen.
	Set(ctx context.Context, movieID uint64, gen int64, avg float64) error
	// Invalidate starts a new generation for the movie.
	Invalidate(ctx context.Context, movieID uint64) error
}

// Engine computes averages, optionally through a Cache.
type Engine struct {
	src   StatsSource
	cache Cache

	// Movies whose last invalidation failed.  They bypass the cache until
	// an invalidation succeeds.
	mu    sync.Mutex
	dirty map[uint64]struct{}
}

// NewEngine returns an Engine reading from src.  cache may be nil.
func NewEngine(src StatsSource, cache Cache) *Engine {
	return &Engine{src: src, cache: cache, dirty: make(map[uint64]struct{})}
}

// AverageStars returns the mean of the movie's stars rounded to two
// decimals, or 0 when the movie has no ratings.
func (e *Engine) AverageStars(ctx context.Context, movieID uint64) (float64, error) {
	var gen int64
	useCache := e.cache != nil && e.clean(ctx, movieID)
	if useCache {
		avg, hit, g, err := e.cache.Get(ctx, movieID)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Uint64("movie_id", movieID).Msg("aggregate cache read failed")
			useCache = false
		} else if hit {
			return avg, nil
		}
		gen = g
	}

	st, err := e.src.RatingStats(ctx, movieID)
	if err != nil {
		return 0, err
	}
	avg := Mean(st)

	if useCache {
		if err := e.cache.Set(ctx, movieID, gen, avg); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Uint64("movie_id", movieID).Msg("aggregate cache write failed")
		}
	}
	return avg, nil
}

// Invalidate drops any cached average for the movie.  Rating writers call it
// after every committed create, update or delete.
func (e *Engine) Invalidate(ctx context.Context, movieID uint64) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Invalidate(ctx, movieID); err != nil {
		logging.Ctx(ctx).Error().Err(err).Uint64("movie_id", movieID).Msg("aggregate cache invalidation failed")
		e.mu.Lock()
		e.dirty[movieID] = struct{}{}
		e.mu.Unlock()
		return
	}
	e.mu.Lock()
	delete(e.dirty, movieID)
	e.mu.Unlock()
}

// clean reports whether the cache may serve movieID.  A movie left dirty by
// a failed invalidation gets one retry per read.
func (e *Engine) clean(ctx context.Context, movieID uint64) bool {
	e.mu.Lock()
	_, dirty := e.dirty[movieID]
	e.mu.Unlock()
	if !dirty {
		return true
	}
	if err := e.cache.Invalidate(ctx, movieID); err != nil {
		return false
	}
	e.mu.Lock()
	delete(e.dirty, movieID)
	e.mu.Unlock()
	return true
}

// Mean rounds Sum/Count to two decimals; an empty set yields 0.
func Mean(st model.RatingStats) float64 {
	if st.Count == 0 {
		return 0
	}
	return math.Round(float64(st.Sum)/float64(st.Count)*100) / 100
}
