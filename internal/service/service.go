package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/movie-review-api/internal/aggregate"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/policy"
)

// Services bundles the resource operations over one store.
type Services struct {
	Movies  *MovieService
	Genres  *GenreService
	Reviews *ReviewService
	Ratings *RatingService
}

// New wires the services.  engine computes movie averages and is told about
// every rating change.  events may be nil.
func New(store Store, engine *aggregate.Engine, events Publisher) *Services {
	if store == nil || engine == nil {
		panic("nil dependency passed to service.New")
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &Services{
		Movies:  &MovieService{store: store, agg: engine},
		Genres:  &GenreService{store: store},
		Reviews: &ReviewService{store: store, events: events},
		Ratings: &RatingService{store: store, movies: store, agg: engine, events: events},
	}
}

// authorize runs the policy for an owned resource.  Anonymous callers are
// refused before the resource is loaded so that they see Unauthorized rather
// than NotFound; everyone else gets NotFound for a missing resource and only
// then the ownership decision.
func authorize[T policy.Owned](ctx context.Context, p model.Principal, op policy.Operation, kind policy.Kind, load func(context.Context, uint64) (T, error), id uint64) (T, error) {
	var zero T
	if p.IsAnonymous() {
		return zero, policy.Check(p, op, kind, nil)
	}
	res, err := load(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := policy.Check(p, op, kind, res); err != nil {
		return zero, err
	}
	return res, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", model.ErrValidation, fmt.Sprintf(format, args...))
}
