package service

import (
	"context"

	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/queue"
)

// Publisher receives an event for every committed review or rating write.
// *queue.Publisher implements it.
type Publisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, queue.ActivityEvent) error { return nil }

// emit publishes after the write has committed.  A broker failure is logged
// and never fails the request.
func emit(ctx context.Context, pub Publisher, ev queue.ActivityEvent) {
	if err := pub.Publish(ctx, ev); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("type", ev.Type).Msg("activity event dropped")
	}
}
