package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iliyamo/movie-review-api/internal/logging"
)

// StartActivityConsumer consumes the activity queue and writes one log line
// per event.  It reconnects with exponential backoff and returns only when
// ctx is cancelled.  Malformed messages are rejected without requeueing.
func StartActivityConsumer(ctx context.Context, url string) error {
	log := logging.With().Str("component", "activity-consumer").Logger()
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Msg("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, log zerolog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn().Err(err).Msg("set QoS failed")
	}
	if _, err := ch.QueueDeclare(ActivityQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(ActivityQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(log, d.Body); err != nil {
				log.Error().Err(err).Msg("handle message failed")
				_ = d.Nack(false, false) // do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(log zerolog.Logger, body []byte) error {
	ev, err := decodeEvent(body)
	if err != nil {
		return err
	}
	e := log.Info().
		Str("type", ev.Type).
		Uint64("movie_id", ev.MovieID).
		Uint64("user_id", ev.UserID).
		Time("occurred_at", ev.OccurredAt)
	if ev.ReviewID != 0 {
		e = e.Uint64("review_id", ev.ReviewID).Str("sentiment", ev.Sentiment)
	}
	if ev.RatingID != 0 {
		e = e.Uint64("rating_id", ev.RatingID).Int("stars", ev.Stars)
	}
	e.Msg("activity")
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
