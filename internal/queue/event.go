// Package queue carries review and rating activity over RabbitMQ.  The API
// publishes one ActivityEvent per committed review or rating write; a
// consumer (optional, in-process) turns them into structured log lines.
package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActivityQueue is the durable queue every event is routed to.
const ActivityQueue = "movie.activity"

// Event types.
const (
	ReviewCreated = "review.created"
	ReviewUpdated = "review.updated"
	ReviewDeleted = "review.deleted"
	RatingCreated = "rating.created"
	RatingUpdated = "rating.updated"
	RatingDeleted = "rating.deleted"
)

// ActivityEvent describes a committed review or rating write.  It carries
// enough for downstream consumers to log or trigger analytics without
// querying the primary database.
type ActivityEvent struct {
	Type       string    `json:"type"`
	MovieID    uint64    `json:"movie_id"`
	UserID     uint64    `json:"user_id"`
	ReviewID   uint64    `json:"review_id,omitempty"`
	RatingID   uint64    `json:"rating_id,omitempty"`
	Sentiment  string    `json:"sentiment,omitempty"`
	Stars      int       `json:"stars,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func decodeEvent(body []byte) (ActivityEvent, error) {
	var ev ActivityEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ActivityEvent{}, fmt.Errorf("unmarshal: %w", err)
	}
	switch ev.Type {
	case ReviewCreated, ReviewUpdated, ReviewDeleted, RatingCreated, RatingUpdated, RatingDeleted:
	default:
		return ActivityEvent{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.MovieID == 0 {
		return ActivityEvent{}, fmt.Errorf("%s: missing movie_id", ev.Type)
	}
	return ev, nil
}
