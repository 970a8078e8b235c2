package model

import "time"

// Sentiment is the derived tone of a review.  Values are compared
// case-sensitively.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// ParseSentiment returns the sentiment whose name equals s exactly.
func ParseSentiment(s string) (Sentiment, bool) {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return Sentiment(s), true
	}
	return "", false
}

// Review is a text review of a movie written by a user.  Sentiment is always
// computed by the server from ReviewText.
//
// Fields:
//  ID         – primary key identifier.
//  MovieID    – reviewed movie.
//  AuthorID   – users.id of the writer.
//  AuthorName – username of the writer (joined on read).
//  ReviewText – non-empty body.
//  Sentiment  – derived classification.
//  CreatedAt  – creation timestamp (UTC).
type Review struct {
	ID         uint64    // reviews.id
	MovieID    uint64    // reviews.movie_id
	AuthorID   uint64    // reviews.user_id
	AuthorName string    // users.username
	ReviewText string    // reviews.review_text
	Sentiment  Sentiment // reviews.sentiment
	CreatedAt  time.Time // reviews.created_at
}

// OwnerID reports the author so the access policy can check ownership.
func (r *Review) OwnerID() uint64 { return r.AuthorID }

// ReviewFilter narrows a review listing.  Nil fields are ignored.
type ReviewFilter struct {
	MovieID   *uint64
	Sentiment *Sentiment
}
