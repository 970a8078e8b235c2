package model

import "time"

// MinStars and MaxStars bound Rating.Stars.
const (
	MinStars = 1
	MaxStars = 5
)

// Rating is a star score a user gave a movie.  A user rates a given movie
// at most once.
//
// Fields:
//  ID         – primary key identifier.
//  MovieID    – rated movie.
//  AuthorID   – users.id of the rater.
//  AuthorName – username of the rater (joined on read).
//  Stars      – integer score in [MinStars, MaxStars].
//  CreatedAt  – creation timestamp (UTC).
type Rating struct {
	ID         uint64    // ratings.id
	MovieID    uint64    // ratings.movie_id
	AuthorID   uint64    // ratings.user_id
	AuthorName string    // users.username
	Stars      int       // ratings.stars
	CreatedAt  time.Time // ratings.created_at
}

// OwnerID reports the rater so the access policy can check ownership.
func (r *Rating) OwnerID() uint64 { return r.AuthorID }

// RatingFilter narrows a rating listing.  Nil fields are ignored.
type RatingFilter struct {
	MovieID *uint64
}

// RatingStats is the raw material of a movie's average.
type RatingStats struct {
	Count int64
	Sum   int64
}
