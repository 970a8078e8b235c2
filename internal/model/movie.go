package model

import "time"

// Movie represents a catalog entry.  Movies are managed by admins only and
// own their genre links, reviews and ratings: deleting a movie removes all of
// them.  Genres is populated by the store on reads and is ordered by genre id.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title.
//  ReleaseYear – four digit year.
//  Description – optional free text (empty when unset).
//  PosterURL   – optional poster location (empty when unset).
//  CreatedAt   – server-assigned creation timestamp (UTC).
//  Genres      – linked genres.
type Movie struct {
	ID          uint64    // movies.id
	Title       string    // movies.title
	ReleaseYear int       // movies.release_year
	Description string    // movies.description
	PosterURL   string    // movies.poster_url
	CreatedAt   time.Time // movies.created_at
	Genres      []Genre
}
