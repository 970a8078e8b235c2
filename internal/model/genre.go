package model

// Genre is a catalog category that movies can be linked to.  The name is
// unique across all genres using an exact, case-sensitive comparison.
//
// Fields:
//  ID   – primary key identifier.
//  Name – unique, non-empty genre name.
type Genre struct {
	ID   uint64 // genres.id
	Name string // genres.name (binary collation)
}

// MovieGenre is a row of the `movie_genres` join table.  The pair
// (MovieID, GenreID) is unique.
type MovieGenre struct {
	ID      uint64 // movie_genres.id
	MovieID uint64 // movie_genres.movie_id
	GenreID uint64 // movie_genres.genre_id
}
