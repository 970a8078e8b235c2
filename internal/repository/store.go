package repository

import "database/sql"

// Store bundles the MySQL repositories into the full domain store plus the
// account stores used by the auth endpoints.
type Store struct {
	*GenreRepo
	*MovieRepo
	*ReviewRepo
	*RatingRepo
	*UserRepo
	*TokenRepo
}

// NewStore wires every repository to db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		GenreRepo:  NewGenreRepo(db),
		MovieRepo:  NewMovieRepo(db),
		ReviewRepo: NewReviewRepo(db),
		RatingRepo: NewRatingRepo(db),
		UserRepo:   NewUserRepo(db),
		TokenRepo:  NewTokenRepo(db),
	}
}
