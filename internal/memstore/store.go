// Package memstore is an in-process implementation of the domain store.
//
// All state sits behind one RWMutex: every write, including the uniqueness
// checks that precede it and the cascades that follow it, runs under the
// write lock, so concurrent writers observe each other's effects in full or
// not at all.  It backs STORE_DRIVER=memory and the service and handler
// tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/movie-review-api/internal/model"
)

type linkKey struct{ movieID, genreID uint64 }

type ratingKey struct{ movieID, authorID uint64 }

// Store holds every entity in maps keyed by id.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	seq map[string]uint64

	genres      map[uint64]model.Genre
	genreByName map[string]uint64
	movies      map[uint64]model.Movie // Genres left empty; see genresOf
	links       map[linkKey]uint64     // (movie, genre) -> link id
	reviews     map[uint64]model.Review
	ratings     map[uint64]model.Rating
	ratingByKey map[ratingKey]uint64

	users      map[uint64]model.User
	userByName map[string]uint64
	tokens     map[string]model.RefreshToken
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:         func() time.Time { return time.Now().UTC() },
		seq:         map[string]uint64{},
		genres:      map[uint64]model.Genre{},
		genreByName: map[string]uint64{},
		movies:      map[uint64]model.Movie{},
		links:       map[linkKey]uint64{},
		reviews:     map[uint64]model.Review{},
		ratings:     map[uint64]model.Rating{},
		ratingByKey: map[ratingKey]uint64{},
		users:       map[uint64]model.User{},
		userByName:  map[string]uint64{},
		tokens:      map[string]model.RefreshToken{},
	}
}

// next returns the next id of a table.  Must be called with mu held.
func (s *Store) next(table string) uint64 {
	s.seq[table]++
	return s.seq[table]
}

func notFound(kind string, id uint64) error {
	return fmt.Errorf("%w: %s %d", model.ErrNotFound, kind, id)
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ---- Genres ----

func (s *Store) ListGenres(ctx context.Context) ([]model.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Genre, 0, len(s.genres))
	for _, id := range sortedKeys(s.genres) {
		out = append(out, s.genres[id])
	}
	return out, nil
}

func (s *Store) GetGenre(ctx context.Context, id uint64) (*model.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.genres[id]
	if !ok {
		return nil, notFound("genre", id)
	}
	return &g, nil
}

func (s *Store) CreateGenre(ctx context.Context, g *model.Genre) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.genreByName[g.Name]; taken {
		return fmt.Errorf("%w: genre name %q already exists", model.ErrDuplicateKey, g.Name)
	}
	g.ID = s.next("genres")
	s.genres[g.ID] = *g
	s.genreByName[g.Name] = g.ID
	return nil
}

func (s *Store) RenameGenre(ctx context.Context, id uint64, name string) (*model.Genre, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.genres[id]
	if !ok {
		return nil, notFound("genre", id)
	}
	if other, taken := s.genreByName[name]; taken && other != id {
		return nil, fmt.Errorf("%w: genre name %q already exists", model.ErrDuplicateKey, name)
	}
	delete(s.genreByName, g.Name)
	g.Name = name
	s.genres[id] = g
	s.genreByName[name] = id
	return &g, nil
}

func (s *Store) DeleteGenre(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.genres[id]
	if !ok {
		return notFound("genre", id)
	}
	for k := range s.links {
		if k.genreID == id {
			delete(s.links, k)
		}
	}
	delete(s.genreByName, g.Name)
	delete(s.genres, id)
	return nil
}

// ---- Movies ----

// genresOf returns a movie's genres ordered by genre id.  Must be called
// with mu held.
func (s *Store) genresOf(movieID uint64) []model.Genre {
	out := []model.Genre{}
	for k := range s.links {
		if k.movieID == movieID {
			out = append(out, s.genres[k.genreID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// checkGenreIDs verifies that every id names a genre and that none repeats.
// Must be called with mu held.
func (s *Store) checkGenreIDs(ids []uint64) error {
	seen := make(map[uint64]bool, len(ids))
	for _, gid := range ids {
		if _, ok := s.genres[gid]; !ok {
			return fmt.Errorf("%w: genre %d does not exist", model.ErrValidation, gid)
		}
		if seen[gid] {
			return fmt.Errorf("%w: genre %d listed twice", model.ErrDuplicateKey, gid)
		}
		seen[gid] = true
	}
	return nil
}

func (s *Store) ListMovies(ctx context.Context) ([]model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Movie, 0, len(s.movies))
	for _, id := range sortedKeys(s.movies) {
		m := s.movies[id]
		m.Genres = s.genresOf(id)
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) GetMovie(ctx context.Context, id uint64) (*model.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.movies[id]
	if !ok {
		return nil, notFound("movie", id)
	}
	m.Genres = s.genresOf(id)
	return &m, nil
}

func (s *Store) CreateMovie(ctx context.Context, m *model.Movie, genreIDs []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkGenreIDs(genreIDs); err != nil {
		return err
	}
	m.ID = s.next("movies")
	m.CreatedAt = s.now()
	row := *m
	row.Genres = nil
	s.movies[m.ID] = row
	for _, gid := range genreIDs {
		s.links[linkKey{m.ID, gid}] = s.next("movie_genres")
	}
	m.Genres = s.genresOf(m.ID)
	return nil
}

func (s *Store) UpdateMovie(ctx context.Context, m *model.Movie, genreIDs []uint64, replaceGenres bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.movies[m.ID]
	if !ok {
		return notFound("movie", m.ID)
	}
	if replaceGenres {
		if err := s.checkGenreIDs(genreIDs); err != nil {
			return err
		}
	}
	cur.Title = m.Title
	cur.ReleaseYear = m.ReleaseYear
	cur.Description = m.Description
	cur.PosterURL = m.PosterURL
	s.movies[m.ID] = cur
	if replaceGenres {
		for k := range s.links {
			if k.movieID == m.ID {
				delete(s.links, k)
			}
		}
		for _, gid := range genreIDs {
			s.links[linkKey{m.ID, gid}] = s.next("movie_genres")
		}
	}
	*m = cur
	m.Genres = s.genresOf(m.ID)
	return nil
}

func (s *Store) DeleteMovie(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[id]; !ok {
		return notFound("movie", id)
	}
	for k := range s.links {
		if k.movieID == id {
			delete(s.links, k)
		}
	}
	for rid, r := range s.reviews {
		if r.MovieID == id {
			delete(s.reviews, rid)
		}
	}
	for rid, r := range s.ratings {
		if r.MovieID == id {
			delete(s.ratingByKey, ratingKey{r.MovieID, r.AuthorID})
			delete(s.ratings, rid)
		}
	}
	delete(s.movies, id)
	return nil
}

func (s *Store) AddMovieGenre(ctx context.Context, movieID, genreID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[movieID]; !ok {
		return notFound("movie", movieID)
	}
	if _, ok := s.genres[genreID]; !ok {
		return fmt.Errorf("%w: genre %d does not exist", model.ErrValidation, genreID)
	}
	k := linkKey{movieID, genreID}
	if _, dup := s.links[k]; dup {
		return fmt.Errorf("%w: movie %d already has genre %d", model.ErrDuplicateKey, movieID, genreID)
	}
	s.links[k] = s.next("movie_genres")
	return nil
}

func (s *Store) RemoveMovieGenre(ctx context.Context, movieID, genreID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := linkKey{movieID, genreID}
	if _, ok := s.links[k]; !ok {
		return fmt.Errorf("%w: movie %d has no genre %d", model.ErrNotFound, movieID, genreID)
	}
	delete(s.links, k)
	return nil
}

func (s *Store) ListMovieGenres(ctx context.Context, movieID uint64) ([]model.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.movies[movieID]; !ok {
		return nil, notFound("movie", movieID)
	}
	return s.genresOf(movieID), nil
}

// ---- Reviews ----

// authorName must be called with mu held.
func (s *Store) authorName(id uint64) string {
	return s.users[id].Username
}

func (s *Store) ListReviews(ctx context.Context, f model.ReviewFilter) ([]model.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Review{}
	for _, id := range sortedKeys(s.reviews) {
		r := s.reviews[id]
		if f.MovieID != nil && r.MovieID != *f.MovieID {
			continue
		}
		if f.Sentiment != nil && r.Sentiment != *f.Sentiment {
			continue
		}
		r.AuthorName = s.authorName(r.AuthorID)
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) GetReview(ctx context.Context, id uint64) (*model.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil, notFound("review", id)
	}
	r.AuthorName = s.authorName(r.AuthorID)
	return &r, nil
}

func (s *Store) CreateReview(ctx context.Context, r *model.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[r.MovieID]; !ok {
		return fmt.Errorf("%w: movie %d does not exist", model.ErrValidation, r.MovieID)
	}
	r.ID = s.next("reviews")
	r.CreatedAt = s.now()
	r.AuthorName = s.authorName(r.AuthorID)
	s.reviews[r.ID] = *r
	return nil
}

func (s *Store) UpdateReview(ctx context.Context, r *model.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.reviews[r.ID]
	if !ok {
		return notFound("review", r.ID)
	}
	cur.ReviewText = r.ReviewText
	cur.Sentiment = r.Sentiment
	s.reviews[r.ID] = cur
	return nil
}

func (s *Store) DeleteReview(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[id]; !ok {
		return notFound("review", id)
	}
	delete(s.reviews, id)
	return nil
}

// ---- Ratings ----

func (s *Store) ListRatings(ctx context.Context, f model.RatingFilter) ([]model.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Rating{}
	for _, id := range sortedKeys(s.ratings) {
		r := s.ratings[id]
		if f.MovieID != nil && r.MovieID != *f.MovieID {
			continue
		}
		r.AuthorName = s.authorName(r.AuthorID)
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) GetRating(ctx context.Context, id uint64) (*model.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ratings[id]
	if !ok {
		return nil, notFound("rating", id)
	}
	r.AuthorName = s.authorName(r.AuthorID)
	return &r, nil
}

func (s *Store) CreateRating(ctx context.Context, r *model.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[r.MovieID]; !ok {
		return fmt.Errorf("%w: movie %d does not exist", model.ErrValidation, r.MovieID)
	}
	k := ratingKey{r.MovieID, r.AuthorID}
	if _, dup := s.ratingByKey[k]; dup {
		return fmt.Errorf("%w: user %d already rated movie %d", model.ErrDuplicateKey, r.AuthorID, r.MovieID)
	}
	r.ID = s.next("ratings")
	r.CreatedAt = s.now()
	r.AuthorName = s.authorName(r.AuthorID)
	s.ratings[r.ID] = *r
	s.ratingByKey[k] = r.ID
	return nil
}

func (s *Store) UpdateRating(ctx context.Context, r *model.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.ratings[r.ID]
	if !ok {
		return notFound("rating", r.ID)
	}
	cur.Stars = r.Stars
	s.ratings[r.ID] = cur
	return nil
}

func (s *Store) DeleteRating(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.ratings[id]
	if !ok {
		return notFound("rating", id)
	}
	delete(s.ratingByKey, ratingKey{r.MovieID, r.AuthorID})
	delete(s.ratings, id)
	return nil
}

func (s *Store) RatingStats(ctx context.Context, movieID uint64) (model.RatingStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st model.RatingStats
	for _, r := range s.ratings {
		if r.MovieID == movieID {
			st.Count++
			st.Sum += int64(r.Stars)
		}
	}
	return st, nil
}
