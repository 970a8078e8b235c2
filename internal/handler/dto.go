package handler

import (
	"time"

	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/service"
)

// Response bodies.  Field names are the public JSON contract.

type genreResp struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type movieResp struct {
	ID            uint64      `json:"id"`
	Title         string      `json:"title"`
	ReleaseYear   int         `json:"release_year"`
	Description   string      `json:"description"`
	PosterURL     string      `json:"poster_url"`
	Genres        []genreResp `json:"genres"`
	AverageRating float64     `json:"average_rating"`
	CreatedAt     time.Time   `json:"created_at"`
}

type reviewResp struct {
	ID         uint64    `json:"id"`
	Movie      uint64    `json:"movie"`
	User       string    `json:"user"`
	ReviewText string    `json:"review_text"`
	Sentiment  string    `json:"sentiment"`
	CreatedAt  time.Time `json:"created_at"`
}

type ratingResp struct {
	ID        uint64    `json:"id"`
	Movie     uint64    `json:"movie"`
	User      string    `json:"user"`
	Stars     int       `json:"stars"`
	CreatedAt time.Time `json:"created_at"`
}

type averageResp struct {
	AverageRating float64 `json:"average_rating"`
}

func toGenre(g model.Genre) genreResp { return genreResp{ID: g.ID, Name: g.Name} }

func toGenres(gs []model.Genre) []genreResp {
	out := make([]genreResp, 0, len(gs))
	for _, g := range gs {
		out = append(out, toGenre(g))
	}
	return out
}

func toMovie(m service.MovieDetail) movieResp {
	return movieResp{
		ID:            m.ID,
		Title:         m.Title,
		ReleaseYear:   m.ReleaseYear,
		Description:   m.Description,
		PosterURL:     m.PosterURL,
		Genres:        toGenres(m.Genres),
		AverageRating: m.AverageRating,
		CreatedAt:     m.CreatedAt,
	}
}

func toReview(r model.Review) reviewResp {
	return reviewResp{
		ID:         r.ID,
		Movie:      r.MovieID,
		User:       r.AuthorName,
		ReviewText: r.ReviewText,
		Sentiment:  string(r.Sentiment),
		CreatedAt:  r.CreatedAt,
	}
}

func toReviews(rs []model.Review) []reviewResp {
	out := make([]reviewResp, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReview(r))
	}
	return out
}

func toRating(r model.Rating) ratingResp {
	return ratingResp{ID: r.ID, Movie: r.MovieID, User: r.AuthorName, Stars: r.Stars, CreatedAt: r.CreatedAt}
}

func toRatings(rs []model.Rating) []ratingResp {
	out := make([]ratingResp, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRating(r))
	}
	return out
}
