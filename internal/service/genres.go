package service

import (
	"context"
	"strings"

	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/policy"
	"github.com/iliyamo/movie-review-api/internal/validation"
)

// GenreInput is the payload of a genre create or rename.
type GenreInput struct {
	Name string `json:"name" validate:"notblank,max=50"`
}

// GenreService implements the genre operations.
type GenreService struct {
	store GenreStore
}

func (s *GenreService) List(ctx context.Context, p model.Principal) ([]model.Genre, error) {
	if err := policy.Check(p, policy.OpList, policy.KindGenre, nil); err != nil {
		return nil, err
	}
	return s.store.ListGenres(ctx)
}

func (s *GenreService) Get(ctx context.Context, p model.Principal, id uint64) (*model.Genre, error) {
	if err := policy.Check(p, policy.OpRetrieve, policy.KindGenre, nil); err != nil {
		return nil, err
	}
	return s.store.GetGenre(ctx, id)
}

// Create adds a genre.  Admin only; the name must be unused.
func (s *GenreService) Create(ctx context.Context, p model.Principal, in GenreInput) (*model.Genre, error) {
	if err := policy.Check(p, policy.OpCreate, policy.KindGenre, nil); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	g := &model.Genre{Name: in.Name}
	if err := s.store.CreateGenre(ctx, g); err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Uint64("genre_id", g.ID).Str("name", g.Name).Msg("genre created")
	return g, nil
}

// Update renames a genre.  Admin only.
func (s *GenreService) Update(ctx context.Context, p model.Principal, id uint64, in GenreInput) (*model.Genre, error) {
	if err := policy.Check(p, policy.OpUpdate, policy.KindGenre, nil); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return s.store.RenameGenre(ctx, id, in.Name)
}

// Delete removes a genre and unlinks it from every movie.  Admin only.
func (s *GenreService) Delete(ctx context.Context, p model.Principal, id uint64) error {
	if err := policy.Check(p, policy.OpDelete, policy.KindGenre, nil); err != nil {
		return err
	}
	if err := s.store.DeleteGenre(ctx, id); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Uint64("genre_id", id).Msg("genre deleted")
	return nil
}
