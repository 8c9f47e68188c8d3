// internal/application/usecase/catalog_usecase.go
package usecase

import (
	"context"
	"strings"

	gamedom "gamestore/internal/domain/game"
)

// CatalogUsecase serves the read-only game catalog.
type CatalogUsecase struct {
	repo   gamedom.Repository
	images ImageResolver
}

func NewCatalogUsecase(repo gamedom.Repository, images ImageResolver) *CatalogUsecase {
	return &CatalogUsecase{repo: repo, images: images}
}

func (uc *CatalogUsecase) List(ctx context.Context) ([]gamedom.Game, error) {
	if uc == nil || uc.repo == nil {
		return nil, ErrNotConfigured
	}
	gs, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]gamedom.Game, 0, len(gs))
	for _, g := range gs {
		out = append(out, uc.withImages(ctx, g))
	}
	return out, nil
}

// GetBySlug returns gamedom.ErrNotFound for blank or unknown slugs.
func (uc *CatalogUsecase) GetBySlug(ctx context.Context, slug string) (gamedom.Game, error) {
	if uc == nil || uc.repo == nil {
		return gamedom.Game{}, ErrNotConfigured
	}
	s := strings.ToLower(strings.TrimSpace(slug))
	if s == "" {
		return gamedom.Game{}, gamedom.ErrNotFound
	}
	g, err := uc.repo.GetBySlug(ctx, s)
	if err != nil {
		return gamedom.Game{}, err
	}
	return uc.withImages(ctx, g), nil
}

func (uc *CatalogUsecase) GetByID(ctx context.Context, id int) (gamedom.Game, error) {
	if uc == nil || uc.repo == nil {
		return gamedom.Game{}, ErrNotConfigured
	}
	if id <= 0 {
		return gamedom.Game{}, gamedom.ErrNotFound
	}
	g, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return gamedom.Game{}, err
	}
	return uc.withImages(ctx, g), nil
}

func (uc *CatalogUsecase) withImages(ctx context.Context, g gamedom.Game) gamedom.Game {
	g = g.Clone()
	if uc.images == nil {
		return g
	}
	g.Image = uc.images.ResolveImage(ctx, g.Image)
	for i, im := range g.Images {
		g.Images[i] = uc.images.ResolveImage(ctx, im)
	}
	return g
}
