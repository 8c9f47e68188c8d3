package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gamedom "gamestore/internal/domain/game"
)

type prefixResolver struct{ base string }

func (p prefixResolver) ResolveImage(_ context.Context, ref string) string {
	return p.base + strings.TrimPrefix(ref, "/")
}

func TestCatalogUsecase(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	gs, err := f.catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, gs, 4)

	g, err := f.catalog.GetBySlug(ctx, "blocks-and-hashes")
	require.NoError(t, err)
	assert.Equal(t, 2, g.ID)

	_, err = f.catalog.GetBySlug(ctx, "")
	assert.ErrorIs(t, err, gamedom.ErrNotFound)
	_, err = f.catalog.GetBySlug(ctx, "chess")
	assert.ErrorIs(t, err, gamedom.ErrNotFound)
	_, err = f.catalog.GetByID(ctx, 0)
	assert.ErrorIs(t, err, gamedom.ErrNotFound)
}

func TestCatalogUsecase_ResolvesImagesWithoutMutatingStore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	uc := NewCatalogUsecase(f.games, prefixResolver{base: "https://cdn.example/"})

	g, err := uc.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/images/crypto-charade-main.png", g.Image)
	assert.Equal(t, "https://cdn.example/images/crypto-charade-2.jpg", g.Images[0])

	raw, err := f.games.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "/images/crypto-charade-main.png", raw.Image)
}
