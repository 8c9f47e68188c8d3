// internal/domain/game/repository_port.go
package game

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("game: not found")

// Repository is the read side of the catalog.
// Lookups for unknown ids or slugs return ErrNotFound.
type Repository interface {
	List(ctx context.Context) ([]Game, error)
	GetByID(ctx context.Context, id int) (Game, error)
	GetBySlug(ctx context.Context, slug string) (Game, error)
}
