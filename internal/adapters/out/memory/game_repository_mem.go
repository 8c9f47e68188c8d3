// internal/adapters/out/memory/game_repository_mem.go
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	gamedom "gamestore/internal/domain/game"
)

// GameRepositoryMem is the catalog held in memory, ordered by id.
type GameRepositoryMem struct {
	mu    sync.RWMutex
	byID  map[int]gamedom.Game
	order []int
}

func NewGameRepositoryMem(games []gamedom.Game) *GameRepositoryMem {
	r := &GameRepositoryMem{byID: map[int]gamedom.Game{}}
	for _, g := range games {
		r.Put(g)
	}
	return r
}

// Put inserts or replaces a game.
func (r *GameRepositoryMem) Put(g gamedom.Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[g.ID]; !ok {
		r.order = append(r.order, g.ID)
		sort.Ints(r.order)
	}
	r.byID[g.ID] = g.Clone()
}

func (r *GameRepositoryMem) List(ctx context.Context) ([]gamedom.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]gamedom.Game, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].Clone())
	}
	return out, nil
}

func (r *GameRepositoryMem) GetByID(ctx context.Context, id int) (gamedom.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byID[id]
	if !ok {
		return gamedom.Game{}, gamedom.ErrNotFound
	}
	return g.Clone(), nil
}

func (r *GameRepositoryMem) GetBySlug(ctx context.Context, slug string) (gamedom.Game, error) {
	s := strings.ToLower(strings.TrimSpace(slug))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if g := r.byID[id]; g.Slug == s {
			return g.Clone(), nil
		}
	}
	return gamedom.Game{}, gamedom.ErrNotFound
}
