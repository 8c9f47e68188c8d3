// internal/adapters/out/firestore/game_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	gamedom "gamestore/internal/domain/game"
)

// GameRepositoryFS reads the catalog from the "games" collection.
// docId is the decimal game id.
type GameRepositoryFS struct {
	Client *firestore.Client
}

func NewGameRepositoryFS(client *firestore.Client) *GameRepositoryFS {
	return &GameRepositoryFS{Client: client}
}

func (r *GameRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("games")
}

func (r *GameRepositoryFS) List(ctx context.Context) ([]gamedom.Game, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("game_repository_fs: firestore client is nil")
	}
	it := r.col().Documents(ctx)
	defer it.Stop()

	out := make([]gamedom.Game, 0, 8)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		g := gameFromData(snap.Ref.ID, snap.Data())
		if g.ID <= 0 {
			continue
		}
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *GameRepositoryFS) GetByID(ctx context.Context, id int) (gamedom.Game, error) {
	if r == nil || r.Client == nil {
		return gamedom.Game{}, errors.New("game_repository_fs: firestore client is nil")
	}
	if id <= 0 {
		return gamedom.Game{}, gamedom.ErrNotFound
	}
	snap, err := r.col().Doc(strconv.Itoa(id)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return gamedom.Game{}, gamedom.ErrNotFound
		}
		return gamedom.Game{}, err
	}
	return gameFromData(snap.Ref.ID, snap.Data()), nil
}

func (r *GameRepositoryFS) GetBySlug(ctx context.Context, slug string) (gamedom.Game, error) {
	if r == nil || r.Client == nil {
		return gamedom.Game{}, errors.New("game_repository_fs: firestore client is nil")
	}
	s := strings.ToLower(strings.TrimSpace(slug))
	if s == "" {
		return gamedom.Game{}, gamedom.ErrNotFound
	}
	it := r.col().Where("slug", "==", s).Limit(1).Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return gamedom.Game{}, gamedom.ErrNotFound
	}
	if err != nil {
		return gamedom.Game{}, err
	}
	return gameFromData(snap.Ref.ID, snap.Data()), nil
}

// Seed は存在しないゲームドキュメントだけを作成します。
// 既存ドキュメントは上書きしません。
func (r *GameRepositoryFS) Seed(ctx context.Context, games []gamedom.Game) error {
	if r == nil || r.Client == nil {
		return errors.New("game_repository_fs: firestore client is nil")
	}
	for _, g := range games {
		_, err := r.col().Doc(strconv.Itoa(g.ID)).Create(ctx, gameToData(g))
		if err != nil && !isAlreadyExists(err) {
			return err
		}
	}
	return nil
}

func gameToData(g gamedom.Game) map[string]any {
	return map[string]any{
		"id":          g.ID,
		"slug":        g.Slug,
		"title":       g.Title,
		"description": g.Description,
		"price":       g.Price,
		"category":    string(g.Category),
		"image":       g.Image,
		"images":      g.Images,
		"isOnline":    g.IsOnline,
		"howToPlay":   g.HowToPlay,
		"createdAt":   g.CreatedAt.UTC(),
	}
}

func gameFromData(docID string, raw map[string]any) gamedom.Game {
	g := gamedom.Game{
		ID:          asInt(raw["id"]),
		Slug:        strings.TrimSpace(asString(raw["slug"])),
		Title:       strings.TrimSpace(asString(raw["title"])),
		Description: asString(raw["description"]),
		Price:       asInt64(raw["price"]),
		Category:    gamedom.Category(strings.TrimSpace(asString(raw["category"]))),
		Image:       strings.TrimSpace(asString(raw["image"])),
		Images:      asStrings(raw["images"]),
		IsOnline:    asBool(raw["isOnline"]),
		HowToPlay:   asString(raw["howToPlay"]),
	}
	if g.ID == 0 {
		g.ID, _ = strconv.Atoi(strings.TrimSpace(docID))
	}
	if t, ok := asTime(raw["createdAt"]); ok {
		g.CreatedAt = t
	}
	return g
}
