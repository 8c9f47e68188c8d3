// internal/adapters/out/db/game_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	dbcommon "gamestore/internal/adapters/out/db/common"
	gamedom "gamestore/internal/domain/game"
)

type GameRepositoryPG struct {
	DB *sql.DB
}

func NewGameRepositoryPG(db *sql.DB) *GameRepositoryPG {
	return &GameRepositoryPG{DB: db}
}

const gameColumns = `id, slug, title, description, price, category, image, images, is_online, how_to_play, created_at`

func (r *GameRepositoryPG) List(ctx context.Context) ([]gamedom.Game, error) {
	rows, err := dbcommon.GetRunner(ctx, r.DB).QueryContext(ctx, `SELECT `+gameColumns+` FROM games ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]gamedom.Game, 0, 8)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GameRepositoryPG) GetByID(ctx context.Context, id int) (gamedom.Game, error) {
	row := dbcommon.GetRunner(ctx, r.DB).QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id)
	return scanGameOne(row)
}

func (r *GameRepositoryPG) GetBySlug(ctx context.Context, slug string) (gamedom.Game, error) {
	s := strings.ToLower(strings.TrimSpace(slug))
	row := dbcommon.GetRunner(ctx, r.DB).QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE slug = $1`, s)
	return scanGameOne(row)
}

// Seed inserts games whose id is not present yet. Existing rows are left as is.
func (r *GameRepositoryPG) Seed(ctx context.Context, games []gamedom.Game) error {
	return dbcommon.WithTx(ctx, r.DB, func(ctx context.Context) error {
		run := dbcommon.GetRunner(ctx, r.DB)
		for _, g := range games {
			images, err := json.Marshal(g.Images)
			if err != nil {
				return err
			}
			const q = `
INSERT INTO games (` + gameColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO NOTHING`
			if _, err := run.ExecContext(ctx, q,
				g.ID, g.Slug, g.Title, g.Description, g.Price, string(g.Category),
				g.Image, string(images), g.IsOnline, g.HowToPlay, g.CreatedAt.UTC(),
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanGameOne(row *sql.Row) (gamedom.Game, error) {
	g, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return gamedom.Game{}, gamedom.ErrNotFound
	}
	return g, err
}

func scanGame(s dbcommon.RowScanner) (gamedom.Game, error) {
	var (
		g        gamedom.Game
		category string
		images   []byte
	)
	if err := s.Scan(
		&g.ID, &g.Slug, &g.Title, &g.Description, &g.Price, &category,
		&g.Image, &images, &g.IsOnline, &g.HowToPlay, &g.CreatedAt,
	); err != nil {
		return gamedom.Game{}, err
	}
	g.Category = gamedom.Category(category)
	g.CreatedAt = g.CreatedAt.UTC()
	if len(images) > 0 {
		if err := json.Unmarshal(images, &g.Images); err != nil {
			return gamedom.Game{}, err
		}
	}
	return g, nil
}
