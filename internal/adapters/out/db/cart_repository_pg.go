// internal/adapters/out/db/cart_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	dbcommon "gamestore/internal/adapters/out/db/common"
	cartdom "gamestore/internal/domain/cart"
)

// CartRepositoryPG implements cart.Repository on the cart_items table.
// Update holds a transaction-scoped advisory lock on the session id, so
// concurrent updates of one session serialize while other sessions proceed.
type CartRepositoryPG struct {
	DB *sql.DB
}

func NewCartRepositoryPG(db *sql.DB) *CartRepositoryPG {
	return &CartRepositoryPG{DB: db}
}

func (r *CartRepositoryPG) Get(ctx context.Context, sessionID string) (*cartdom.Cart, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, errors.New("cart_repository_pg: sessionID is empty")
	}
	return r.load(ctx, dbcommon.GetRunner(ctx, r.DB), sid)
}

func (r *CartRepositoryPG) Update(ctx context.Context, sessionID string, fn cartdom.UpdateFunc) (*cartdom.Cart, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, errors.New("cart_repository_pg: sessionID is empty")
	}

	var out *cartdom.Cart
	err := dbcommon.WithTx(ctx, r.DB, func(ctx context.Context) error {
		run := dbcommon.GetRunner(ctx, r.DB)
		if _, err := run.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sid); err != nil {
			return err
		}

		c, err := r.load(ctx, run, sid)
		if err != nil {
			return err
		}
		before := indexItems(c.Items)

		if err := fn(c); err != nil {
			return err
		}

		if err := r.persist(ctx, run, sid, before, c.Items); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CartRepositoryPG) Delete(ctx context.Context, sessionID string) error {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return errors.New("cart_repository_pg: sessionID is empty")
	}
	_, err := dbcommon.GetRunner(ctx, r.DB).ExecContext(ctx, `DELETE FROM cart_items WHERE session_id = $1`, sid)
	return err
}

func (r *CartRepositoryPG) load(ctx context.Context, run dbcommon.Runner, sid string) (*cartdom.Cart, error) {
	const q = `
SELECT id, game_id, quantity, created_at, updated_at
FROM cart_items
WHERE session_id = $1
ORDER BY position ASC`
	rows, err := run.QueryContext(ctx, q, sid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		items   []cartdom.LineItem
		updated time.Time
	)
	for rows.Next() {
		var (
			it        cartdom.LineItem
			updatedAt time.Time
		)
		if err := rows.Scan(&it.ID, &it.GameID, &it.Quantity, &it.CreatedAt, &updatedAt); err != nil {
			return nil, err
		}
		it.SessionID = sid
		it.CreatedAt = it.CreatedAt.UTC()
		if updatedAt.After(updated) {
			updated = updatedAt.UTC()
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return cartdom.NewCart(sid, time.Now())
	}
	return cartdom.Restore(sid, items, updated), nil
}

// persist writes the diff between before and after.
func (r *CartRepositoryPG) persist(ctx context.Context, run dbcommon.Runner, sid string, before map[int]cartdom.LineItem, after []cartdom.LineItem) error {
	now := time.Now().UTC()
	seen := make(map[int]struct{}, len(after))

	for _, it := range after {
		seen[it.GameID] = struct{}{}
		prev, existed := before[it.GameID]
		switch {
		case !existed:
			const q = `
INSERT INTO cart_items (id, session_id, game_id, quantity, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
			if _, err := run.ExecContext(ctx, q, it.ID, sid, it.GameID, it.Quantity, it.CreatedAt.UTC(), now); err != nil {
				return err
			}
		case prev.Quantity != it.Quantity:
			const q = `UPDATE cart_items SET quantity = $1, updated_at = $2 WHERE session_id = $3 AND game_id = $4`
			if _, err := run.ExecContext(ctx, q, it.Quantity, now, sid, it.GameID); err != nil {
				return err
			}
		}
	}

	for gid := range before {
		if _, ok := seen[gid]; ok {
			continue
		}
		const q = `DELETE FROM cart_items WHERE session_id = $1 AND game_id = $2`
		if _, err := run.ExecContext(ctx, q, sid, gid); err != nil {
			return err
		}
	}
	return nil
}

func indexItems(items []cartdom.LineItem) map[int]cartdom.LineItem {
	out := make(map[int]cartdom.LineItem, len(items))
	for _, it := range items {
		out[it.GameID] = it
	}
	return out
}
