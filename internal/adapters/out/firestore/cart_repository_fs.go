// internal/adapters/out/firestore/cart_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	cartdom "gamestore/internal/domain/cart"
)

// CartTTL is written to expiresAt; configure a Firestore TTL policy on that field.
const CartTTL = 30 * 24 * time.Hour

// CartRepositoryFS implements cart.Repository using Firestore.
//
// Collection design:
// - collection: carts
// - docId: sessionId
// - fields: items(array, insertion order), updatedAt, expiresAt
//
// Update runs in a Firestore transaction, which retries on contention, so
// concurrent adds for one session are never lost.
type CartRepositoryFS struct {
	Client *firestore.Client
}

func NewCartRepositoryFS(client *firestore.Client) *CartRepositoryFS {
	return &CartRepositoryFS{Client: client}
}

func (r *CartRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("carts")
}

func (r *CartRepositoryFS) Get(ctx context.Context, sessionID string) (*cartdom.Cart, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cart_repository_fs: firestore client is nil")
	}
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, errors.New("cart_repository_fs: sessionID is empty")
	}

	snap, err := r.col().Doc(sid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return cartdom.NewCart(sid, time.Now())
		}
		return nil, err
	}
	return cartFromData(sid, snap.Data()), nil
}

func (r *CartRepositoryFS) Update(ctx context.Context, sessionID string, fn cartdom.UpdateFunc) (*cartdom.Cart, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("cart_repository_fs: firestore client is nil")
	}
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, errors.New("cart_repository_fs: sessionID is empty")
	}

	ref := r.col().Doc(sid)
	var out *cartdom.Cart

	err := r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var c *cartdom.Cart
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			c = cartFromData(sid, snap.Data())
		case isNotFound(err):
			c, err = cartdom.NewCart(sid, time.Now())
			if err != nil {
				return err
			}
		default:
			return err
		}

		if err := fn(c); err != nil {
			return err
		}
		out = c

		if c.IsEmpty() {
			return tx.Delete(ref)
		}
		return tx.Set(ref, cartToData(c))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete is idempotent.
func (r *CartRepositoryFS) Delete(ctx context.Context, sessionID string) error {
	if r == nil || r.Client == nil {
		return errors.New("cart_repository_fs: firestore client is nil")
	}
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return errors.New("cart_repository_fs: sessionID is empty")
	}
	_, err := r.col().Doc(sid).Delete(ctx)
	if err != nil && isNotFound(err) {
		return nil
	}
	return err
}

// -----------------------------------------
// Firestore mapping
// -----------------------------------------

func cartToData(c *cartdom.Cart) map[string]any {
	items := make([]map[string]any, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, map[string]any{
			"id":        it.ID,
			"gameId":    it.GameID,
			"quantity":  it.Quantity,
			"createdAt": it.CreatedAt.UTC(),
		})
	}
	return map[string]any{
		"items":     items,
		"updatedAt": c.UpdatedAt.UTC(),
		"expiresAt": c.UpdatedAt.UTC().Add(CartTTL),
	}
}

// cartFromData decodes leniently; malformed lines are dropped and
// duplicate games merged by cartdom.Restore.
func cartFromData(sid string, raw map[string]any) *cartdom.Cart {
	var items []cartdom.LineItem
	if arr, ok := raw["items"].([]any); ok {
		for _, v := range arr {
			m := asMap(v)
			if m == nil {
				continue
			}
			it := cartdom.LineItem{
				ID:        strings.TrimSpace(asString(m["id"])),
				SessionID: sid,
				GameID:    asInt(m["gameId"]),
				Quantity:  asInt(m["quantity"]),
			}
			if t, ok := asTime(m["createdAt"]); ok {
				it.CreatedAt = t
			}
			items = append(items, it)
		}
	}
	updated, _ := asTime(raw["updatedAt"])
	return cartdom.Restore(sid, items, updated)
}
