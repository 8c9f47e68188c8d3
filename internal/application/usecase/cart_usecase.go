// internal/application/usecase/cart_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	cartdom "gamestore/internal/domain/cart"
	discountdom "gamestore/internal/domain/discount"
	gamedom "gamestore/internal/domain/game"
)

// CartLine is a cart line joined with its catalog entry.
type CartLine struct {
	ID        string       `json:"id"`
	GameID    int          `json:"gameId"`
	Quantity  int          `json:"quantity"`
	Game      gamedom.Game `json:"game"`
	LineTotal int64        `json:"lineTotal"`
}

// CartSummary is what the cart page renders.
type CartSummary struct {
	Items      []CartLine            `json:"items"`
	Pricing    discountdom.Breakdown `json:"pricing"`
	ActiveTier *discountdom.Tier     `json:"activeTier,omitempty"`
}

// CartUsecase coordinates cart operations for one session at a time.
type CartUsecase struct {
	carts cartdom.Repository
	games gamedom.Repository
	clock Clock
	newID IDGenerator
}

func NewCartUsecase(carts cartdom.Repository, games gamedom.Repository) *CartUsecase {
	return NewCartUsecaseWithClock(carts, games, nil)
}

// NewCartUsecaseWithClock is useful for tests.
func NewCartUsecaseWithClock(carts cartdom.Repository, games gamedom.Repository, clock Clock) *CartUsecase {
	if clock == nil {
		clock = systemClock{}
	}
	return &CartUsecase{carts: carts, games: games, clock: clock, newID: newUUID}
}

// AddItem merges qty units of gameID into the session's cart.
// qty must be >= 1 and gameID must exist in the catalog.
func (uc *CartUsecase) AddItem(ctx context.Context, sessionID string, gameID, qty int) (cartdom.LineItem, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return cartdom.LineItem{}, ErrInvalidArgument
	}
	if qty < 1 || qty > cartdom.MaxQuantity {
		return cartdom.LineItem{}, cartdom.ErrInvalidQuantity
	}
	if err := uc.requireGame(ctx, gameID); err != nil {
		return cartdom.LineItem{}, err
	}

	var added cartdom.LineItem
	_, err := uc.carts.Update(ctx, sid, func(c *cartdom.Cart) error {
		it, err := c.Add(gameID, qty, uc.clock.Now(), uc.newID)
		if err != nil {
			return err
		}
		added = it
		return nil
	})
	if err != nil {
		return cartdom.LineItem{}, err
	}
	return added, nil
}

// SetQuantity overwrites the quantity; qty <= 0 removes the line and a
// missing line is a no-op. qty above cart.MaxQuantity is rejected.
func (uc *CartUsecase) SetQuantity(ctx context.Context, sessionID string, gameID, qty int) (*cartdom.Cart, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, ErrInvalidArgument
	}
	return uc.carts.Update(ctx, sid, func(c *cartdom.Cart) error {
		_, err := c.SetQuantity(gameID, qty, uc.clock.Now())
		return err
	})
}

func (uc *CartUsecase) RemoveItem(ctx context.Context, sessionID string, gameID int) (*cartdom.Cart, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, ErrInvalidArgument
	}
	return uc.carts.Update(ctx, sid, func(c *cartdom.Cart) error {
		c.Remove(gameID, uc.clock.Now())
		return nil
	})
}

// Clear is idempotent.
func (uc *CartUsecase) Clear(ctx context.Context, sessionID string) error {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return ErrInvalidArgument
	}
	return uc.carts.Delete(ctx, sid)
}

// ListItems returns the cart joined with the catalog. Lines whose game has
// left the catalog are skipped.
func (uc *CartUsecase) ListItems(ctx context.Context, sessionID string) ([]CartLine, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, ErrInvalidArgument
	}
	c, err := uc.carts.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	return uc.join(ctx, c)
}

// Summary returns the joined items with their pricing breakdown.
func (uc *CartUsecase) Summary(ctx context.Context, sessionID string) (CartSummary, error) {
	lines, err := uc.ListItems(ctx, sessionID)
	if err != nil {
		return CartSummary{}, err
	}
	b := discountdom.Quote(toDiscountLines(lines))
	out := CartSummary{Items: lines, Pricing: b}
	if t, ok := discountdom.ActiveTier(b.TotalUnits); ok {
		out.ActiveTier = &t
	}
	return out, nil
}

func (uc *CartUsecase) join(ctx context.Context, c *cartdom.Cart) ([]CartLine, error) {
	out := make([]CartLine, 0, len(c.Items))
	for _, it := range c.Items {
		g, err := uc.games.GetByID(ctx, it.GameID)
		if errors.Is(err, gamedom.ErrNotFound) {
			log.Printf("[cart_uc] WARN: skip unknown game sessionId=%q gameId=%d", c.SessionID, it.GameID)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, CartLine{
			ID:        it.ID,
			GameID:    it.GameID,
			Quantity:  it.Quantity,
			Game:      g,
			LineTotal: g.Price * int64(it.Quantity),
		})
	}
	return out, nil
}

func (uc *CartUsecase) requireGame(ctx context.Context, gameID int) error {
	if gameID <= 0 {
		return cartdom.ErrUnknownGame
	}
	if _, err := uc.games.GetByID(ctx, gameID); err != nil {
		if errors.Is(err, gamedom.ErrNotFound) {
			return fmt.Errorf("%w: id=%d", cartdom.ErrUnknownGame, gameID)
		}
		return err
	}
	return nil
}

func toDiscountLines(lines []CartLine) []discountdom.Line {
	out := make([]discountdom.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, discountdom.Line{UnitPrice: l.Game.Price, Quantity: l.Quantity})
	}
	return out
}
