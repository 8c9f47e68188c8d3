// internal/application/usecase/order_usecase.go
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
	orderdom "gamestore/internal/domain/order"
)

const DefaultCurrency = "USD"

// CheckoutInput is the app-level input for placing an order.
type CheckoutInput struct {
	SessionID string
	Customer  orderdom.CustomerInfo

	// ClientTotal is what the browser displayed. It is compared with the
	// server total and never trusted.
	ClientTotal *int64
}

// OrderUsecase turns a cart into an immutable order.
type OrderUsecase struct {
	orders   orderdom.Repository
	carts    cartdom.Repository
	games    gamedom.Repository
	notifier OrderNotifier
	events   EventPublisher
	clock    Clock
	newID    IDGenerator
	currency string
}

func NewOrderUsecase(
	orders orderdom.Repository,
	carts cartdom.Repository,
	games gamedom.Repository,
) *OrderUsecase {
	return &OrderUsecase{
		orders:   orders,
		carts:    carts,
		games:    games,
		notifier: nopNotifier{},
		events:   nopPublisher{},
		clock:    systemClock{},
		newID:    newUUID,
		currency: DefaultCurrency,
	}
}

// WithNotifier / WithEvents / WithClock / WithCurrency are DI setters.

func (uc *OrderUsecase) WithNotifier(n OrderNotifier) *OrderUsecase {
	if n != nil {
		uc.notifier = n
	}
	return uc
}

func (uc *OrderUsecase) WithEvents(p EventPublisher) *OrderUsecase {
	if p != nil {
		uc.events = p
	}
	return uc
}

func (uc *OrderUsecase) WithClock(c Clock) *OrderUsecase {
	if c != nil {
		uc.clock = c
	}
	return uc
}

func (uc *OrderUsecase) WithCurrency(cur string) *OrderUsecase {
	if c := strings.ToUpper(strings.TrimSpace(cur)); c != "" {
		uc.currency = c
	}
	return uc
}

// Checkout does:
// 1) validate customer info (nothing persisted on failure)
// 2) snapshot the cart against the catalog
// 3) price the snapshot and persist a pending order
// 4) take the snapshotted units off the cart, then mail + event (best-effort)
func (uc *OrderUsecase) Checkout(ctx context.Context, in CheckoutInput) (orderdom.Order, error) {
	sid := strings.TrimSpace(in.SessionID)
	if sid == "" {
		return orderdom.Order{}, ErrInvalidArgument
	}
	if err := in.Customer.Validate(); err != nil {
		return orderdom.Order{}, err
	}

	c, err := uc.carts.Get(ctx, sid)
	if err != nil {
		return orderdom.Order{}, fmt.Errorf("checkout: load cart: %w", err)
	}
	if c.IsEmpty() {
		return orderdom.Order{}, orderdom.ErrEmptyCart
	}

	items, err := uc.snapshot(ctx, c)
	if err != nil {
		return orderdom.Order{}, err
	}
	if len(items) == 0 {
		return orderdom.Order{}, orderdom.ErrEmptyCart
	}

	total := discountdom.ComputeTotal(snapshotLines(items))
	if in.ClientTotal != nil && *in.ClientTotal != total {
		log.Printf("[order_uc] WARN: client total mismatch sessionId=%q client=%d server=%d",
			sid, *in.ClientTotal, total,
		)
	}

	now := uc.clock.Now()
	o, err := orderdom.New(uc.newID(), sid, in.Customer, items, total, uc.currency, now)
	if err != nil {
		return orderdom.Order{}, err
	}
	if err := uc.orders.Create(ctx, o); err != nil {
		return orderdom.Order{}, fmt.Errorf("checkout: persist order: %w", err)
	}

	// lines added while checkout ran stay in the cart
	if _, err := uc.carts.Update(ctx, sid, func(cur *cartdom.Cart) error {
		at := uc.clock.Now()
		for _, it := range c.Items {
			cur.Deduct(it.GameID, it.Quantity, at)
		}
		return nil
	}); err != nil {
		log.Printf("[order_uc] WARN: clear cart failed sessionId=%q orderId=%q err=%v", sid, o.ID, err)
	}
	if err := uc.notifier.OrderPlaced(ctx, o); err != nil {
		log.Printf("[order_uc] WARN: order mail failed orderId=%q err=%v", o.ID, err)
	}
	if err := uc.events.Publish(ctx, newOrderEvent(EventOrderPlaced, o, now)); err != nil {
		log.Printf("[order_uc] WARN: publish %s failed orderId=%q err=%v", EventOrderPlaced, o.ID, err)
	}

	log.Printf("[order_uc] OK: order placed orderId=%q sessionId=%q units=%d total=%d",
		o.ID, sid, o.UnitCount(), o.Total,
	)
	return o, nil
}

// Get returns the order. A non-empty sessionID must own it, otherwise
// orderdom.ErrNotFound is returned.
func (uc *OrderUsecase) Get(ctx context.Context, sessionID, orderID string) (orderdom.Order, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	o, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return orderdom.Order{}, err
	}
	if sid := strings.TrimSpace(sessionID); sid != "" && o.SessionID != sid {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	return o, nil
}

// List returns the session's orders, newest first.
func (uc *OrderUsecase) List(ctx context.Context, sessionID string) ([]orderdom.Order, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, ErrInvalidArgument
	}
	return uc.orders.ListBySession(ctx, sid)
}

func (uc *OrderUsecase) snapshot(ctx context.Context, c *cartdom.Cart) ([]orderdom.ItemSnapshot, error) {
	out := make([]orderdom.ItemSnapshot, 0, len(c.Items))
	for _, it := range c.Items {
		g, err := uc.games.GetByID(ctx, it.GameID)
		if errors.Is(err, gamedom.ErrNotFound) {
			log.Printf("[order_uc] WARN: drop unknown game from snapshot sessionId=%q gameId=%d", c.SessionID, it.GameID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("checkout: load game %d: %w", it.GameID, err)
		}
		out = append(out, orderdom.ItemSnapshot{
			GameID:   g.ID,
			Title:    g.Title,
			Price:    g.Price,
			Quantity: it.Quantity,
		})
	}
	return out, nil
}

func snapshotLines(items []orderdom.ItemSnapshot) []discountdom.Line {
	out := make([]discountdom.Line, 0, len(items))
	for _, it := range items {
		out = append(out, discountdom.Line{UnitPrice: it.Price, Quantity: it.Quantity})
	}
	return out
}
