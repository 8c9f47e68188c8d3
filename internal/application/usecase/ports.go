// internal/application/usecase/ports.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	orderdom "gamestore/internal/domain/order"
	paymentdom "gamestore/internal/domain/payment"
)

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// IDGenerator returns a new opaque id.
type IDGenerator func() string

func newUUID() string { return uuid.NewString() }

// OrderNotifier is an outbound port for customer mail.
// adapters/out/mail implements it.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, o orderdom.Order) error
	PaymentReceived(ctx context.Context, o orderdom.Order, p paymentdom.Payment) error
}

// Event types published on the order topic.
const (
	EventOrderPlaced = "order.placed"
	EventOrderPaid   = "order.paid"
	EventOrderFailed = "order.payment_failed"
)

// OrderEvent is the payload published for downstream consumers.
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	SessionID  string    `json:"sessionId"`
	Total      int64     `json:"total"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	Method     string    `json:"method,omitempty"`
	Reference  string    `json:"reference,omitempty"`
	Units      int       `json:"units"`
	OccurredAt time.Time `json:"occurredAt"`
}

// EventPublisher is an outbound port. adapters/out/kafka implements it.
type EventPublisher interface {
	Publish(ctx context.Context, e OrderEvent) error
}

// ImageResolver turns a stored image reference into a public URL.
// adapters/out/gcs implements it.
type ImageResolver interface {
	ResolveImage(ctx context.Context, ref string) string
}

// CryptoRates maps a coin id to its price per quote currency,
// e.g. {"ethereum": {"usd": 3120.5}}.
type CryptoRates map[string]map[string]float64

// RateFeed is an outbound port for crypto/fiat prices.
// adapters/out/rates implements it.
type RateFeed interface {
	Prices(ctx context.Context, ids, vsCurrencies []string) (CryptoRates, error)
}

type nopNotifier struct{}

func (nopNotifier) OrderPlaced(context.Context, orderdom.Order) error { return nil }
func (nopNotifier) PaymentReceived(context.Context, orderdom.Order, paymentdom.Payment) error {
	return nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, OrderEvent) error { return nil }

func newOrderEvent(typ string, o orderdom.Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:       typ,
		OrderID:    o.ID,
		SessionID:  o.SessionID,
		Total:      o.Total,
		Currency:   o.Currency,
		Status:     string(o.Status),
		Method:     o.PaymentMethod,
		Reference:  o.PaymentReference,
		Units:      o.UnitCount(),
		OccurredAt: at.UTC(),
	}
}
