// internal/domain/order/repository_port.go
package order

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("order: not found")
	ErrConflict = errors.New("order: conflict")
)

// PaymentUpdate is the only mutation allowed after creation.
type PaymentUpdate struct {
	Status           Status
	PaymentMethod    string
	PaymentReference string
	UpdatedAt        time.Time
}

// Repository persists orders.
// Create returns ErrConflict when the id already exists.
// ListBySession returns newest first.
type Repository interface {
	Create(ctx context.Context, o Order) error
	GetByID(ctx context.Context, id string) (Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]Order, error)
	UpdatePayment(ctx context.Context, id string, upd PaymentUpdate) error
}
