// internal/domain/payment/repository_port.go
package payment

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("payment: not found")
	ErrConflict = errors.New("payment: conflict")
)

// Repository persists payment attempts keyed by Reference.
type Repository interface {
	Create(ctx context.Context, p Payment) error
	GetByReference(ctx context.Context, reference string) (Payment, error)
	GetByTxID(ctx context.Context, txID string) (Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]Payment, error)
	Save(ctx context.Context, p Payment) error
}
