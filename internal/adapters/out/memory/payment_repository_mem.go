// internal/adapters/out/memory/payment_repository_mem.go
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	paymentdom "gamestore/internal/domain/payment"
)

type PaymentRepositoryMem struct {
	mu       sync.RWMutex
	payments map[string]paymentdom.Payment
}

func NewPaymentRepositoryMem() *PaymentRepositoryMem {
	return &PaymentRepositoryMem{payments: map[string]paymentdom.Payment{}}
}

func (r *PaymentRepositoryMem) Create(ctx context.Context, p paymentdom.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.Reference]; ok {
		return paymentdom.ErrConflict
	}
	r.payments[p.Reference] = p
	return nil
}

func (r *PaymentRepositoryMem) GetByReference(ctx context.Context, reference string) (paymentdom.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[strings.TrimSpace(reference)]
	if !ok {
		return paymentdom.Payment{}, paymentdom.ErrNotFound
	}
	return p, nil
}

func (r *PaymentRepositoryMem) GetByTxID(ctx context.Context, txID string) (paymentdom.Payment, error) {
	tx := strings.TrimSpace(txID)
	if tx == "" {
		return paymentdom.Payment{}, paymentdom.ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.payments {
		if p.TxID == tx {
			return p, nil
		}
	}
	return paymentdom.Payment{}, paymentdom.ErrNotFound
}

func (r *PaymentRepositoryMem) ListByOrder(ctx context.Context, orderID string) ([]paymentdom.Payment, error) {
	oid := strings.TrimSpace(orderID)
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]paymentdom.Payment, 0)
	for _, p := range r.payments {
		if p.OrderID == oid {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *PaymentRepositoryMem) Save(ctx context.Context, p paymentdom.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.Reference]; !ok {
		return paymentdom.ErrNotFound
	}
	r.payments[p.Reference] = p
	return nil
}
