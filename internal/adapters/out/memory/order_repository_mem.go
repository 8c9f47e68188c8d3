// internal/adapters/out/memory/order_repository_mem.go
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	orderdom "gamestore/internal/domain/order"
)

type OrderRepositoryMem struct {
	mu     sync.RWMutex
	orders map[string]orderdom.Order
}

func NewOrderRepositoryMem() *OrderRepositoryMem {
	return &OrderRepositoryMem{orders: map[string]orderdom.Order{}}
}

func (r *OrderRepositoryMem) Create(ctx context.Context, o orderdom.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return orderdom.ErrConflict
	}
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *OrderRepositoryMem) GetByID(ctx context.Context, id string) (orderdom.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[strings.TrimSpace(id)]
	if !ok {
		return orderdom.Order{}, orderdom.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *OrderRepositoryMem) ListBySession(ctx context.Context, sessionID string) ([]orderdom.Order, error) {
	sid := strings.TrimSpace(sessionID)
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]orderdom.Order, 0)
	for _, o := range r.orders {
		if o.SessionID == sid {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *OrderRepositoryMem) UpdatePayment(ctx context.Context, id string, upd orderdom.PaymentUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[strings.TrimSpace(id)]
	if !ok {
		return orderdom.ErrNotFound
	}
	o.Status = upd.Status
	o.PaymentMethod = upd.PaymentMethod
	o.PaymentReference = upd.PaymentReference
	o.UpdatedAt = upd.UpdatedAt.UTC()
	r.orders[o.ID] = o
	return nil
}

func cloneOrder(o orderdom.Order) orderdom.Order {
	out := o
	out.Items = append([]orderdom.ItemSnapshot(nil), o.Items...)
	return out
}
