// internal/domain/cart/repository_port.go
package cart

import "context"

// UpdateFunc mutates c in place. Returning an error aborts the update and
// nothing is persisted.
type UpdateFunc func(c *Cart) error

// Repository is the injected cart store, keyed by session id.
//
//   - Get returns an empty cart (never nil) when the session has no items.
//   - Update is an atomic read-modify-write for one session: concurrent
//     Updates on the same session are serialized, different sessions never
//     block each other. fn receives an empty cart when none exists.
//   - Delete removes every line of the session; deleting an absent cart is not an error.
type Repository interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Update(ctx context.Context, sessionID string, fn UpdateFunc) (*Cart, error)
	Delete(ctx context.Context, sessionID string) error
}
