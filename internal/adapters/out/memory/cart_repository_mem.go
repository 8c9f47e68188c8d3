// internal/adapters/out/memory/cart_repository_mem.go
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	cartdom "gamestore/internal/domain/cart"
)

// CartRepositoryMem implements cart.Repository in process memory.
// Each session has its own lock, so different sessions never wait on each other.
type CartRepositoryMem struct {
	mu    sync.Mutex
	carts map[string]*cartdom.Cart
	locks map[string]*sessionLock
	now   func() time.Time
}

// sessionLock is dropped from the map once no caller holds or waits on it.
type sessionLock struct {
	mu      sync.Mutex
	holders int
}

func NewCartRepositoryMem() *CartRepositoryMem {
	return &CartRepositoryMem{
		carts: map[string]*cartdom.Cart{},
		locks: map[string]*sessionLock{},
		now:   time.Now,
	}
}

func (r *CartRepositoryMem) Get(ctx context.Context, sessionID string) (*cartdom.Cart, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, errors.New("cart_repository_mem: sessionID is empty")
	}

	unlock := r.lockSession(sid)
	defer unlock()

	r.mu.Lock()
	c, ok := r.carts[sid]
	r.mu.Unlock()
	if ok {
		return c.Clone(), nil
	}
	return cartdom.NewCart(sid, r.now())
}

func (r *CartRepositoryMem) Update(ctx context.Context, sessionID string, fn cartdom.UpdateFunc) (*cartdom.Cart, error) {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return nil, errors.New("cart_repository_mem: sessionID is empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := r.lockSession(sid)
	defer unlock()

	r.mu.Lock()
	cur, ok := r.carts[sid]
	r.mu.Unlock()

	var work *cartdom.Cart
	if ok {
		work = cur.Clone()
	} else {
		c, err := cartdom.NewCart(sid, r.now())
		if err != nil {
			return nil, err
		}
		work = c
	}

	if err := fn(work); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if work.IsEmpty() {
		delete(r.carts, sid)
	} else {
		r.carts[sid] = work.Clone()
	}
	r.mu.Unlock()

	return work, nil
}

func (r *CartRepositoryMem) Delete(ctx context.Context, sessionID string) error {
	sid := strings.TrimSpace(sessionID)
	if sid == "" {
		return errors.New("cart_repository_mem: sessionID is empty")
	}

	unlock := r.lockSession(sid)
	defer unlock()

	r.mu.Lock()
	delete(r.carts, sid)
	r.mu.Unlock()
	return nil
}

func (r *CartRepositoryMem) lockSession(sid string) func() {
	r.mu.Lock()
	l, ok := r.locks[sid]
	if !ok {
		l = &sessionLock{}
		r.locks[sid] = l
	}
	l.holders++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.holders--
		if l.holders == 0 {
			delete(r.locks, sid)
		}
		r.mu.Unlock()
	}
}
