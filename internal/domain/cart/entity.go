// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidCart     = errors.New("cart: invalid")
	ErrInvalidQuantity = errors.New("cart: invalid quantity")
	ErrUnknownGame     = errors.New("cart: unknown game")
)

const (
	// DefaultAddQuantity is used when an add request omits the quantity.
	DefaultAddQuantity = 1
	// MaxQuantity caps a single line, merged quantity included.
	MaxQuantity = 999
)

// LineItem is "N units of game G in session S".
// Quantity stays within [1, MaxQuantity] while the item exists.
type LineItem struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	GameID    int       `json:"gameId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}

// Cart is the set of line items owned by one session, in insertion order.
// At most one item exists per GameID.
type Cart struct {
	SessionID string     `json:"sessionId"`
	Items     []LineItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewCart returns an empty cart for sessionID.
func NewCart(sessionID string, now time.Time) (*Cart, error) {
	c := &Cart{
		SessionID: strings.TrimSpace(sessionID),
		Items:     []LineItem{},
		UpdatedAt: now.UTC(),
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Add merges qty into the existing line for gameID or appends a new line.
// newID is only called when a new line is created.
func (c *Cart) Add(gameID, qty int, now time.Time, newID func() string) (LineItem, error) {
	if c == nil {
		return LineItem{}, ErrInvalidCart
	}
	if qty < 1 || qty > MaxQuantity {
		return LineItem{}, ErrInvalidQuantity
	}
	if gameID <= 0 {
		return LineItem{}, ErrUnknownGame
	}

	if i := c.findItemIndex(gameID); i >= 0 {
		if c.Items[i].Quantity > MaxQuantity-qty {
			return LineItem{}, ErrInvalidQuantity
		}
		c.Items[i].Quantity += qty
		c.touch(now)
		return c.Items[i], nil
	}

	it := LineItem{
		ID:        strings.TrimSpace(newID()),
		SessionID: c.SessionID,
		GameID:    gameID,
		Quantity:  qty,
		CreatedAt: now.UTC(),
	}
	c.Items = append(c.Items, it)
	c.touch(now)
	return it, nil
}

// SetQuantity overwrites the quantity for gameID.
// qty <= 0 removes the line. A missing line is left untouched.
// Reports whether the cart changed.
func (c *Cart) SetQuantity(gameID, qty int, now time.Time) (bool, error) {
	if c == nil {
		return false, ErrInvalidCart
	}
	if qty <= 0 {
		return c.Remove(gameID, now), nil
	}
	if qty > MaxQuantity {
		return false, ErrInvalidQuantity
	}
	i := c.findItemIndex(gameID)
	if i < 0 {
		return false, nil
	}
	if c.Items[i].Quantity == qty {
		return false, nil
	}
	c.Items[i].Quantity = qty
	c.touch(now)
	return true, nil
}

// Deduct takes up to qty units off the line for gameID and drops the line
// when nothing is left. Units added after a snapshot survive a deduction of
// the snapshotted quantity.
func (c *Cart) Deduct(gameID, qty int, now time.Time) bool {
	if c == nil || qty < 1 {
		return false
	}
	i := c.findItemIndex(gameID)
	if i < 0 {
		return false
	}
	if c.Items[i].Quantity <= qty {
		c.Items = removeIndex(c.Items, i)
	} else {
		c.Items[i].Quantity -= qty
	}
	c.touch(now)
	return true
}

// Remove deletes the line for gameID if present.
func (c *Cart) Remove(gameID int, now time.Time) bool {
	if c == nil {
		return false
	}
	i := c.findItemIndex(gameID)
	if i < 0 {
		return false
	}
	c.Items = removeIndex(c.Items, i)
	c.touch(now)
	return true
}

// Clear drops every line.
func (c *Cart) Clear(now time.Time) {
	if c == nil {
		return
	}
	c.Items = []LineItem{}
	c.touch(now)
}

// Find returns the line for gameID.
func (c *Cart) Find(gameID int) (LineItem, bool) {
	if c == nil {
		return LineItem{}, false
	}
	if i := c.findItemIndex(gameID); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

// TotalUnits sums the quantities of all lines.
func (c *Cart) TotalUnits() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = cloneItems(c.Items)
	return &out
}

// ------------------------------------------------------------
// internal helpers
// ------------------------------------------------------------

func (c *Cart) touch(now time.Time) {
	c.UpdatedAt = now.UTC()
}

func (c *Cart) validate() error {
	if strings.TrimSpace(c.SessionID) == "" {
		return ErrInvalidCart
	}
	seen := make(map[int]struct{}, len(c.Items))
	for _, it := range c.Items {
		if it.GameID <= 0 || it.Quantity < 1 || it.Quantity > MaxQuantity {
			return ErrInvalidCart
		}
		if _, dup := seen[it.GameID]; dup {
			return ErrInvalidCart
		}
		seen[it.GameID] = struct{}{}
	}
	return nil
}

func (c *Cart) findItemIndex(gameID int) int {
	for i, it := range c.Items {
		if it.GameID == gameID {
			return i
		}
	}
	return -1
}

func removeIndex(items []LineItem, i int) []LineItem {
	out := make([]LineItem, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}

func cloneItems(in []LineItem) []LineItem {
	out := make([]LineItem, len(in))
	copy(out, in)
	return out
}

// Restore rebuilds a cart from persisted lines, dropping malformed entries
// and merging duplicates so the one-line-per-game invariant holds on read.
// Merged quantities are clamped to MaxQuantity.
func Restore(sessionID string, items []LineItem, updatedAt time.Time) *Cart {
	sid := strings.TrimSpace(sessionID)
	c := &Cart{SessionID: sid, Items: make([]LineItem, 0, len(items)), UpdatedAt: updatedAt.UTC()}
	for _, it := range items {
		if it.GameID <= 0 || it.Quantity < 1 {
			continue
		}
		if it.Quantity > MaxQuantity {
			it.Quantity = MaxQuantity
		}
		if i := c.findItemIndex(it.GameID); i >= 0 {
			c.Items[i].Quantity = min(c.Items[i].Quantity+it.Quantity, MaxQuantity)
			continue
		}
		it.SessionID = sid
		c.Items = append(c.Items, it)
	}
	return c
}
