// internal/domain/order/entity.go
package order

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// Status is the payment-driven lifecycle of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

var (
	ErrInvalidID         = errors.New("order: invalid id")
	ErrInvalidSessionID  = errors.New("order: invalid sessionId")
	ErrInvalidItem       = errors.New("order: invalid item")
	ErrInvalidTotal      = errors.New("order: invalid total")
	ErrInvalidStatus     = errors.New("order: invalid status")
	ErrInvalidTransition = errors.New("order: invalid status transition")
	ErrEmptyCart         = errors.New("order: cart is empty")
)

// Policy
var (
	MinFullNameLength = 2
	MinPhoneLength    = 10
	MaxFieldLength    = 500
)

// CustomerInfo is who pays and where the cards ship.
type CustomerInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Country  string `json:"country"`
	State    string `json:"state"`
}

// Normalize trims every field.
func (c CustomerInfo) Normalize() CustomerInfo {
	return CustomerInfo{
		FullName: strings.TrimSpace(c.FullName),
		Email:    strings.TrimSpace(c.Email),
		Phone:    strings.TrimSpace(c.Phone),
		Address:  strings.TrimSpace(c.Address),
		Country:  strings.TrimSpace(c.Country),
		State:    strings.TrimSpace(c.State),
	}
}

// Validate reports every offending field at once.
func (c CustomerInfo) Validate() error {
	n := c.Normalize()
	var fields []FieldError

	if utf8.RuneCountInString(n.FullName) < MinFullNameLength {
		fields = append(fields, FieldError{Field: "fullName", Message: "Full name is required"})
	}
	if !isEmail(n.Email) {
		fields = append(fields, FieldError{Field: "email", Message: "Valid email is required"})
	}
	if utf8.RuneCountInString(n.Phone) < MinPhoneLength {
		fields = append(fields, FieldError{Field: "phone", Message: "Valid phone number is required"})
	}
	if n.Address == "" {
		fields = append(fields, FieldError{Field: "address", Message: "Address is required"})
	}
	if n.Country == "" {
		fields = append(fields, FieldError{Field: "country", Message: "Country is required"})
	}
	if n.State == "" {
		fields = append(fields, FieldError{Field: "state", Message: "State is required"})
	}
	for _, f := range []struct{ name, v string }{
		{"fullName", n.FullName}, {"email", n.Email}, {"phone", n.Phone},
		{"address", n.Address}, {"country", n.Country}, {"state", n.State},
	} {
		if MaxFieldLength > 0 && utf8.RuneCountInString(f.v) > MaxFieldLength {
			fields = append(fields, FieldError{Field: f.name, Message: "Value is too long"})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ItemSnapshot freezes a cart line at checkout time.
type ItemSnapshot struct {
	GameID   int    `json:"gameId"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// Order is the immutable record of a checkout. Only the payment fields
// (Status, PaymentMethod, PaymentReference, UpdatedAt) change after creation.
type Order struct {
	ID               string         `json:"id"`
	SessionID        string         `json:"sessionId"`
	Customer         CustomerInfo   `json:"customerInfo"`
	Items            []ItemSnapshot `json:"items"`
	Total            int64          `json:"total"`
	Currency         string         `json:"currency"`
	Status           Status         `json:"status"`
	PaymentMethod    string         `json:"paymentMethod,omitempty"`
	PaymentReference string         `json:"paymentReference,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// New validates customer info first, then items, and returns a pending order.
func New(
	id, sessionID string,
	customer CustomerInfo,
	items []ItemSnapshot,
	total int64,
	currency string,
	now time.Time,
) (Order, error) {
	if err := customer.Validate(); err != nil {
		return Order{}, err
	}
	if len(items) == 0 {
		return Order{}, ErrEmptyCart
	}

	o := Order{
		ID:        strings.TrimSpace(id),
		SessionID: strings.TrimSpace(sessionID),
		Customer:  customer.Normalize(),
		Items:     cloneItems(items),
		Total:     total,
		Currency:  strings.ToUpper(strings.TrimSpace(currency)),
		Status:    StatusPending,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	if err := o.validate(); err != nil {
		return Order{}, err
	}
	return o, nil
}

// CanTransition reports whether the order may move from one status to another.
// completed is terminal; failed may be retried or settle late.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusPending:
		return to == StatusCompleted || to == StatusFailed
	case StatusFailed:
		return to == StatusPending || to == StatusCompleted
	}
	return false
}

// ApplyPayment records the payment outcome. A repeated identical status is a no-op.
func (o *Order) ApplyPayment(method, reference string, next Status, now time.Time) error {
	if !IsValidStatus(next) {
		return ErrInvalidStatus
	}
	if !CanTransition(o.Status, next) {
		return ErrInvalidTransition
	}
	if m := strings.TrimSpace(method); m != "" {
		o.PaymentMethod = m
	}
	if ref := strings.TrimSpace(reference); ref != "" {
		o.PaymentReference = ref
	}
	o.Status = next
	o.UpdatedAt = now.UTC()
	return nil
}

// UnitCount sums quantities across the snapshot.
func (o Order) UnitCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

func (o Order) validate() error {
	if o.ID == "" {
		return ErrInvalidID
	}
	if o.SessionID == "" {
		return ErrInvalidSessionID
	}
	for _, it := range o.Items {
		if it.GameID <= 0 || it.Quantity < 1 || it.Price < 0 {
			return ErrInvalidItem
		}
	}
	if o.Total < 0 {
		return ErrInvalidTotal
	}
	if !IsValidStatus(o.Status) {
		return ErrInvalidStatus
	}
	return nil
}

func cloneItems(in []ItemSnapshot) []ItemSnapshot {
	out := make([]ItemSnapshot, len(in))
	copy(out, in)
	for i := range out {
		out[i].Title = strings.TrimSpace(out[i].Title)
	}
	return out
}

func isEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}
