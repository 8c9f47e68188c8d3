// internal/domain/payment/provider.go
package payment

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Customer is the subset of checkout info providers receive.
type Customer struct {
	Name  string
	Email string
	Phone string
}

type QuoteInput struct {
	OrderID     string
	Amount      int64 // minor units
	Currency    string
	Customer    Customer
	Description string
}

// Request is what the client needs to pay: a redirect for hosted flows, or
// transfer instructions for a wallet flow.
type Request struct {
	Method       Method            `json:"method"`
	Reference    string            `json:"reference"`
	RedirectURL  string            `json:"redirectUrl,omitempty"`
	Instructions map[string]string `json:"instructions,omitempty"`
}

// Ref identifies a payment at the provider. Amount and Currency are what
// the order owes; a settlement below that is not a completion.
type Ref struct {
	Reference string
	TxID      string
	Amount    int64 // minor units
	Currency  string
}

// Provider is one way of getting paid.
type Provider interface {
	Method() Method
	Quote(ctx context.Context, in QuoteInput) (*Request, error)
	Confirm(ctx context.Context, ref Ref) (Status, error)
}

// Event is a verified provider notification.
//
// Amount and Currency are what the provider reports as settled, when the
// payload carries them (Amount 0 means unknown). Recheck marks events whose
// status is only a hint: a completion is confirmed with the provider before
// it is recorded.
type Event struct {
	Method    Method
	Reference string
	TxID      string
	Status    Status
	ErrorType string
	Amount    int64
	Currency  string
	Recheck   bool
}

// Covers reports whether a settlement of amount/currency pays for what is
// owed. An empty currency on either side is not compared.
func Covers(owedAmount int64, owedCurrency string, amount int64, currency string) bool {
	oc := strings.TrimSpace(owedCurrency)
	c := strings.TrimSpace(currency)
	if oc != "" && c != "" && !strings.EqualFold(oc, c) {
		return false
	}
	return amount >= owedAmount
}

// WebhookVerifier is implemented by providers that push notifications.
type WebhookVerifier interface {
	ParseWebhook(body []byte, signature string) ([]Event, error)
}

// Registry selects a provider by method.
type Registry struct {
	mu        sync.RWMutex
	providers map[Method]Provider
}

func NewRegistry(ps ...Provider) *Registry {
	r := &Registry{providers: make(map[Method]Provider, len(ps))}
	for _, p := range ps {
		r.Register(p)
	}
	return r
}

func (r *Registry) Register(p Provider) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Method()] = p
}

func (r *Registry) Get(m Method) (Provider, error) {
	if r == nil {
		return nil, ErrUnknownMethod
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[Method(strings.TrimSpace(string(m)))]
	if !ok {
		return nil, ErrUnknownMethod
	}
	return p, nil
}

// Webhook returns the verifier for m, if the provider has one.
func (r *Registry) Webhook(m Method) (WebhookVerifier, error) {
	p, err := r.Get(m)
	if err != nil {
		return nil, err
	}
	v, ok := p.(WebhookVerifier)
	if !ok {
		return nil, ErrProviderNotConfigured
	}
	return v, nil
}

// Methods lists registered methods in stable order.
func (r *Registry) Methods() []Method {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Method, 0, len(r.providers))
	for m := range r.providers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
