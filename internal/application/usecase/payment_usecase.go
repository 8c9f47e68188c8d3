// internal/application/usecase/payment_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	orderdom "gamestore/internal/domain/order"
	paymentdom "gamestore/internal/domain/payment"
)

// StartPaymentInput selects a method for an existing order.
type StartPaymentInput struct {
	SessionID string
	OrderID   string
	Method    string
}

// PaymentStatusView is returned by the status endpoint.
type PaymentStatusView struct {
	Reference   string            `json:"reference"`
	OrderID     string            `json:"orderId"`
	Method      paymentdom.Method `json:"method"`
	Status      paymentdom.Status `json:"status"`
	OrderStatus orderdom.Status   `json:"orderStatus"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	TxID        string            `json:"txId,omitempty"`
}

// PaymentUsecase drives the order payment state from provider results.
// No cart state is touched here.
type PaymentUsecase struct {
	orders   orderdom.Repository
	payments paymentdom.Repository
	registry *paymentdom.Registry
	notifier OrderNotifier
	events   EventPublisher
	clock    Clock

	locksMu sync.Mutex
	locks   map[string]*refLock
}

// refLock is dropped from the map once nobody holds or waits for it.
type refLock struct {
	mu      sync.Mutex
	holders int
}

func NewPaymentUsecase(
	orders orderdom.Repository,
	payments paymentdom.Repository,
	registry *paymentdom.Registry,
) *PaymentUsecase {
	return &PaymentUsecase{
		orders:   orders,
		payments: payments,
		registry: registry,
		notifier: nopNotifier{},
		events:   nopPublisher{},
		clock:    systemClock{},
	}
}

func (uc *PaymentUsecase) WithNotifier(n OrderNotifier) *PaymentUsecase {
	if n != nil {
		uc.notifier = n
	}
	return uc
}

func (uc *PaymentUsecase) WithEvents(p EventPublisher) *PaymentUsecase {
	if p != nil {
		uc.events = p
	}
	return uc
}

func (uc *PaymentUsecase) WithClock(c Clock) *PaymentUsecase {
	if c != nil {
		uc.clock = c
	}
	return uc
}

// Methods lists the configured payment methods.
func (uc *PaymentUsecase) Methods() []paymentdom.Method {
	return uc.registry.Methods()
}

// Start asks the chosen provider for a payment request and records the attempt.
// A provider failure leaves the order pending.
func (uc *PaymentUsecase) Start(ctx context.Context, in StartPaymentInput) (*paymentdom.Request, error) {
	method, err := paymentdom.ParseMethod(in.Method)
	if err != nil {
		return nil, err
	}
	oid := strings.TrimSpace(in.OrderID)
	if oid == "" {
		return nil, orderdom.ErrNotFound
	}

	o, err := uc.orders.GetByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if sid := strings.TrimSpace(in.SessionID); sid != "" && o.SessionID != sid {
		return nil, orderdom.ErrNotFound
	}
	if o.Status == orderdom.StatusCompleted {
		return nil, ErrOrderAlreadyPaid
	}

	provider, err := uc.registry.Get(method)
	if err != nil {
		return nil, err
	}

	req, err := provider.Quote(ctx, paymentdom.QuoteInput{
		OrderID:  o.ID,
		Amount:   o.Total,
		Currency: o.Currency,
		Customer: paymentdom.Customer{
			Name:  o.Customer.FullName,
			Email: o.Customer.Email,
			Phone: o.Customer.Phone,
		},
		Description: fmt.Sprintf("Order %s (%d items)", o.ID, o.UnitCount()),
	})
	if err != nil {
		log.Printf("[payment_uc] WARN: quote failed orderId=%q method=%s err=%v", o.ID, method, err)
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}

	now := uc.clock.Now()
	p, err := paymentdom.New(req.Reference, o.ID, o.SessionID, method, o.Total, o.Currency, req.RedirectURL, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	if err := uc.payments.Create(ctx, p); err != nil {
		return nil, err
	}

	if err := uc.orders.UpdatePayment(ctx, o.ID, orderdom.PaymentUpdate{
		Status:           orderdom.StatusPending,
		PaymentMethod:    string(method),
		PaymentReference: p.Reference,
		UpdatedAt:        now,
	}); err != nil {
		return nil, err
	}

	log.Printf("[payment_uc] OK: payment started orderId=%q method=%s reference=%q amount=%d",
		o.ID, method, p.Reference, p.Amount,
	)
	return req, nil
}

// Confirm asks the provider for the current status and records it.
// txID is optional (on-chain signature, provider transaction id); it is only
// attached once the provider accepts it as belonging to the payment.
// Repeated calls are no-ops once settled.
func (uc *PaymentUsecase) Confirm(ctx context.Context, reference, txID string) (PaymentStatusView, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return PaymentStatusView{}, paymentdom.ErrNotFound
	}
	unlock := uc.lock(ref)
	defer unlock()

	p, err := uc.payments.GetByReference(ctx, ref)
	if err != nil {
		return PaymentStatusView{}, err
	}
	if p.Status == paymentdom.StatusCompleted {
		return uc.view(ctx, p)
	}

	cand := p.TxID
	if t := strings.TrimSpace(txID); t != "" {
		cand = t
	}
	st, err := uc.recheck(ctx, p, cand)
	if err != nil {
		return PaymentStatusView{}, err
	}

	txChanged := p.AttachTx(cand, uc.clock.Now())
	if err := uc.apply(ctx, &p, st, "", txChanged); err != nil {
		return PaymentStatusView{}, err
	}
	return uc.view(ctx, p)
}

// ApplyEvent records a verified webhook notification. Redelivery is a no-op.
// Events for unknown payments return paymentdom.ErrNotFound.
func (uc *PaymentUsecase) ApplyEvent(ctx context.Context, ev paymentdom.Event) (PaymentStatusView, error) {
	if !paymentdom.IsValidStatus(ev.Status) {
		return PaymentStatusView{}, paymentdom.ErrInvalidStatus
	}

	p, err := uc.findForEvent(ctx, ev)
	if err != nil {
		return PaymentStatusView{}, err
	}
	unlock := uc.lock(p.Reference)
	defer unlock()

	// re-read under the lock
	p, err = uc.payments.GetByReference(ctx, p.Reference)
	if err != nil {
		return PaymentStatusView{}, err
	}
	if ev.Method != "" && ev.Method != p.Method {
		log.Printf("[payment_uc] WARN: event method mismatch reference=%q event=%s stored=%s", p.Reference, ev.Method, p.Method)
	}

	st, errType := ev.Status, ev.ErrorType
	if st == paymentdom.StatusCompleted && p.Status != paymentdom.StatusCompleted {
		switch {
		case ev.Amount > 0 && !paymentdom.Covers(p.Amount, p.Currency, ev.Amount, ev.Currency):
			log.Printf("[payment_uc] WARN: underpaid reference=%q owed=%d %s got=%d %s",
				p.Reference, p.Amount, p.Currency, ev.Amount, ev.Currency,
			)
			st, errType = paymentdom.StatusFailed, paymentdom.ErrorTypeUnderpaid
		case ev.Recheck:
			checked, err := uc.recheck(ctx, p, ev.TxID)
			if err != nil {
				return PaymentStatusView{}, err
			}
			st = checked
		}
	}

	txChanged := p.AttachTx(ev.TxID, uc.clock.Now())
	if err := uc.apply(ctx, &p, st, errType, txChanged); err != nil {
		return PaymentStatusView{}, err
	}
	return uc.view(ctx, p)
}

// recheck asks the provider about p, passing what the order owes.
func (uc *PaymentUsecase) recheck(ctx context.Context, p paymentdom.Payment, txID string) (paymentdom.Status, error) {
	provider, err := uc.registry.Get(p.Method)
	if err != nil {
		return "", err
	}
	st, err := provider.Confirm(ctx, paymentdom.Ref{
		Reference: p.Reference,
		TxID:      strings.TrimSpace(txID),
		Amount:    p.Amount,
		Currency:  p.Currency,
	})
	if errors.Is(err, paymentdom.ErrTxMismatch) {
		log.Printf("[payment_uc] WARN: tx rejected reference=%q txId=%q", p.Reference, txID)
		return "", err
	}
	if err != nil {
		log.Printf("[payment_uc] WARN: confirm failed reference=%q method=%s err=%v", p.Reference, p.Method, err)
		return "", fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	return st, nil
}

// Status returns the stored status without calling the provider.
func (uc *PaymentUsecase) Status(ctx context.Context, reference string) (PaymentStatusView, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return PaymentStatusView{}, paymentdom.ErrNotFound
	}
	p, err := uc.payments.GetByReference(ctx, ref)
	if err != nil {
		return PaymentStatusView{}, err
	}
	return uc.view(ctx, p)
}

// Webhook returns the verifier for method.
func (uc *PaymentUsecase) Webhook(method paymentdom.Method) (paymentdom.WebhookVerifier, error) {
	return uc.registry.Webhook(method)
}

func (uc *PaymentUsecase) apply(ctx context.Context, p *paymentdom.Payment, st paymentdom.Status, errType string, txChanged bool) error {
	now := uc.clock.Now()

	var et *string
	if errType != "" {
		et = &errType
	}
	changed, err := p.SetStatus(st, et, now)
	if err != nil {
		return err
	}
	if changed || txChanged {
		if err := uc.payments.Save(ctx, *p); err != nil {
			return err
		}
	}
	if !changed {
		return nil
	}

	o, err := uc.orders.GetByID(ctx, p.OrderID)
	if err != nil {
		return err
	}
	next := orderdom.Status(p.Status)
	if o.Status == next {
		return nil
	}
	if !orderdom.CanTransition(o.Status, next) {
		log.Printf("[payment_uc] WARN: ignore order transition orderId=%q from=%s to=%s reference=%q",
			o.ID, o.Status, next, p.Reference,
		)
		return nil
	}
	if err := o.ApplyPayment(string(p.Method), p.Reference, next, now); err != nil {
		return err
	}
	if err := uc.orders.UpdatePayment(ctx, o.ID, orderdom.PaymentUpdate{
		Status:           o.Status,
		PaymentMethod:    o.PaymentMethod,
		PaymentReference: o.PaymentReference,
		UpdatedAt:        o.UpdatedAt,
	}); err != nil {
		return err
	}

	log.Printf("[payment_uc] OK: order status orderId=%q status=%s reference=%q", o.ID, o.Status, p.Reference)

	switch next {
	case orderdom.StatusCompleted:
		if err := uc.notifier.PaymentReceived(ctx, o, *p); err != nil {
			log.Printf("[payment_uc] WARN: payment mail failed orderId=%q err=%v", o.ID, err)
		}
		if err := uc.events.Publish(ctx, newOrderEvent(EventOrderPaid, o, now)); err != nil {
			log.Printf("[payment_uc] WARN: publish %s failed orderId=%q err=%v", EventOrderPaid, o.ID, err)
		}
	case orderdom.StatusFailed:
		if err := uc.events.Publish(ctx, newOrderEvent(EventOrderFailed, o, now)); err != nil {
			log.Printf("[payment_uc] WARN: publish %s failed orderId=%q err=%v", EventOrderFailed, o.ID, err)
		}
	}
	return nil
}

func (uc *PaymentUsecase) findForEvent(ctx context.Context, ev paymentdom.Event) (paymentdom.Payment, error) {
	if ref := strings.TrimSpace(ev.Reference); ref != "" {
		p, err := uc.payments.GetByReference(ctx, ref)
		if err == nil || !errors.Is(err, paymentdom.ErrNotFound) {
			return p, err
		}
	}
	if tx := strings.TrimSpace(ev.TxID); tx != "" {
		return uc.payments.GetByTxID(ctx, tx)
	}
	return paymentdom.Payment{}, paymentdom.ErrNotFound
}

func (uc *PaymentUsecase) view(ctx context.Context, p paymentdom.Payment) (PaymentStatusView, error) {
	v := PaymentStatusView{
		Reference: p.Reference,
		OrderID:   p.OrderID,
		Method:    p.Method,
		Status:    p.Status,
		Amount:    p.Amount,
		Currency:  p.Currency,
		TxID:      p.TxID,
	}
	o, err := uc.orders.GetByID(ctx, p.OrderID)
	if err != nil {
		return PaymentStatusView{}, err
	}
	v.OrderStatus = o.Status
	return v, nil
}

// ─────────────────────────────────────────────────────────────
// Per-reference lock (reference counted, pruned on release)
// ─────────────────────────────────────────────────────────────

func (uc *PaymentUsecase) lock(reference string) func() {
	uc.locksMu.Lock()
	if uc.locks == nil {
		uc.locks = map[string]*refLock{}
	}
	l, ok := uc.locks[reference]
	if !ok {
		l = &refLock{}
		uc.locks[reference] = l
	}
	l.holders++
	uc.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		uc.locksMu.Lock()
		l.holders--
		if l.holders == 0 {
			delete(uc.locks, reference)
		}
		uc.locksMu.Unlock()
	}
}
