// internal/domain/payment/entity.go
package payment

import (
	"errors"
	"strings"
	"time"
)

// Method is the payment option chosen by the customer.
type Method string

const (
	MethodCard         Method = "card"
	MethodFiat         Method = "fiat"
	MethodCryptoHosted Method = "crypto_hosted"
	MethodCryptoWallet Method = "crypto_wallet"
)

func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case MethodCard, MethodFiat, MethodCryptoHosted, MethodCryptoWallet:
		return m, nil
	}
	return "", ErrUnknownMethod
}

// Status mirrors the order payment states.
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

// ErrorTypeUnderpaid marks a settlement below the amount owed.
const ErrorTypeUnderpaid = "amount_mismatch"

var (
	ErrUnknownMethod          = errors.New("payment: unknown method")
	ErrInvalidReference       = errors.New("payment: invalid reference")
	ErrInvalidOrderID         = errors.New("payment: invalid orderId")
	ErrInvalidAmount          = errors.New("payment: invalid amount")
	ErrInvalidStatus          = errors.New("payment: invalid status")
	ErrInvalidSignature       = errors.New("payment: invalid webhook signature")
	ErrProviderNotConfigured  = errors.New("payment: provider not configured")
	ErrUnsupportedWebhookType = errors.New("payment: webhook event not handled")
	ErrTxMismatch             = errors.New("payment: transaction does not belong to this payment")
)

// Payment is one attempt to settle an order through a provider.
// Reference is the provider-facing id (checkout session, tx_ref, charge code,
// Solana Pay reference key). TxID is the settlement id reported later, when
// the provider has one (transaction id, on-chain signature).
type Payment struct {
	Reference   string    `json:"reference"`
	OrderID     string    `json:"orderId"`
	SessionID   string    `json:"sessionId"`
	Method      Method    `json:"method"`
	Amount      int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Status      Status    `json:"status"`
	RedirectURL string    `json:"redirectUrl,omitempty"`
	TxID        string    `json:"txId,omitempty"`
	ErrorType   *string   `json:"errorType,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func New(
	reference, orderID, sessionID string,
	method Method,
	amount int64,
	currency, redirectURL string,
	now time.Time,
) (Payment, error) {
	p := Payment{
		Reference:   strings.TrimSpace(reference),
		OrderID:     strings.TrimSpace(orderID),
		SessionID:   strings.TrimSpace(sessionID),
		Method:      method,
		Amount:      amount,
		Currency:    strings.ToUpper(strings.TrimSpace(currency)),
		Status:      StatusPending,
		RedirectURL: strings.TrimSpace(redirectURL),
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
	if err := p.validate(); err != nil {
		return Payment{}, err
	}
	return p, nil
}

// SetStatus reports whether anything changed. A completed payment stays completed.
func (p *Payment) SetStatus(next Status, errType *string, now time.Time) (bool, error) {
	if !IsValidStatus(next) {
		return false, ErrInvalidStatus
	}
	if p.Status == next {
		return false, nil
	}
	if p.Status == StatusCompleted {
		return false, nil
	}
	p.Status = next
	if next == StatusFailed {
		p.ErrorType = normalizePtr(errType)
	} else {
		p.ErrorType = nil
	}
	p.UpdatedAt = now.UTC()
	return true, nil
}

// AttachTx records the settlement id if it is not yet known.
func (p *Payment) AttachTx(txID string, now time.Time) bool {
	t := strings.TrimSpace(txID)
	if t == "" || p.TxID == t {
		return false
	}
	p.TxID = t
	p.UpdatedAt = now.UTC()
	return true
}

func (p Payment) validate() error {
	if p.Reference == "" {
		return ErrInvalidReference
	}
	if p.OrderID == "" {
		return ErrInvalidOrderID
	}
	if _, err := ParseMethod(string(p.Method)); err != nil {
		return err
	}
	if p.Amount < 0 {
		return ErrInvalidAmount
	}
	if !IsValidStatus(p.Status) {
		return ErrInvalidStatus
	}
	return nil
}

func normalizePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
