// internal/adapters/out/payment/stripe/provider.go
package stripepay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"

	paymentdom "gamestore/internal/domain/payment"
)

// Provider takes card payments through Stripe Checkout Sessions.
// The payment reference is the checkout session id.
type Provider struct {
	api           *client.API
	webhookSecret string
	returnBaseURL string
}

var (
	_ paymentdom.Provider        = (*Provider)(nil)
	_ paymentdom.WebhookVerifier = (*Provider)(nil)
)

// New builds a provider against the live Stripe API.
func New(secretKey, webhookSecret, returnBaseURL string) (*Provider, error) {
	return NewWithBackends(secretKey, webhookSecret, returnBaseURL, nil)
}

// NewWithBackends lets callers point the client at another API host.
func NewWithBackends(secretKey, webhookSecret, returnBaseURL string, backends *stripe.Backends) (*Provider, error) {
	key := strings.TrimSpace(secretKey)
	if key == "" {
		return nil, fmt.Errorf("stripe: %w: secret key is empty", paymentdom.ErrProviderNotConfigured)
	}
	return &Provider{
		api:           client.New(key, backends),
		webhookSecret: strings.TrimSpace(webhookSecret),
		returnBaseURL: strings.TrimRight(strings.TrimSpace(returnBaseURL), "/"),
	}, nil
}

func (p *Provider) Method() paymentdom.Method { return paymentdom.MethodCard }

func (p *Provider) Quote(ctx context.Context, in paymentdom.QuoteInput) (*paymentdom.Request, error) {
	if in.Amount <= 0 {
		return nil, paymentdom.ErrInvalidAmount
	}
	name := strings.TrimSpace(in.Description)
	if name == "" {
		name = "Order " + in.OrderID
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(in.OrderID),
		SuccessURL:        stripe.String(p.returnBaseURL + "/payment/success?reference={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(p.returnBaseURL + "/payment/cancel?reference={CHECKOUT_SESSION_ID}"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(in.Currency)),
					UnitAmount: stripe.Int64(in.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(name),
					},
				},
			},
		},
	}
	if email := strings.TrimSpace(in.Customer.Email); email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	params.AddMetadata("order_id", in.OrderID)
	params.Context = ctx

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	log.Printf("[stripe] checkout session created order=%q session=%q", in.OrderID, s.ID)

	return &paymentdom.Request{
		Method:      paymentdom.MethodCard,
		Reference:   s.ID,
		RedirectURL: s.URL,
	}, nil
}

func (p *Provider) Confirm(ctx context.Context, ref paymentdom.Ref) (paymentdom.Status, error) {
	id := strings.TrimSpace(ref.Reference)
	if id == "" {
		return "", paymentdom.ErrInvalidReference
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return "", fmt.Errorf("stripe: get checkout session: %w", err)
	}
	return sessionStatus(s), nil
}

func sessionStatus(s *stripe.CheckoutSession) paymentdom.Status {
	if s == nil {
		return paymentdom.StatusPending
	}
	switch {
	case s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		s.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return paymentdom.StatusCompleted
	case s.Status == stripe.CheckoutSessionStatusExpired:
		return paymentdom.StatusFailed
	}
	return paymentdom.StatusPending
}

// ParseWebhook verifies the Stripe-Signature header and maps checkout
// session events. Unrelated event types yield no events.
func (p *Provider) ParseWebhook(body []byte, signature string) ([]paymentdom.Event, error) {
	if p.webhookSecret == "" {
		return nil, paymentdom.ErrProviderNotConfigured
	}
	ev, err := webhook.ConstructEventWithOptions(body, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", paymentdom.ErrInvalidSignature, err)
	}

	var status paymentdom.Status
	var errType string
	switch ev.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		status = paymentdom.StatusCompleted
	case "checkout.session.async_payment_failed":
		status, errType = paymentdom.StatusFailed, "payment_failed"
	case "checkout.session.expired":
		status, errType = paymentdom.StatusFailed, "expired"
	default:
		log.Printf("[stripe] webhook ignored type=%q id=%q", ev.Type, ev.ID)
		return nil, nil
	}

	if ev.Data == nil {
		return nil, errors.New("stripe: webhook event has no data")
	}
	var s stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("stripe: decode checkout session: %w", err)
	}
	// completed fires for delayed methods too; only paid sessions settle.
	if ev.Type == "checkout.session.completed" && s.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		status = paymentdom.StatusPending
	}

	return []paymentdom.Event{{
		Method:    paymentdom.MethodCard,
		Reference: s.ID,
		TxID:      paymentIntentID(&s),
		Status:    status,
		ErrorType: errType,
	}}, nil
}

func paymentIntentID(s *stripe.CheckoutSession) string {
	if s == nil || s.PaymentIntent == nil {
		return ""
	}
	return s.PaymentIntent.ID
}
