package stripepay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	paymentdom "gamestore/internal/domain/payment"
)

const secret = "whsec_test"

func newTestProvider(t *testing.T, h http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
		HTTPClient:        srv.Client(),
	}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, cfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, cfg),
	}
	p, err := NewWithBackends("sk_test_123", secret, "http://shop.local/", backends)
	require.NoError(t, err)
	return p
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(" ", "", "")
	assert.ErrorIs(t, err, paymentdom.ErrProviderNotConfigured)
}

func TestQuote_CreatesCheckoutSession(t *testing.T) {
	var form url.Values
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(b))
		_, _ = w.Write([]byte(`{"id":"cs_test_1","object":"checkout.session","url":"https://checkout.stripe.com/pay/cs_test_1","status":"open","payment_status":"unpaid"}`))
	})

	req, err := p.Quote(context.Background(), paymentdom.QuoteInput{
		OrderID: "ord_1", Amount: 3240, Currency: "USD",
		Customer: paymentdom.Customer{Email: "ada@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", req.Reference)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_1", req.RedirectURL)
	assert.Equal(t, paymentdom.MethodCard, req.Method)

	assert.Equal(t, "3240", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "usd", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "ord_1", form.Get("client_reference_id"))
	assert.Equal(t, "ada@example.com", form.Get("customer_email"))
	assert.Contains(t, form.Get("success_url"), "http://shop.local/payment/success")
}

func TestQuote_RejectsZeroAmount(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := p.Quote(context.Background(), paymentdom.QuoteInput{OrderID: "ord_1", Currency: "USD"})
	assert.ErrorIs(t, err, paymentdom.ErrInvalidAmount)
}

func TestConfirm_MapsSessionState(t *testing.T) {
	cases := map[string]paymentdom.Status{
		`{"id":"cs_1","object":"checkout.session","status":"complete","payment_status":"paid"}`:  paymentdom.StatusCompleted,
		`{"id":"cs_1","object":"checkout.session","status":"expired","payment_status":"unpaid"}`: paymentdom.StatusFailed,
		`{"id":"cs_1","object":"checkout.session","status":"open","payment_status":"unpaid"}`:    paymentdom.StatusPending,
	}
	for body, want := range cases {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/checkout/sessions/cs_1", r.URL.Path)
			_, _ = w.Write([]byte(body))
		})
		got, err := p.Confirm(context.Background(), paymentdom.Ref{Reference: "cs_1"})
		require.NoError(t, err)
		assert.Equal(t, want, got, body)
	}
}

func TestConfirm_ProviderError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such checkout.session"}}`))
	})
	_, err := p.Confirm(context.Background(), paymentdom.Ref{Reference: "cs_missing"})
	assert.Error(t, err)
}

func signed(t *testing.T, typ string, obj map[string]any) ([]byte, string) {
	t.Helper()
	raw, err := json.Marshal(obj)
	require.NoError(t, err)
	payload, err := json.Marshal(map[string]any{
		"id":          "evt_1",
		"object":      "event",
		"type":        typ,
		"api_version": stripe.APIVersion,
		"data":        map[string]any{"object": json.RawMessage(raw)},
	})
	require.NoError(t, err)
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return sp.Payload, sp.Header
}

func TestParseWebhook_Completed(t *testing.T) {
	p := newTestProvider(t, func(http.ResponseWriter, *http.Request) {})
	body, sig := signed(t, "checkout.session.completed", map[string]any{
		"id": "cs_1", "object": "checkout.session", "payment_status": "paid",
		"payment_intent": "pi_1",
	})

	events, err := p.ParseWebhook(body, sig)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "cs_1", events[0].Reference)
	assert.Equal(t, "pi_1", events[0].TxID)
	assert.Equal(t, paymentdom.StatusCompleted, events[0].Status)
}

func TestParseWebhook_Expired(t *testing.T) {
	p := newTestProvider(t, func(http.ResponseWriter, *http.Request) {})
	body, sig := signed(t, "checkout.session.expired", map[string]any{
		"id": "cs_1", "object": "checkout.session", "payment_status": "unpaid",
	})
	events, err := p.ParseWebhook(body, sig)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, paymentdom.StatusFailed, events[0].Status)
	assert.Equal(t, "expired", events[0].ErrorType)
}

func TestParseWebhook_IgnoresOtherTypes(t *testing.T) {
	p := newTestProvider(t, func(http.ResponseWriter, *http.Request) {})
	body, sig := signed(t, "customer.created", map[string]any{"id": "cus_1", "object": "customer"})
	events, err := p.ParseWebhook(body, sig)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParseWebhook_BadSignature(t *testing.T) {
	p := newTestProvider(t, func(http.ResponseWriter, *http.Request) {})
	body, _ := signed(t, "checkout.session.completed", map[string]any{"id": "cs_1"})
	_, err := p.ParseWebhook(body, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, paymentdom.ErrInvalidSignature)
}
