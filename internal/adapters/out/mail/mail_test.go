package mail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderdom "gamestore/internal/domain/order"
	paymentdom "gamestore/internal/domain/payment"
)

type sent struct {
	to, subject, text, html string
}

type fakeClient struct {
	msgs []sent
	err  error
}

func (f *fakeClient) Send(_ context.Context, to, subject, text, html string) error {
	f.msgs = append(f.msgs, sent{to, subject, text, html})
	return f.err
}

func sampleOrder() orderdom.Order {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return orderdom.Order{
		ID:        "ord_1",
		SessionID: "s1",
		Customer: orderdom.CustomerInfo{
			FullName: "Ada Obi", Email: "ada@example.com", Phone: "0123456789", Address: "12 Marina, Lagos",
		},
		Items: []orderdom.ItemSnapshot{
			{GameID: 1, Title: "Crypto Charades", Price: 1200, Quantity: 3},
		},
		Total: 3240, Currency: "USD", Status: orderdom.StatusPending,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestOrderPlaced(t *testing.T) {
	fc := &fakeClient{}
	m := NewOrderMailer(fc, "Game Store", "https://shop.example.com/")

	require.NoError(t, m.OrderPlaced(context.Background(), sampleOrder()))
	require.Len(t, fc.msgs, 1)
	msg := fc.msgs[0]
	assert.Equal(t, "ada@example.com", msg.to)
	assert.Contains(t, msg.subject, "ord_1")
	assert.Contains(t, msg.text, "Hi Ada,")
	assert.Contains(t, msg.text, "3 x Crypto Charades  $36.00")
	assert.Contains(t, msg.text, "Total: $32.40")
	assert.Contains(t, msg.text, "https://shop.example.com/orders/ord_1")
}

func TestPaymentReceived(t *testing.T) {
	fc := &fakeClient{}
	m := NewOrderMailer(fc, "", "")
	p := paymentdom.Payment{
		Reference: "ref_1", OrderID: "ord_1", Method: paymentdom.MethodCryptoWallet,
		Amount: 3240, Currency: "USD", Status: paymentdom.StatusCompleted, TxID: "sig<1>",
	}

	require.NoError(t, m.PaymentReceived(context.Background(), sampleOrder(), p))
	msg := fc.msgs[0]
	assert.Contains(t, msg.subject, "[Game Store]")
	assert.Contains(t, msg.text, "USDC wallet transfer")
	assert.Contains(t, msg.text, "Transaction: sig<1>")
	assert.Contains(t, msg.text, "12 Marina, Lagos")
	assert.Contains(t, msg.html, "sig&lt;1&gt;")
}

func TestSendError(t *testing.T) {
	fc := &fakeClient{err: errors.New("boom")}
	m := NewOrderMailer(fc, "", "")
	assert.Error(t, m.OrderPlaced(context.Background(), sampleOrder()))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$132.00", formatMoney(13200, "usd"))
	assert.Equal(t, "-$0.05", formatMoney(-5, "USD"))
	assert.Equal(t, "32.40 NGN", formatMoney(3240, "NGN"))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "a***@example.com", maskEmail("ada@example.com"))
	assert.Equal(t, "***", maskEmail("nope"))
}

func TestSendGridClient_Send(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer SG.key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewSendGridClient("SG.key", "shop@example.com", "Game Store")
	c.host = srv.URL
	require.NoError(t, c.Send(context.Background(), "ada@example.com", "hi", "text", "<p>text</p>"))
	assert.Equal(t, "hi", body["subject"])
}

func TestSendGridClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	c := NewSendGridClient("SG.key", "shop@example.com", "")
	c.host = srv.URL
	assert.Error(t, c.Send(context.Background(), "ada@example.com", "hi", "t", "h"))

	assert.Error(t, NewSendGridClient("", "shop@example.com", "").Send(context.Background(), "a@b.co", "s", "t", "h"))
	assert.Error(t, NewSendGridClient("k", "", "").Send(context.Background(), "a@b.co", "s", "t", "h"))
	assert.Error(t, NewSendGridClient("k", "f@b.co", "").Send(context.Background(), " ", "s", "t", "h"))
}
