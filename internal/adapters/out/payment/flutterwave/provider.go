// internal/adapters/out/payment/flutterwave/provider.go
package flutterwave

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	paymentdom "gamestore/internal/domain/payment"
)

const DefaultBaseURL = "https://api.flutterwave.com/v3"

// Provider takes fiat payments through Flutterwave Standard hosted links.
// The payment reference is the merchant tx_ref; Flutterwave's numeric
// transaction id is the TxID.
type Provider struct {
	baseURL       string
	secretKey     string
	secretHash    string
	returnBaseURL string
	client        *http.Client
	newRef        func() string
}

var (
	_ paymentdom.Provider        = (*Provider)(nil)
	_ paymentdom.WebhookVerifier = (*Provider)(nil)
)

func New(baseURL, secretKey, secretHash, returnBaseURL string) (*Provider, error) {
	key := strings.TrimSpace(secretKey)
	if key == "" {
		return nil, fmt.Errorf("flutterwave: %w: secret key is empty", paymentdom.ErrProviderNotConfigured)
	}
	b := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if b == "" {
		b = DefaultBaseURL
	}
	return &Provider{
		baseURL:       b,
		secretKey:     key,
		secretHash:    strings.TrimSpace(secretHash),
		returnBaseURL: strings.TrimRight(strings.TrimSpace(returnBaseURL), "/"),
		client:        &http.Client{Timeout: 15 * time.Second},
		newRef:        func() string { return "flw_" + uuid.NewString() },
	}, nil
}

func (p *Provider) Method() paymentdom.Method { return paymentdom.MethodFiat }

type paymentRequest struct {
	TxRef          string            `json:"tx_ref"`
	Amount         string            `json:"amount"`
	Currency       string            `json:"currency"`
	RedirectURL    string            `json:"redirect_url"`
	Customer       customerWire      `json:"customer"`
	Customizations map[string]string `json:"customizations,omitempty"`
	Meta           map[string]string `json:"meta,omitempty"`
}

type customerWire struct {
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	PhoneNumber string `json:"phonenumber,omitempty"`
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type transaction struct {
	ID       int64   `json:"id"`
	TxRef    string  `json:"tx_ref"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
}

func (p *Provider) Quote(ctx context.Context, in paymentdom.QuoteInput) (*paymentdom.Request, error) {
	if in.Amount <= 0 {
		return nil, paymentdom.ErrInvalidAmount
	}
	ref := p.newRef()
	title := strings.TrimSpace(in.Description)
	if title == "" {
		title = "Order " + in.OrderID
	}

	body := paymentRequest{
		TxRef:       ref,
		Amount:      formatMinor(in.Amount),
		Currency:    strings.ToUpper(in.Currency),
		RedirectURL: p.returnBaseURL + "/payment/success?reference=" + url.QueryEscape(ref),
		Customer: customerWire{
			Email:       in.Customer.Email,
			Name:        in.Customer.Name,
			PhoneNumber: in.Customer.Phone,
		},
		Customizations: map[string]string{"title": title},
		Meta:           map[string]string{"order_id": in.OrderID},
	}

	var data struct {
		Link string `json:"link"`
	}
	if err := p.do(ctx, http.MethodPost, "/payments", body, &data); err != nil {
		return nil, err
	}
	if strings.TrimSpace(data.Link) == "" {
		return nil, fmt.Errorf("flutterwave: payment link missing")
	}
	log.Printf("[flutterwave] payment link created order=%q tx_ref=%q", in.OrderID, ref)

	return &paymentdom.Request{
		Method:      paymentdom.MethodFiat,
		Reference:   ref,
		RedirectURL: data.Link,
	}, nil
}

// Confirm verifies by transaction id when known, else by tx_ref. A successful
// charge below ref.Amount or in another currency is reported as failed.
func (p *Provider) Confirm(ctx context.Context, ref paymentdom.Ref) (paymentdom.Status, error) {
	r := strings.TrimSpace(ref.Reference)
	if r == "" {
		return "", paymentdom.ErrInvalidReference
	}

	path := "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(r)
	if id := strings.TrimSpace(ref.TxID); id != "" {
		if _, err := strconv.ParseInt(id, 10, 64); err == nil {
			path = "/transactions/" + id + "/verify"
		}
	}

	var tx transaction
	if err := p.do(ctx, http.MethodGet, path, nil, &tx); err != nil {
		return "", err
	}
	if tx.TxRef != "" && tx.TxRef != r {
		return "", fmt.Errorf("flutterwave: tx_ref %q: %w", tx.TxRef, paymentdom.ErrTxMismatch)
	}
	st := txStatus(tx.Status)
	if st == paymentdom.StatusCompleted && ref.Amount > 0 {
		got := toMinor(tx.Amount)
		if !paymentdom.Covers(ref.Amount, ref.Currency, got, tx.Currency) {
			log.Printf("[flutterwave] WARN: charge below amount owed tx_ref=%q got=%d %s want=%d %s",
				r, got, tx.Currency, ref.Amount, ref.Currency,
			)
			return paymentdom.StatusFailed, nil
		}
	}
	return st, nil
}

func txStatus(s string) paymentdom.Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "successful":
		return paymentdom.StatusCompleted
	case "failed", "cancelled":
		return paymentdom.StatusFailed
	}
	return paymentdom.StatusPending
}

type webhookPayload struct {
	Event string      `json:"event"`
	Data  transaction `json:"data"`
}

// ParseWebhook checks the verif-hash header against the configured secret hash.
func (p *Provider) ParseWebhook(body []byte, signature string) ([]paymentdom.Event, error) {
	if p.secretHash == "" {
		return nil, paymentdom.ErrProviderNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(signature)), []byte(p.secretHash)) != 1 {
		return nil, paymentdom.ErrInvalidSignature
	}

	var wp webhookPayload
	if err := json.Unmarshal(body, &wp); err != nil {
		return nil, fmt.Errorf("flutterwave: decode webhook: %w", err)
	}
	if wp.Event != "charge.completed" {
		log.Printf("[flutterwave] webhook ignored event=%q", wp.Event)
		return nil, nil
	}

	st := txStatus(wp.Data.Status)
	ev := paymentdom.Event{
		Method:    paymentdom.MethodFiat,
		Reference: strings.TrimSpace(wp.Data.TxRef),
		Status:    st,
	}
	if wp.Data.ID > 0 {
		ev.TxID = strconv.FormatInt(wp.Data.ID, 10)
	}
	if st == paymentdom.StatusFailed {
		ev.ErrorType = strings.ToLower(wp.Data.Status)
	}
	if ev.Amount = toMinor(wp.Data.Amount); ev.Amount > 0 {
		ev.Currency = strings.ToUpper(strings.TrimSpace(wp.Data.Currency))
	} else {
		ev.Recheck = true
	}
	return []paymentdom.Event{ev}, nil
}

func (p *Provider) do(ctx context.Context, method, path string, in, out any) error {
	var rdr io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("flutterwave: marshal: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("flutterwave: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	var env envelope
	_ = json.Unmarshal(raw, &env)

	if res.StatusCode < 200 || res.StatusCode >= 300 || env.Status != "success" {
		msg := strings.TrimSpace(env.Message)
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return fmt.Errorf("flutterwave: status=%d message=%s", res.StatusCode, msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("flutterwave: decode data: %w", err)
		}
	}
	return nil
}

// toMinor converts a major-unit amount ("32.4") to minor units.
func toMinor(major float64) int64 {
	return int64(math.Round(major * 100))
}

// formatMinor renders minor units as a decimal major-unit string ("32.40").
func formatMinor(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
