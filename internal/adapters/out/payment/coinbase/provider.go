// internal/adapters/out/payment/coinbase/provider.go
package coinbase

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	paymentdom "gamestore/internal/domain/payment"
)

const (
	DefaultBaseURL = "https://api.commerce.coinbase.com"
	apiVersion     = "2018-03-22"
)

// Provider takes hosted crypto payments through Coinbase Commerce charges.
// The payment reference is the charge code.
type Provider struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	returnBaseURL string
	client        *http.Client
}

var (
	_ paymentdom.Provider        = (*Provider)(nil)
	_ paymentdom.WebhookVerifier = (*Provider)(nil)
)

func New(baseURL, apiKey, webhookSecret, returnBaseURL string) (*Provider, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, fmt.Errorf("coinbase: %w: api key is empty", paymentdom.ErrProviderNotConfigured)
	}
	b := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if b == "" {
		b = DefaultBaseURL
	}
	return &Provider{
		baseURL:       b,
		apiKey:        key,
		webhookSecret: strings.TrimSpace(webhookSecret),
		returnBaseURL: strings.TrimRight(strings.TrimSpace(returnBaseURL), "/"),
		client:        &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (p *Provider) Method() paymentdom.Method { return paymentdom.MethodCryptoHosted }

type money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type chargeRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	PricingType string            `json:"pricing_type"`
	LocalPrice  money             `json:"local_price"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	RedirectURL string            `json:"redirect_url,omitempty"`
	CancelURL   string            `json:"cancel_url,omitempty"`
}

type timelineEntry struct {
	Status  string `json:"status"`
	Context string `json:"context,omitempty"`
}

type charge struct {
	Code      string            `json:"code"`
	HostedURL string            `json:"hosted_url"`
	Timeline  []timelineEntry   `json:"timeline"`
	Metadata  map[string]string `json:"metadata"`
}

func (c charge) lastStatus() string {
	if len(c.Timeline) == 0 {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(c.Timeline[len(c.Timeline)-1].Status))
}

func (p *Provider) Quote(ctx context.Context, in paymentdom.QuoteInput) (*paymentdom.Request, error) {
	if in.Amount <= 0 {
		return nil, paymentdom.ErrInvalidAmount
	}
	name := strings.TrimSpace(in.Description)
	if name == "" {
		name = "Order " + in.OrderID
	}

	body := chargeRequest{
		Name:        name,
		Description: "Game store order " + in.OrderID,
		PricingType: "fixed_price",
		LocalPrice: money{
			Amount:   fmt.Sprintf("%d.%02d", in.Amount/100, in.Amount%100),
			Currency: strings.ToUpper(in.Currency),
		},
		Metadata: map[string]string{
			"order_id":       in.OrderID,
			"customer_email": in.Customer.Email,
		},
		RedirectURL: p.returnBaseURL + "/payment/success",
		CancelURL:   p.returnBaseURL + "/payment/cancel",
	}

	var c charge
	if err := p.do(ctx, http.MethodPost, "/charges", body, &c); err != nil {
		return nil, err
	}
	if c.Code == "" || c.HostedURL == "" {
		return nil, fmt.Errorf("coinbase: charge response missing code or hosted_url")
	}
	log.Printf("[coinbase] charge created order=%q code=%q", in.OrderID, c.Code)

	return &paymentdom.Request{
		Method:      paymentdom.MethodCryptoHosted,
		Reference:   c.Code,
		RedirectURL: c.HostedURL,
	}, nil
}

func (p *Provider) Confirm(ctx context.Context, ref paymentdom.Ref) (paymentdom.Status, error) {
	code := strings.TrimSpace(ref.Reference)
	if code == "" {
		return "", paymentdom.ErrInvalidReference
	}
	var c charge
	if err := p.do(ctx, http.MethodGet, "/charges/"+url.PathEscape(code), nil, &c); err != nil {
		return "", err
	}
	st, _ := timelineStatus(c.lastStatus())
	return st, nil
}

func timelineStatus(s string) (paymentdom.Status, string) {
	switch s {
	case "COMPLETED", "RESOLVED":
		return paymentdom.StatusCompleted, ""
	case "EXPIRED":
		return paymentdom.StatusFailed, "expired"
	case "CANCELED":
		return paymentdom.StatusFailed, "canceled"
	}
	return paymentdom.StatusPending, ""
}

type webhookPayload struct {
	Event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data charge `json:"data"`
	} `json:"event"`
}

// ParseWebhook checks X-CC-Webhook-Signature, the hex HMAC-SHA256 of the raw body.
func (p *Provider) ParseWebhook(body []byte, signature string) ([]paymentdom.Event, error) {
	if p.webhookSecret == "" {
		return nil, paymentdom.ErrProviderNotConfigured
	}
	if !validSignature(body, signature, p.webhookSecret) {
		return nil, paymentdom.ErrInvalidSignature
	}

	var wp webhookPayload
	if err := json.Unmarshal(body, &wp); err != nil {
		return nil, fmt.Errorf("coinbase: decode webhook: %w", err)
	}

	ev := paymentdom.Event{
		Method:    paymentdom.MethodCryptoHosted,
		Reference: strings.TrimSpace(wp.Event.Data.Code),
	}
	switch wp.Event.Type {
	case "charge:confirmed", "charge:resolved":
		ev.Status = paymentdom.StatusCompleted
	case "charge:failed":
		ev.Status, ev.ErrorType = paymentdom.StatusFailed, "failed"
		if last := wp.Event.Data.lastStatus(); last == "EXPIRED" {
			ev.ErrorType = "expired"
		}
	case "charge:pending":
		ev.Status = paymentdom.StatusPending
	default:
		log.Printf("[coinbase] webhook ignored type=%q id=%q", wp.Event.Type, wp.Event.ID)
		return nil, nil
	}
	return []paymentdom.Event{ev}, nil
}

func validSignature(body []byte, signature, secret string) bool {
	want, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(want) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}

func (p *Provider) do(ctx context.Context, method, path string, in, out any) error {
	var rdr io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("coinbase: marshal: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("X-CC-Api-Key", p.apiKey)
	req.Header.Set("X-CC-Version", apiVersion)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("coinbase: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var e struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		msg := strings.TrimSpace(e.Error.Message)
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return fmt.Errorf("coinbase: status=%d message=%s", res.StatusCode, msg)
	}

	if out != nil {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("coinbase: decode response: %w", err)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("coinbase: decode data: %w", err)
		}
	}
	return nil
}
