// internal/adapters/in/http/storefront/webhook/payment_webhook_handler.go
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"gamestore/internal/application/usecase"
	paymentdom "gamestore/internal/domain/payment"
)

const maxBodyBytes = int64(1 << 20)

// Source is the usecase side of a webhook: a verifier lookup plus event intake.
type Source interface {
	Webhook(method paymentdom.Method) (paymentdom.WebhookVerifier, error)
	ApplyEvent(ctx context.Context, ev paymentdom.Event) (usecase.PaymentStatusView, error)
}

// PaymentWebhookHandler verifies one provider's notifications and records them.
//
// Bad signatures get BadSignatureStatus (Stripe expects 400, the others 401).
// Events for unknown payments and unhandled event types are acked with 200.
type PaymentWebhookHandler struct {
	Method             paymentdom.Method
	SignatureHeader    string
	BadSignatureStatus int

	src Source
}

func NewPaymentWebhookHandler(method paymentdom.Method, signatureHeader string, badSigStatus int, src Source) http.Handler {
	if badSigStatus == 0 {
		badSigStatus = http.StatusUnauthorized
	}
	return &PaymentWebhookHandler{
		Method:             method,
		SignatureHeader:    signatureHeader,
		BadSignatureStatus: badSigStatus,
		src:                src,
	}
}

func (h *PaymentWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.src == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "webhook is not configured")
		return
	}

	verifier, err := h.src.Webhook(h.Method)
	if err != nil {
		log.Printf("[webhook] WARN: %s webhook not configured err=%v", h.Method, err)
		writeJSONError(w, http.StatusServiceUnavailable, "webhook is not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	sig := strings.TrimSpace(r.Header.Get(h.SignatureHeader))

	events, err := verifier.ParseWebhook(body, sig)
	if err != nil {
		switch {
		case errors.Is(err, paymentdom.ErrInvalidSignature):
			log.Printf("[webhook] WARN: %s invalid signature", h.Method)
			writeJSONError(w, h.BadSignatureStatus, "invalid signature")
		case errors.Is(err, paymentdom.ErrUnsupportedWebhookType):
			writeJSON(w, http.StatusOK, map[string]any{"received": true, "handled": 0})
		default:
			log.Printf("[webhook] WARN: %s parse failed err=%v", h.Method, err)
			writeJSONError(w, http.StatusBadRequest, "invalid payload")
		}
		return
	}

	handled := 0
	for _, ev := range events {
		if ev.Method == "" {
			ev.Method = h.Method
		}
		if _, err := h.src.ApplyEvent(r.Context(), ev); err != nil {
			if errors.Is(err, paymentdom.ErrNotFound) {
				log.Printf("[webhook] %s event for unknown payment reference=%q txId=%q", h.Method, ev.Reference, ev.TxID)
				continue
			}
			if errors.Is(err, paymentdom.ErrTxMismatch) {
				log.Printf("[webhook] WARN: %s event not linked to payment reference=%q txId=%q", h.Method, ev.Reference, ev.TxID)
				continue
			}
			log.Printf("[webhook] ERROR: %s apply failed reference=%q err=%v", h.Method, ev.Reference, err)
			writeJSONError(w, http.StatusInternalServerError, "failed to record event")
			return
		}
		handled++
	}

	log.Printf("[webhook] OK: %s events=%d handled=%d", h.Method, len(events), handled)
	writeJSON(w, http.StatusOK, map[string]any{"received": true, "handled": handled})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
