// internal/adapters/in/http/storefront/handler/payment_handler.go
package storefrontHandler

import (
	"errors"
	"log"
	"net/http"

	"gamestore/internal/application/usecase"
	orderdom "gamestore/internal/domain/order"
	paymentdom "gamestore/internal/domain/payment"
)

// PaymentHandler serves:
//   - GET  /api/payment-methods
//   - GET  /api/payment-status/{reference}
//   - POST /api/payments/{reference}/confirm   {txId?}
type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) http.Handler {
	return &PaymentHandler{uc: uc}
}

type confirmRequest struct {
	TxID string `json:"txId"`
}

func (h *PaymentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		writeErr(w, http.StatusServiceUnavailable, "payments are not configured")
		return
	}

	path := cleanPath(r.URL.Path)
	switch {
	case path == "/api/payment-methods":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		methods := h.uc.Methods()
		if methods == nil {
			methods = []paymentdom.Method{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"methods": methods})

	case len(tail(path, "/api/payment-status")) == 1 && path != "/api/payment-status":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		ref := tail(path, "/api/payment-status")[0]
		v, err := h.uc.Status(r.Context(), ref)
		if err != nil {
			writePaymentErr(w, "status", err)
			return
		}
		writeJSON(w, http.StatusOK, v)

	default:
		parts := tail(path, "/api/payments")
		if len(parts) != 2 || parts[1] != "confirm" {
			notFound(w)
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req confirmRequest
		if err := readJSON(r, &req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid json")
			return
		}
		v, err := h.uc.Confirm(r.Context(), parts[0], req.TxID)
		if err != nil {
			writePaymentErr(w, "confirm", err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func writePaymentErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, paymentdom.ErrUnknownMethod):
		writeErr(w, http.StatusBadRequest, paymentdom.ErrUnknownMethod.Error())
	case errors.Is(err, paymentdom.ErrProviderNotConfigured):
		writeErr(w, http.StatusBadRequest, "payment method is not available")
	case errors.Is(err, orderdom.ErrNotFound):
		writeErr(w, http.StatusNotFound, "order not found")
	case errors.Is(err, paymentdom.ErrNotFound):
		writeErr(w, http.StatusNotFound, "payment not found")
	case errors.Is(err, paymentdom.ErrTxMismatch):
		writeErr(w, http.StatusBadRequest, "transaction does not match payment")
	case errors.Is(err, usecase.ErrOrderAlreadyPaid):
		writeErr(w, http.StatusConflict, usecase.ErrOrderAlreadyPaid.Error())
	case errors.Is(err, paymentdom.ErrConflict):
		writeErr(w, http.StatusConflict, "payment already exists")
	case errors.Is(err, usecase.ErrProviderFailed):
		log.Printf("[payment_handler] %s provider error err=%v", op, err)
		writeErr(w, http.StatusBadGateway, "payment provider error")
	default:
		log.Printf("[payment_handler] %s failed err=%v", op, err)
		writeErr(w, http.StatusInternalServerError, "payment operation failed")
	}
}
