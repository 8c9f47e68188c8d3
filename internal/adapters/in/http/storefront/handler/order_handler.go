// internal/adapters/in/http/storefront/handler/order_handler.go
package storefrontHandler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"gamestore/internal/application/usecase"
	orderdom "gamestore/internal/domain/order"
)

// OrderHandler serves:
//   - POST /api/orders                 {customerInfo, total?}
//   - GET  /api/orders
//   - GET  /api/orders/{id}
//   - POST /api/orders/{id}/payments   {method}
type OrderHandler struct {
	orders   *usecase.OrderUsecase
	payments *usecase.PaymentUsecase
}

func NewOrderHandler(orders *usecase.OrderUsecase, payments *usecase.PaymentUsecase) http.Handler {
	return &OrderHandler{orders: orders, payments: payments}
}

type checkoutRequest struct {
	CustomerInfo orderdom.CustomerInfo `json:"customerInfo"`
	Total        *int64                `json:"total,omitempty"`
}

type startPaymentRequest struct {
	Method string `json:"method"`
}

func (h *OrderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil {
		writeErr(w, http.StatusInternalServerError, "order handler is not configured")
		return
	}
	sid := sessionID(r)
	if sid == "" {
		writeErr(w, http.StatusBadRequest, "session id is required")
		return
	}

	parts := tail(cleanPath(r.URL.Path), "/api/orders")
	switch {
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.checkout(w, r, sid)
	case len(parts) == 0 && r.Method == http.MethodGet:
		h.list(w, r, sid)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.get(w, r, sid, parts[0])
	case len(parts) == 2 && parts[1] == "payments" && r.Method == http.MethodPost:
		h.startPayment(w, r, sid, parts[0])
	case len(parts) <= 1, len(parts) == 2 && parts[1] == "payments":
		methodNotAllowed(w)
	default:
		notFound(w)
	}
}

func (h *OrderHandler) checkout(w http.ResponseWriter, r *http.Request, sid string) {
	var req checkoutRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	o, err := h.orders.Checkout(r.Context(), usecase.CheckoutInput{
		SessionID:   sid,
		Customer:    req.CustomerInfo,
		ClientTotal: req.Total,
	})
	if err != nil {
		switch {
		case errors.Is(err, orderdom.ErrValidation):
			writeValidation(w, err)
		case errors.Is(err, orderdom.ErrEmptyCart):
			writeErr(w, http.StatusBadRequest, orderdom.ErrEmptyCart.Error())
		case errors.Is(err, usecase.ErrInvalidArgument):
			writeErr(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("[order_handler] checkout failed sessionId=%q err=%v", sid, err)
			writeErr(w, http.StatusInternalServerError, "failed to create order")
		}
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request, sid string) {
	orders, err := h.orders.List(r.Context(), sid)
	if err != nil {
		log.Printf("[order_handler] list failed sessionId=%q err=%v", sid, err)
		writeErr(w, http.StatusInternalServerError, "failed to fetch orders")
		return
	}
	if orders == nil {
		orders = []orderdom.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request, sid, id string) {
	o, err := h.orders.Get(r.Context(), sid, id)
	if err != nil {
		if errors.Is(err, orderdom.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "order not found")
			return
		}
		log.Printf("[order_handler] get failed orderId=%q err=%v", id, err)
		writeErr(w, http.StatusInternalServerError, "failed to fetch order")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) startPayment(w http.ResponseWriter, r *http.Request, sid, id string) {
	if h.payments == nil {
		writeErr(w, http.StatusServiceUnavailable, "payments are not configured")
		return
	}
	var req startPaymentRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Method) == "" {
		writeErr(w, http.StatusBadRequest, "method is required")
		return
	}

	out, err := h.payments.Start(r.Context(), usecase.StartPaymentInput{
		SessionID: sid,
		OrderID:   id,
		Method:    req.Method,
	})
	if err != nil {
		writePaymentErr(w, "start", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
