// internal/adapters/in/http/storefront/handler/cart_handler.go
package storefrontHandler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"gamestore/internal/application/usecase"
	cartdom "gamestore/internal/domain/cart"
)

// CartHandler serves the session cart:
//   - GET    /api/cart
//   - GET    /api/cart/summary
//   - POST   /api/cart            {gameId, quantity?}
//   - PUT    /api/cart/{gameId}   {quantity}
//   - DELETE /api/cart/{gameId}
//   - DELETE /api/cart
type CartHandler struct {
	uc *usecase.CartUsecase
}

func NewCartHandler(uc *usecase.CartUsecase) http.Handler {
	return &CartHandler{uc: uc}
}

type addItemRequest struct {
	GameID   json.Number  `json:"gameId"`
	Quantity *json.Number `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity *json.Number `json:"quantity"`
}

func (h *CartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "cart handler is not configured")
		return
	}
	sid := sessionID(r)
	if sid == "" {
		writeErr(w, http.StatusBadRequest, "session id is required")
		return
	}

	parts := tail(cleanPath(r.URL.Path), "/api/cart")
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		h.list(w, r, sid)
	case len(parts) == 1 && parts[0] == "summary" && r.Method == http.MethodGet:
		h.summary(w, r, sid)
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.add(w, r, sid)
	case len(parts) == 0 && r.Method == http.MethodDelete:
		h.clear(w, r, sid)
	case len(parts) == 1 && r.Method == http.MethodPut:
		h.setQuantity(w, r, sid, parts[0])
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.remove(w, r, sid, parts[0])
	case len(parts) <= 1:
		methodNotAllowed(w)
	default:
		notFound(w)
	}
}

func (h *CartHandler) list(w http.ResponseWriter, r *http.Request, sid string) {
	lines, err := h.uc.ListItems(r.Context(), sid)
	if err != nil {
		h.writeCartErr(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (h *CartHandler) summary(w http.ResponseWriter, r *http.Request, sid string) {
	s, err := h.uc.Summary(r.Context(), sid)
	if err != nil {
		h.writeCartErr(w, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request, sid string) {
	var req addItemRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	gameID, err := req.GameID.Int64()
	if err != nil || gameID <= 0 {
		writeErr(w, http.StatusBadRequest, "gameId is required")
		return
	}
	qty := int64(1)
	if req.Quantity != nil {
		q, err := req.Quantity.Int64()
		if err != nil || q < 1 || q > cartdom.MaxQuantity {
			writeErr(w, http.StatusBadRequest, cartdom.ErrInvalidQuantity.Error())
			return
		}
		qty = q
	}

	item, err := h.uc.AddItem(r.Context(), sid, int(gameID), int(qty))
	if err != nil {
		h.writeCartErr(w, "add", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *CartHandler) setQuantity(w http.ResponseWriter, r *http.Request, sid, rawID string) {
	gameID, ok := parsePositiveInt(rawID)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid gameId")
		return
	}
	var req setQuantityRequest
	if err := readJSON(r, &req); err != nil || req.Quantity == nil {
		writeErr(w, http.StatusBadRequest, cartdom.ErrInvalidQuantity.Error())
		return
	}
	qty, err := req.Quantity.Int64()
	if err != nil || qty > cartdom.MaxQuantity {
		writeErr(w, http.StatusBadRequest, cartdom.ErrInvalidQuantity.Error())
		return
	}
	if qty < 0 {
		qty = 0
	}

	if _, err := h.uc.SetQuantity(r.Context(), sid, gameID, int(qty)); err != nil {
		h.writeCartErr(w, "set", err)
		return
	}
	lines, err := h.uc.ListItems(r.Context(), sid)
	if err != nil {
		h.writeCartErr(w, "set", err)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request, sid, rawID string) {
	gameID, ok := parsePositiveInt(rawID)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid gameId")
		return
	}
	if _, err := h.uc.RemoveItem(r.Context(), sid, gameID); err != nil {
		h.writeCartErr(w, "remove", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request, sid string) {
	if err := h.uc.Clear(r.Context(), sid); err != nil {
		h.writeCartErr(w, "clear", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) writeCartErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, cartdom.ErrInvalidQuantity):
		writeErr(w, http.StatusBadRequest, cartdom.ErrInvalidQuantity.Error())
	case errors.Is(err, cartdom.ErrUnknownGame):
		writeErr(w, http.StatusBadRequest, cartdom.ErrUnknownGame.Error())
	case errors.Is(err, usecase.ErrInvalidArgument), errors.Is(err, cartdom.ErrInvalidCart):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[cart_handler] %s failed err=%v", op, err)
		writeErr(w, http.StatusInternalServerError, "cart operation failed")
	}
}
