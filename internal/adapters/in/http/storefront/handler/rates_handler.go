// internal/adapters/in/http/storefront/handler/rates_handler.go
package storefrontHandler

import (
	"errors"
	"log"
	"net/http"

	"gamestore/internal/application/usecase"
)

// RatesHandler serves GET /api/crypto-rates in the CoinGecko
// simple/price shape ({"ethereum": {"usd": 3120.5}}).
type RatesHandler struct {
	uc *usecase.RatesUsecase
}

func NewRatesHandler(uc *usecase.RatesUsecase) http.Handler {
	return &RatesHandler{uc: uc}
}

func (h *RatesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	rates, err := h.uc.Current(r.Context())
	if err != nil {
		if errors.Is(err, usecase.ErrNotConfigured) {
			writeErr(w, http.StatusServiceUnavailable, "crypto rates are not configured")
			return
		}
		log.Printf("[rates_handler] fetch failed err=%v", err)
		writeErr(w, http.StatusBadGateway, "failed to fetch cryptocurrency rates")
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	writeJSON(w, http.StatusOK, rates)
}
