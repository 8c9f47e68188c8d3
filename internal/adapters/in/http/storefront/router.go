// internal/adapters/in/http/storefront/router.go
package storefront

import (
	"log"
	"net/http"

	"gamestore/internal/adapters/in/http/middleware"
)

type Deps struct {
	Games    http.Handler
	Cart     http.Handler
	Orders   http.Handler
	Payments http.Handler
	Rates    http.Handler

	// webhooks (no session)
	StripeWebhook      http.Handler
	FlutterwaveWebhook http.Handler
	CoinbaseWebhook    http.Handler
	SolanaWebhook      http.Handler
}

func handleSafe(mux *http.ServeMux, pattern string, h http.Handler, name string) {
	if h == nil {
		log.Printf("[storefront.router] WARN: nil handler: %s pattern=%s (registering NotFoundHandler)", name, pattern)
		h = http.NotFoundHandler()
	}
	mux.Handle(pattern, h)
}

func withSession(h http.Handler) http.Handler {
	if h == nil {
		return nil
	}
	return middleware.Session(h)
}

func Register(mux *http.ServeMux, deps Deps) {
	if mux == nil {
		return
	}

	games := withSession(deps.Games)
	handleSafe(mux, "/api/games", games, "Games")
	handleSafe(mux, "/api/games/", games, "Games")

	cart := withSession(deps.Cart)
	handleSafe(mux, "/api/cart", cart, "Cart")
	handleSafe(mux, "/api/cart/", cart, "Cart")

	orders := withSession(deps.Orders)
	handleSafe(mux, "/api/orders", orders, "Orders")
	handleSafe(mux, "/api/orders/", orders, "Orders")

	payments := withSession(deps.Payments)
	handleSafe(mux, "/api/payment-methods", payments, "PaymentMethods")
	handleSafe(mux, "/api/payment-status/", payments, "PaymentStatus")
	handleSafe(mux, "/api/payments/", payments, "Payments")

	handleSafe(mux, "/api/crypto-rates", deps.Rates, "CryptoRates")

	handleSafe(mux, "/api/webhook/stripe", deps.StripeWebhook, "Webhook(stripe)")
	handleSafe(mux, "/api/webhook/flutterwave", deps.FlutterwaveWebhook, "Webhook(flutterwave)")
	handleSafe(mux, "/api/webhook/coinbase", deps.CoinbaseWebhook, "Webhook(coinbase)")
	handleSafe(mux, "/api/webhook/transaction-confirmed", deps.SolanaWebhook, "Webhook(solana)")
}
