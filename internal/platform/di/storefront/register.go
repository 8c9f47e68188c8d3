// internal/platform/di/storefront/register.go
package storefront

import (
	"net/http"

	storefronthttp "gamestore/internal/adapters/in/http/storefront"
	storefrontHandler "gamestore/internal/adapters/in/http/storefront/handler"
	"gamestore/internal/adapters/in/http/storefront/webhook"
	paymentdom "gamestore/internal/domain/payment"
)

// Webhook signature headers per provider.
const (
	StripeSignatureHeader      = "Stripe-Signature"
	FlutterwaveSignatureHeader = "verif-hash"
	CoinbaseSignatureHeader    = "X-CC-Webhook-Signature"
	QuickNodeSignatureHeader   = "x-qn-signature"
)

// Register registers storefront routes onto mux.
// Pure DI: construct handlers and pass them into the storefront router.
func Register(mux *http.ServeMux, cont *Container) {
	if mux == nil || cont == nil {
		return
	}

	payments := cont.PaymentUC
	hook := func(m paymentdom.Method, header string, badSig int) http.Handler {
		return webhook.NewPaymentWebhookHandler(m, header, badSig, payments)
	}

	storefronthttp.Register(mux, storefronthttp.Deps{
		Games:    storefrontHandler.NewGameHandler(cont.CatalogUC),
		Cart:     storefrontHandler.NewCartHandler(cont.CartUC),
		Orders:   storefrontHandler.NewOrderHandler(cont.OrderUC, payments),
		Payments: storefrontHandler.NewPaymentHandler(payments),
		Rates:    storefrontHandler.NewRatesHandler(cont.RatesUC),

		StripeWebhook:      hook(paymentdom.MethodCard, StripeSignatureHeader, http.StatusBadRequest),
		FlutterwaveWebhook: hook(paymentdom.MethodFiat, FlutterwaveSignatureHeader, http.StatusUnauthorized),
		CoinbaseWebhook:    hook(paymentdom.MethodCryptoHosted, CoinbaseSignatureHeader, http.StatusUnauthorized),
		SolanaWebhook:      hook(paymentdom.MethodCryptoWallet, QuickNodeSignatureHeader, http.StatusUnauthorized),
	})
}
