// internal/platform/di/storefront/providers.go
package storefront

import (
	"log"

	"gamestore/internal/adapters/out/payment/coinbase"
	"gamestore/internal/adapters/out/payment/flutterwave"
	solanapay "gamestore/internal/adapters/out/payment/solana"
	stripepay "gamestore/internal/adapters/out/payment/stripe"
	paymentdom "gamestore/internal/domain/payment"
	appcfg "gamestore/internal/infra/config"
	solanainfra "gamestore/internal/infra/solana"
	shared "gamestore/internal/platform/di/shared"
)

// buildRegistry registers each provider whose credentials are present.
// A provider that fails to build is skipped with a warning.
func buildRegistry(cfg *appcfg.Config, s shared.Settings) *paymentdom.Registry {
	reg := paymentdom.NewRegistry()

	add := func(name string, p paymentdom.Provider, err error) {
		if err != nil {
			log.Printf("[di.storefront] WARN: %s provider disabled: %v", name, err)
			return
		}
		reg.Register(p)
		log.Printf("[di.storefront] %s provider registered method=%s", name, p.Method())
	}

	if s.Stripe {
		p, err := stripepay.New(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.PublicBaseURL)
		add("stripe", p, err)
	}
	if s.Flutterwave {
		p, err := flutterwave.New(cfg.FlutterwaveBaseURL, cfg.FlutterwaveSecretKey, cfg.FlutterwaveSecretHash, cfg.PublicBaseURL)
		add("flutterwave", p, err)
	}
	if s.Coinbase {
		p, err := coinbase.New(cfg.CoinbaseBaseURL, cfg.CoinbaseAPIKey, cfg.CoinbaseWebhookSecret, cfg.PublicBaseURL)
		add("coinbase", p, err)
	}
	if s.Solana {
		pc := solanainfra.NewPayClient(cfg.SolanaRPCURL)
		p, err := solanapay.New(solanapay.Config{
			MerchantWallet: cfg.SolanaMerchantWallet,
			USDCMint:       cfg.SolanaUSDCMint,
			Label:          cfg.MailFromName,
			WebhookSecret:  cfg.QuickNodeWebhookSecret,
		}, pc, pc.JSON)
		add("solana", p, err)
	}

	if len(reg.Methods()) == 0 {
		log.Printf("[di.storefront] WARN: no payment provider configured (checkout works, payment start returns 400)")
	}
	return reg
}
