// internal/platform/di/shared/settings.go
package shared

import (
	"errors"
	"fmt"
	"strings"

	appcfg "gamestore/internal/infra/config"
)

// Settings reports which optional integrations the config enables.
// It only holds values; no clients.
type Settings struct {
	StoreBackend string

	Stripe      bool
	Flutterwave bool
	Coinbase    bool
	Solana      bool

	Mail   bool
	Kafka  bool
	Images bool
}

// ResolveSettings validates cfg and returns the enabled features plus
// warnings for half-configured ones. It does not log.
func ResolveSettings(cfg *appcfg.Config) (Settings, []string, error) {
	if cfg == nil {
		return Settings{}, nil, errors.New("shared.settings: cfg is nil")
	}

	var warns []string
	s := Settings{StoreBackend: strings.ToLower(strings.TrimSpace(cfg.StoreBackend))}

	switch s.StoreBackend {
	case "", appcfg.StoreMemory:
		s.StoreBackend = appcfg.StoreMemory
	case appcfg.StoreFirestore, appcfg.StorePostgres:
	default:
		return Settings{}, nil, fmt.Errorf("shared.settings: unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if u := strings.TrimSpace(cfg.PublicBaseURL); !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return Settings{}, nil, fmt.Errorf("shared.settings: PUBLIC_BASE_URL must start with http:// or https:// (got %q)", u)
	}
	if c := strings.TrimSpace(cfg.Currency); len(c) != 3 {
		return Settings{}, nil, fmt.Errorf("shared.settings: STORE_CURRENCY must be a 3-letter code (got %q)", c)
	}
	if s.StoreBackend == appcfg.StoreFirestore && strings.TrimSpace(cfg.FirestoreProjectID) == "" {
		return Settings{}, nil, errors.New("shared.settings: firestore backend needs FIRESTORE_PROJECT_ID or GCP_PROJECT_ID")
	}

	s.Stripe = cfg.StripeSecretKey != ""
	if s.Stripe && cfg.StripeWebhookSecret == "" {
		warns = append(warns, "STRIPE_WEBHOOK_SECRET is empty (stripe webhooks will be rejected)")
	}

	s.Flutterwave = cfg.FlutterwaveSecretKey != ""
	if s.Flutterwave && cfg.FlutterwaveSecretHash == "" {
		warns = append(warns, "FLUTTERWAVE_SECRET_HASH is empty (flutterwave webhooks will be rejected)")
	}

	s.Coinbase = cfg.CoinbaseAPIKey != ""
	if s.Coinbase && cfg.CoinbaseWebhookSecret == "" {
		warns = append(warns, "COINBASE_COMMERCE_WEBHOOK_SECRET is empty (coinbase webhooks will be rejected)")
	}

	s.Solana = cfg.SolanaMerchantWallet != ""
	if s.Solana && !strings.EqualFold(cfg.Currency, "USD") {
		warns = append(warns, "SOLANA_MERCHANT_WALLET is set but STORE_CURRENCY is not USD (wallet payments disabled)")
		s.Solana = false
	}
	if s.Solana && cfg.QuickNodeWebhookSecret == "" {
		warns = append(warns, "QUICKNODE_WEBHOOK_SECRET is empty (transaction webhooks will be rejected)")
	}

	s.Mail = cfg.SendGridAPIKey != "" && cfg.MailFrom != ""
	if cfg.SendGridAPIKey != "" && cfg.MailFrom == "" {
		warns = append(warns, "SENDGRID_API_KEY is set but MAIL_FROM is empty (mail disabled)")
	}

	s.Kafka = len(cfg.KafkaBrokers) > 0
	s.Images = strings.TrimSpace(cfg.GCSBucket) != ""

	return s, warns, nil
}
