// internal/infra/config/config.go
package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreMemory    = "memory"
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
)

// Config holds every environment setting of the storefront.
// Values of the form "sm://<secret-id>" are resolved through Secret Manager at DI time.
type Config struct {
	Port          string
	LogFile       string
	PublicBaseURL string
	Currency      string
	CORSOrigins   []string

	// memory | firestore | postgres
	StoreBackend string

	GCPProjectID             string
	GCPCreds                 string
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	GCSBucket                string

	DatabaseDriver string // pgx | postgres
	DatabaseURL    string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBMigrate      bool

	StripeSecretKey     string
	StripeWebhookSecret string

	FlutterwaveBaseURL    string
	FlutterwaveSecretKey  string
	FlutterwaveSecretHash string

	CoinbaseBaseURL       string
	CoinbaseAPIKey        string
	CoinbaseWebhookSecret string

	SolanaRPCURL           string
	SolanaMerchantWallet   string
	SolanaUSDCMint         string
	QuickNodeWebhookSecret string

	CoinGeckoBaseURL string
	CoinGeckoAPIKey  string
	RateCoins        []string

	SendGridAPIKey string
	MailFrom       string
	MailFromName   string

	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads a local .env when present, then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env")
	}

	project := getenvDefault("GCP_PROJECT_ID", "")

	cfg := &Config{
		Port:          getenvDefault("PORT", "8080"),
		LogFile:       getenvDefault("LOG_FILE", "logs/app.log"),
		PublicBaseURL: strings.TrimRight(getenvDefault("PUBLIC_BASE_URL", "http://localhost:5173"), "/"),
		Currency:      strings.ToUpper(getenvDefault("STORE_CURRENCY", "USD")),
		CORSOrigins:   splitList(getenvDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),

		StoreBackend: strings.ToLower(getenvDefault("STORE_BACKEND", StoreMemory)),

		GCPProjectID:             project,
		GCPCreds:                 os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		FirestoreProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", project),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),
		GCSBucket:                os.Getenv("GCS_BUCKET"),

		DatabaseDriver: strings.ToLower(getenvDefault("DATABASE_DRIVER", "pgx")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBHost:         getenvDefault("DB_HOST", "localhost"),
		DBPort:         getenvDefault("DB_PORT", "5432"),
		DBUser:         getenvDefault("DB_USER", "postgres"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         getenvDefault("DB_NAME", "gamestore"),
		DBMigrate:      getenvBool("DB_MIGRATE", true),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		FlutterwaveBaseURL:    getenvDefault("FLUTTERWAVE_BASE_URL", "https://api.flutterwave.com/v3"),
		FlutterwaveSecretKey:  os.Getenv("FLUTTERWAVE_SECRET_KEY"),
		FlutterwaveSecretHash: os.Getenv("FLUTTERWAVE_SECRET_HASH"),

		CoinbaseBaseURL:       getenvDefault("COINBASE_COMMERCE_BASE_URL", "https://api.commerce.coinbase.com"),
		CoinbaseAPIKey:        os.Getenv("COINBASE_COMMERCE_API_KEY"),
		CoinbaseWebhookSecret: os.Getenv("COINBASE_COMMERCE_WEBHOOK_SECRET"),

		SolanaRPCURL:           getenvDefault("SOLANA_RPC_URL", "https://api.devnet.solana.com"),
		SolanaMerchantWallet:   os.Getenv("SOLANA_MERCHANT_WALLET"),
		SolanaUSDCMint:         getenvDefault("SOLANA_USDC_MINT", "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"),
		QuickNodeWebhookSecret: os.Getenv("QUICKNODE_WEBHOOK_SECRET"),

		CoinGeckoBaseURL: getenvDefault("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoAPIKey:  os.Getenv("COINGECKO_API_KEY"),
		RateCoins:        splitList(getenvDefault("CRYPTO_RATE_COINS", "ethereum,tether,avalanche-2")),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       os.Getenv("MAIL_FROM"),
		MailFromName:   getenvDefault("MAIL_FROM_NAME", "Games Store"),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getenvDefault("KAFKA_ORDER_TOPIC", "storefront.orders"),
	}

	return cfg
}

// PostgresDSN prefers DATABASE_URL and falls back to the discrete DB_* settings.
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return "host=" + c.DBHost +
		" port=" + c.DBPort +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" sslmode=disable"
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
