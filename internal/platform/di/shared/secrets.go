// internal/platform/di/shared/secrets.go
package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"

	appcfg "gamestore/internal/infra/config"
)

// SecretPrefix marks a config value stored in Secret Manager: "sm://<secret-id>"
// or "sm://<secret-id>/<version>".
const SecretPrefix = "sm://"

var errSecretResolverNotConfigured = errors.New("shared.secrets: secret manager client is not configured")

// SecretAccessor is the Secret Manager call the resolver needs.
type SecretAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

var _ SecretAccessor = (*secretmanager.Client)(nil)

type SecretResolver struct {
	sm        SecretAccessor
	projectID string
}

func NewSecretResolver(sm SecretAccessor, projectID string) *SecretResolver {
	return &SecretResolver{sm: sm, projectID: strings.TrimSpace(projectID)}
}

// Resolve returns v unchanged unless it carries SecretPrefix.
func (r *SecretResolver) Resolve(ctx context.Context, v string) (string, error) {
	raw := strings.TrimSpace(v)
	if !strings.HasPrefix(raw, SecretPrefix) {
		return v, nil
	}
	if r == nil || r.sm == nil {
		return "", errSecretResolverNotConfigured
	}
	if r.projectID == "" {
		return "", errors.New("shared.secrets: projectID is empty")
	}

	id, ver, _ := strings.Cut(strings.TrimPrefix(raw, SecretPrefix), "/")
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("shared.secrets: empty secret id in %q", raw)
	}
	ver = strings.TrimSpace(ver)
	if ver == "" {
		ver = "latest"
	}

	name := "projects/" + r.projectID + "/secrets/" + id + "/versions/" + ver
	resp, err := r.sm.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("shared.secrets: AccessSecretVersion failed (%s): %w", name, err)
	}
	if resp == nil || resp.Payload == nil {
		return "", fmt.Errorf("shared.secrets: empty payload (%s)", name)
	}
	return strings.TrimSpace(string(resp.Payload.Data)), nil
}

// ResolveConfig replaces every secret-bearing field of cfg in place.
func (r *SecretResolver) ResolveConfig(ctx context.Context, cfg *appcfg.Config) error {
	if cfg == nil {
		return nil
	}
	fields := map[string]*string{
		"DB_PASSWORD":                      &cfg.DBPassword,
		"DATABASE_URL":                     &cfg.DatabaseURL,
		"STRIPE_SECRET_KEY":                &cfg.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET":            &cfg.StripeWebhookSecret,
		"FLUTTERWAVE_SECRET_KEY":           &cfg.FlutterwaveSecretKey,
		"FLUTTERWAVE_SECRET_HASH":          &cfg.FlutterwaveSecretHash,
		"COINBASE_COMMERCE_API_KEY":        &cfg.CoinbaseAPIKey,
		"COINBASE_COMMERCE_WEBHOOK_SECRET": &cfg.CoinbaseWebhookSecret,
		"QUICKNODE_WEBHOOK_SECRET":         &cfg.QuickNodeWebhookSecret,
		"SENDGRID_API_KEY":                 &cfg.SendGridAPIKey,
		"COINGECKO_API_KEY":                &cfg.CoinGeckoAPIKey,
	}
	for key, p := range fields {
		v, err := r.Resolve(ctx, *p)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*p = v
	}
	return nil
}

// HasSecretRefs reports whether any config value needs Secret Manager.
func HasSecretRefs(cfg *appcfg.Config) bool {
	if cfg == nil {
		return false
	}
	for _, v := range []string{
		cfg.DBPassword, cfg.DatabaseURL,
		cfg.StripeSecretKey, cfg.StripeWebhookSecret,
		cfg.FlutterwaveSecretKey, cfg.FlutterwaveSecretHash,
		cfg.CoinbaseAPIKey, cfg.CoinbaseWebhookSecret,
		cfg.QuickNodeWebhookSecret, cfg.SendGridAPIKey,
		cfg.CoinGeckoAPIKey,
	} {
		if strings.HasPrefix(strings.TrimSpace(v), SecretPrefix) {
			return true
		}
	}
	return false
}
