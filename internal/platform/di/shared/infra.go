// internal/platform/di/shared/infra.go
package shared

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/storage"
	"github.com/twmb/franz-go/pkg/kgo"
	"google.golang.org/api/option"

	appcfg "gamestore/internal/infra/config"
	"gamestore/internal/infra/database"
	firestoreinfra "gamestore/internal/infra/firestore"
	kafkainfra "gamestore/internal/infra/kafka"
)

// Infra はプロセス単位の外部クライアントを保持します。
// - Firestore / Postgres / GCS / Secret Manager / Kafka
//
// IMPORTANT:
// Infra must NOT depend on routers or handlers.
type Infra struct {
	Config    *appcfg.Config
	Settings  Settings
	ProjectID string

	// store (exactly one of these for non-memory backends)
	Firestore *firestoreinfra.ClientWrapper
	DB        *database.DB

	// optional
	GCS           *storage.Client
	SecretManager *secretmanager.Client
	Kafka         *kgo.Client
}

// NewInfra resolves secrets, then opens the store strictly and the optional
// clients best-effort (warn + continue).
func NewInfra(ctx context.Context, cfg *appcfg.Config) (*Infra, error) {
	if cfg == nil {
		return nil, errors.New("shared.infra: config is nil")
	}

	inf := &Infra{
		Config:    cfg,
		ProjectID: resolveProjectID(cfg),
	}

	credFile := strings.TrimSpace(cfg.FirestoreCredentialsFile)
	if credFile == "" {
		credFile = strings.TrimSpace(cfg.GCPCreds)
	}
	var clientOpts []option.ClientOption
	if credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
		log.Printf("[shared.infra] Using credentials file for GCP clients: %s", redactPath(credFile))
	}

	// 1) Secret Manager (needed only when a value is an sm:// reference)
	if HasSecretRefs(cfg) {
		sm, err := secretmanager.NewClient(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("shared.infra: secretmanager.NewClient failed: %w", err)
		}
		inf.SecretManager = sm
		if err := NewSecretResolver(sm, inf.ProjectID).ResolveConfig(ctx, cfg); err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: resolve secrets: %w", err)
		}
		log.Printf("[shared.infra] secrets resolved from Secret Manager project=%s", inf.ProjectID)
	}

	settings, warns, err := ResolveSettings(cfg)
	if err != nil {
		_ = inf.Close()
		return nil, err
	}
	for _, w := range warns {
		log.Printf("[shared.infra] WARN: %s", w)
	}
	inf.Settings = settings

	// 2) Store (strict)
	switch settings.StoreBackend {
	case appcfg.StoreFirestore:
		fs, err := firestoreinfra.NewClient(ctx, cfg.FirestoreProjectID, credFile)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: firestore: %w", err)
		}
		inf.Firestore = fs
	case appcfg.StorePostgres:
		db, err := database.NewConnection(ctx, cfg.DatabaseDriver, cfg.PostgresDSN())
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("shared.infra: postgres: %w", err)
		}
		inf.DB = db
		if cfg.DBMigrate {
			if err := database.Migrate(ctx, db.Client); err != nil {
				_ = inf.Close()
				return nil, fmt.Errorf("shared.infra: %w", err)
			}
		}
	default:
		log.Printf("[shared.infra] using in-memory store (data is lost on restart)")
	}

	// 3) GCS (best-effort)
	if settings.Images {
		gcsClient, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Printf("[shared.infra] WARN: storage.NewClient failed: %v (images served from site paths)", err)
		} else {
			inf.GCS = gcsClient
			log.Printf("[shared.infra] GCS storage client initialized bucket=%s", cfg.GCSBucket)
		}
	}

	// 4) Kafka (best-effort)
	if settings.Kafka {
		cl, err := kafkainfra.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Printf("[shared.infra] WARN: kafka producer init failed: %v (order events disabled)", err)
		} else {
			inf.Kafka = cl
		}
	}

	return inf, nil
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	if i.Kafka != nil {
		i.Kafka.Close()
	}
	if i.Firestore != nil {
		_ = i.Firestore.Close()
	}
	if i.DB != nil {
		_ = i.DB.Close()
	}
	if i.GCS != nil {
		_ = i.GCS.Close()
	}
	if i.SecretManager != nil {
		_ = i.SecretManager.Close()
	}
	return nil
}

// Ping checks the store.
func (i *Infra) Ping(ctx context.Context) error {
	switch {
	case i == nil:
		return errors.New("shared.infra: nil")
	case i.Firestore != nil:
		return i.Firestore.Ping(ctx)
	case i.DB != nil:
		return i.DB.Client.PingContext(ctx)
	}
	return nil
}

func resolveProjectID(cfg *appcfg.Config) string {
	if v := strings.TrimSpace(cfg.FirestoreProjectID); v != "" {
		return v
	}
	return strings.TrimSpace(cfg.GCPProjectID)
}

func redactPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", "/")
	parts := strings.Split(p, "/")
	last := parts[len(parts)-1]
	if last == "" {
		return "***"
	}
	return "***/" + last
}
