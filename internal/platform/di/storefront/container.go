// internal/platform/di/storefront/container.go
package storefront

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	outdb "gamestore/internal/adapters/out/db"
	outfs "gamestore/internal/adapters/out/firestore"
	gcso "gamestore/internal/adapters/out/gcs"
	kafkaout "gamestore/internal/adapters/out/kafka"
	"gamestore/internal/adapters/out/mail"
	"gamestore/internal/adapters/out/memory"
	"gamestore/internal/adapters/out/rates"
	usecase "gamestore/internal/application/usecase"
	cartdom "gamestore/internal/domain/cart"
	gamedom "gamestore/internal/domain/game"
	orderdom "gamestore/internal/domain/order"
	paymentdom "gamestore/internal/domain/payment"
	appcfg "gamestore/internal/infra/config"
	shared "gamestore/internal/platform/di/shared"
)

// Container is the storefront DI container.
// Pure DI: build deps only. Routing lives in register.go.
//
// NOTE: レート取得 (CoinGecko) はキー無しでも動くため、常に組み込みます。
type Container struct {
	Infra *shared.Infra

	Games    gamedom.Repository
	Carts    cartdom.Repository
	Orders   orderdom.Repository
	Payments paymentdom.Repository
	Registry *paymentdom.Registry

	CatalogUC *usecase.CatalogUsecase
	CartUC    *usecase.CartUsecase
	OrderUC   *usecase.OrderUsecase
	PaymentUC *usecase.PaymentUsecase
	RatesUC   *usecase.RatesUsecase
}

type repos struct {
	games    gamedom.Repository
	carts    cartdom.Repository
	orders   orderdom.Repository
	payments paymentdom.Repository
	seed     func(ctx context.Context, games []gamedom.Game) error
}

func NewContainer(ctx context.Context, infra *shared.Infra) (*Container, error) {
	if infra == nil || infra.Config == nil {
		return nil, errors.New("di.storefront: infra is nil")
	}
	cfg := infra.Config

	rs, err := buildRepos(infra)
	if err != nil {
		return nil, err
	}
	if rs.seed != nil {
		if err := rs.seed(ctx, gamedom.DefaultCatalog(time.Now().UTC())); err != nil {
			return nil, fmt.Errorf("di.storefront: seed catalog: %w", err)
		}
		log.Printf("[di.storefront] catalog seeded backend=%s", infra.Settings.StoreBackend)
	}

	registry := buildRegistry(cfg, infra.Settings)
	notifier := buildNotifier(cfg, infra.Settings)
	events := buildEvents(infra)

	var images usecase.ImageResolver
	if infra.GCS != nil {
		images = gcso.NewImageResolver(cfg.GCSBucket, gcso.StorageChecker{Client: infra.GCS})
	}

	orderUC := usecase.NewOrderUsecase(rs.orders, rs.carts, rs.games).WithCurrency(cfg.Currency)
	paymentUC := usecase.NewPaymentUsecase(rs.orders, rs.payments, registry)
	if notifier != nil {
		orderUC = orderUC.WithNotifier(notifier)
		paymentUC = paymentUC.WithNotifier(notifier)
	}
	if events != nil {
		orderUC = orderUC.WithEvents(events)
		paymentUC = paymentUC.WithEvents(events)
	}

	feed := rates.NewCoinGecko(cfg.CoinGeckoBaseURL, cfg.CoinGeckoAPIKey)
	ratesUC := usecase.NewRatesUsecase(feed, cfg.Currency, cfg.RateCoins...)

	c := &Container{
		Infra:     infra,
		Games:     rs.games,
		Carts:     rs.carts,
		Orders:    rs.orders,
		Payments:  rs.payments,
		Registry:  registry,
		CatalogUC: usecase.NewCatalogUsecase(rs.games, images),
		CartUC:    usecase.NewCartUsecase(rs.carts, rs.games),
		OrderUC:   orderUC,
		PaymentUC: paymentUC,
		RatesUC:   ratesUC,
	}

	log.Printf("[di.storefront] container ready backend=%s methods=%v mail=%t events=%t images=%t",
		infra.Settings.StoreBackend, registry.Methods(), notifier != nil, events != nil, images != nil,
	)
	return c, nil
}

// Close is a no-op; Infra owns the clients.
func (c *Container) Close() error { return nil }

func buildRepos(infra *shared.Infra) (repos, error) {
	switch infra.Settings.StoreBackend {
	case appcfg.StoreFirestore:
		if infra.Firestore == nil || infra.Firestore.Client == nil {
			return repos{}, errors.New("di.storefront: firestore client is nil")
		}
		fs := infra.Firestore.Client
		games := outfs.NewGameRepositoryFS(fs)
		return repos{
			games:    games,
			carts:    outfs.NewCartRepositoryFS(fs),
			orders:   outfs.NewOrderRepositoryFS(fs),
			payments: outfs.NewPaymentRepositoryFS(fs),
			seed:     games.Seed,
		}, nil

	case appcfg.StorePostgres:
		if infra.DB == nil || infra.DB.Client == nil {
			return repos{}, errors.New("di.storefront: database is nil")
		}
		db := infra.DB.Client
		games := outdb.NewGameRepositoryPG(db)
		return repos{
			games:    games,
			carts:    outdb.NewCartRepositoryPG(db),
			orders:   outdb.NewOrderRepositoryPG(db),
			payments: outdb.NewPaymentRepositoryPG(db),
			seed:     games.Seed,
		}, nil
	}

	return repos{
		games:    memory.NewGameRepositoryMem(gamedom.DefaultCatalog(time.Now().UTC())),
		carts:    memory.NewCartRepositoryMem(),
		orders:   memory.NewOrderRepositoryMem(),
		payments: memory.NewPaymentRepositoryMem(),
	}, nil
}

func buildNotifier(cfg *appcfg.Config, s shared.Settings) usecase.OrderNotifier {
	if !s.Mail {
		log.Printf("[di.storefront] mail disabled (SENDGRID_API_KEY/MAIL_FROM empty)")
		return nil
	}
	return mail.NewOrderMailerWithSendGrid(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName, cfg.PublicBaseURL)
}

func buildEvents(infra *shared.Infra) usecase.EventPublisher {
	if infra.Kafka == nil {
		return nil
	}
	return kafkaout.NewOrderEventPublisher(infra.Kafka, infra.Config.KafkaTopic)
}
