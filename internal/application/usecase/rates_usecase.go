// internal/application/usecase/rates_usecase.go
package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// DefaultRateCoins are the coins shown next to crypto prices.
var DefaultRateCoins = []string{"ethereum", "tether", "avalanche-2"}

const defaultRatesTTL = time.Minute

// RatesUsecase serves crypto prices quoted in the store currency.
// Results are cached for ttl; a stale copy is served when the feed fails.
type RatesUsecase struct {
	feed  RateFeed
	coins []string
	vs    []string
	ttl   time.Duration
	clock Clock

	mu      sync.Mutex
	cached  CryptoRates
	fetched time.Time
}

func NewRatesUsecase(feed RateFeed, currency string, coins ...string) *RatesUsecase {
	if len(coins) == 0 {
		coins = DefaultRateCoins
	}
	vs := strings.ToLower(strings.TrimSpace(currency))
	if vs == "" {
		vs = "usd"
	}
	return &RatesUsecase{
		feed:  feed,
		coins: coins,
		vs:    []string{vs},
		ttl:   defaultRatesTTL,
		clock: systemClock{},
	}
}

func (uc *RatesUsecase) WithClock(c Clock) *RatesUsecase {
	if c != nil {
		uc.clock = c
	}
	return uc
}

func (uc *RatesUsecase) WithTTL(d time.Duration) *RatesUsecase {
	if d > 0 {
		uc.ttl = d
	}
	return uc
}

func (uc *RatesUsecase) Current(ctx context.Context) (CryptoRates, error) {
	if uc == nil || uc.feed == nil {
		return nil, ErrNotConfigured
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()

	now := uc.clock.Now()
	if uc.cached != nil && now.Sub(uc.fetched) < uc.ttl {
		return uc.cached, nil
	}

	rates, err := uc.feed.Prices(ctx, uc.coins, uc.vs)
	if err != nil {
		if uc.cached != nil {
			log.Printf("[rates_uc] WARN: feed failed, serving rates from %s err=%v", uc.fetched.Format(time.RFC3339), err)
			return uc.cached, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRatesUnavailable, err)
	}
	uc.cached, uc.fetched = rates, now
	return rates, nil
}
