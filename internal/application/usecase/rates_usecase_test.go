package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	rates CryptoRates
	err   error
	calls int
	ids   []string
	vs    []string
}

func (f *fakeFeed) Prices(_ context.Context, ids, vs []string) (CryptoRates, error) {
	f.calls++
	f.ids, f.vs = ids, vs
	return f.rates, f.err
}

type movableClock struct{ t time.Time }

func (c *movableClock) Now() time.Time { return c.t }

func TestRatesUsecase_CachesWithinTTL(t *testing.T) {
	feed := &fakeFeed{rates: CryptoRates{"ethereum": {"usd": 3000}}}
	clock := &movableClock{t: testNow}
	uc := NewRatesUsecase(feed, "USD").WithClock(clock)

	got, err := uc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3000.0, got["ethereum"]["usd"])
	assert.Equal(t, DefaultRateCoins, feed.ids)
	assert.Equal(t, []string{"usd"}, feed.vs)

	clock.t = testNow.Add(30 * time.Second)
	_, err = uc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, feed.calls)

	feed.rates = CryptoRates{"ethereum": {"usd": 3100}}
	clock.t = testNow.Add(2 * time.Minute)
	got, err = uc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, feed.calls)
	assert.Equal(t, 3100.0, got["ethereum"]["usd"])
}

func TestRatesUsecase_FeedFailure(t *testing.T) {
	feed := &fakeFeed{err: errors.New("429 too many requests")}
	clock := &movableClock{t: testNow}
	uc := NewRatesUsecase(feed, "", "tether").WithClock(clock)

	_, err := uc.Current(context.Background())
	assert.ErrorIs(t, err, ErrRatesUnavailable)

	feed.err, feed.rates = nil, CryptoRates{"tether": {"usd": 1}}
	_, err = uc.Current(context.Background())
	require.NoError(t, err)

	// stale rates beat no rates
	feed.err = errors.New("timeout")
	clock.t = testNow.Add(time.Hour)
	got, err := uc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, got["tether"]["usd"])
}

func TestRatesUsecase_NotConfigured(t *testing.T) {
	_, err := NewRatesUsecase(nil, "USD").Current(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}
