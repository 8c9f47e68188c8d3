package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFeed(t *testing.T, h http.HandlerFunc) *CoinGecko {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewCoinGecko(srv.URL+"/", "cg-demo-key")
}

func TestPrices(t *testing.T) {
	c := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "ethereum,tether", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "cg-demo-key", r.Header.Get("x-cg-demo-api-key"))
		_, _ = w.Write([]byte(`{"ethereum":{"usd":3120.55},"tether":{"usd":1.001}}`))
	})

	got, err := c.Prices(context.Background(), []string{" Ethereum ", "tether", ""}, []string{"USD"})
	require.NoError(t, err)
	assert.Equal(t, 3120.55, got["ethereum"]["usd"])
	assert.Equal(t, 1.001, got["tether"]["usd"])
}

func TestPrices_ErrorStatus(t *testing.T) {
	c := newTestFeed(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":{"error_code":429,"error_message":"You've exceeded the Rate Limit."}}`))
	})

	_, err := c.Prices(context.Background(), []string{"ethereum"}, []string{"usd"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=429")
	assert.Contains(t, err.Error(), "Rate Limit")
}

func TestPrices_RequiresIDs(t *testing.T) {
	c := NewCoinGecko("", "")
	assert.Equal(t, DefaultBaseURL, c.baseURL)

	_, err := c.Prices(context.Background(), nil, []string{"usd"})
	assert.Error(t, err)
}
