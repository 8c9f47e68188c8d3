// internal/adapters/out/rates/coingecko.go
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gamestore/internal/application/usecase"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// CoinGecko reads spot prices from the public /simple/price endpoint.
// An API key is optional; it is sent as the demo-plan header.
type CoinGecko struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ usecase.RateFeed = (*CoinGecko)(nil)

func NewCoinGecko(baseURL, apiKey string) *CoinGecko {
	b := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if b == "" {
		b = DefaultBaseURL
	}
	return &CoinGecko{
		baseURL: b,
		apiKey:  strings.TrimSpace(apiKey),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type errorBody struct {
	Error  string `json:"error"`
	Status struct {
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

func (c *CoinGecko) Prices(ctx context.Context, ids, vsCurrencies []string) (usecase.CryptoRates, error) {
	idList, vsList := joinLower(ids), joinLower(vsCurrencies)
	if idList == "" || vsList == "" {
		return nil, fmt.Errorf("coingecko: ids and vs currencies are required")
	}

	q := url.Values{}
	q.Set("ids", idList)
	q.Set("vs_currencies", vsList)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/simple/price?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko: simple/price: %w", err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		msg := strings.TrimSpace(eb.Status.ErrorMessage)
		if msg == "" {
			msg = strings.TrimSpace(eb.Error)
		}
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, fmt.Errorf("coingecko: status=%d message=%s", res.StatusCode, msg)
	}

	var out usecase.CryptoRates
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("coingecko: decode: %w", err)
	}
	if len(out) == 0 {
		log.Printf("[coingecko] WARN: no prices returned ids=%s", idList)
	}
	return out, nil
}

func joinLower(xs []string) string {
	parts := make([]string, 0, len(xs))
	for _, x := range xs {
		if t := strings.ToLower(strings.TrimSpace(x)); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, ",")
}
