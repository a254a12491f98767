// Package coingecko obtiene el precio spot de BTC desde la API pública
// de CoinGecko. El scanner lo usa para calibrar el modelo de vol en cada
// ciclo; si la API falla, el caller decide el fallback.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.coingecko.com"

	// El tier gratuito corta en ~10-30 req/min.
	ratePerMinute = 10
)

// Client implementa ports.SpotProvider.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

// NewClient crea un cliente de CoinGecko. baseURL vacío usa la API pública.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: 5 * time.Second},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Every(time.Minute/ratePerMinute), 1),
	}
}

// FetchBTCSpot devuelve el precio BTC/USD actual.
func (c *Client) FetchBTCSpot(ctx context.Context) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	url := c.baseURL + "/api/v3/simple/price?ids=bitcoin&vs_currencies=usd"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("coingecko.FetchBTCSpot: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("coingecko.FetchBTCSpot: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("coingecko.FetchBTCSpot: status %d: %s", resp.StatusCode, body)
	}

	var data map[string]map[string]float64
	if err := json.Unmarshal(body, &data); err != nil {
		return 0, fmt.Errorf("coingecko.FetchBTCSpot: decode: %w", err)
	}

	price, ok := data["bitcoin"]["usd"]
	if !ok || price <= 0 {
		return 0, fmt.Errorf("coingecko.FetchBTCSpot: BTC price not found in response")
	}

	slog.Debug("fetched btc spot", "usd", price)
	return price, nil
}
