package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/mvaldesr/polyedge/internal/domain"
)

const gammaMarketsPath = "/markets"

// FetchActiveMarkets devuelve los mercados activos de Gamma ordenados
// por volumen 24h descendente, saltando los que quedan bajo el suelo de
// volumen del cliente y los que no parsean a un mercado válido.
func (c *Client) FetchActiveMarkets(ctx context.Context, limit int) ([]domain.Market, error) {
	params := url.Values{
		"limit":     {strconv.Itoa(limit)},
		"active":    {"true"},
		"closed":    {"false"},
		"order":     {"volume24hr"},
		"ascending": {"false"},
	}
	reqURL := c.gammaBase + gammaMarketsPath + "?" + params.Encode()

	var resp gammaMarketsResponse
	if err := c.get(ctx, c.gammaLimiter, reqURL, &resp); err != nil {
		return nil, fmt.Errorf("gamma.FetchActiveMarkets: %w", err)
	}

	markets := make([]domain.Market, 0, len(resp))
	skipped := 0
	for _, m := range mapGammaMarkets(resp) {
		if m.Volume24h < c.minVolume24h {
			continue
		}
		if err := m.Validate(); err != nil {
			slog.Debug("skipping unparseable market", "err", err)
			skipped++
			continue
		}
		markets = append(markets, m)
	}

	slog.Debug("active markets fetched",
		"raw", len(resp),
		"kept", len(markets),
		"skipped", skipped,
	)
	return markets, nil
}

// CheckResolution consulta si un mercado concreto ya resolvió.
// Un mercado todavía abierto devuelve Resolution{Resolved: false} sin error.
func (c *Client) CheckResolution(ctx context.Context, marketID string) (domain.Resolution, error) {
	reqURL := fmt.Sprintf("%s%s/%s", c.gammaBase, gammaMarketsPath, marketID)

	var resp gammaMarket
	if err := c.get(ctx, c.gammaLimiter, reqURL, &resp); err != nil {
		return domain.Resolution{}, fmt.Errorf("gamma.CheckResolution %s: %w", marketID, err)
	}
	return mapResolution(resp), nil
}
