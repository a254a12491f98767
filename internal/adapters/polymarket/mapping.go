package polymarket

import (
	"encoding/json"
	"time"

	"github.com/mvaldesr/polyedge/internal/domain"
)

// defaultTokenPrice se asume cuando Gamma no trae precio para un lado.
const defaultTokenPrice = 0.5

// mapGammaMarkets convierte los DTOs de Gamma a domain.Market.
func mapGammaMarkets(raw []gammaMarket) []domain.Market {
	markets := make([]domain.Market, 0, len(raw))
	for _, r := range raw {
		markets = append(markets, mapGammaMarket(r))
	}
	return markets
}

// mapGammaMarket convierte un gammaMarket DTO a domain.Market.
func mapGammaMarket(r gammaMarket) domain.Market {
	m := domain.Market{
		ConditionID: r.ConditionID,
		Question:    r.Question,
		Category:    r.Category,
		YesPrice:    defaultTokenPrice,
		NoPrice:     defaultTokenPrice,
		Volume24h:   numberOr(r.Volume24h, 0),
		TotalVolume: numberOr(r.Volume, 0),
		Liquidity:   numberOr(r.Liquidity, 0),
		Resolved:    r.Closed,
		Outcome:     r.Resolution,
	}

	// Algunos mercados viejos no traen conditionId
	if m.ConditionID == "" {
		m.ConditionID = r.ID
	}

	for _, t := range r.Tokens {
		switch t.Outcome {
		case "Yes":
			m.YesPrice = numberOr(t.Price, defaultTokenPrice)
			m.YesTokenID = t.TokenID
		case "No":
			m.NoPrice = numberOr(t.Price, defaultTokenPrice)
			m.NoTokenID = t.TokenID
		}
	}

	m.EndDate = parseGammaDate(r.EndDate)
	return m
}

// mapResolution extrae el estado de resolución de un mercado de Gamma.
// El outcome sale de resolution u outcome, el que venga poblado; la
// normalización a YES/NO la hace el consumidor.
func mapResolution(r gammaMarket) domain.Resolution {
	res := domain.Resolution{Resolved: r.Closed || r.Resolved}
	if !res.Resolved {
		return res
	}
	res.Outcome = r.Resolution
	if res.Outcome == "" {
		res.Outcome = r.Outcome
	}
	return res
}

// numberOr devuelve el float64 del json.Number, o def si viene vacío o
// no parsea.
func numberOr(n json.Number, def float64) float64 {
	v, err := n.Float64()
	if err != nil {
		return def
	}
	return v
}

// parseGammaDate parsea las fechas de Gamma.
// Polymarket usa varios formatos; intentamos los más comunes.
func parseGammaDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
