// Package scanner recorre los mercados activos buscando mispricings:
// estima la probabilidad real de cada mercado, calcula EV y Kelly para
// ambos lados y devuelve las oportunidades rankeadas por convicción.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/mvaldesr/polyedge/internal/domain"
	"github.com/mvaldesr/polyedge/internal/engine"
	"github.com/mvaldesr/polyedge/internal/ports"
)

// Config contiene los umbrales de filtrado del scanner.
type Config struct {
	Limit         int     `yaml:"limit"`          // máximo de mercados a pedir por scan
	MinEV         float64 `yaml:"min_ev"`         // EV mínimo para marcar oportunidad
	MinKelly      float64 `yaml:"min_kelly"`      // Kelly mínimo para marcar oportunidad
	MinLiquidity  float64 `yaml:"min_liquidity"`  // liquidez mínima del mercado en USD
	MinVolume24h  float64 `yaml:"min_volume_24h"` // volumen 24h mínimo en USD
	MaxSpread     float64 `yaml:"max_spread"`     // spread máximo tolerado (take del MM)
	MinConfidence float64 `yaml:"min_confidence"` // confianza mínima de la estimación
}

// DefaultConfig devuelve los umbrales de producción.
func DefaultConfig() Config {
	return Config{
		Limit:         100,
		MinEV:         0.03,
		MinKelly:      0.01,
		MinLiquidity:  5_000,
		MinVolume24h:  10_000,
		MaxSpread:     0.05,
		MinConfidence: 0.40,
	}
}

// Scanner detecta oportunidades de mispricing en mercados activos.
type Scanner struct {
	provider ports.MarketProvider
	engine   *engine.Engine
	cfg      Config
}

// New crea un Scanner con sus dependencias inyectadas.
func New(provider ports.MarketProvider, eng *engine.Engine, cfg Config) *Scanner {
	return &Scanner{provider: provider, engine: eng, cfg: cfg}
}

// Scan hace fetch → filter → estimate → rank y devuelve las
// oportunidades ordenadas por Kelly descendente (mayor convicción
// primero, orden estable en empates). Un scan sin oportunidades
// devuelve slice vacío sin error.
func (s *Scanner) Scan(ctx context.Context, now time.Time) ([]domain.Opportunity, error) {
	slog.Info("scanning markets", "limit", s.cfg.Limit, "min_ev", s.cfg.MinEV)

	markets, err := s.provider.FetchActiveMarkets(ctx, s.cfg.Limit)
	if err != nil {
		return nil, fmt.Errorf("scanner.Scan: fetch markets: %w", err)
	}
	slog.Info("markets fetched", "count", len(markets))

	opportunities := make([]domain.Opportunity, 0, len(markets))

	for _, m := range markets {
		// Mercados ilíquidos o de spread ancho no son operables
		if m.Liquidity < s.cfg.MinLiquidity {
			continue
		}
		if m.Volume24h < s.cfg.MinVolume24h {
			continue
		}
		if m.Spread() > s.cfg.MaxSpread {
			continue
		}
		if m.Resolved {
			continue
		}

		est := s.engine.Estimate(m.Question, m.YesPrice, m.EndDate, now)
		if est.Confidence < s.cfg.MinConfidence {
			continue
		}

		ek := domain.Evaluate(est.Probability, m.YesPrice, m.NoPrice)

		bestEV := math.Max(ek.EVYes, ek.EVNo)
		bestKelly := ek.KellyNo
		if ek.EVYes > ek.EVNo {
			bestKelly = ek.KellyYes
		}

		if bestEV < s.cfg.MinEV {
			continue
		}
		if bestKelly < s.cfg.MinKelly {
			continue
		}

		side := domain.OutcomeNo
		if ek.EVYes > ek.EVNo {
			side = domain.OutcomeYes
		}

		opportunities = append(opportunities, domain.Opportunity{
			Market:          m,
			ScannedAt:       now,
			OurProbability:  est.Probability,
			Edge:            est.Probability - m.YesPrice,
			EVYes:           ek.EVYes,
			EVNo:            ek.EVNo,
			KellyYes:        ek.KellyYes,
			KellyNo:         ek.KellyNo,
			RecommendedSide: side,
			Confidence:      domain.ConfidenceLabel(est.Confidence),
			Method:          est.Method,
			Reasoning:       est.Reasoning,
		})
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].MaxKelly() > opportunities[j].MaxKelly()
	})

	slog.Info("scan complete", "opportunities", len(opportunities))
	return opportunities, nil
}
