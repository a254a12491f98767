// Package risk controla el tamaño de las posiciones y los límites de
// exposición del bot. Ninguna apuesta sale de aquí sin pasar todas las
// puertas duras, y el tamaño final siempre es Kelly fraccional con
// recortes por confianza y liquidez.
package risk

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/mvaldesr/polyedge/internal/domain"
)

// Config son los parámetros de riesgo del sizer.
type Config struct {
	MaxSingleBetPct  float64 `yaml:"max_single_bet_pct"` // % máximo del bankroll por apuesta
	MaxTotalExposure float64 `yaml:"max_total_exposure"` // % máximo del bankroll desplegado a la vez
	KellyFraction    float64 `yaml:"kelly_fraction"`     // fracción de full Kelly
	MinEV            float64 `yaml:"min_ev"`             // EV mínimo para apostar
	MinKelly         float64 `yaml:"min_kelly"`          // Kelly mínimo para apostar
	MinLiquidity     float64 `yaml:"min_liquidity"`      // liquidez mínima del mercado en USD
}

// DefaultConfig son los límites de riesgo por defecto: 5% por apuesta,
// 40% de exposición total, cuarto de Kelly.
func DefaultConfig() Config {
	return Config{
		MaxSingleBetPct:  0.05,
		MaxTotalExposure: 0.40,
		KellyFraction:    0.25,
		MinEV:            0.04,
		MinKelly:         0.02,
		MinLiquidity:     10_000,
	}
}

// Sizer decide si se apuesta y cuánto. Es puro: el estado de riesgo
// (bankroll y exposición abierta) entra como valor en cada llamada, no
// vive dentro del sizer.
type Sizer struct {
	cfg Config
}

func NewSizer(cfg Config) *Sizer {
	return &Sizer{cfg: cfg}
}

// SizeBet evalúa las puertas duras en orden y, si todas pasan, calcula
// el tamaño: Kelly fraccional × multiplicador de confianza, con techo
// en el mínimo de (% bankroll, capacidad restante, 2% de la liquidez).
// La primera puerta que falla devuelve el rechazo con su motivo.
func (s *Sizer) SizeBet(ev, kelly float64, confidence string, marketLiquidity float64, state domain.RiskState) domain.SizingDecision {
	if ev < s.cfg.MinEV {
		return reject(fmt.Sprintf("EV %.1f%% below minimum %.0f%%", ev*100, s.cfg.MinEV*100))
	}

	if kelly < s.cfg.MinKelly {
		return reject(fmt.Sprintf("Kelly %.1f%% below minimum %.0f%%", kelly*100, s.cfg.MinKelly*100))
	}

	if marketLiquidity < s.cfg.MinLiquidity {
		return reject(fmt.Sprintf("Liquidity $%s below $%s",
			humanize.Commaf(math.Round(marketLiquidity)), humanize.Commaf(math.Round(s.cfg.MinLiquidity))))
	}

	if confidence == domain.ConfidenceLow {
		return reject("Low confidence — skip")
	}

	remainingCapacity := state.RemainingCapacity(s.cfg.MaxTotalExposure)
	if remainingCapacity <= 0 {
		return reject(fmt.Sprintf("Max exposure reached (%.0f%% of bankroll)", s.cfg.MaxTotalExposure*100))
	}

	fullKellyUSD := kelly * state.BankrollUSD
	fractionalKelly := fullKellyUSD * s.cfg.KellyFraction

	confMult := confidenceMultiplier(confidence)
	sized := fractionalKelly * confMult

	maxBet := math.Min(state.BankrollUSD*s.cfg.MaxSingleBetPct,
		math.Min(remainingCapacity, marketLiquidity*0.02))

	finalSize := math.Min(sized, maxBet)
	finalSize = math.Max(1.0, math.Round(finalSize*100)/100)

	return domain.SizingDecision{
		Approved:               true,
		BetSizeUSD:             finalSize,
		EffectiveKellyFraction: s.cfg.KellyFraction * confMult,
		Reasoning: fmt.Sprintf("Full Kelly: $%.2f × %.0f%% Kelly × %.0f%% conf = $%.2f, capped at $%.2f → $%.2f",
			fullKellyUSD, s.cfg.KellyFraction*100, confMult*100, sized, maxBet, finalSize),
	}
}

func reject(reason string) domain.SizingDecision {
	return domain.SizingDecision{RejectionReason: reason}
}

func confidenceMultiplier(confidence string) float64 {
	switch confidence {
	case domain.ConfidenceHigh:
		return 1.0
	case domain.ConfidenceMedium:
		return 0.6
	case domain.ConfidenceLow:
		return 0.3
	default:
		return 0.5
	}
}
