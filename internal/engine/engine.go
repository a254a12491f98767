// Package engine estima la probabilidad real de mercados binarios.
//
// La estimación se enruta por categoría de pregunta, probadas en orden
// fijo: crypto → macro → político → price-target → base rate. Cada
// categoría aplica un modelo especializado; si no consigue producir una
// estimación cae al estimador por defecto, que solo corrige sesgos
// sistemáticos del retail (longshot, favorito, near-resolution).
package engine

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mvaldesr/polyedge/internal/domain"
	"github.com/mvaldesr/polyedge/internal/pricing"
)

// Umbrales de sesgo retail. Por debajo/encima de estos precios el
// mercado tiende a sobrepagar longshots e infravalorar favoritos.
const (
	longshotOverpricedBelow  = 0.08
	favoriteUnderpricedAbove = 0.92
)

// Spot BTC de referencia del modelo crypto rápido. El modelo fino de
// vol (pricing.Model) usa el spot live; este estimador de primera
// pasada trabaja con una referencia fija.
const referenceBTCSpot = 65_900

var cryptoTargetPattern = regexp.MustCompile(`\$([0-9,]+)k?`)

// estimator intenta estimar dentro de una categoría. ok=false significa
// que la categoría no tiene modelo aplicable y se cae al base rate.
type estimator func(e *Engine, question string, yesPrice float64, endDate, now time.Time) (domain.Estimate, bool)

type category struct {
	name     string
	keywords []string
	estimate estimator
}

// Orden de despacho. La primera categoría con keyword presente gana;
// las siguientes ya no se prueban aunque también casen.
var categories = []category{
	{"crypto", []string{"bitcoin", "btc", "ethereum", "eth", "crypto", "sol", "solana"}, (*Engine).estimateCrypto},
	{"macro", []string{"fed", "rate", "fomc", "cpi", "inflation", "gdp", "nfp", "payroll"}, (*Engine).estimateMacro},
	{"political", []string{"election", "president", "senate", "congress", "vote", "win"}, (*Engine).estimatePolitical},
	{"price-target", []string{"price", "above", "below", "reach", "$"}, nil},
}

// Engine estima probabilidades reales para mercados de predicción.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Estimate es el punto de entrada. La probabilidad devuelta queda
// siempre en [0.01, 0.99].
func (e *Engine) Estimate(question string, yesPrice float64, endDate, now time.Time) domain.Estimate {
	lower := strings.ToLower(question)

	for _, c := range categories {
		if !containsAny(lower, c.keywords) {
			continue
		}
		if c.estimate != nil {
			if est, ok := c.estimate(e, question, yesPrice, endDate, now); ok {
				return clampEstimate(est)
			}
		}
		break
	}
	return clampEstimate(e.estimateBaseRate(lower, yesPrice, endDate, now))
}

// estimateCrypto valora mercados de precio BTC/ETH con un modelo
// log-normal rápido: vol fija del 70% anualizado escalada a la ventana.
func (e *Engine) estimateCrypto(question string, yesPrice float64, endDate, now time.Time) (domain.Estimate, bool) {
	lower := strings.ToLower(question)

	m := cryptoTargetPattern.FindStringSubmatch(question)
	if m == nil {
		return domain.Estimate{}, false
	}
	target, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return domain.Estimate{}, false
	}
	if target < 1000 {
		// formato "k"
		target *= 1000
	}

	days, hasEnd := daysToEnd(endDate, now)
	if !hasEnd || days <= 0 {
		return domain.Estimate{}, false
	}

	logReturnNeeded := math.Log(target / referenceBTCSpot)
	vol := 0.70 * math.Sqrt(days/365)

	// prob sin ajustar es P(precio < target); con keyword "above" se
	// invierte a P(precio > target). Drift 0, conservador.
	prob := pricing.NormCDF(logReturnNeeded / vol)
	if strings.Contains(lower, "above") || strings.Contains(lower, "over") || strings.Contains(lower, "exceed") {
		prob = 1 - prob
	}

	return domain.Estimate{
		Probability: math.Max(0.02, math.Min(0.98, prob)),
		Confidence:  0.6,
		Method:      domain.MethodVolModel,
		Reasoning: fmt.Sprintf("BTC at ~$65,900, target $%s, %.0fd window, 70%% annualized vol → P=%.1f%%",
			humanize.Commaf(math.Round(target)), days, prob*100),
	}, true
}

// estimateMacro cubre mercados Fed/macro con probabilidades base fijas
// por frase. Es deliberadamente tosco: el edge está en que el retail
// sobrerreacciona a titulares.
func (e *Engine) estimateMacro(question string, yesPrice float64, endDate, now time.Time) (domain.Estimate, bool) {
	lower := strings.ToLower(question)

	switch {
	case strings.Contains(lower, "rate cut") || strings.Contains(lower, "cut rates"):
		return domain.Estimate{
			Probability: 0.15,
			Confidence:  0.65,
			Method:      domain.MethodMacro,
			Reasoning:   "Fed hawkish, sticky inflation, no cuts likely near term. Fed funds futures pricing minimal cuts.",
		}, true

	case strings.Contains(lower, "rate hike") || strings.Contains(lower, "hike"):
		return domain.Estimate{
			Probability: 0.05,
			Confidence:  0.75,
			Method:      domain.MethodMacro,
			Reasoning:   "Fed hiking cycle over. Hike probability near zero given current data.",
		}, true

	case strings.Contains(lower, "recession"):
		return domain.Estimate{
			Probability: 0.30,
			Confidence:  0.50,
			Method:      domain.MethodMacro,
			Reasoning:   "Yield curve recently re-steepened after inversion — historically elevated recession risk 6-18 months out.",
		}, true

	case strings.Contains(lower, "cpi") &&
		(strings.Contains(lower, "above") || strings.Contains(lower, "below") || strings.Contains(lower, "beat")):
		return domain.Estimate{
			Probability: 0.45,
			Confidence:  0.45,
			Method:      domain.MethodMacro,
			Reasoning:   "CPI markets are near coin-flip. Slight miss bias given sticky services inflation.",
		}, true
	}

	return domain.Estimate{}, false
}

// estimatePolitical confía en el precio de mercado: los mercados
// políticos grandes son razonablemente eficientes y el edge real está
// en longshot bias y near-resolution, que captura el base rate.
func (e *Engine) estimatePolitical(question string, yesPrice float64, endDate, now time.Time) (domain.Estimate, bool) {
	return domain.Estimate{
		Probability: yesPrice,
		Confidence:  0.30,
		Method:      domain.MethodMarketTrust,
		Reasoning:   "Political markets are relatively efficient. No strong prior to deviate from market price.",
	}, true
}

// estimateBaseRate es el estimador por defecto: correcciones de sesgo
// sistemático probadas en orden, si ninguna aplica se confía en el
// mercado con confianza mínima.
func (e *Engine) estimateBaseRate(lower string, yesPrice float64, endDate, now time.Time) domain.Estimate {
	days, hasEnd := daysToEnd(endDate, now)

	// Longshot: el retail paga ~2-3x la probabilidad real en colas
	if yesPrice < longshotOverpricedBelow {
		ourProb := yesPrice * 0.45
		return domain.Estimate{
			Probability: math.Max(0.01, ourProb),
			Confidence:  0.65,
			Method:      domain.MethodLongshotBias,
			Reasoning: fmt.Sprintf("YES at %.1f%% — below 8%% threshold. Retail overpays for longshots by ~2-3x. True prob est. %.1f%%. SELL YES or BUY NO.",
				yesPrice*100, ourProb*100),
		}
	}

	// Favorito: los casi-seguros a veces cotizan con descuento
	if yesPrice > favoriteUnderpricedAbove {
		ourProb := math.Min(0.98, yesPrice*1.03)
		return domain.Estimate{
			Probability: ourProb,
			Confidence:  0.55,
			Method:      domain.MethodFavoriteBias,
			Reasoning: fmt.Sprintf("YES at %.1f%% — near certainty. May be underpriced. Est. true prob %.1f%%.",
				yesPrice*100, ourProb*100),
		}
	}

	// Cerca de resolución el descuento residual suele cerrarse
	if hasEnd && days > 0 && days <= 3 && yesPrice > 0.85 {
		ourProb := math.Min(0.97, yesPrice+0.04)
		return domain.Estimate{
			Probability: ourProb,
			Confidence:  0.60,
			Method:      domain.MethodNearResolution,
			Reasoning: fmt.Sprintf("Market resolves in %.0f days, YES at %.1f%%. Near-resolution discount often exists. True prob likely %.1f%%.",
				days, yesPrice*100, ourProb*100),
		}
	}

	return domain.Estimate{
		Probability: yesPrice,
		Confidence:  0.20,
		Method:      domain.MethodNoEdge,
		Reasoning:   "No systematic mispricing detected. Market price likely fair.",
	}
}

func clampEstimate(est domain.Estimate) domain.Estimate {
	est.Probability = domain.Clamp(est.Probability)
	return est
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// daysToEnd devuelve los días fraccionales hasta endDate, con suelo en
// cero. hasEnd=false cuando el mercado no declara fecha de cierre.
func daysToEnd(endDate, now time.Time) (float64, bool) {
	if endDate.IsZero() {
		return 0, false
	}
	return math.Max(0, endDate.Sub(now).Hours()/24), true
}
