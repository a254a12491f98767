package pricing

// vol.go — modelo de opción binaria log-normal para mercados de precio BTC.
//
// P(BTC > target | spot, days, vol) = N(d2)
//
//	d2 = [ln(S/K) + (μ - σ²/2)·T] / (σ√T)
//	S = precio spot actual
//	K = precio objetivo
//	T = tiempo a expiración en años
//	σ = volatilidad anualizada (term structure interpolada × régimen)
//	μ = drift (0 por defecto, conservador)

import (
	"math"
	"sort"
	"strings"
)

// DefaultSpot es el spot BTC de referencia cuando no hay precio live.
const DefaultSpot = 65_900

// Regímenes de mercado. Escalan la volatilidad del term structure.
const (
	RegimeCooperation = "cooperation" // mercado en tendencia, vol realizada algo menor
	RegimeMixed       = "mixed"       // normal
	RegimeDefection   = "defection"   // alta vol, cascadas de liquidación
)

// Term structure de vol BTC anualizada, calibrada a vol histórica realizada
// más la prima típica de vol implícita.
var volTermStructure = map[float64]float64{
	7:   0.85,
	14:  0.80,
	30:  0.72,
	60:  0.68,
	90:  0.65,
	180: 0.60,
	365: 0.55,
	730: 0.50,
}

var regimeVolAdjustments = map[string]float64{
	RegimeCooperation: 0.90,
	RegimeMixed:       1.00,
	RegimeDefection:   1.20,
}

// Model es el pricer de opciones binarias sobre el precio de BTC.
type Model struct {
	Spot   float64 // precio BTC actual
	Regime string  // cooperation | mixed | defection
	Drift  float64 // drift anual; 0 = conservador
}

// NewModel crea un Model con defaults razonables para spot y régimen vacíos.
func NewModel(spot float64, regime string) Model {
	if spot <= 0 {
		spot = DefaultSpot
	}
	if regime == "" {
		regime = RegimeMixed
	}
	return Model{Spot: spot, Regime: regime}
}

// Vol devuelve la volatilidad anualizada interpolada para el horizonte dado,
// escalada por el régimen actual. Fuera de los extremos del term structure
// se fija al valor del extremo.
func (m Model) Vol(days float64) float64 {
	if days <= 0 {
		return 0.85
	}

	keys := make([]float64, 0, len(volTermStructure))
	for k := range volTermStructure {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	var base float64
	switch {
	case days <= keys[0]:
		base = volTermStructure[keys[0]]
	case days >= keys[len(keys)-1]:
		base = volTermStructure[keys[len(keys)-1]]
	default:
		var lower, upper float64
		for _, k := range keys {
			if k <= days {
				lower = k
			}
		}
		for i := len(keys) - 1; i >= 0; i-- {
			if keys[i] >= days {
				upper = keys[i]
			}
		}
		if lower == upper {
			base = volTermStructure[lower]
		} else {
			t := (days - lower) / (upper - lower)
			base = volTermStructure[lower]*(1-t) + volTermStructure[upper]*t
		}
	}

	adj, ok := regimeVolAdjustments[strings.ToLower(m.Regime)]
	if !ok {
		adj = 1.0
	}
	return base * adj
}

// PriceResult es el resultado de valorar una opción binaria.
type PriceResult struct {
	ProbAbove       float64 // P(precio > target), clamped a [0.01, 0.99]
	ProbBelow       float64 // P(precio < target), clamped independientemente
	ImpliedVol      float64 // vol usada
	DaysToExpiry    float64
	Spot            float64
	Target          float64
	LogReturnNeeded float64 // movimiento log necesario para tocar el target
	ZScore          float64 // d2
}

// PriceAboveTarget devuelve P(BTC > target) a expiración.
// Con days ≤ 0 el resultado es el indicador determinista (1 o 0) con vol=0, z=0.
// ProbAbove y ProbBelow se recortan a [0.01, 0.99] por separado: en los
// extremos su suma puede no ser exactamente 1. Es el comportamiento buscado,
// no un redondeo a corregir.
func (m Model) PriceAboveTarget(target, days float64) PriceResult {
	s := m.Spot
	k := target
	t := days / 365.0

	if t <= 0 {
		prob := 0.0
		if s > k {
			prob = 1.0
		}
		return PriceResult{
			ProbAbove: prob,
			ProbBelow: 1 - prob,
			Spot:      s,
			Target:    k,
		}
	}

	vol := m.Vol(days)
	volT := vol * math.Sqrt(t)

	logReturn := math.Log(k / s)
	d2 := (math.Log(s/k) + (m.Drift-0.5*vol*vol)*t) / volT

	probAbove := NormCDF(d2)
	probBelow := 1.0 - probAbove

	return PriceResult{
		ProbAbove:       clamp01(probAbove),
		ProbBelow:       clamp01(probBelow),
		ImpliedVol:      vol,
		DaysToExpiry:    days,
		Spot:            s,
		Target:          k,
		LogReturnNeeded: logReturn,
		ZScore:          d2,
	}
}

// PriceBetween devuelve P(lower < BTC < upper) a expiración.
func (m Model) PriceBetween(lower, upper, days float64) float64 {
	pAboveLower := m.PriceAboveTarget(lower, days).ProbAbove
	pAboveUpper := m.PriceAboveTarget(upper, days).ProbAbove
	return math.Max(0.01, pAboveLower-pAboveUpper)
}

// NormCDF es la función de distribución acumulada normal estándar.
// Aproximación racional de Abramowitz & Stegun 7.1.26 vía erf:
// error máximo ~1.5e-7, suficiente para pricing de binarias.
func NormCDF(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}

	z := x / math.Sqrt2
	t := 1.0 / (1.0 + 0.3275911*z)
	poly := t * (0.254829592 + t*(-0.284496736+t*(1.421413741+t*(-1.453152027+t*1.061405429))))
	y := 1.0 - poly*math.Exp(-z*z)

	return 0.5 * (1.0 + sign*y)
}

// clamp01 recorta una probabilidad al rango operativo [0.01, 0.99].
func clamp01(p float64) float64 {
	return math.Max(0.01, math.Min(0.99, p))
}
