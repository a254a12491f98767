package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolTermStructureInterpolation(t *testing.T) {
	m := NewModel(65_900, RegimeMixed)

	// Horizontes exactos del term structure
	assert.InDelta(t, 0.72, m.Vol(30), 1e-9)
	assert.InDelta(t, 0.55, m.Vol(365), 1e-9)

	// 45d es el punto medio entre 30d (0.72) y 60d (0.68) → 0.70
	assert.InDelta(t, 0.70, m.Vol(45), 1e-9)

	// 21d: t = (21-14)/(30-14) = 0.4375 → 0.80 - 0.4375·0.08 = 0.765
	assert.InDelta(t, 0.765, m.Vol(21), 1e-9)

	// Fuera de rango se fija al extremo
	assert.InDelta(t, 0.85, m.Vol(5), 1e-9)
	assert.InDelta(t, 0.85, m.Vol(0), 1e-9)
	assert.InDelta(t, 0.50, m.Vol(1000), 1e-9)
}

func TestVolStrictlyBetweenNeighbors(t *testing.T) {
	m := NewModel(65_900, RegimeMixed)

	v45 := m.Vol(45)
	assert.Less(t, v45, m.Vol(30))
	assert.Greater(t, v45, m.Vol(60))
}

func TestVolRegimeScaling(t *testing.T) {
	defection := NewModel(65_900, RegimeDefection)
	cooperation := NewModel(65_900, RegimeCooperation)

	// 30d base 0.72: defection ×1.20 = 0.864, cooperation ×0.90 = 0.648
	assert.InDelta(t, 0.864, defection.Vol(30), 1e-9)
	assert.InDelta(t, 0.648, cooperation.Vol(30), 1e-9)

	// Régimen desconocido no escala; el lookup ignora mayúsculas
	unknown := NewModel(65_900, "sideways")
	assert.InDelta(t, 0.72, unknown.Vol(30), 1e-9)
	upper := NewModel(65_900, "DEFECTION")
	assert.InDelta(t, 0.864, upper.Vol(30), 1e-9)
}

func TestNormCDFKnownValues(t *testing.T) {
	// Valores de tabla de la normal estándar; la aproximación racional
	// tiene error máximo ~1.5e-7.
	assert.InDelta(t, 0.5, NormCDF(0), 1e-6)
	assert.InDelta(t, 0.6914625, NormCDF(0.5), 1e-6)
	assert.InDelta(t, 0.8413447, NormCDF(1.0), 1e-6)
	assert.InDelta(t, 0.9750021, NormCDF(1.96), 1e-6)
	assert.InDelta(t, 0.9937903, NormCDF(2.5), 1e-6)
	assert.InDelta(t, 0.0249979, NormCDF(-1.96), 1e-6)
}

func TestNormCDFSymmetryAndMonotonicity(t *testing.T) {
	xs := []float64{0.1, 0.5, 1, 1.5, 2, 3}
	for _, x := range xs {
		assert.InDelta(t, 1.0, NormCDF(x)+NormCDF(-x), 1e-12, "x=%v", x)
	}

	prev := NormCDF(-4)
	for x := -3.5; x <= 4; x += 0.5 {
		cur := NormCDF(x)
		assert.Greater(t, cur, prev, "x=%v", x)
		prev = cur
	}
}

func TestPriceAtTheMoney(t *testing.T) {
	m := NewModel(65_900, RegimeMixed)
	res := m.PriceAboveTarget(65_900, 30)

	// ATM con drift 0: d2 = -0.5·σ√T < 0, así que P(above) queda algo
	// por debajo de 0.5. σ√T = 0.72·√(30/365) = 0.20642 → d2 = -0.10321
	assert.Less(t, res.ProbAbove, 0.5)
	assert.InDelta(t, 0.4589, res.ProbAbove, 0.001)
	assert.InDelta(t, 1.0, res.ProbAbove+res.ProbBelow, 1e-12)
	assert.InDelta(t, -0.10321, res.ZScore, 0.0001)
}

func TestPriceExpiredIsIndicator(t *testing.T) {
	m := NewModel(66_000, RegimeMixed)

	res := m.PriceAboveTarget(65_000, 0)
	assert.Equal(t, 1.0, res.ProbAbove)
	assert.Equal(t, 0.0, res.ProbBelow)
	assert.Equal(t, 0.0, res.ImpliedVol)
	assert.Equal(t, 0.0, res.ZScore)

	res = m.PriceAboveTarget(70_000, -3)
	assert.Equal(t, 0.0, res.ProbAbove)
	assert.Equal(t, 1.0, res.ProbBelow)

	// spot == target no cuenta como "above"
	res = m.PriceAboveTarget(66_000, 0)
	assert.Equal(t, 0.0, res.ProbAbove)
}

func TestPriceClampsEachSideIndependently(t *testing.T) {
	m := NewModel(65_900, RegimeMixed)

	// Target muy por debajo del spot: prob cruda ≈ 1 → clamp a 0.99/0.01
	deep := m.PriceAboveTarget(20_000, 30)
	assert.Equal(t, 0.99, deep.ProbAbove)
	assert.Equal(t, 0.01, deep.ProbBelow)

	// Target inalcanzable por arriba
	far := m.PriceAboveTarget(500_000, 30)
	assert.Equal(t, 0.01, far.ProbAbove)
	assert.Equal(t, 0.99, far.ProbBelow)
}

func TestPriceAboveSeventyK(t *testing.T) {
	m := NewModel(65_900, RegimeMixed)
	res := m.PriceAboveTarget(70_000, 30)

	// d2 = (ln(65900/70000) - 0.5·0.72²·(30/365)) / (0.72·√(30/365))
	//    = (-0.060357 - 0.021304) / 0.206418 = -0.39561
	require.InDelta(t, -0.3956, res.ZScore, 0.001)
	assert.InDelta(t, 0.3462, res.ProbAbove, 0.001)
	assert.InDelta(t, 0.6538, res.ProbBelow, 0.001)
	assert.InDelta(t, 0.72, res.ImpliedVol, 1e-9)
	assert.InDelta(t, 0.0604, res.LogReturnNeeded, 0.0005)
	assert.Equal(t, 30.0, res.DaysToExpiry)
	assert.Equal(t, 65_900.0, res.Spot)
	assert.Equal(t, 70_000.0, res.Target)
}

func TestPriceBetween(t *testing.T) {
	m := NewModel(65_900, RegimeMixed)

	// P(60k < BTC < 70k) = P(>60k) - P(>70k) ≈ 0.6373 - 0.3462
	p := m.PriceBetween(60_000, 70_000, 30)
	assert.InDelta(t, 0.2911, p, 0.005)

	// Rango invertido queda en el suelo de 0.01
	assert.Equal(t, 0.01, m.PriceBetween(70_000, 60_000, 30))
}

func TestPositiveDriftRaisesProbAbove(t *testing.T) {
	flat := Model{Spot: 65_900, Regime: RegimeMixed}
	bull := Model{Spot: 65_900, Regime: RegimeMixed, Drift: 0.10}

	assert.Greater(t,
		bull.PriceAboveTarget(65_900, 30).ProbAbove,
		flat.PriceAboveTarget(65_900, 30).ProbAbove,
	)
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(0, "")
	assert.Equal(t, float64(DefaultSpot), m.Spot)
	assert.Equal(t, RegimeMixed, m.Regime)
	assert.Equal(t, 0.0, m.Drift)
}
