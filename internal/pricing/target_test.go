package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTarget(t *testing.T) {
	cases := []struct {
		question string
		want     float64
		found    bool
	}{
		{"Will BTC be above $70k in 30 days?", 70_000, true},
		{"Will Bitcoin exceed $125K this year?", 125_000, true},
		{"Bitcoin above $70,000 by March 31?", 70_000, true},
		{"Will Bitcoin drop below $47K?", 47_000, true},
		{"BTC to hit 100,000 before July?", 100_000, true},
		// $20,000k escala a 20M y se descarta; el segundo patrón
		// rescata $20,000
		{"Will BTC pass $20,000k?", 20_000, true},
		// 1,000 escala justo al borde exclusivo y no hay fallback
		{"Will the token pass 1,000 holders?", 0, false},
		{"Will the Fed cut rates in September?", 0, false},
		{"Market cap above $12M?", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		got, ok := ExtractTarget(tc.question)
		assert.Equal(t, tc.found, ok, "question: %q", tc.question)
		assert.Equal(t, tc.want, got, "question: %q", tc.question)
	}
}

func TestThresholdDirection(t *testing.T) {
	assert.Equal(t, DirectionAbove, ThresholdDirection("Will BTC be above $70k?"))
	assert.Equal(t, DirectionAbove, ThresholdDirection("Will Bitcoin EXCEED $100k?"))
	assert.Equal(t, DirectionAbove, ThresholdDirection("BTC > $80,000 by June?"))
	assert.Equal(t, DirectionAbove, ThresholdDirection("higher than $90k at close?"))

	assert.Equal(t, DirectionBelow, ThresholdDirection("Will BTC dip below $60k?"))
	assert.Equal(t, DirectionBelow, ThresholdDirection("Will BTC stay under $75k?"))

	// Sin término direccional se asume below
	assert.Equal(t, DirectionBelow, ThresholdDirection("Will BTC hit $70k?"))
}

func TestAnalyzeMarketAboveSeventyK(t *testing.T) {
	m := NewModel(65_900, RegimeMixed)
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := now.Add(30 * 24 * time.Hour)

	an, ok := m.AnalyzeMarket("Will BTC be above $70k in 30 days?", 0.55, end, now)
	require.True(t, ok)

	assert.Equal(t, 70_000.0, an.Target)
	assert.Equal(t, DirectionAbove, an.Direction)
	assert.InDelta(t, 30, an.DaysToExpiry, 1e-9)
	assert.InDelta(t, 0.72, an.ImpliedVol, 1e-9)

	// P(above) ≈ N(-0.3956) = 0.3462; edge = 0.3462 - 0.55
	assert.InDelta(t, 0.3462, an.OurProbability, 0.001)
	assert.InDelta(t, -0.2038, an.Edge, 0.001)
	assert.Equal(t, 0.55, an.MarketProbability)

	// Movimiento necesario: (70000-65900)/65900 = +6.22%
	assert.InDelta(t, 6.22, an.MoveNeededPct, 0.01)

	assert.Contains(t, an.Reasoning, "BTC at $65,900")
	assert.Contains(t, an.Reasoning, "target $70,000 (above)")
	assert.Contains(t, an.Reasoning, "30d window")
	assert.Contains(t, an.Reasoning, "Vol: 72% ann")
}

func TestAnalyzeMarketBelowDirection(t *testing.T) {
	m := NewModel(65_900, RegimeMixed)
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := now.Add(30 * 24 * time.Hour)

	an, ok := m.AnalyzeMarket("Will BTC dip below $60k this month?", 0.30, end, now)
	require.True(t, ok)

	assert.Equal(t, 60_000.0, an.Target)
	assert.Equal(t, DirectionBelow, an.Direction)
	// P(below 60k) = 1 - P(above 60k) ≈ 1 - 0.6373
	assert.InDelta(t, 0.3627, an.OurProbability, 0.002)
	assert.InDelta(t, 0.0627, an.Edge, 0.002)
}

func TestAnalyzeMarketNoTarget(t *testing.T) {
	m := NewModel(65_900, RegimeMixed)
	now := time.Now()

	_, ok := m.AnalyzeMarket("Will the Fed cut rates in September?", 0.20, now.Add(24*time.Hour), now)
	assert.False(t, ok)

	// target presente pero sin fecha de cierre declarada
	_, ok = m.AnalyzeMarket("Will BTC be above $70k?", 0.55, time.Time{}, now)
	assert.False(t, ok)
}

func TestAnalyzeMarketFloorsHorizonAtOneDay(t *testing.T) {
	m := NewModel(65_900, RegimeMixed)
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	// Mercado ya expirado: el horizonte se trunca a 1d en vez de
	// degenerar en el indicador 0/1
	an, ok := m.AnalyzeMarket("Will BTC be above $70k?", 0.55, now.Add(-48*time.Hour), now)
	require.True(t, ok)
	assert.Equal(t, 1.0, an.DaysToExpiry)
	assert.Greater(t, an.OurProbability, 0.0)
	assert.Less(t, an.OurProbability, 1.0)
	assert.Positive(t, an.ImpliedVol)
}
