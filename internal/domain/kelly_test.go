package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func TestEVYes(t *testing.T) {
	assert.InDelta(t, 0.05, EVYes(0.60, 0.55), 0.0001)
	assert.InDelta(t, -0.10, EVYes(0.40, 0.50), 0.0001)
}

func TestEVNo(t *testing.T) {
	// p=0.60 → P(NO)=0.40; NO a 0.47 → EV = -0.07
	assert.InDelta(t, -0.07, EVNo(0.60, 0.47), 0.0001)
	assert.InDelta(t, 0.10, EVNo(0.40, 0.50), 0.0001)
}

func TestKellyFraction_EvenOdds(t *testing.T) {
	// price=0.50 → odds=1; f = (0.6×1 - 0.4)/1 = 0.20
	assert.InDelta(t, 0.20, KellyFraction(0.60, 0.50, MaxKellyFraction), 0.0001)
}

func TestKellyFraction_CappedAtMax(t *testing.T) {
	// f bruto = 0.8, se recorta al tope
	assert.Equal(t, 0.25, KellyFraction(0.90, 0.50, 0.25))
	// odds=3: f = (0.6×3 - 0.4)/3 = 0.4667 → tope
	assert.Equal(t, 0.25, KellyFraction(0.60, 0.25, 0.25))
}

func TestKellyFraction_NegativeEdgeIsZero(t *testing.T) {
	assert.Equal(t, 0.0, KellyFraction(0.40, 0.50, 0.25))
}

func TestKellyFraction_InvalidPrice(t *testing.T) {
	assert.Equal(t, 0.0, KellyFraction(0.60, 0, 0.25))
	assert.Equal(t, 0.0, KellyFraction(0.60, 1, 0.25))
	assert.Equal(t, 0.0, KellyFraction(0.60, 1.2, 0.25))
	assert.Equal(t, 0.0, KellyFraction(0.60, -0.1, 0.25))
}

func TestEvaluate_BothSides(t *testing.T) {
	ek := Evaluate(0.60, 0.55, 0.47)
	assert.InDelta(t, 0.05, ek.EVYes, 0.0001)
	assert.InDelta(t, -0.07, ek.EVNo, 0.0001)
	// YES: odds = 1/0.55-1 = 0.8182; f = (0.6×0.8182-0.4)/0.8182 = 0.1111
	assert.InDelta(t, 0.1111, ek.KellyYes, 0.001)
	// NO tiene EV negativo → Kelly 0
	assert.Equal(t, 0.0, ek.KellyNo)
}

func TestEvaluate_KellyNeverNegative(t *testing.T) {
	for _, p := range []float64{0.01, 0.2, 0.5, 0.8, 0.99} {
		ek := Evaluate(p, 0.55, 0.47)
		assert.GreaterOrEqual(t, ek.KellyYes, 0.0)
		assert.GreaterOrEqual(t, ek.KellyNo, 0.0)
		assert.LessOrEqual(t, ek.KellyYes, MaxKellyFraction)
		assert.LessOrEqual(t, ek.KellyNo, MaxKellyFraction)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.01, Clamp(0.001))
	assert.Equal(t, 0.01, Clamp(-0.5))
	assert.Equal(t, 0.99, Clamp(0.995))
	assert.Equal(t, 0.57, Clamp(0.57))
}

func TestConfidenceLabel(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, ConfidenceLabel(0.65))
	assert.Equal(t, ConfidenceHigh, ConfidenceLabel(0.80))
	assert.Equal(t, ConfidenceMedium, ConfidenceLabel(0.50))
	assert.Equal(t, ConfidenceMedium, ConfidenceLabel(0.64))
	assert.Equal(t, ConfidenceLow, ConfidenceLabel(0.49))
	assert.Equal(t, ConfidenceLow, ConfidenceLabel(0.20))
}

func TestOpportunity_SideHelpers(t *testing.T) {
	o := Opportunity{EVYes: 0.08, EVNo: -0.02, KellyYes: 0.12, KellyNo: 0.0}
	assert.Equal(t, 0.08, o.BestEV())
	assert.Equal(t, 0.12, o.BestKelly())
	assert.Equal(t, 0.12, o.MaxKelly())
	assert.Equal(t, 0.08, o.SideEV(OutcomeYes))
	assert.Equal(t, -0.02, o.SideEV(OutcomeNo))
	assert.Equal(t, 0.12, o.SideKelly(OutcomeYes))
}

func TestMarket_SpreadAndDays(t *testing.T) {
	m := Market{YesPrice: 0.72, NoPrice: 0.32}
	assert.InDelta(t, 0.04, m.Spread(), 0.0001)
	assert.Equal(t, 0.72, m.ImpliedProb())

	// sin end date → 0 días
	assert.Equal(t, 0.0, m.DaysToEnd(mustTime(t, "2026-03-01T00:00:00Z")))

	m.EndDate = mustTime(t, "2026-03-31T00:00:00Z")
	assert.InDelta(t, 30.0, m.DaysToEnd(mustTime(t, "2026-03-01T00:00:00Z")), 0.001)

	// end date en el pasado → 0, no negativo
	assert.Equal(t, 0.0, m.DaysToEnd(mustTime(t, "2026-04-15T00:00:00Z")))
}

func TestMarket_Validate(t *testing.T) {
	valid := Market{ConditionID: "0xabc", Question: "Will it rain?", YesPrice: 0.5, NoPrice: 0.5}
	assert.NoError(t, valid.Validate())

	assert.Error(t, Market{}.Validate())
	assert.Error(t, Market{ConditionID: "x", Question: "q", YesPrice: 1.5, NoPrice: 0.5}.Validate())
	assert.Error(t, Market{ConditionID: "x", Question: "q", YesPrice: 0.5, NoPrice: -0.1}.Validate())
	assert.Error(t, Market{ConditionID: "x", Question: "q", YesPrice: 0.5, NoPrice: 0.5, Liquidity: -1}.Validate())
}

func TestRiskState_RemainingCapacity(t *testing.T) {
	rs := RiskState{BankrollUSD: 1000, OpenExposureUSD: 150}
	assert.InDelta(t, 250.0, rs.RemainingCapacity(0.40), 0.0001)

	full := RiskState{BankrollUSD: 1000, OpenExposureUSD: 400}
	assert.InDelta(t, 0.0, full.RemainingCapacity(0.40), 0.0001)
}
