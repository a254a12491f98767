package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvaldesr/polyedge/internal/domain"
)

func TestSizeBetApprovedScenario(t *testing.T) {
	s := NewSizer(DefaultConfig())
	state := domain.RiskState{BankrollUSD: 1000, OpenExposureUSD: 0}

	// full Kelly $100 × 25% × 100% conf = $25; techo min(50, 400, 2000)
	dec := s.SizeBet(0.10, 0.10, domain.ConfidenceHigh, 100_000, state)

	require.True(t, dec.Approved)
	assert.Equal(t, 25.00, dec.BetSizeUSD)
	assert.Equal(t, 0.25, dec.EffectiveKellyFraction)
	assert.Empty(t, dec.RejectionReason)
	assert.Equal(t, "Full Kelly: $100.00 × 25% Kelly × 100% conf = $25.00, capped at $50.00 → $25.00", dec.Reasoning)
}

func TestSizeBetRejectsLowEV(t *testing.T) {
	s := NewSizer(DefaultConfig())
	state := domain.RiskState{BankrollUSD: 1000}

	dec := s.SizeBet(0.02, 0.10, domain.ConfidenceHigh, 100_000, state)

	require.False(t, dec.Approved)
	assert.Equal(t, 0.0, dec.BetSizeUSD)
	assert.Equal(t, "EV 2.0% below minimum 4%", dec.RejectionReason)
}

func TestSizeBetRejectsLowKelly(t *testing.T) {
	s := NewSizer(DefaultConfig())
	state := domain.RiskState{BankrollUSD: 1000}

	dec := s.SizeBet(0.10, 0.015, domain.ConfidenceHigh, 100_000, state)

	require.False(t, dec.Approved)
	assert.Equal(t, "Kelly 1.5% below minimum 2%", dec.RejectionReason)
}

func TestSizeBetRejectsThinMarket(t *testing.T) {
	s := NewSizer(DefaultConfig())
	state := domain.RiskState{BankrollUSD: 1000}

	dec := s.SizeBet(0.10, 0.10, domain.ConfidenceHigh, 8_000, state)

	require.False(t, dec.Approved)
	assert.Equal(t, "Liquidity $8,000 below $10,000", dec.RejectionReason)
}

func TestSizeBetRejectsLowConfidence(t *testing.T) {
	s := NewSizer(DefaultConfig())
	state := domain.RiskState{BankrollUSD: 1000}

	dec := s.SizeBet(0.10, 0.10, domain.ConfidenceLow, 100_000, state)

	require.False(t, dec.Approved)
	assert.Contains(t, dec.RejectionReason, "Low confidence")
}

func TestSizeBetRejectsAtMaxExposure(t *testing.T) {
	s := NewSizer(DefaultConfig())
	// 40% de 1000 = 400 ya desplegados → capacidad restante 0
	state := domain.RiskState{BankrollUSD: 1000, OpenExposureUSD: 400}

	dec := s.SizeBet(0.10, 0.10, domain.ConfidenceHigh, 100_000, state)

	require.False(t, dec.Approved)
	assert.Equal(t, "Max exposure reached (40% of bankroll)", dec.RejectionReason)
}

func TestSizeBetGateOrder(t *testing.T) {
	s := NewSizer(DefaultConfig())
	state := domain.RiskState{BankrollUSD: 1000, OpenExposureUSD: 400}

	// Todo está mal a la vez; manda la primera puerta (EV)
	dec := s.SizeBet(0.01, 0.001, domain.ConfidenceLow, 100, state)

	require.False(t, dec.Approved)
	assert.Contains(t, dec.RejectionReason, "EV")
}

func TestSizeBetConfidenceMultipliers(t *testing.T) {
	s := NewSizer(DefaultConfig())
	state := domain.RiskState{BankrollUSD: 1000}

	// MEDIUM: $25 × 0.6 = $15
	dec := s.SizeBet(0.10, 0.10, domain.ConfidenceMedium, 100_000, state)
	require.True(t, dec.Approved)
	assert.Equal(t, 15.00, dec.BetSizeUSD)
	assert.InDelta(t, 0.15, dec.EffectiveKellyFraction, 1e-9)

	// Etiqueta desconocida usa el multiplicador conservador 0.5
	dec = s.SizeBet(0.10, 0.10, "UNKNOWN", 100_000, state)
	require.True(t, dec.Approved)
	assert.Equal(t, 12.50, dec.BetSizeUSD)
}

func TestSizeBetCappedByLiquidity(t *testing.T) {
	s := NewSizer(DefaultConfig())
	state := domain.RiskState{BankrollUSD: 10_000}

	// sized = 10000·0.25·0.25 = $625, pero 2% de $10k de liquidez = $200
	dec := s.SizeBet(0.10, 0.25, domain.ConfidenceHigh, 10_000, state)

	require.True(t, dec.Approved)
	assert.Equal(t, 200.00, dec.BetSizeUSD)
}

func TestSizeBetCappedByRemainingCapacity(t *testing.T) {
	s := NewSizer(DefaultConfig())
	// capacidad restante: 400 - 395 = 5
	state := domain.RiskState{BankrollUSD: 1000, OpenExposureUSD: 395}

	dec := s.SizeBet(0.10, 0.10, domain.ConfidenceHigh, 100_000, state)

	require.True(t, dec.Approved)
	assert.Equal(t, 5.00, dec.BetSizeUSD)
}

func TestSizeBetFloorsAtOneDollar(t *testing.T) {
	s := NewSizer(DefaultConfig())
	state := domain.RiskState{BankrollUSD: 100}

	// sized = 100·0.02·0.25 = $0.50 → suelo de $1
	dec := s.SizeBet(0.10, 0.02, domain.ConfidenceHigh, 100_000, state)

	require.True(t, dec.Approved)
	assert.Equal(t, 1.00, dec.BetSizeUSD)
}
