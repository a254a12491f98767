package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvaldesr/polyedge/internal/adapters/notify"
	"github.com/mvaldesr/polyedge/internal/domain"
	"github.com/mvaldesr/polyedge/internal/ports"
)

func makeOpportunity(question, side, confidence string) domain.Opportunity {
	return domain.Opportunity{
		Market: domain.Market{
			ConditionID: "0xabc",
			Question:    question,
			YesPrice:    0.47,
			NoPrice:     0.53,
			Volume24h:   150000,
			EndDate:     time.Now().Add(12 * 24 * time.Hour),
		},
		ScannedAt:       time.Now(),
		OurProbability:  0.62,
		Edge:            0.15,
		EVYes:           0.148,
		EVNo:            -0.15,
		KellyYes:        0.25,
		KellyNo:         0,
		RecommendedSide: side,
		Confidence:      confidence,
		Method:          domain.MethodVolModel,
		Reasoning:       "Market underprices the chance of a close above the target.",
	}
}

func TestNotifyOpportunities_Empty(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	err := c.NotifyOpportunities(context.Background(), nil)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no opportunities found")
}

func TestNotifyOpportunities_Table(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	opps := []domain.Opportunity{
		makeOpportunity("Will BTC close above $70k on March 31?", "YES", domain.ConfidenceHigh),
		makeOpportunity("Will the Fed cut rates in June?", "NO", domain.ConfidenceMedium),
	}

	err := c.NotifyOpportunities(context.Background(), opps)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "2 opportunities | H:1 M:1 L:0")
	assert.Contains(t, out, "Will the Fed cut rates in June?")
	assert.Contains(t, out, "HIGH")
	assert.Contains(t, out, "+14.8%")
	assert.Contains(t, out, "$150,000")
	assert.Contains(t, out, domain.MethodVolModel)
}

func TestNotifyOpportunities_Compact(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	opps := []domain.Opportunity{
		makeOpportunity("Will BTC close above $70k on March 31?", "YES", domain.ConfidenceHigh),
		makeOpportunity("Will the Fed cut rates in June?", "NO", domain.ConfidenceLow),
	}

	err := c.NotifyOpportunities(context.Background(), opps)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "2 mispricings | H:1 M:0 L:1")
	assert.Contains(t, out, "ev+14.8%")
	assert.Contains(t, out, "k0.25")
}

func TestNotifyBetPlaced(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	bet := domain.TrackedBet{
		MarketID:       "0xabc",
		Question:       "Will BTC close above $70k on March 31?",
		Side:           "YES",
		MarketPrice:    0.47,
		OurProbability: 0.62,
		EV:             0.148,
		Confidence:     domain.ConfidenceHigh,
	}

	require.NoError(t, c.NotifyBetPlaced(context.Background(), bet, 18.50, false, ""))
	assert.Contains(t, buf.String(), "[PAPER BET] YES @ 47.0% | $18.50")

	buf.Reset()
	require.NoError(t, c.NotifyBetPlaced(context.Background(), bet, 18.50, true, "0xdeadbeef"))
	assert.Contains(t, buf.String(), "[LIVE BET]")
	assert.Contains(t, buf.String(), "order 0xdeadbeef")
}

func TestNotifyResolution(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	bet := domain.TrackedBet{
		Question:    "Will BTC close above $70k on March 31?",
		Side:        "YES",
		MarketPrice: 0.55,
	}

	err := c.NotifyResolution(context.Background(), bet, "YES", true, 81.82)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "WIN")
	assert.Contains(t, out, "bet YES @ 55.0%")
	assert.Contains(t, out, "$+81.82")
}

func TestPrintStatus_NoResolvedBets(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	stats := domain.TrackerStats{OpenBets: 2, TotalLogged: 2}
	open := []domain.TrackedBet{
		{Question: "Will BTC close above $70k on March 31?", Side: "YES", MarketPrice: 0.47, Confidence: domain.ConfidenceHigh},
		{Question: "Will the Fed cut rates in June?", Side: "NO", MarketPrice: 0.25, Confidence: domain.ConfidenceLow},
	}

	c.PrintStatus(stats, open, nil)

	out := buf.String()
	assert.Contains(t, out, "POLYMARKET PAPER TRACKER STATUS")
	assert.Contains(t, out, "Open positions:  2")
	assert.Contains(t, out, "No resolved bets yet. Need 50+ for meaningful stats.")
	assert.Contains(t, out, "[HIGH] YES @ 47.00%")
	assert.Contains(t, out, "Will the Fed cut rates in June?")
}

func TestPrintStatus_WithReport(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	report := &domain.CalibrationReport{
		TotalResolved: 60,
		Wins:          40,
		Losses:        20,
		WinRate:       0.6667,
		TotalPnL:      412.50,
		ROI:           6.9,
		ReadyForLive:  true,
	}

	c.PrintStatus(domain.TrackerStats{OpenBets: 0, TotalLogged: 60}, nil, report)

	out := buf.String()
	assert.Contains(t, out, "Resolved bets:   60")
	assert.Contains(t, out, "Total P&L:       $+412.50 (hypothetical $100/bet)")
	assert.Contains(t, out, "Ready for live:  ✅ YES")
	assert.NotContains(t, out, "OPEN POSITIONS")
}

func TestPrintCalibration(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	report := domain.CalibrationReport{
		TotalResolved:         4,
		Wins:                  3,
		Losses:                1,
		WinRate:               0.75,
		TotalPnL:              325,
		ROI:                   81.25,
		AvgKelly:              0.10,
		HighConfidenceCount:   2,
		HighConfidenceWinRate: 0.50,
		Buckets: []domain.BucketCalibration{
			{Bucket: 0.2, Count: 1, ActualRate: 1.0, AbsError: 0.8},
			{Bucket: 0.7, Count: 2, ActualRate: 0.5, AbsError: 0.2},
		},
	}

	c.PrintCalibration(report)

	out := buf.String()
	assert.Contains(t, out, "CALIBRATION REPORT")
	assert.Contains(t, out, "Resolved bets:   4 (3W / 1L)")
	assert.Contains(t, out, "ROI:             +81.2%")
	assert.Contains(t, out, "70%")
	assert.Contains(t, out, "❌ Not ready for live")
}

func TestPrintBankroll(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	risk := domain.RiskState{BankrollUSD: 500, OpenExposureUSD: 75}
	c.PrintBankroll(risk, 0.40, 12, 4)

	out := buf.String()
	assert.Contains(t, out, "Bankroll:    $500.00")
	assert.Contains(t, out, "Exposure:    $75.00 (15.0%)")
	assert.Contains(t, out, "Remaining:   $125.00")
	assert.Contains(t, out, "Bets placed: 4")
}

var (
	_ ports.Notifier = (*notify.Console)(nil)
	_ ports.Notifier = (*notify.Telegram)(nil)
	_ ports.Notifier = (*notify.Multi)(nil)
)
