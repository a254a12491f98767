package notify

import (
	"context"
	"log/slog"

	"github.com/mvaldesr/polyedge/internal/domain"
	"github.com/mvaldesr/polyedge/internal/ports"
)

// Multi reparte cada aviso entre varios notifiers. Un fallo se loguea
// y no corta ni el resto de notifiers ni el ciclo del bot.
type Multi struct {
	notifiers []ports.Notifier
}

// NewMulti agrupa los notifiers dados en uno solo.
func NewMulti(notifiers ...ports.Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (m *Multi) NotifyStartup(ctx context.Context, mode string, bankrollUSD float64) error {
	m.each("startup", func(n ports.Notifier) error {
		return n.NotifyStartup(ctx, mode, bankrollUSD)
	})
	return nil
}

func (m *Multi) NotifyShutdown(ctx context.Context, scans, betsPlaced int, totalPnL float64) error {
	m.each("shutdown", func(n ports.Notifier) error {
		return n.NotifyShutdown(ctx, scans, betsPlaced, totalPnL)
	})
	return nil
}

func (m *Multi) NotifyOpportunities(ctx context.Context, opportunities []domain.Opportunity) error {
	m.each("opportunities", func(n ports.Notifier) error {
		return n.NotifyOpportunities(ctx, opportunities)
	})
	return nil
}

func (m *Multi) NotifyBetPlaced(ctx context.Context, bet domain.TrackedBet, sizeUSD float64, live bool, orderID string) error {
	m.each("bet_placed", func(n ports.Notifier) error {
		return n.NotifyBetPlaced(ctx, bet, sizeUSD, live, orderID)
	})
	return nil
}

func (m *Multi) NotifyExecutionFailure(ctx context.Context, reason string) error {
	m.each("execution_failure", func(n ports.Notifier) error {
		return n.NotifyExecutionFailure(ctx, reason)
	})
	return nil
}

func (m *Multi) NotifyResolution(ctx context.Context, bet domain.TrackedBet, outcome string, won bool, pnl float64) error {
	m.each("resolution", func(n ports.Notifier) error {
		return n.NotifyResolution(ctx, bet, outcome, won, pnl)
	})
	return nil
}

func (m *Multi) NotifyCalibration(ctx context.Context, report domain.CalibrationReport) error {
	m.each("calibration", func(n ports.Notifier) error {
		return n.NotifyCalibration(ctx, report)
	})
	return nil
}

func (m *Multi) each(event string, fn func(ports.Notifier) error) {
	for _, n := range m.notifiers {
		if err := fn(n); err != nil {
			slog.Warn("notifier failed", "event", event, "err", err)
		}
	}
}
