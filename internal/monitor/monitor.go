// Package monitor vigila los bets abiertos del tracker y los resuelve
// cuando su mercado cierra en Polymarket.
//
// El ciclo corre en paralelo al scanner con su propio intervalo. Cada
// pasada consulta la resolución de los mercados con bets abiertos,
// liquida las filas afectadas y notifica el resultado. Un fallo en un
// mercado no aborta la pasada: se loguea y se sigue con el resto.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mvaldesr/polyedge/internal/domain"
	"github.com/mvaldesr/polyedge/internal/ports"
)

// Config controla el ciclo del monitor.
type Config struct {
	Interval     time.Duration `yaml:"interval"`
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// DefaultConfig devuelve la configuración por defecto del monitor.
func DefaultConfig() Config {
	return Config{
		Interval:     5 * time.Minute,
		CheckTimeout: 10 * time.Second,
	}
}

// Monitor resuelve bets abiertos contra el estado real de sus mercados.
type Monitor struct {
	store    ports.BetStore
	provider ports.MarketProvider
	notifier ports.Notifier
	cfg      Config
}

func New(store ports.BetStore, provider ports.MarketProvider, notifier ports.Notifier, cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = DefaultConfig().CheckTimeout
	}
	return &Monitor{store: store, provider: provider, notifier: notifier, cfg: cfg}
}

// CheckResult resume una pasada del monitor.
type CheckResult struct {
	OpenBets       int
	MarketsChecked int
	Resolved       []domain.ResolvedBet
}

// Run ejecuta pasadas periódicas hasta que el contexto se cancele.
// La primera pasada es inmediata.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor stopped")
			return
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

func (m *Monitor) runCycle(ctx context.Context) {
	result, err := m.CheckOnce(ctx)
	if err != nil {
		slog.Error("monitor cycle failed", "err", err)
		return
	}
	if len(result.Resolved) > 0 {
		slog.Info("monitor cycle complete",
			"open_bets", result.OpenBets,
			"markets_checked", result.MarketsChecked,
			"resolved", len(result.Resolved),
		)
	}
}

// CheckOnce ejecuta una pasada: para cada mercado con bets abiertos,
// consulta si resolvió y en ese caso liquida todas sus filas.
func (m *Monitor) CheckOnce(ctx context.Context) (CheckResult, error) {
	bets, err := m.store.OpenBets(ctx)
	if err != nil {
		return CheckResult{}, fmt.Errorf("monitor.CheckOnce: open bets: %w", err)
	}

	result := CheckResult{OpenBets: len(bets)}
	if len(bets) == 0 {
		return result, nil
	}
	slog.Debug("checking open bets for resolution", "count", len(bets))

	// Varias filas pueden compartir mercado (lado YES y NO); una sola
	// consulta por mercado basta porque ResolveMarket liquida todas.
	seen := make(map[string]bool, len(bets))
	for _, bet := range bets {
		if seen[bet.MarketID] {
			continue
		}
		seen[bet.MarketID] = true
		result.MarketsChecked++

		resolved := m.settleMarket(ctx, bet.MarketID)
		result.Resolved = append(result.Resolved, resolved...)
	}

	if len(result.Resolved) > 0 {
		m.maybeSendCalibrationDigest(ctx)
	}
	return result, nil
}

// settleMarket consulta la resolución de un mercado y liquida sus filas.
// Devuelve las filas resueltas; en cualquier error devuelve nil tras loguearlo.
func (m *Monitor) settleMarket(ctx context.Context, marketID string) []domain.ResolvedBet {
	checkCtx, cancel := context.WithTimeout(ctx, m.cfg.CheckTimeout)
	res, err := m.provider.CheckResolution(checkCtx, marketID)
	cancel()
	if err != nil {
		slog.Warn("monitor: resolution check failed", "market_id", marketID, "err", err)
		return nil
	}
	if !res.Resolved {
		return nil
	}

	outcome := strings.ToUpper(res.Outcome)
	if outcome != domain.OutcomeYes && outcome != domain.OutcomeNo {
		// cerrado pero sin outcome binario todavía (disputa, multi-outcome)
		slog.Debug("monitor: market closed without binary outcome",
			"market_id", marketID, "outcome", res.Outcome)
		return nil
	}

	resolved, err := m.store.ResolveMarket(ctx, marketID, outcome, domain.HypotheticalBetUSD)
	if err != nil {
		slog.Warn("monitor: resolve failed", "market_id", marketID, "err", err)
		return nil
	}

	for _, rb := range resolved {
		slog.Info("bet resolved",
			"market_id", marketID,
			"side", rb.Bet.Side,
			"outcome", outcome,
			"won", rb.Won,
			"pnl", fmt.Sprintf("$%.2f", rb.PnL),
		)
		if err := m.notifier.NotifyResolution(ctx, rb.Bet, outcome, rb.Won, rb.PnL); err != nil {
			slog.Warn("monitor: resolution alert failed", "err", err)
		}
	}
	return resolved
}

// maybeSendCalibrationDigest manda el reporte de calibración cada 10
// bets resueltos acumulados.
func (m *Monitor) maybeSendCalibrationDigest(ctx context.Context) {
	report, err := m.store.CalibrationReport(ctx)
	if err != nil {
		slog.Warn("monitor: calibration report failed", "err", err)
		return
	}
	if report.TotalResolved%10 != 0 {
		return
	}
	if err := m.notifier.NotifyCalibration(ctx, report); err != nil {
		slog.Warn("monitor: calibration alert failed", "err", err)
	}
}
