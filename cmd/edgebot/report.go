package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mvaldesr/polyedge/config"
	"github.com/mvaldesr/polyedge/internal/adapters/notify"
	"github.com/mvaldesr/polyedge/internal/adapters/storage"
	"github.com/mvaldesr/polyedge/internal/domain"
	"github.com/mvaldesr/polyedge/internal/ports"
)

// runStatus imprime posiciones abiertas, calibración y bankroll sin
// arrancar el bot.
func runStatus(ctx context.Context, tracker *storage.Tracker, console *notify.Console, cfg *config.Config) {
	stats, err := tracker.Stats(ctx)
	if err != nil {
		slog.Error("failed to read tracker stats", "err", err)
		os.Exit(1)
	}
	open, err := tracker.OpenBets(ctx)
	if err != nil {
		slog.Error("failed to read open bets", "err", err)
		os.Exit(1)
	}

	var report *domain.CalibrationReport
	if r, err := tracker.CalibrationReport(ctx); err == nil {
		report = &r
	} else if !errors.Is(err, ports.ErrNoResolvedBets) {
		slog.Error("failed to build calibration report", "err", err)
		os.Exit(1)
	}

	console.PrintStatus(stats, open, report)

	state := domain.RiskState{
		BankrollUSD:     cfg.Bot.StartingBankrollUSD,
		OpenExposureUSD: float64(stats.OpenBets) * domain.HypotheticalBetUSD,
	}
	console.PrintBankroll(state, cfg.Risk.MaxTotalExposure, 0, 0)
}

// runReport imprime el informe de calibración completo.
func runReport(ctx context.Context, tracker *storage.Tracker, console *notify.Console) {
	report, err := tracker.CalibrationReport(ctx)
	if errors.Is(err, ports.ErrNoResolvedBets) {
		fmt.Println("\nNo resolved bets yet. Need 50+ for meaningful stats.")
		return
	}
	if err != nil {
		slog.Error("failed to build calibration report", "err", err)
		os.Exit(1)
	}
	console.PrintCalibration(report)
}
