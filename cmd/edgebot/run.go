package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mvaldesr/polyedge/config"
	"github.com/mvaldesr/polyedge/internal/domain"
	"github.com/mvaldesr/polyedge/internal/monitor"
	"github.com/mvaldesr/polyedge/internal/ports"
	"github.com/mvaldesr/polyedge/internal/pricing"
	"github.com/mvaldesr/polyedge/internal/risk"
	"github.com/mvaldesr/polyedge/internal/scanner"
)

// Bot orquesta el ciclo completo: scan, refuerzo con el modelo de vol,
// sizing, registro y ejecución, con el monitor de resoluciones corriendo
// en paralelo.
type Bot struct {
	cfg  *config.Config
	live bool
	once bool

	store    ports.BetStore
	spot     ports.SpotProvider
	scanner  *scanner.Scanner
	sizer    *risk.Sizer
	monitor  *monitor.Monitor
	notifier ports.Notifier
	executor ports.TradeExecutor

	scans      int
	betsPlaced int
}

// Run ejecuta el bot hasta señal, archivo STOP o, en modo once, un solo
// ciclo. El primer scan es inmediato.
func (b *Bot) Run(ctx context.Context) error {
	if b.once {
		b.scanCycle(ctx)
		if _, err := b.monitor.CheckOnce(ctx); err != nil {
			slog.Warn("resolution check failed", "err", err)
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := b.notifier.NotifyStartup(ctx, modeName(b.live), b.cfg.Bot.StartingBankrollUSD); err != nil {
		slog.Warn("startup alert failed", "err", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.monitor.Run(ctx)
	}()

	stopFile := "STOP"
	ticker := time.NewTicker(b.cfg.ScanInterval())
	defer ticker.Stop()

	slog.Info("bot running, press Ctrl+C or create STOP file to exit",
		"scan_interval", b.cfg.ScanInterval())

	b.scanCycle(ctx)
	slog.Info("next scan scheduled", "in", b.cfg.ScanInterval())

	for {
		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received")
			wg.Wait()
			b.shutdown(context.Background())
			return nil
		case <-ticker.C:
			if _, err := os.Stat(stopFile); err == nil {
				slog.Info("STOP file detected, shutting down", "total_scans", b.scans)
				os.Remove(stopFile)
				cancel()
				continue
			}
			b.scanCycle(ctx)
			slog.Info("next scan scheduled", "in", b.cfg.ScanInterval())
		}
	}
}

// scanCycle es un ciclo completo de bot.py: estado de riesgo, spot BTC,
// scan, refuerzo, ranking y colocación de las mejores apuestas.
func (b *Bot) scanCycle(ctx context.Context) {
	b.scans++
	now := time.Now().UTC()
	slog.Info("=== scan cycle ===", "cycle", b.scans, "mode", modeName(b.live))

	state := b.riskState(ctx)
	model := pricing.NewModel(b.fetchSpot(ctx), b.cfg.Bot.Regime)

	opps, err := b.scanner.Scan(ctx, now)
	if err != nil {
		slog.Error("scan failed", "err", err)
		return
	}
	if len(opps) == 0 {
		slog.Info("no opportunities this scan, market looks efficient")
		return
	}

	b.refineWithVolModel(opps, model, now)

	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].MaxKelly() > opps[j].MaxKelly()
	})
	top := opps
	if len(top) > b.cfg.Bot.TopBetsPerScan {
		top = top[:b.cfg.Bot.TopBetsPerScan]
	}

	if err := b.notifier.NotifyOpportunities(ctx, top); err != nil {
		slog.Warn("opportunity alert failed", "err", err)
	}

	placed := 0
	for _, opp := range top {
		if b.placeBet(ctx, opp, state) {
			placed++
		}
	}
	b.betsPlaced += placed
	if placed == 0 {
		slog.Info("no bets placed this cycle, all rejected by bankroll manager")
	}
}

// riskState calcula bankroll y exposición al inicio del ciclo. La
// exposición son los bets abiertos a tamaño hipotético; en live el
// bankroll es el balance USDC real de la wallet.
func (b *Bot) riskState(ctx context.Context) domain.RiskState {
	state := domain.RiskState{BankrollUSD: b.cfg.Bot.StartingBankrollUSD}

	if b.live && b.executor != nil {
		balance, err := b.executor.Balance(ctx)
		if err != nil {
			slog.Warn("balance check failed, using configured bankroll", "err", err)
		} else {
			state.BankrollUSD = balance
		}
	}

	open, err := b.store.OpenBets(ctx)
	if err != nil {
		slog.Warn("open bets lookup failed", "err", err)
		return state
	}
	state.OpenExposureUSD = float64(len(open)) * domain.HypotheticalBetUSD
	return state
}

// fetchSpot pide el precio BTC a CoinGecko. Si falla se usa el spot de
// referencia: un ciclo con spot desfasado es mejor que uno sin modelo.
func (b *Bot) fetchSpot(ctx context.Context) float64 {
	spotCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	spot, err := b.spot.FetchBTCSpot(spotCtx)
	if err != nil {
		slog.Warn("btc spot fetch failed, using reference spot",
			"err", err, "fallback", fmt.Sprintf("$%.0f", float64(pricing.DefaultSpot)))
		return pricing.DefaultSpot
	}
	return spot
}

// refineWithVolModel re-estima los mercados de precio de BTC con el
// modelo de vol calibrado al spot del ciclo. Solo pisa probabilidad,
// edge y rationale, y solo cuando el modelo ve un edge mayor al umbral;
// EV y Kelly conservan la estimación original.
func (b *Bot) refineWithVolModel(opps []domain.Opportunity, model pricing.Model, now time.Time) {
	for i := range opps {
		m := opps[i].Market
		lower := strings.ToLower(m.Question)
		if !strings.Contains(lower, "bitcoin") && !strings.Contains(lower, "btc") {
			continue
		}
		if m.EndDate.IsZero() {
			continue
		}

		analysis, ok := model.AnalyzeMarket(m.Question, m.YesPrice, m.EndDate, now)
		if !ok {
			continue
		}
		if math.Abs(analysis.Edge) <= b.cfg.Bot.MinEV {
			continue
		}

		opps[i].OurProbability = analysis.OurProbability
		opps[i].Edge = analysis.Edge
		opps[i].Reasoning = analysis.Reasoning
		slog.Debug("vol model refined estimate",
			"market", domain.TruncateQuestion(m.Question, m.ConditionID, 50),
			"edge", fmt.Sprintf("%+.1f%%", analysis.Edge*100))
	}
}

// placeBet dimensiona y coloca una apuesta en el lado recomendado.
// Devuelve true solo si la apuesta quedó registrada en el tracker.
func (b *Bot) placeBet(ctx context.Context, opp domain.Opportunity, state domain.RiskState) bool {
	side := opp.RecommendedSide
	price := opp.Market.SidePrice(side)
	ev := opp.SideEV(side)
	kelly := opp.SideKelly(side)
	q := domain.TruncateQuestion(opp.Market.Question, opp.Market.ConditionID, 50)

	decision := b.sizer.SizeBet(ev, kelly, opp.Confidence, opp.Market.Liquidity, state)
	if !decision.Approved {
		slog.Info("skipping bet", "market", q, "reason", decision.RejectionReason)
		return false
	}

	bet := domain.TrackedBet{
		MarketID:       opp.Market.ConditionID,
		Question:       opp.Market.Question,
		Category:       opp.Market.Category,
		Side:           side,
		MarketPrice:    price,
		OurProbability: opp.OurProbability,
		EV:             ev,
		Kelly:          kelly,
		Confidence:     opp.Confidence,
		Reasoning:      opp.Reasoning,
		FlaggedAt:      opp.ScannedAt,
		EndDate:        opp.Market.EndDate,
	}

	orderID := ""
	if b.live {
		res, err := b.executor.ExecuteBet(ctx, domain.OrderRequest{
			TokenID:       opp.Market.SideTokenID(side),
			Side:          side,
			SizeUSD:       decision.BetSizeUSD,
			ExpectedPrice: price,
		})
		if err != nil {
			slog.Error("live execution failed", "market", q, "err", err)
			if alertErr := b.notifier.NotifyExecutionFailure(ctx, err.Error()); alertErr != nil {
				slog.Warn("execution failure alert failed", "err", alertErr)
			}
			return false
		}
		orderID = res.OrderID
		bet.MarketPrice = res.FilledPrice
	}

	if _, err := b.store.LogBet(ctx, bet); err != nil {
		slog.Error("failed to log bet", "market", q, "err", err)
		return false
	}

	slog.Info(betLabel(b.live),
		"side", side,
		"market", q,
		"price", fmt.Sprintf("%.1f%%", bet.MarketPrice*100),
		"size", fmt.Sprintf("$%.2f", decision.BetSizeUSD),
		"ev", fmt.Sprintf("%+.1f%%", ev*100),
	)
	if err := b.notifier.NotifyBetPlaced(ctx, bet, decision.BetSizeUSD, b.live, orderID); err != nil {
		slog.Warn("bet alert failed", "err", err)
	}
	return true
}

// shutdown manda la alerta final con el P&L hipotético acumulado.
// Recibe un contexto fresco porque el del loop ya está cancelado.
func (b *Bot) shutdown(ctx context.Context) {
	pnl := 0.0
	report, err := b.store.CalibrationReport(ctx)
	switch {
	case err == nil:
		pnl = report.TotalPnL
	case errors.Is(err, ports.ErrNoResolvedBets):
	default:
		slog.Warn("calibration report failed on shutdown", "err", err)
	}

	if err := b.notifier.NotifyShutdown(ctx, b.scans, b.betsPlaced, pnl); err != nil {
		slog.Warn("shutdown alert failed", "err", err)
	}
}

func betLabel(live bool) string {
	if live {
		return "live bet placed"
	}
	return "paper bet placed"
}
