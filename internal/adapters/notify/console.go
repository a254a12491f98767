package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/mvaldesr/polyedge/internal/domain"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyStartup imprime el arranque con modo y bankroll.
func (c *Console) NotifyStartup(_ context.Context, mode string, bankrollUSD float64) error {
	fmt.Fprintf(c.out, "[%s] bot started | mode %s | bankroll $%.2f\n",
		time.Now().Format("15:04:05"), mode, bankrollUSD)
	return nil
}

// NotifyShutdown imprime el resumen de la sesión al parar.
func (c *Console) NotifyShutdown(_ context.Context, scans, betsPlaced int, totalPnL float64) error {
	fmt.Fprintf(c.out, "[%s] bot stopped | scans %d | bets %d | hypothetical pnl $%+.2f\n",
		time.Now().Format("15:04:05"), scans, betsPlaced, totalPnL)
	return nil
}

// NotifyOpportunities imprime el resultado del scan en el modo configurado.
func (c *Console) NotifyOpportunities(_ context.Context, opportunities []domain.Opportunity) error {
	if len(opportunities) == 0 {
		fmt.Fprintf(c.out, "[%s] no opportunities found\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(opportunities)
	} else {
		c.printCompact(opportunities)
	}

	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(opps []domain.Opportunity) {
	now := time.Now().Format("15:04:05")
	high, medium, low := countByConfidence(opps)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d mispricings | H:%d M:%d L:%d", now, len(opps), high, medium, low)

	shown := 0
	for _, opp := range opps {
		if shown >= 4 {
			break
		}
		name := compactName(opp.Market.Question, 25)
		fmt.Fprintf(&sb, " | %s %s %s ev%+.1f%% k%.2f",
			confidenceIcon(opp.Confidence), opp.RecommendedSide, name,
			opp.BestEV()*100, opp.BestKelly())
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa con el razonamiento del top 3.
func (c *Console) printFull(opps []domain.Opportunity) {
	now := time.Now().Format("15:04:05")
	high, medium, low := countByConfidence(opps)

	fmt.Fprintf(c.out, "\n[%s] %d opportunities | H:%d M:%d L:%d\n", now, len(opps), high, medium, low)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Conf", "Side", "Market", "Mkt", "Ours", "Edge", "EV", "Kelly", "Vol24h", "Ends")

	for i, opp := range opps {
		m := opp.Market
		table.Append(
			fmt.Sprintf("%d", i+1),
			opp.Confidence,
			opp.RecommendedSide,
			domain.TruncateQuestion(m.Question, m.ConditionID, 38),
			fmt.Sprintf("%.0f%%", m.YesPrice*100),
			fmt.Sprintf("%.0f%%", opp.OurProbability*100),
			fmt.Sprintf("%+.1f%%", opp.Edge*100),
			fmt.Sprintf("%+.1f%%", opp.BestEV()*100),
			fmt.Sprintf("%.1f%%", opp.BestKelly()*100),
			"$"+humanize.Comma(int64(m.Volume24h)),
			endDateLabel(m),
		)
	}

	table.Render()

	fmt.Fprintln(c.out, "  Mkt = precio YES | Ours = nuestra probabilidad | EV y Kelly del lado recomendado")

	for i, opp := range opps {
		if i >= 3 {
			break
		}
		fmt.Fprintf(c.out, "  #%d [%s] %s\n", i+1, opp.Method, opp.Reasoning)
	}
	fmt.Fprintln(c.out)
}

// NotifyBetPlaced imprime una apuesta registrada o ejecutada.
func (c *Console) NotifyBetPlaced(_ context.Context, bet domain.TrackedBet, sizeUSD float64, live bool, orderID string) error {
	now := time.Now().Format("15:04:05")
	label := "PAPER BET"
	if live {
		label = "LIVE BET"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s][%s] %s @ %.1f%% | $%.2f | prob %.1f%% ev %+.1f%% [%s] | %s",
		now, label, bet.Side, bet.MarketPrice*100, sizeUSD,
		bet.OurProbability*100, bet.EV*100, bet.Confidence,
		compactName(bet.Question, 45))
	if orderID != "" {
		fmt.Fprintf(&sb, " | order %s", orderID)
	}

	fmt.Fprintln(c.out, sb.String())
	return nil
}

// NotifyExecutionFailure imprime una orden live fallida.
func (c *Console) NotifyExecutionFailure(_ context.Context, reason string) error {
	fmt.Fprintf(c.out, "[%s] !! execution failed: %s\n", time.Now().Format("15:04:05"), reason)
	return nil
}

// NotifyResolution imprime la resolución de una posición.
func (c *Console) NotifyResolution(_ context.Context, bet domain.TrackedBet, outcome string, won bool, pnl float64) error {
	result := "LOSS"
	if won {
		result = "WIN"
	}
	fmt.Fprintf(c.out, "[%s][RESOLVED] %s | bet %s @ %.1f%% | outcome %s | pnl $%+.2f | %s\n",
		time.Now().Format("15:04:05"), result, bet.Side, bet.MarketPrice*100,
		outcome, pnl, compactName(bet.Question, 45))
	return nil
}

// NotifyCalibration imprime el informe de calibración completo.
func (c *Console) NotifyCalibration(_ context.Context, report domain.CalibrationReport) error {
	c.PrintCalibration(report)
	return nil
}

// PrintCalibration imprime el informe de calibración con la tabla de
// buckets. Es el output del modo --report de la CLI.
func (c *Console) PrintCalibration(report domain.CalibrationReport) {
	fmt.Fprintf(c.out, "\n")
	fmt.Fprintf(c.out, "========================================================\n")
	fmt.Fprintf(c.out, "  CALIBRATION REPORT (hypothetical $%.0f/bet)\n", domain.HypotheticalBetUSD)
	fmt.Fprintf(c.out, "========================================================\n\n")

	fmt.Fprintf(c.out, "  Resolved bets:   %d (%dW / %dL)\n", report.TotalResolved, report.Wins, report.Losses)
	fmt.Fprintf(c.out, "  Win rate:        %.1f%%\n", report.WinRate*100)
	fmt.Fprintf(c.out, "  Total P&L:       $%+.2f\n", report.TotalPnL)
	fmt.Fprintf(c.out, "  ROI:             %+.1f%%\n", report.ROI)
	fmt.Fprintf(c.out, "  Avg Kelly:       %.3f\n", report.AvgKelly)
	fmt.Fprintf(c.out, "  High conf WR:    %.1f%% (%d bets)\n",
		report.HighConfidenceWinRate*100, report.HighConfidenceCount)

	if len(report.Buckets) > 0 {
		fmt.Fprintln(c.out)
		tbl := tablewriter.NewWriter(c.out)
		tbl.Header("Bucket", "Bets", "Actual", "Error")
		for _, b := range report.Buckets {
			tbl.Append(
				fmt.Sprintf("%.0f%%", b.Bucket*100),
				fmt.Sprintf("%d", b.Count),
				fmt.Sprintf("%.0f%%", b.ActualRate*100),
				fmt.Sprintf("%.2f", b.AbsError),
			)
		}
		tbl.Render()
		fmt.Fprintln(c.out, "  Bucket = prob estimada redondeada a 0.1 | Actual = frecuencia real de aciertos")
	}

	fmt.Fprintln(c.out)
	if report.ReadyForLive {
		fmt.Fprintln(c.out, "  ✅ READY FOR LIVE: 50+ resolved bets with positive P&L.")
	} else {
		fmt.Fprintln(c.out, "  ❌ Not ready for live. Need 50+ resolved bets and positive P&L.")
	}
	fmt.Fprintln(c.out)
}

// PrintStatus imprime el panel de estado del tracker. Es el output del
// modo --status de la CLI. report puede ser nil si no hay bets resueltos.
func (c *Console) PrintStatus(stats domain.TrackerStats, open []domain.TrackedBet, report *domain.CalibrationReport) {
	banner := strings.Repeat("=", 60)

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, banner)
	fmt.Fprintln(c.out, "  POLYMARKET PAPER TRACKER STATUS")
	fmt.Fprintln(c.out, banner)
	fmt.Fprintf(c.out, "  Open positions:  %d\n", stats.OpenBets)
	fmt.Fprintf(c.out, "  Tracked total:   %d\n", stats.TotalLogged)

	if report != nil {
		fmt.Fprintf(c.out, "  Resolved bets:   %d\n", report.TotalResolved)
		fmt.Fprintf(c.out, "  Win rate:        %.1f%%\n", report.WinRate*100)
		fmt.Fprintf(c.out, "  Total P&L:       $%+.2f (hypothetical $100/bet)\n", report.TotalPnL)
		fmt.Fprintf(c.out, "  ROI:             %+.1f%%\n", report.ROI)
		fmt.Fprintf(c.out, "  High conf WR:    %.1f%%\n", report.HighConfidenceWinRate*100)
		ready := "❌ Not yet"
		if report.ReadyForLive {
			ready = "✅ YES"
		}
		fmt.Fprintf(c.out, "  Ready for live:  %s\n", ready)
	} else {
		fmt.Fprintln(c.out, "  No resolved bets yet. Need 50+ for meaningful stats.")
	}

	if len(open) > 0 {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "  OPEN POSITIONS:")
		for i, b := range open {
			if i >= 10 {
				break
			}
			fmt.Fprintf(c.out, "  [%s] %s @ %.2f%% — %s\n",
				b.Confidence, b.Side, b.MarketPrice*100,
				domain.TruncateQuestion(b.Question, b.MarketID, 55))
		}
	}

	fmt.Fprintln(c.out, banner)
	fmt.Fprintln(c.out)
}

// PrintBankroll imprime el bloque de bankroll que acompaña al panel de
// estado.
func (c *Console) PrintBankroll(risk domain.RiskState, maxTotalExposurePct float64, scans, betsPlaced int) {
	exposurePct := 0.0
	if risk.BankrollUSD > 0 {
		exposurePct = risk.OpenExposureUSD / risk.BankrollUSD
	}

	fmt.Fprintf(c.out, "\n  Bankroll:    $%.2f\n", risk.BankrollUSD)
	fmt.Fprintf(c.out, "  Exposure:    $%.2f (%.1f%%)\n", risk.OpenExposureUSD, exposurePct*100)
	fmt.Fprintf(c.out, "  Remaining:   $%.2f\n", risk.RemainingCapacity(maxTotalExposurePct))
	fmt.Fprintf(c.out, "  Scan count:  %d\n", scans)
	fmt.Fprintf(c.out, "  Bets placed: %d\n", betsPlaced)
}

// --- helpers ---

func countByConfidence(opps []domain.Opportunity) (high, medium, low int) {
	for _, o := range opps {
		switch o.Confidence {
		case domain.ConfidenceHigh:
			high++
		case domain.ConfidenceMedium:
			medium++
		default:
			low++
		}
	}
	return
}

func confidenceIcon(confidence string) string {
	switch confidence {
	case domain.ConfidenceHigh:
		return "🔴"
	case domain.ConfidenceMedium:
		return "🟡"
	default:
		return "⚪"
	}
}

func endDateLabel(m domain.Market) string {
	if m.EndDate.IsZero() {
		return "-"
	}
	days := m.DaysToEnd(time.Now())
	if days < 2 {
		return fmt.Sprintf("%s (!%.0fh)", m.EndDate.Format("01-02"), days*24)
	}
	return m.EndDate.Format("2006-01-02")
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
